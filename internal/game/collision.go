package game

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"

	"x-tanks/internal/physics"
)

// CollisionKind тип доменного события коллизии
type CollisionKind string

const (
	CollisionProjectileTank     CollisionKind = "projectile-hit-tank"
	CollisionProjectileObstacle CollisionKind = "projectile-hit-obstacle"
	CollisionProjectileGround   CollisionKind = "projectile-hit-ground"
	CollisionTankObstacle       CollisionKind = "tank-hit-obstacle"
	CollisionTankGround         CollisionKind = "tank-hit-ground"
)

// CollisionEvent типизированное событие, собранное из сырого контакта.
// Заполнены только поля, уместные для вида события.
type CollisionEvent struct {
	Kind CollisionKind

	ProjectileID string
	TankID       string
	ObstacleID   string
	OwnerID      string
	Damage       float64

	Point mgl64.Vec3
}

// Classifier превращает begin-contact уведомления физического движка в
// доменные события по меткам ролей на телах. Чистый синхронный шаг:
// классифицировал — опубликовал в очередь, никакой собственной логики
// повторов или удаления сущностей.
type Classifier struct {
	events *Queue[CollisionEvent]
	logger *logrus.Entry
}

// NewClassifier создает классификатор
func NewClassifier(logger *logrus.Logger) *Classifier {
	return &Classifier{
		events: NewQueue[CollisionEvent](),
		logger: logger.WithField("system", "collision"),
	}
}

// Attach подписывает классификатор на контакты мира
func (c *Classifier) Attach(w *physics.World) {
	w.OnBeginContact(c.HandleContact)
}

// HandleContact обработчик сырого контакта; вызывается движком один
// раз на пару за шаг
func (c *Classifier) HandleContact(a, b *physics.Body, point mgl64.Vec3) {
	event, ok := c.Classify(a, b, point)
	if !ok {
		return
	}
	c.events.Push(event)
}

// Classify строит событие для пары тел. Классификация симметрична:
// (a, b) и (b, a) дают одинаковый результат. Пары без меток или вне
// пяти известных комбинаций молча игнорируются — это не ошибка.
func (c *Classifier) Classify(a, b *physics.Body, point mgl64.Vec3) (CollisionEvent, bool) {
	tagA, okA := TagOf(a)
	tagB, okB := TagOf(b)
	if !okA || !okB {
		return CollisionEvent{}, false
	}

	// Нормализация порядка: снаряд всегда первый, затем танк
	if tagB.Role == RoleProjectile || (tagB.Role == RoleTank && tagA.Role != RoleProjectile) {
		tagA, tagB = tagB, tagA
	}

	switch {
	case tagA.Role == RoleProjectile && tagB.Role == RoleTank:
		// Контакт снаряда с собственным танком не событие: в точке
		// вылета снаряд еще пересекает габарит стрелявшего
		if tagA.OwnerID == tagB.EntityID {
			return CollisionEvent{}, false
		}
		return CollisionEvent{
			Kind:         CollisionProjectileTank,
			ProjectileID: tagA.EntityID,
			TankID:       tagB.EntityID,
			OwnerID:      tagA.OwnerID,
			Damage:       tagA.Damage,
			Point:        point,
		}, true

	case tagA.Role == RoleProjectile && tagB.Role == RoleObstacle:
		return CollisionEvent{
			Kind:         CollisionProjectileObstacle,
			ProjectileID: tagA.EntityID,
			ObstacleID:   tagB.EntityID,
			OwnerID:      tagA.OwnerID,
			Point:        point,
		}, true

	case tagA.Role == RoleProjectile && tagB.Role == RoleGround:
		return CollisionEvent{
			Kind:         CollisionProjectileGround,
			ProjectileID: tagA.EntityID,
			OwnerID:      tagA.OwnerID,
			Point:        point,
		}, true

	case tagA.Role == RoleTank && tagB.Role == RoleObstacle:
		return CollisionEvent{
			Kind:       CollisionTankObstacle,
			TankID:     tagA.EntityID,
			ObstacleID: tagB.EntityID,
			Point:      point,
		}, true

	case tagA.Role == RoleTank && tagB.Role == RoleGround:
		return CollisionEvent{
			Kind:   CollisionTankGround,
			TankID: tagA.EntityID,
			Point:  point,
		}, true
	}

	return CollisionEvent{}, false
}

// Drain забирает события, накопленные за физический шаг
func (c *Classifier) Drain() []CollisionEvent {
	return c.events.Drain()
}

// Pending число неразобранных событий
func (c *Classifier) Pending() int {
	return c.events.Len()
}

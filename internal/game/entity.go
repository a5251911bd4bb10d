// Package game содержит игровые сущности поверх физического мира и
// сцены: машины, снаряды, статические объекты, реестр их жизненного
// цикла, классификатор коллизий и цикл симуляции.
package game

import (
	"x-tanks/internal/physics"
	"x-tanks/internal/render"
)

// Entity игровая сущность. Владеет максимум одним визуальным узлом и
// одним физическим телом; оба создаются при конструировании и
// освобождаются вместе при Dispose. Реестр гарантирует: пока сущность
// зарегистрирована, ее живое тело находится в мире симуляции.
type Entity interface {
	ID() string

	// Node визуальный узел, может быть nil
	Node() *render.Node

	// Body физическое тело, может быть nil
	Body() *physics.Body

	// Update пошаговое обновление: синхронизация визуального
	// трансформа из тела, таймеры возраста и перезарядки
	Update(delta float64)

	// Dispose освобождение визуальных ресурсов
	Dispose()
}

// Role роль тела для классификации коллизий
type Role string

const (
	RoleTank       Role = "tank"
	RoleProjectile Role = "projectile"
	RoleGround     Role = "ground"
	RoleObstacle   Role = "obstacle"
)

// BodyTag метка, прикрепляемая к телу через UserData. Классификатор
// читает только ее: тела без метки или с чужим типом молча
// игнорируются.
type BodyTag struct {
	Role     Role
	EntityID string

	// OwnerID и Damage заполняются только для снарядов
	OwnerID string
	Damage  float64
}

// TagOf извлекает метку роли из тела
func TagOf(b *physics.Body) (BodyTag, bool) {
	if b == nil {
		return BodyTag{}, false
	}
	tag, ok := b.UserData.(BodyTag)
	return tag, ok
}

package game

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"x-tanks/internal/physics"
	"x-tanks/internal/render"
)

// EntityRegistry связывает визуальное и физическое представление
// каждой сущности и владеет их жизненным циклом: добавление
// прикрепляет оба представления, удаление атомарно (с точки зрения
// реестра) отцепляет оба и освобождает ресурсы.
type EntityRegistry struct {
	scene *render.Scene
	world *physics.World

	// Порядок регистрации сохраняется для Update, но не несет
	// геймплейного смысла — на него нельзя полагаться
	order []Entity
	byID  map[string]Entity

	logger *logrus.Entry
}

// NewEntityRegistry создает реестр над сценой и физическим миром
func NewEntityRegistry(scene *render.Scene, world *physics.World, logger *logrus.Logger) *EntityRegistry {
	return &EntityRegistry{
		scene:  scene,
		world:  world,
		byID:   make(map[string]Entity),
		logger: logger.WithField("system", "registry"),
	}
}

// Add регистрирует сущность: узел уходит в сцену, тело — в мир.
// Повторное добавление занятого id — ошибка вызывающего, состояние
// реестра не меняется.
func (r *EntityRegistry) Add(e Entity) error {
	if e == nil {
		return fmt.Errorf("сущность nil")
	}
	if _, exists := r.byID[e.ID()]; exists {
		return fmt.Errorf("сущность %s уже зарегистрирована", e.ID())
	}

	if node := e.Node(); node != nil {
		r.scene.Add(node)
	}
	if body := e.Body(); body != nil {
		r.world.AddBody(body)
	}

	r.order = append(r.order, e)
	r.byID[e.ID()] = e
	return nil
}

// Remove отцепляет узел и тело, освобождает визуальные ресурсы и
// убирает сущность из реестра. Удаление незарегистрированной
// сущности — no-op.
func (r *EntityRegistry) Remove(e Entity) {
	if e == nil {
		return
	}
	if _, exists := r.byID[e.ID()]; !exists {
		return
	}

	if node := e.Node(); node != nil {
		r.scene.Remove(node)
	}
	if body := e.Body(); body != nil {
		r.world.RemoveBody(body)
	}
	e.Dispose()

	delete(r.byID, e.ID())
	for i, other := range r.order {
		if other == e {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// RemoveByID удаляет сущность по id
func (r *EntityRegistry) RemoveByID(id string) {
	if e, ok := r.byID[id]; ok {
		r.Remove(e)
	}
}

// Get возвращает сущность по id
func (r *EntityRegistry) Get(id string) (Entity, bool) {
	e, ok := r.byID[id]
	return e, ok
}

// Update вызывает пошаговое обновление всех сущностей в порядке
// регистрации
func (r *EntityRegistry) Update(delta float64) {
	// Копия на случай, если Update сущности снимет кого-то с реестра
	entities := make([]Entity, len(r.order))
	copy(entities, r.order)
	for _, e := range entities {
		if _, still := r.byID[e.ID()]; still {
			e.Update(delta)
		}
	}
}

// Each обходит сущности в порядке регистрации
func (r *EntityRegistry) Each(fn func(Entity)) {
	for _, e := range r.order {
		fn(e)
	}
}

// Clear снимает все сущности: каждое тело отцеплено от мира, каждый
// визуальный ресурс освобожден
func (r *EntityRegistry) Clear() {
	entities := make([]Entity, len(r.order))
	copy(entities, r.order)
	for _, e := range entities {
		r.Remove(e)
	}
}

// Len число зарегистрированных сущностей
func (r *EntityRegistry) Len() int { return len(r.order) }

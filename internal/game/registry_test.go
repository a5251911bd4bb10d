package game

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"x-tanks/internal/physics"
	"x-tanks/internal/render"
)

func newTestRegistry() (*EntityRegistry, *render.Scene, *physics.World) {
	scene := render.NewScene()
	w := physics.NewWorld(physics.DefaultConfig())
	return NewEntityRegistry(scene, w, testLogger()), scene, w
}

func TestRegistryAddRemove(t *testing.T) {
	registry, scene, w := newTestRegistry()

	tank := NewTank("t1", DefaultTankParams(), mgl64.Vec3{})
	if err := registry.Add(tank); err != nil {
		t.Fatalf("Unexpected add error: %v", err)
	}

	// Добавление прикрепляет оба представления
	if scene.Len() != 1 {
		t.Errorf("Expected 1 scene node, got %d", scene.Len())
	}
	if w.BodyCount() != 1 {
		t.Errorf("Expected 1 body, got %d", w.BodyCount())
	}

	// Повторная регистрация занятого id — ошибка без изменения состояния
	dup := NewTank("t1", DefaultTankParams(), mgl64.Vec3{})
	if err := registry.Add(dup); err == nil {
		t.Error("Expected error on duplicate id")
	}
	if registry.Len() != 1 {
		t.Errorf("Expected registry unchanged, got %d entities", registry.Len())
	}

	// Удаление отцепляет оба представления
	registry.Remove(tank)
	if scene.Len() != 0 || w.BodyCount() != 0 || registry.Len() != 0 {
		t.Errorf("Expected empty state, got scene=%d world=%d registry=%d",
			scene.Len(), w.BodyCount(), registry.Len())
	}

	// Удаление незарегистрированной сущности — no-op
	registry.Remove(tank)
	if registry.Len() != 0 {
		t.Errorf("Expected no-op remove, got %d entities", registry.Len())
	}
}

func TestRegistryNetZero(t *testing.T) {
	registry, scene, w := newTestRegistry()

	// Серия добавлений и удалений не оставляет следов ни в сцене, ни в
	// мире
	for i := 0; i < 20; i++ {
		p := NewProjectile(string(rune('a'+i)), "owner", DefaultProjectileParams(), mgl64.Vec3{}, mgl64.Vec3{0, 0, 1})
		if err := registry.Add(p); err != nil {
			t.Fatalf("Unexpected add error: %v", err)
		}
		registry.RemoveByID(p.ID())
	}

	if scene.Len() != 0 || w.BodyCount() != 0 || registry.Len() != 0 {
		t.Errorf("Expected net-zero counts, got scene=%d world=%d registry=%d",
			scene.Len(), w.BodyCount(), registry.Len())
	}
}

func TestRegistryGet(t *testing.T) {
	registry, _, _ := newTestRegistry()

	tank := NewTank("t1", DefaultTankParams(), mgl64.Vec3{})
	registry.Add(tank)

	got, ok := registry.Get("t1")
	if !ok || got != Entity(tank) {
		t.Error("Expected to find registered tank")
	}

	if _, ok := registry.Get("missing"); ok {
		t.Error("Expected miss for unknown id")
	}
}

func TestRegistryUpdatePropagates(t *testing.T) {
	registry, _, _ := newTestRegistry()

	p := NewProjectile("p1", "owner", DefaultProjectileParams(), mgl64.Vec3{}, mgl64.Vec3{0, 0, 1})
	registry.Add(p)

	registry.Update(1.0)
	if p.Age() != 1.0 {
		t.Errorf("Expected age 1.0 after update, got %f", p.Age())
	}
}

func TestRegistryClearDisposes(t *testing.T) {
	registry, scene, w := newTestRegistry()

	tank := NewTank("t1", DefaultTankParams(), mgl64.Vec3{})
	p := NewProjectile("p1", "owner", DefaultProjectileParams(), mgl64.Vec3{}, mgl64.Vec3{0, 0, 1})
	registry.Add(tank)
	registry.Add(p)

	registry.Clear()

	if registry.Len() != 0 || scene.Len() != 0 || w.BodyCount() != 0 {
		t.Errorf("Expected everything cleared, got registry=%d scene=%d world=%d",
			registry.Len(), scene.Len(), w.BodyCount())
	}
	if tank.Body().InWorld() {
		t.Error("Expected tank body detached from world")
	}
}

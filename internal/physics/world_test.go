package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// flatField плоская поверхность заданной высоты
func flatField(size float64, resolution int, height float64) *HeightfieldShape {
	heights := make([]float64, (resolution+1)*(resolution+1))
	for i := range heights {
		heights[i] = height
	}
	return &HeightfieldShape{
		Heights:    heights,
		Resolution: resolution,
		Size:       size,
		MinHeight:  height,
		MaxHeight:  height,
	}
}

func TestBallisticStraightLine(t *testing.T) {
	// Без гравитации снаряд летит по прямой: за секунду симуляции
	// проходит ровно модуль скорости
	w := NewWorld(Config{Gravity: mgl64.Vec3{}})

	body := NewBody("shell", &SphereShape{Radius: 0.2}, 2.0, mgl64.Vec3{})
	body.LinearVelocity = mgl64.Vec3{0, 0, 50}
	w.AddBody(body)

	for i := 0; i < 60; i++ {
		w.Step(1.0 / 60.0)
	}

	if math.Abs(body.Position.Z()-50.0) > 1e-6 {
		t.Errorf("Expected Z near 50.0, got %f", body.Position.Z())
	}
	if body.Position.X() != 0 || body.Position.Y() != 0 {
		t.Errorf("Expected no lateral drift, got (%f, %f)", body.Position.X(), body.Position.Y())
	}
}

func TestBallisticGravityDrop(t *testing.T) {
	w := NewWorld(DefaultConfig())

	body := NewBody("shell", &SphereShape{Radius: 0.2}, 2.0, mgl64.Vec3{0, 100, 0})
	body.LinearVelocity = mgl64.Vec3{0, 0, 50}
	w.AddBody(body)

	n := 60
	h := 1.0 / 60.0
	for i := 0; i < n; i++ {
		w.Step(h)
	}

	// Полунеявный Эйлер: падение g*h^2*n(n+1)/2
	expectedDrop := 9.81 * h * h * float64(n) * float64(n+1) / 2.0
	drop := 100.0 - body.Position.Y()
	if math.Abs(drop-expectedDrop) > 1e-6 {
		t.Errorf("Expected drop %f, got %f", expectedDrop, drop)
	}

	// Горизонтальная составляющая не зависит от гравитации
	if math.Abs(body.Position.Z()-50.0) > 1e-6 {
		t.Errorf("Expected Z near 50.0, got %f", body.Position.Z())
	}
}

func TestHeightfieldContact(t *testing.T) {
	w := NewWorld(DefaultConfig())

	ground := NewBody("ground", flatField(100, 4, 5.0), 0, mgl64.Vec3{})
	w.AddBody(ground)

	body := NewBody("ball", &SphereShape{Radius: 1.0}, 10.0, mgl64.Vec3{0, 20, 0})
	w.AddBody(body)

	var contacts int
	w.OnBeginContact(func(a, b *Body, point mgl64.Vec3) {
		contacts++
		if point.Y() != 5.0 {
			t.Errorf("Expected contact at surface height 5.0, got %f", point.Y())
		}
	})

	// Пять секунд симуляции: тело обязано упасть и успокоиться
	for i := 0; i < 300; i++ {
		w.Step(1.0 / 60.0)
	}

	rest := 5.0 + 1.0
	if math.Abs(body.Position.Y()-rest) > 0.01 {
		t.Errorf("Expected body resting at %f, got %f", rest, body.Position.Y())
	}
	if !body.Grounded {
		t.Error("Expected body to be grounded")
	}
	if contacts != 1 {
		t.Errorf("Expected exactly one begin-contact event, got %d", contacts)
	}
}

func TestNoTunnelingThroughSurface(t *testing.T) {
	w := NewWorld(DefaultConfig())

	ground := NewBody("ground", flatField(100, 4, 0.0), 0, mgl64.Vec3{})
	w.AddBody(ground)

	// Быстро падающее тело не должно оказаться под поверхностью
	body := NewBody("ball", &SphereShape{Radius: 0.5}, 5.0, mgl64.Vec3{0, 3, 0})
	body.LinearVelocity = mgl64.Vec3{0, -200, 0}
	w.AddBody(body)

	for i := 0; i < 120; i++ {
		w.Step(1.0 / 60.0)
		if bottom := body.Position.Y() - 0.5; bottom < -1e-9 {
			t.Fatalf("Body sank below surface: bottom at %f on step %d", bottom, i)
		}
	}
}

func TestSphereCollisionSeparates(t *testing.T) {
	w := NewWorld(Config{Gravity: mgl64.Vec3{}})

	a := NewBody("a", &SphereShape{Radius: 1.0}, 1.0, mgl64.Vec3{0, 0, 0})
	b := NewBody("b", &SphereShape{Radius: 1.0}, 1.0, mgl64.Vec3{1, 0, 0})
	w.AddBody(a)
	w.AddBody(b)

	var fired int
	w.OnBeginContact(func(_, _ *Body, _ mgl64.Vec3) { fired++ })

	w.Step(1.0 / 60.0)

	dist := b.Position.Sub(a.Position).Len()
	if dist < 2.0-1e-6 {
		t.Errorf("Expected bodies separated to sum of radii, got distance %f", dist)
	}
	if fired != 1 {
		t.Errorf("Expected one contact event, got %d", fired)
	}

	// Пара уже в контакте: повторных begin-событий быть не должно
	w.Step(1.0 / 60.0)
	if fired != 1 {
		t.Errorf("Expected no repeated begin-contact, got %d", fired)
	}
}

func TestAddRemoveBody(t *testing.T) {
	w := NewWorld(DefaultConfig())

	body := NewBody("one", &SphereShape{Radius: 1.0}, 1.0, mgl64.Vec3{})
	w.AddBody(body)
	if w.BodyCount() != 1 {
		t.Errorf("Expected 1 body, got %d", w.BodyCount())
	}
	if !body.InWorld() {
		t.Error("Expected body to be in world")
	}

	// Повторное добавление занятого id игнорируется
	w.AddBody(body)
	if w.BodyCount() != 1 {
		t.Errorf("Expected duplicate add to be ignored, got %d bodies", w.BodyCount())
	}

	w.RemoveBody(body)
	if w.BodyCount() != 0 {
		t.Errorf("Expected 0 bodies, got %d", w.BodyCount())
	}
	if body.InWorld() {
		t.Error("Expected body to be detached")
	}

	// Удаление отсутствующего тела — no-op
	w.RemoveBody(body)
	if w.BodyCount() != 0 {
		t.Errorf("Expected 0 bodies after repeated remove, got %d", w.BodyCount())
	}
}

func TestMaxDeltaCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gravity = mgl64.Vec3{}
	w := NewWorld(cfg)

	body := NewBody("shell", &SphereShape{Radius: 0.2}, 1.0, mgl64.Vec3{})
	body.LinearVelocity = mgl64.Vec3{0, 0, 10}
	w.AddBody(body)

	// Гигантская дельта обрезается до MaxDelta: тело не телепортируется
	w.Step(10.0)

	maxTravel := 10.0 * cfg.MaxDelta
	if body.Position.Z() > maxTravel+1e-9 {
		t.Errorf("Expected travel capped at %f, got %f", maxTravel, body.Position.Z())
	}
}

func BenchmarkStepWithContacts(b *testing.B) {
	w := NewWorld(DefaultConfig())
	w.AddBody(NewBody("ground", flatField(1000, 64, 10.0), 0, mgl64.Vec3{}))

	// Полсотни тел, часть в контакте с поверхностью и друг с другом
	for i := 0; i < 50; i++ {
		body := NewBody(string(rune('A'+i)), &SphereShape{Radius: 1.0}, 5.0,
			mgl64.Vec3{float64(i%10) * 1.5, 12 + float64(i/10), float64(i/10) * 1.5})
		w.AddBody(body)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w.Step(1.0 / 60.0)
	}
}

func TestHorizontalSpeed(t *testing.T) {
	tests := []struct {
		name     string
		velocity mgl64.Vec3
		expected float64
	}{
		{"ноль", mgl64.Vec3{}, 0},
		{"только вертикаль", mgl64.Vec3{0, -30, 0}, 0},
		{"пифагорова тройка", mgl64.Vec3{3, 100, 4}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HorizontalSpeed(tt.velocity); math.Abs(got-tt.expected) > 1e-12 {
				t.Errorf("Expected %f, got %f", tt.expected, got)
			}
		})
	}
}

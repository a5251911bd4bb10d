package game

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestProjectileInitialVelocity(t *testing.T) {
	params := DefaultProjectileParams()

	// Ненормализованное направление нормализуется перед умножением
	p := NewProjectile("p1", "owner", params, mgl64.Vec3{}, mgl64.Vec3{0, 0, 10})
	v := p.Body().LinearVelocity
	if math.Abs(v.Len()-params.Speed) > 1e-9 {
		t.Errorf("Expected speed %f, got %f", params.Speed, v.Len())
	}
	if math.Abs(v.Z()-params.Speed) > 1e-9 {
		t.Errorf("Expected velocity along +Z, got %v", v)
	}

	// Нулевое направление заменяется осью Z
	zero := NewProjectile("p2", "owner", params, mgl64.Vec3{}, mgl64.Vec3{})
	if zero.Body().LinearVelocity.Z() != params.Speed {
		t.Errorf("Expected fallback direction +Z, got %v", zero.Body().LinearVelocity)
	}
}

func TestProjectileTag(t *testing.T) {
	params := DefaultProjectileParams()
	p := NewProjectile("p1", "owner", params, mgl64.Vec3{}, mgl64.Vec3{0, 0, 1})

	tag, ok := TagOf(p.Body())
	if !ok {
		t.Fatal("Expected body to carry a tag")
	}
	if tag.Role != RoleProjectile || tag.EntityID != "p1" || tag.OwnerID != "owner" {
		t.Errorf("Unexpected tag: %+v", tag)
	}
	if tag.Damage != params.Damage {
		t.Errorf("Expected damage %f in tag, got %f", params.Damage, tag.Damage)
	}
}

func TestProjectileExpiry(t *testing.T) {
	p := NewProjectile("p1", "owner", DefaultProjectileParams(), mgl64.Vec3{}, mgl64.Vec3{0, 0, 1})

	p.Update(2.5)
	if p.IsExpired() {
		t.Error("Expected projectile alive at half lifetime")
	}

	// Граница включительная: ровно на lifetime снаряд истекает
	p.Update(2.5)
	if !p.IsExpired() {
		t.Error("Expected projectile expired at exactly lifetime")
	}
}

func TestProjectileUpdateSyncsNode(t *testing.T) {
	p := NewProjectile("p1", "owner", DefaultProjectileParams(), mgl64.Vec3{}, mgl64.Vec3{1, 0, 0})
	p.Body().Position = mgl64.Vec3{7, 8, 9}

	p.Update(1.0 / 60.0)

	if p.Node().Position != p.Body().Position {
		t.Errorf("Expected node at %v, got %v", p.Body().Position, p.Node().Position)
	}

	// Ориентация выровнена по скорости: +Z узла смотрит вдоль полета
	forward := p.Node().Rotation.Rotate(mgl64.Vec3{0, 0, 1})
	if forward.Sub(mgl64.Vec3{1, 0, 0}).Len() > 1e-9 {
		t.Errorf("Expected node facing +X, got %v", forward)
	}
}

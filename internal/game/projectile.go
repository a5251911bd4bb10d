package game

import (
	"github.com/go-gl/mathgl/mgl64"

	"x-tanks/internal/physics"
	"x-tanks/internal/render"
)

// ProjectileParams тюнинг снаряда
type ProjectileParams struct {
	Speed    float64
	Damage   float64
	Lifetime float64
	Mass     float64
	Radius   float64
}

// DefaultProjectileParams параметры по умолчанию
func DefaultProjectileParams() ProjectileParams {
	return ProjectileParams{
		Speed:    50.0,
		Damage:   25.0,
		Lifetime: 5.0,
		Mass:     2.0,
		Radius:   0.2,
	}
}

// Projectile летящий снаряд. Траектория полностью отдана движку:
// начальная скорость плюс гравитация, без собственного управления.
// Снаряд не удаляет себя — решение об удалении за владельцем цикла
// (по событию коллизии или по IsExpired).
type Projectile struct {
	id      string
	ownerID string
	params  ProjectileParams

	node *render.Node
	body *physics.Body

	age float64
}

// NewProjectile создает снаряд в точке вылета. Нулевое направление
// заменяется осью Z, ненулевое нормализуется.
func NewProjectile(id, ownerID string, params ProjectileParams, origin, direction mgl64.Vec3) *Projectile {
	if direction.Len() == 0 {
		direction = mgl64.Vec3{0, 0, 1}
	}
	direction = direction.Normalize()

	body := physics.NewBody(id, &physics.SphereShape{Radius: params.Radius}, params.Mass, origin)
	body.LinearVelocity = direction.Mul(params.Speed)
	body.UserData = BodyTag{
		Role:     RoleProjectile,
		EntityID: id,
		OwnerID:  ownerID,
		Damage:   params.Damage,
	}

	node := render.NewNode("projectile-" + id)
	node.Position = origin

	return &Projectile{
		id:      id,
		ownerID: ownerID,
		params:  params,
		node:    node,
		body:    body,
	}
}

func (p *Projectile) ID() string { return p.id }
func (p *Projectile) OwnerID() string { return p.ownerID }
func (p *Projectile) Node() *render.Node { return p.node }
func (p *Projectile) Body() *physics.Body { return p.body }
func (p *Projectile) Age() float64 { return p.age }
func (p *Projectile) Damage() float64 { return p.params.Damage }

// Update наращивает возраст и синхронизирует визуальный трансформ.
// Ориентация выравнивается по вектору скорости.
func (p *Projectile) Update(delta float64) {
	p.age += delta

	p.node.Position = p.body.Position
	if v := p.body.LinearVelocity; v.Len() > 1e-9 {
		p.node.Rotation = mgl64.QuatBetweenVectors(mgl64.Vec3{0, 0, 1}, v.Normalize())
	}
}

// IsExpired true, когда возраст достиг времени жизни
func (p *Projectile) IsExpired() bool {
	return p.age >= p.params.Lifetime
}

// Dispose освобождает визуальные ресурсы
func (p *Projectile) Dispose() {
	p.node.Dispose()
}

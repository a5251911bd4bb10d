package physics

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Body твёрдое тело в симуляции. Масса 0 означает статическое тело:
// интегратор его не двигает, но контакты с ним регистрируются.
type Body struct {
	ID string

	Mass  float64
	Shape Shape

	Position    mgl64.Vec3
	Orientation mgl64.Quat

	LinearVelocity  mgl64.Vec3
	AngularVelocity mgl64.Vec3

	LinearDamping  float64
	AngularDamping float64

	// Аккумуляторы сил на текущий шаг; очищаются движком в конце Step
	Force  mgl64.Vec3
	Torque mgl64.Vec3

	// Grounded выставляется миром, когда тело в контакте с heightfield
	// на последнем проходе коллизий
	Grounded bool

	// UserData непрозрачная метка роли для классификатора коллизий
	UserData interface{}

	world *World
}

// NewBody создает тело с указанной формой. Ориентация — единичный
// кватернион, скорости нулевые.
func NewBody(id string, shape Shape, mass float64, position mgl64.Vec3) *Body {
	return &Body{
		ID:          id,
		Mass:        mass,
		Shape:       shape,
		Position:    position,
		Orientation: mgl64.QuatIdent(),
	}
}

// IsStatic тело с нулевой массой не интегрируется
func (b *Body) IsStatic() bool { return b.Mass == 0 }

// ApplyForce добавляет силу в аккумулятор текущего шага
func (b *Body) ApplyForce(f mgl64.Vec3) {
	b.Force = b.Force.Add(f)
}

// Forward орт направления «вперед» из текущей ориентации
func (b *Body) Forward() mgl64.Vec3 {
	return b.Orientation.Rotate(mgl64.Vec3{0, 0, 1})
}

// Right орт направления «вправо» из текущей ориентации
func (b *Body) Right() mgl64.Vec3 {
	return b.Orientation.Rotate(mgl64.Vec3{1, 0, 0})
}

// SetTransform жёстко переставляет тело (используется при респавне).
// Скорости и аккумуляторы обнуляются, чтобы не тащить импульс в новую
// позицию.
func (b *Body) SetTransform(position mgl64.Vec3, orientation mgl64.Quat) {
	b.Position = position
	b.Orientation = orientation
	b.LinearVelocity = mgl64.Vec3{}
	b.AngularVelocity = mgl64.Vec3{}
	b.Force = mgl64.Vec3{}
	b.Torque = mgl64.Vec3{}
}

// InWorld true, пока тело добавлено в мир
func (b *Body) InWorld() bool { return b.world != nil }

// World мир, в котором живет тело, либо nil
func (b *Body) World() *World { return b.world }

package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"x-tanks/internal/physics"
	"x-tanks/internal/render"
)

// TankParams тюнинг контроллера машины
type TankParams struct {
	Mass          float64
	Speed         float64
	ForceScale    float64
	ReverseFactor float64
	TurnSpeed     float64
	MaxSpeed      float64

	MaxHealth  float64
	MaxAmmo    int
	ReloadTime float64

	// Анти-провал: подъемная сила чуть выше гравитации и пол
	// вертикальной скорости. Корректирующая заплатка поверх
	// контактного отклика движка, значения — тюнинг, не точная физика.
	AntiSinkFactor  float64
	SinkVelocityMin float64

	// TurretPitchLimit кламп наклона ствола, радианы
	TurretPitchLimit float64

	HullHalfExtents   mgl64.Vec3
	TurretHalfExtents mgl64.Vec3
	BarrelLength      float64
}

// DefaultTankParams параметры по умолчанию
func DefaultTankParams() TankParams {
	return TankParams{
		Mass:              800.0,
		Speed:             15.0,
		ForceScale:        400.0,
		ReverseFactor:     0.7,
		TurnSpeed:         1.5,
		MaxSpeed:          20.0,
		MaxHealth:         100.0,
		MaxAmmo:           5,
		ReloadTime:        3.0,
		AntiSinkFactor:    1.02,
		SinkVelocityMin:   -5.0,
		TurretPitchLimit:  45.0 * math.Pi / 180.0,
		HullHalfExtents:   mgl64.Vec3{1.4, 0.6, 2.0},
		TurretHalfExtents: mgl64.Vec3{0.8, 0.4, 0.8},
		BarrelLength:      2.2,
	}
}

// Tank машина с физическим корпусом и визуальной турелью. Корпус
// управляется силами и прямой угловой скоростью; турель — чисто
// визуальная степень свободы и в физике не участвует.
type Tank struct {
	id     string
	params TankParams

	node   *render.Node
	turret *render.Node
	body   *physics.Body

	health      float64
	ammo        int
	reloading   bool
	reloadTimer float64

	damageDealt float64

	turretYaw   float64
	turretPitch float64

	// velocity зеркало скорости тела для сетевой репликации
	velocity mgl64.Vec3
}

// NewTank создает машину в точке спавна
func NewTank(id string, params TankParams, spawn mgl64.Vec3) *Tank {
	hull := &physics.BoxShape{HalfExtents: params.HullHalfExtents}
	turretBox := &physics.BoxShape{HalfExtents: params.TurretHalfExtents}
	shape := &physics.CompoundShape{
		Children: []physics.ChildShape{
			{Shape: hull},
			{Offset: mgl64.Vec3{0, params.HullHalfExtents.Y() + params.TurretHalfExtents.Y(), 0}, Shape: turretBox},
		},
	}

	body := physics.NewBody(id, shape, params.Mass, spawn)
	body.LinearDamping = 0.4
	body.AngularDamping = 0.5
	body.UserData = BodyTag{Role: RoleTank, EntityID: id}

	node := render.NewNode("tank-" + id)
	node.Position = spawn
	turret := render.NewNode("turret")
	turret.Position = mgl64.Vec3{0, params.HullHalfExtents.Y() + params.TurretHalfExtents.Y(), 0}
	node.AddChild(turret)

	return &Tank{
		id:     id,
		params: params,
		node:   node,
		turret: turret,
		body:   body,
		health: params.MaxHealth,
		ammo:   params.MaxAmmo,
	}
}

func (t *Tank) ID() string { return t.id }
func (t *Tank) Node() *render.Node { return t.node }
func (t *Tank) Body() *physics.Body { return t.body }
func (t *Tank) Params() TankParams { return t.params }
func (t *Tank) Health() float64 { return t.health }
func (t *Tank) Ammo() int { return t.ammo }
func (t *Tank) Reloading() bool { return t.reloading }
func (t *Tank) DamageDealt() float64 { return t.damageDealt }
func (t *Tank) TurretYaw() float64 { return t.turretYaw }
func (t *Tank) TurretPitch() float64 { return t.turretPitch }

// Velocity зеркало скорости после последнего Update
func (t *Tank) Velocity() mgl64.Vec3 { return t.velocity }

// Control переводит снапшот ввода в силы и угловую скорость корпуса.
// Вызывается раз в тик до шага физики.
func (t *Tank) Control(delta float64, input InputState) {
	forward := t.body.Forward()

	// Сброс горизонтальных сил и углового аккумулятора; вертикаль
	// сохраняется, чтобы поправки анти-провала переживали сброс
	t.body.Force = mgl64.Vec3{0, t.body.Force.Y(), 0}
	t.body.Torque = mgl64.Vec3{}

	if input.Forward {
		t.body.ApplyForce(forward.Mul(t.params.Speed * t.params.ForceScale))
	}
	if input.Backward {
		// Задний ход намеренно медленнее
		t.body.ApplyForce(forward.Mul(-t.params.Speed * t.params.ForceScale * t.params.ReverseFactor))
	}

	// Поворот — прямое задание угловой скорости, а не момент:
	// мгновенная реакция вместо инерционного доворота
	turn := 0.0
	if input.Left {
		turn += 1
	}
	if input.Right {
		turn -= 1
	}
	t.body.AngularVelocity = mgl64.Vec3{0, turn * t.params.TurnSpeed, 0}

	// Кламп горизонтальной скорости рескейлом; вертикаль не трогаем
	v := t.body.LinearVelocity
	if hs := physics.HorizontalSpeed(v); hs > t.params.MaxSpeed {
		scale := t.params.MaxSpeed / hs
		t.body.LinearVelocity = mgl64.Vec3{v.X() * scale, v.Y(), v.Z() * scale}
	}

	// Турель обновляется напрямую из ввода, физика не участвует
	t.turretYaw += input.TurretX
	t.turretPitch += input.TurretY
	if t.turretPitch > t.params.TurretPitchLimit {
		t.turretPitch = t.params.TurretPitchLimit
	}
	if t.turretPitch < -t.params.TurretPitchLimit {
		t.turretPitch = -t.params.TurretPitchLimit
	}

	if input.Reload && !t.reloading && t.ammo < t.params.MaxAmmo {
		t.startReload()
	}

	t.applyAntiSink()
}

// applyAntiSink при контакте с землей на прошлом проходе коллизий
// прижатый корпус получает подъемную силу чуть выше гравитации и пол
// на скорость погружения. Тяжелое составное тело иначе продавливает
// heightfield под накопленными контактными ограничениями.
func (t *Tank) applyAntiSink() {
	if !t.body.Grounded {
		return
	}

	gravity := 9.81
	if w := t.body.World(); w != nil {
		gravity = math.Abs(w.Gravity().Y())
	}
	t.body.ApplyForce(mgl64.Vec3{0, t.params.AntiSinkFactor * t.params.Mass * gravity, 0})

	if v := t.body.LinearVelocity; v.Y() < t.params.SinkVelocityMin {
		t.body.LinearVelocity = mgl64.Vec3{v.X(), t.params.SinkVelocityMin, v.Z()}
	}
}

// Fire расходует снаряд. Возвращает false без побочных эффектов при
// пустом магазине или идущей перезарядке. Спавн снаряда — забота
// вызывающего.
func (t *Tank) Fire() bool {
	if t.ammo == 0 || t.reloading {
		return false
	}
	t.ammo--
	if t.ammo == 0 {
		t.startReload()
	}
	return true
}

func (t *Tank) startReload() {
	t.reloading = true
	t.reloadTimer = 0
}

// ApplyDamage уменьшает здоровье с клампом в ноль
func (t *Tank) ApplyDamage(amount float64) {
	t.health -= amount
	if t.health < 0 {
		t.health = 0
	}
}

// Heal увеличивает здоровье с клампом в максимум
func (t *Tank) Heal(amount float64) {
	t.health += amount
	if t.health > t.params.MaxHealth {
		t.health = t.params.MaxHealth
	}
}

// IsDead true при нулевом здоровье
func (t *Tank) IsDead() bool { return t.health <= 0 }

// AddDamageDealt наращивает счетчик нанесенного урона
func (t *Tank) AddDamageDealt(amount float64) {
	t.damageDealt += amount
}

// SetHealth выставляет здоровье напрямую (сетевое зеркало), с клампом
func (t *Tank) SetHealth(health float64) {
	t.health = math.Max(0, math.Min(health, t.params.MaxHealth))
}

// Reset восстанавливает здоровье, боезапас и перезарядку. Ненулевая
// позиция жестко переставляет корпус и обнуляет скорости — респавн.
func (t *Tank) Reset(position *mgl64.Vec3) {
	t.health = t.params.MaxHealth
	t.ammo = t.params.MaxAmmo
	t.reloading = false
	t.reloadTimer = 0
	if position != nil {
		t.body.SetTransform(*position, mgl64.QuatIdent())
	}
}

// Update пошаговое обновление: таймер перезарядки и write-only
// синхронизация визуального трансформа из тела
func (t *Tank) Update(delta float64) {
	if t.reloading {
		t.reloadTimer += delta
		if t.reloadTimer >= t.params.ReloadTime {
			t.ammo = t.params.MaxAmmo
			t.reloading = false
			t.reloadTimer = 0
		}
	}

	t.node.Position = t.body.Position
	t.node.Rotation = t.body.Orientation
	t.turret.Rotation = mgl64.QuatRotate(t.turretYaw, mgl64.Vec3{0, 1, 0}).
		Mul(mgl64.QuatRotate(t.turretPitch, mgl64.Vec3{1, 0, 0}))

	t.velocity = t.body.LinearVelocity
}

// Dispose освобождает визуальные ресурсы
func (t *Tank) Dispose() {
	t.node.Dispose()
}

// AimDirection мировое направление ствола: ориентация корпуса плюс
// yaw/pitch турели
func (t *Tank) AimDirection() mgl64.Vec3 {
	aim := t.body.Orientation.
		Mul(mgl64.QuatRotate(t.turretYaw, mgl64.Vec3{0, 1, 0})).
		Mul(mgl64.QuatRotate(t.turretPitch, mgl64.Vec3{1, 0, 0}))
	return aim.Rotate(mgl64.Vec3{0, 0, 1})
}

// MuzzlePosition мировая точка вылета снаряда
func (t *Tank) MuzzlePosition() mgl64.Vec3 {
	turretCenter := t.body.Position.Add(t.body.Orientation.Rotate(t.turret.Position))
	return turretCenter.Add(t.AimDirection().Mul(t.params.BarrelLength))
}

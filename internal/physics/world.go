package physics

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Config настройки физического мира
type Config struct {
	Gravity mgl64.Vec3

	// MaxDelta кап на входную дельту тика: при просадке кадров
	// интегрируем не больше этого времени за вызов Step
	MaxDelta float64

	// SubStep длительность внутреннего фиксированного подшага
	SubStep float64

	// MaxSubSteps предел подшагов за один Step
	MaxSubSteps int

	// SolverIterations число проходов разрешения контактов за подшаг
	SolverIterations int
}

// DefaultConfig конфигурация по умолчанию: гравитация −9.81, кап 1/30,
// подшаг 1/60
func DefaultConfig() Config {
	return Config{
		Gravity:          mgl64.Vec3{0, -9.81, 0},
		MaxDelta:         1.0 / 30.0,
		SubStep:          1.0 / 60.0,
		MaxSubSteps:      4,
		SolverIterations: 4,
	}
}

// Допуск, в пределах которого тело над поверхностью считается прижатым
const groundedTolerance = 0.05

// ContactHandler колбэк начала контакта пары тел
type ContactHandler func(a, b *Body, point mgl64.Vec3)

type contact struct {
	a, b  *Body
	point mgl64.Vec3
}

// World мир твёрдых тел. Все мутации (добавление и удаление тел,
// приложение сил) должны происходить из потока симуляции между
// вызовами Step, конкурентный доступ не поддерживается.
type World struct {
	cfg Config

	bodies []*Body
	index  map[string]*Body

	handlers []ContactHandler

	accumulator float64
	prevPairs   map[string]struct{}
}

// NewWorld создает мир с указанной конфигурацией
func NewWorld(cfg Config) *World {
	if cfg.SubStep <= 0 {
		cfg.SubStep = 1.0 / 60.0
	}
	if cfg.MaxDelta <= 0 {
		cfg.MaxDelta = 1.0 / 30.0
	}
	if cfg.MaxSubSteps <= 0 {
		cfg.MaxSubSteps = 4
	}
	if cfg.SolverIterations <= 0 {
		cfg.SolverIterations = 4
	}
	return &World{
		cfg:       cfg,
		index:     make(map[string]*Body),
		prevPairs: make(map[string]struct{}),
	}
}

// Gravity текущий вектор гравитации
func (w *World) Gravity() mgl64.Vec3 { return w.cfg.Gravity }

// OnBeginContact регистрирует обработчик начала контакта. Обработчики
// вызываются один раз на пару за шаг, после завершения интегрирования.
func (w *World) OnBeginContact(h ContactHandler) {
	w.handlers = append(w.handlers, h)
}

// AddBody добавляет тело в мир. Повторное добавление тела с занятым
// id игнорируется.
func (w *World) AddBody(b *Body) {
	if b == nil {
		return
	}
	if _, exists := w.index[b.ID]; exists {
		return
	}
	w.bodies = append(w.bodies, b)
	w.index[b.ID] = b
	b.world = w
}

// RemoveBody убирает тело из мира. Удаление отсутствующего тела — no-op.
func (w *World) RemoveBody(b *Body) {
	if b == nil {
		return
	}
	if _, exists := w.index[b.ID]; !exists {
		return
	}
	delete(w.index, b.ID)
	for i, other := range w.bodies {
		if other == b {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			break
		}
	}
	b.world = nil
}

// Body возвращает тело по id
func (w *World) Body(id string) (*Body, bool) {
	b, ok := w.index[id]
	return b, ok
}

// BodyCount число тел в мире
func (w *World) BodyCount() int { return len(w.bodies) }

// Step продвигает симуляцию на delta секунд. Дельта ограничивается
// сверху MaxDelta, внутри выполняются фиксированные подшаги SubStep.
// По завершении аккумуляторы сил очищаются и для новых контактных пар
// вызываются обработчики.
func (w *World) Step(delta float64) {
	if delta <= 0 {
		return
	}
	if delta > w.cfg.MaxDelta {
		delta = w.cfg.MaxDelta
	}
	w.accumulator += delta

	contacts := make(map[string]contact)
	steps := 0
	for w.accumulator >= w.cfg.SubStep && steps < w.cfg.MaxSubSteps {
		w.subStep(w.cfg.SubStep, contacts)
		w.accumulator -= w.cfg.SubStep
		steps++
	}
	if steps == w.cfg.MaxSubSteps {
		// Не даем аккумулятору накапливать долг при стабильной просадке
		w.accumulator = 0
	}

	for _, b := range w.bodies {
		b.Force = mgl64.Vec3{}
		b.Torque = mgl64.Vec3{}
	}

	w.fireBeganContacts(contacts)
}

func (w *World) subStep(h float64, contacts map[string]contact) {
	// Интегрирование
	for _, b := range w.bodies {
		if b.IsStatic() {
			continue
		}
		acc := w.cfg.Gravity.Add(b.Force.Mul(1.0 / b.Mass))
		b.LinearVelocity = b.LinearVelocity.Add(acc.Mul(h))
		if b.LinearDamping > 0 {
			b.LinearVelocity = b.LinearVelocity.Mul(1.0 / (1.0 + b.LinearDamping*h))
		}
		if b.Torque.Len() > 0 {
			b.AngularVelocity = b.AngularVelocity.Add(b.Torque.Mul(h / b.Mass))
		}
		if b.AngularDamping > 0 {
			b.AngularVelocity = b.AngularVelocity.Mul(1.0 / (1.0 + b.AngularDamping*h))
		}

		b.Position = b.Position.Add(b.LinearVelocity.Mul(h))

		if b.AngularVelocity.Len() > 1e-12 {
			spin := mgl64.Quat{W: 0, V: b.AngularVelocity}
			dq := spin.Mul(b.Orientation).Scale(0.5 * h)
			b.Orientation = b.Orientation.Add(dq).Normalize()
		}

		b.Grounded = false
	}

	// Разрешение контактов
	for i := 0; i < w.cfg.SolverIterations; i++ {
		w.resolveHeightfields(contacts)
		w.resolvePairs(contacts)
	}
}

// resolveHeightfields контакт динамических тел с поверхностями
func (w *World) resolveHeightfields(contacts map[string]contact) {
	for _, ground := range w.bodies {
		hf, ok := ground.Shape.(*HeightfieldShape)
		if !ok {
			continue
		}
		for _, b := range w.bodies {
			if b == ground || b.IsStatic() {
				continue
			}
			local := b.Position.Sub(ground.Position)
			surface := ground.Position.Y() + hf.HeightAt(local.X(), local.Z())
			bottom := b.Position.Y() - b.Shape.BottomExtent()
			pen := surface - bottom

			if pen > 0 {
				b.Position = mgl64.Vec3{b.Position.X(), b.Position.Y() + pen, b.Position.Z()}
				if b.LinearVelocity.Y() < 0 {
					b.LinearVelocity = mgl64.Vec3{b.LinearVelocity.X(), 0, b.LinearVelocity.Z()}
				}
			}
			if pen > -groundedTolerance {
				b.Grounded = true
				point := mgl64.Vec3{b.Position.X(), surface, b.Position.Z()}
				contacts[pairKey(b, ground)] = contact{a: b, b: ground, point: point}
			}
		}
	}
}

// resolvePairs контакт пар тел через ограничивающие сферы. Узкая фаза
// намеренно грубая: для попаданий снарядов и столкновений корпуса с
// пропсами точность сферы достаточна.
func (w *World) resolvePairs(contacts map[string]contact) {
	for i := 0; i < len(w.bodies); i++ {
		a := w.bodies[i]
		if _, isHF := a.Shape.(*HeightfieldShape); isHF {
			continue
		}
		for j := i + 1; j < len(w.bodies); j++ {
			b := w.bodies[j]
			if _, isHF := b.Shape.(*HeightfieldShape); isHF {
				continue
			}
			if a.IsStatic() && b.IsStatic() {
				continue
			}

			diff := b.Position.Sub(a.Position)
			dist := diff.Len()
			sumR := a.Shape.BoundingRadius() + b.Shape.BoundingRadius()
			if dist >= sumR {
				continue
			}

			normal := mgl64.Vec3{0, 1, 0}
			if dist > 1e-9 {
				normal = diff.Mul(1.0 / dist)
			}
			pen := sumR - dist

			invA, invB := invMass(a), invMass(b)
			total := invA + invB
			if total > 0 {
				a.Position = a.Position.Sub(normal.Mul(pen * invA / total))
				b.Position = b.Position.Add(normal.Mul(pen * invB / total))

				rv := b.LinearVelocity.Sub(a.LinearVelocity).Dot(normal)
				if rv < 0 {
					impulse := -rv / total
					a.LinearVelocity = a.LinearVelocity.Sub(normal.Mul(impulse * invA))
					b.LinearVelocity = b.LinearVelocity.Add(normal.Mul(impulse * invB))
				}
			}

			point := a.Position.Add(normal.Mul(a.Shape.BoundingRadius()))
			contacts[pairKey(a, b)] = contact{a: a, b: b, point: point}
		}
	}
}

func invMass(b *Body) float64 {
	if b.IsStatic() {
		return 0
	}
	return 1.0 / b.Mass
}

// pairKey детерминированный ключ неупорядоченной пары тел
func pairKey(a, b *Body) string {
	if a.ID < b.ID {
		return a.ID + "|" + b.ID
	}
	return b.ID + "|" + a.ID
}

// fireBeganContacts вызывает обработчики для пар, которых не было в
// прошлом шаге. Порядок вызова детерминирован сортировкой ключей.
func (w *World) fireBeganContacts(contacts map[string]contact) {
	if len(w.handlers) > 0 {
		keys := make([]string, 0, len(contacts))
		for k := range contacts {
			if _, existed := w.prevPairs[k]; !existed {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			c := contacts[k]
			for _, h := range w.handlers {
				h(c.a, c.b, c.point)
			}
		}
	}

	w.prevPairs = make(map[string]struct{}, len(contacts))
	for k := range contacts {
		w.prevPairs[k] = struct{}{}
	}
}

// HorizontalSpeed модуль горизонтальной составляющей скорости тела
func HorizontalSpeed(v mgl64.Vec3) float64 {
	return math.Hypot(v.X(), v.Z())
}

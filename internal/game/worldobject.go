package game

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"

	"x-tanks/internal/physics"
	"x-tanks/internal/render"
	"x-tanks/internal/world"
)

// WorldObject статическое препятствие: дерево, камень, здание. Визуал
// идет от провайдера моделей (с процедурным откатом), коллизия —
// нулевая масса и коробка по типу пропа.
type WorldObject struct {
	id   string
	prop world.PropType
	node *render.Node
	body *physics.Body
}

// NewWorldObject создает статический объект в указанной точке
func NewWorldObject(id string, prop world.PropType, position mgl64.Vec3, provider world.ModelProvider, logger *logrus.Logger) *WorldObject {
	node := world.PropModel(provider, prop, logger.WithField("system", "world"))
	node.Position = position

	body := physics.NewBody(id, &physics.BoxShape{HalfExtents: world.PropHalfExtents(prop)}, 0, position)
	body.UserData = BodyTag{Role: RoleObstacle, EntityID: id}

	return &WorldObject{
		id:   id,
		prop: prop,
		node: node,
		body: body,
	}
}

func (o *WorldObject) ID() string { return o.id }
func (o *WorldObject) Prop() world.PropType { return o.prop }
func (o *WorldObject) Node() *render.Node { return o.node }
func (o *WorldObject) Body() *physics.Body { return o.body }

// Update статические объекты не меняются между тиками
func (o *WorldObject) Update(delta float64) {}

// Dispose освобождает визуальные ресурсы
func (o *WorldObject) Dispose() {
	o.node.Dispose()
}

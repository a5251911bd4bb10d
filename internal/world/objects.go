package world

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"

	"x-tanks/internal/render"
)

// PropType тип статического объекта мира
type PropType string

const (
	PropTree     PropType = "tree"
	PropRock     PropType = "rock"
	PropBuilding PropType = "building"
	PropGeneric  PropType = "generic"
)

// ModelProvider внешний поставщик моделей. Отсутствие модели — не
// ошибка: вызывающий обязан откатиться на процедурную заглушку.
type ModelProvider interface {
	GetModel(name string) (*render.Node, bool)
}

// PropModel возвращает модель пропа от провайдера или процедурную
// заглушку, если провайдера нет или модель не найдена. Никогда не
// фатально.
func PropModel(provider ModelProvider, prop PropType, logger *logrus.Entry) *render.Node {
	if provider != nil {
		if node, ok := provider.GetModel(string(prop)); ok {
			return node
		}
		logger.Warnf("модель %q не найдена, используется процедурная заглушка", prop)
	}
	return FallbackModel(prop)
}

// FallbackModel процедурная модель пропа из примитивов
func FallbackModel(prop PropType) *render.Node {
	node := render.NewNode(string(prop))
	switch prop {
	case PropTree:
		trunk := boxNode("trunk", mgl64.Vec3{0.25, 1.5, 0.25}, "#6b4423")
		crown := boxNode("crown", mgl64.Vec3{1.2, 1.2, 1.2}, "#1e6b1e")
		crown.Position = mgl64.Vec3{0, 2.4, 0}
		node.AddChild(trunk)
		node.AddChild(crown)
	case PropRock:
		node.AddChild(boxNode("rock", mgl64.Vec3{1.0, 0.7, 1.0}, "#7d7d7d"))
	case PropBuilding:
		node.AddChild(boxNode("walls", mgl64.Vec3{3.0, 2.5, 3.0}, "#a88f6a"))
	default:
		node.AddChild(boxNode("block", mgl64.Vec3{0.5, 0.5, 0.5}, "#888888"))
	}
	return node
}

// PropHalfExtents полуразмеры коллизионного ящика пропа
func PropHalfExtents(prop PropType) mgl64.Vec3 {
	switch prop {
	case PropTree:
		return mgl64.Vec3{0.4, 2.0, 0.4}
	case PropRock:
		return mgl64.Vec3{1.0, 0.7, 1.0}
	case PropBuilding:
		return mgl64.Vec3{3.0, 2.5, 3.0}
	default:
		return mgl64.Vec3{0.5, 0.5, 0.5}
	}
}

// boxNode узел с геометрией параллелепипеда по полуразмерам
func boxNode(name string, half mgl64.Vec3, color string) *render.Node {
	hx, hy, hz := half.X(), half.Y(), half.Z()
	vertices := []mgl64.Vec3{
		{-hx, -hy, -hz}, {hx, -hy, -hz}, {hx, hy, -hz}, {-hx, hy, -hz},
		{-hx, -hy, hz}, {hx, -hy, hz}, {hx, hy, hz}, {-hx, hy, hz},
	}
	indices := []uint32{
		0, 2, 1, 0, 3, 2, // задняя
		4, 5, 6, 4, 6, 7, // передняя
		0, 1, 5, 0, 5, 4, // низ
		3, 7, 6, 3, 6, 2, // верх
		0, 4, 7, 0, 7, 3, // левая
		1, 2, 6, 1, 6, 5, // правая
	}
	node := render.NewNode(name)
	node.Mesh = &render.Mesh{
		Geometry: &render.Geometry{
			Vertices: vertices,
			Normals:  computeNormals(vertices, indices),
			Indices:  indices,
		},
		Material: &render.Material{Color: color},
	}
	return node
}

// SpawnPoints генерирует точки появления на поверхности. RNG
// внедряется, чтобы расстановка воспроизводилась под тестами.
func SpawnPoints(grid *HeightGrid, rng *rand.Rand, count int, clearance float64) []mgl64.Vec3 {
	points := make([]mgl64.Vec3, 0, count)
	// Держимся в 80% площади, чтобы не спавнить на краю карты
	extent := grid.Size * 0.4
	for i := 0; i < count; i++ {
		x := (rng.Float64()*2 - 1) * extent
		z := (rng.Float64()*2 - 1) * extent
		y := grid.HeightAt(x, z) + clearance
		points = append(points, mgl64.Vec3{x, y, z})
	}
	return points
}

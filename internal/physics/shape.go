package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeType тип формы коллизии
type ShapeType int

const (
	ShapeSphere ShapeType = iota
	ShapeBox
	ShapeCylinder
	ShapeCompound
	ShapeHeightfield
)

// Shape описывает геометрию коллизии тела. Узкая фаза движка работает
// только через BoundingRadius и BottomExtent, поэтому новые формы
// добавляются без изменения мира.
type Shape interface {
	Type() ShapeType

	// BoundingRadius радиус ограничивающей сферы вокруг центра тела
	BoundingRadius() float64

	// BottomExtent расстояние от центра тела до нижней точки формы
	// (используется контактом с heightfield)
	BottomExtent() float64
}

// SphereShape сферическая форма
type SphereShape struct {
	Radius float64
}

func (s *SphereShape) Type() ShapeType         { return ShapeSphere }
func (s *SphereShape) BoundingRadius() float64 { return s.Radius }
func (s *SphereShape) BottomExtent() float64   { return s.Radius }

// BoxShape форма-параллелепипед, задаётся полуразмерами
type BoxShape struct {
	HalfExtents mgl64.Vec3
}

func (b *BoxShape) Type() ShapeType         { return ShapeBox }
func (b *BoxShape) BoundingRadius() float64 { return b.HalfExtents.Len() }
func (b *BoxShape) BottomExtent() float64   { return b.HalfExtents.Y() }

// CylinderShape цилиндр с осью вдоль Y
type CylinderShape struct {
	Radius     float64
	HalfHeight float64
}

func (c *CylinderShape) Type() ShapeType { return ShapeCylinder }

func (c *CylinderShape) BoundingRadius() float64 {
	return math.Sqrt(c.Radius*c.Radius + c.HalfHeight*c.HalfHeight)
}

func (c *CylinderShape) BottomExtent() float64 { return c.HalfHeight }

// ChildShape дочерняя форма составного тела со смещением от центра
type ChildShape struct {
	Offset mgl64.Vec3
	Shape  Shape
}

// CompoundShape составная форма (корпус танка + башня и т.п.)
type CompoundShape struct {
	Children []ChildShape
}

func (c *CompoundShape) Type() ShapeType { return ShapeCompound }

func (c *CompoundShape) BoundingRadius() float64 {
	var max float64
	for _, ch := range c.Children {
		if r := ch.Offset.Len() + ch.Shape.BoundingRadius(); r > max {
			max = r
		}
	}
	return max
}

func (c *CompoundShape) BottomExtent() float64 {
	var max float64
	for _, ch := range c.Children {
		// Нижняя точка дочерней формы относительно центра тела
		if e := ch.Shape.BottomExtent() - ch.Offset.Y(); e > max {
			max = e
		}
	}
	return max
}

// HeightfieldShape статическая поверхность по сетке высот.
// Сетка (resolution+1)×(resolution+1) покрывает квадрат со стороной
// size, центр квадрата — в позиции тела. Слайс высот разделяется с
// генератором террейна: визуальная и коллизионная поверхность обязаны
// читать одни и те же значения.
type HeightfieldShape struct {
	Heights    []float64
	Resolution int
	Size       float64
	MinHeight  float64
	MaxHeight  float64
}

func (h *HeightfieldShape) Type() ShapeType { return ShapeHeightfield }

func (h *HeightfieldShape) BoundingRadius() float64 {
	half := h.Size / 2
	return math.Sqrt(2*half*half + h.MaxHeight*h.MaxHeight)
}

func (h *HeightfieldShape) BottomExtent() float64 { return 0 }

// HeightAt высота поверхности в мировых координатах (x, z) относительно
// позиции тела-носителя. Точка за пределами сетки прижимается к краю.
func (h *HeightfieldShape) HeightAt(x, z float64) float64 {
	i := h.sampleIndex(x)
	j := h.sampleIndex(z)
	return h.Heights[j*(h.Resolution+1)+i]
}

func (h *HeightfieldShape) sampleIndex(coord float64) int {
	idx := int(math.Floor((coord + h.Size/2) / h.Size * float64(h.Resolution)))
	if idx < 0 {
		idx = 0
	}
	if idx > h.Resolution {
		idx = h.Resolution
	}
	return idx
}

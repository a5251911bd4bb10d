// Package render содержит контракт сцены для визуальных представлений
// сущностей. Сам конвейер рендеринга внешний: здесь только дерево
// узлов, геометрия с освобождением ресурсов и write-only синхронизация
// трансформов из физики.
package render

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Geometry вершинные данные меша
type Geometry struct {
	Vertices []mgl64.Vec3
	Normals  []mgl64.Vec3
	Indices  []uint32

	disposed bool
}

// Dispose освобождает вершинные буферы. Повторный вызов — no-op.
func (g *Geometry) Dispose() {
	if g == nil || g.disposed {
		return
	}
	g.Vertices = nil
	g.Normals = nil
	g.Indices = nil
	g.disposed = true
}

// Disposed true после освобождения
func (g *Geometry) Disposed() bool { return g != nil && g.disposed }

// Material параметры материала
type Material struct {
	Color string

	disposed bool
}

// Dispose освобождает материал
func (m *Material) Dispose() {
	if m == nil {
		return
	}
	m.disposed = true
}

// Disposed true после освобождения
func (m *Material) Disposed() bool { return m != nil && m.disposed }

// Mesh геометрия с материалом
type Mesh struct {
	Geometry *Geometry
	Material *Material
}

// Node узел графа сцены. Трансформ узла — выход симуляции: его пишет
// только post-step синхронизация, рендер никогда не мутирует
// симулируемые тела через узлы.
type Node struct {
	Name     string
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Scale    mgl64.Vec3
	Mesh     *Mesh

	children []*Node
}

// NewNode создает узел с единичным трансформом
func NewNode(name string) *Node {
	return &Node{
		Name:     name,
		Rotation: mgl64.QuatIdent(),
		Scale:    mgl64.Vec3{1, 1, 1},
	}
}

// AddChild подвешивает дочерний узел
func (n *Node) AddChild(child *Node) {
	n.children = append(n.children, child)
}

// Children дочерние узлы
func (n *Node) Children() []*Node { return n.children }

// Child ищет прямого потомка по имени
func (n *Node) Child(name string) *Node {
	for _, c := range n.children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Dispose обходит поддерево и освобождает геометрию и материалы
func (n *Node) Dispose() {
	if n == nil {
		return
	}
	if n.Mesh != nil {
		n.Mesh.Geometry.Dispose()
		n.Mesh.Material.Dispose()
	}
	for _, c := range n.children {
		c.Dispose()
	}
}

// Scene плоский список корневых узлов
type Scene struct {
	nodes []*Node
}

// NewScene создает пустую сцену
func NewScene() *Scene {
	return &Scene{}
}

// Add добавляет корневой узел. Повторное добавление того же узла
// игнорируется.
func (s *Scene) Add(n *Node) {
	if n == nil {
		return
	}
	for _, existing := range s.nodes {
		if existing == n {
			return
		}
	}
	s.nodes = append(s.nodes, n)
}

// Remove убирает узел из сцены. Отсутствующий узел — no-op.
func (s *Scene) Remove(n *Node) {
	for i, existing := range s.nodes {
		if existing == n {
			s.nodes = append(s.nodes[:i], s.nodes[i+1:]...)
			return
		}
	}
}

// Contains true, если узел в сцене
func (s *Scene) Contains(n *Node) bool {
	for _, existing := range s.nodes {
		if existing == n {
			return true
		}
	}
	return false
}

// Len число корневых узлов
func (s *Scene) Len() int { return len(s.nodes) }

package world

import (
	"github.com/go-gl/mathgl/mgl64"

	"x-tanks/internal/render"
)

// TerrainColor цвет материала поверхности по умолчанию
const TerrainColor = "#007700"

// BuildSurface строит визуальную поверхность: subdivided-плоскость,
// высоты вершин берутся из сетки, нормали пересчитываются после
// смещения.
func BuildSurface(grid *HeightGrid) *render.Node {
	res := grid.Resolution
	step := grid.Step()
	half := grid.Size / 2

	vertexCount := (res + 1) * (res + 1)
	vertices := make([]mgl64.Vec3, vertexCount)
	for j := 0; j <= res; j++ {
		for i := 0; i <= res; i++ {
			vertices[j*(res+1)+i] = mgl64.Vec3{
				-half + float64(i)*step,
				grid.At(i, j),
				-half + float64(j)*step,
			}
		}
	}

	// Два треугольника на ячейку
	indices := make([]uint32, 0, res*res*6)
	for j := 0; j < res; j++ {
		for i := 0; i < res; i++ {
			a := uint32(j*(res+1) + i)
			b := uint32(j*(res+1) + i + 1)
			c := uint32((j+1)*(res+1) + i)
			d := uint32((j+1)*(res+1) + i + 1)
			indices = append(indices, a, c, b, b, c, d)
		}
	}

	normals := computeNormals(vertices, indices)

	node := render.NewNode("terrain")
	node.Mesh = &render.Mesh{
		Geometry: &render.Geometry{
			Vertices: vertices,
			Normals:  normals,
			Indices:  indices,
		},
		Material: &render.Material{Color: TerrainColor},
	}
	return node
}

// computeNormals нормали вершин усреднением нормалей примыкающих граней
func computeNormals(vertices []mgl64.Vec3, indices []uint32) []mgl64.Vec3 {
	normals := make([]mgl64.Vec3, len(vertices))
	for t := 0; t+2 < len(indices); t += 3 {
		ia, ib, ic := indices[t], indices[t+1], indices[t+2]
		edge1 := vertices[ib].Sub(vertices[ia])
		edge2 := vertices[ic].Sub(vertices[ia])
		face := edge1.Cross(edge2)
		normals[ia] = normals[ia].Add(face)
		normals[ib] = normals[ib].Add(face)
		normals[ic] = normals[ic].Add(face)
	}
	for i, n := range normals {
		if n.Len() > 1e-12 {
			normals[i] = n.Normalize()
		} else {
			normals[i] = mgl64.Vec3{0, 1, 0}
		}
	}
	return normals
}

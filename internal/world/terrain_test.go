package world

import (
	"io"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestGenerateDeterministic(t *testing.T) {
	// Одинаковый seed дает одинаковую карту
	gridA, _, _ := NewGenerator(42, testLogger()).Generate(1000, 64, 50)
	gridB, _, _ := NewGenerator(42, testLogger()).Generate(1000, 64, 50)

	for i, h := range gridA.Heights() {
		if gridB.Heights()[i] != h {
			t.Fatalf("Heights differ at index %d: %f vs %f", i, h, gridB.Heights()[i])
		}
	}

	// Другой seed дает другую карту
	gridC, _, _ := NewGenerator(43, testLogger()).Generate(1000, 64, 50)
	same := true
	for i, h := range gridA.Heights() {
		if gridC.Heights()[i] != h {
			same = false
			break
		}
	}
	if same {
		t.Error("Expected different seeds to produce different terrain")
	}
}

func TestGenerateHeightRange(t *testing.T) {
	maxHeight := 50.0
	floor := HeightFloorFactor * maxHeight

	grid, _, _ := NewGenerator(1, testLogger()).Generate(1000, 128, maxHeight)

	for i, h := range grid.Heights() {
		if h < floor || h > maxHeight {
			t.Fatalf("Height %f at index %d outside [%f, %f]", h, i, floor, maxHeight)
		}
	}
}

func TestVisualMatchesCollision(t *testing.T) {
	grid, visual, collision := NewGenerator(7, testLogger()).Generate(500, 32, 40)

	// Физическая форма читает тот же слайс, что и сетка
	if &grid.Heights()[0] != &collision.Heights[0] {
		t.Fatal("Expected collision shape to share the height slice")
	}

	// Выборка точек: коллизионная высота равна высоте сетки
	for _, p := range []struct{ x, z float64 }{
		{0, 0}, {-200, 150}, {249, -249}, {-250, 250},
	} {
		if got, want := collision.HeightAt(p.x, p.z), grid.HeightAt(p.x, p.z); got != want {
			t.Errorf("HeightAt(%f, %f): collision %f, grid %f", p.x, p.z, got, want)
		}
	}

	// Вершины визуальной поверхности лежат точно на узлах сетки
	verts := visual.Mesh.Geometry.Vertices
	if len(verts) != (32+1)*(32+1) {
		t.Fatalf("Expected %d vertices, got %d", (32+1)*(32+1), len(verts))
	}
	for j := 0; j <= 32; j++ {
		for i := 0; i <= 32; i++ {
			if verts[j*(32+1)+i].Y() != grid.At(i, j) {
				t.Fatalf("Vertex (%d, %d) height %f differs from grid %f",
					i, j, verts[j*(32+1)+i].Y(), grid.At(i, j))
			}
		}
	}
}

func TestHeightAtClampsToEdge(t *testing.T) {
	grid, _, _ := NewGenerator(3, testLogger()).Generate(100, 8, 20)

	// Точки далеко за границей прижимаются к краю, а не паникуют
	corner := grid.At(0, 0)
	if got := grid.HeightAt(-1e6, -1e6); got != corner {
		t.Errorf("Expected clamped corner height %f, got %f", corner, got)
	}

	far := grid.At(8, 8)
	if got := grid.HeightAt(1e6, 1e6); got != far {
		t.Errorf("Expected clamped corner height %f, got %f", far, got)
	}
}

func TestSpawnPointsOnSurface(t *testing.T) {
	grid, _, _ := NewGenerator(5, testLogger()).Generate(1000, 64, 50)
	rng := rand.New(rand.NewSource(9))

	points := SpawnPoints(grid, rng, 10, 2.0)
	if len(points) != 10 {
		t.Fatalf("Expected 10 spawn points, got %d", len(points))
	}

	for _, p := range points {
		// Точка стоит ровно на clearance выше поверхности
		if want := grid.HeightAt(p.X(), p.Z()) + 2.0; p.Y() != want {
			t.Errorf("Spawn at (%f, %f): Y %f, want %f", p.X(), p.Z(), p.Y(), want)
		}
		// И внутри 80% площади карты
		if p.X() < -400 || p.X() > 400 || p.Z() < -400 || p.Z() > 400 {
			t.Errorf("Spawn point outside safe area: (%f, %f)", p.X(), p.Z())
		}
	}
}

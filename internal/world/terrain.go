package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	opensimplex "github.com/ojrac/opensimplex-go"
	"github.com/sirupsen/logrus"

	"x-tanks/internal/physics"
	"x-tanks/internal/render"
)

const (
	// NoiseOctaves число октав фрактального шума: каждая следующая
	// вдвое слабее и вдвое чаще
	NoiseOctaves = 6

	// NoiseBaseFrequency частота первой октавы на нормализованных
	// координатах сетки
	NoiseBaseFrequency = 4.0

	// HeightFloorFactor пол высоты: гарантирует проходимые равнины,
	// ни одна точка не опускается ниже 0.3×maxHeight
	HeightFloorFactor = 0.3
)

// HeightGrid сетка высот (resolution+1)×(resolution+1) над квадратом
// со стороной Size, центр в начале координат. Единственный источник
// правды и для визуальной, и для коллизионной поверхности.
type HeightGrid struct {
	Size       float64
	Resolution int
	MaxHeight  float64

	heights []float64
}

// At высота узла сетки (i, j)
func (g *HeightGrid) At(i, j int) float64 {
	return g.heights[j*(g.Resolution+1)+i]
}

// HeightAt высота ближайшего узла к мировой точке (x, z). Точка за
// границами прижимается к краю сетки. O(1).
func (g *HeightGrid) HeightAt(x, z float64) float64 {
	return g.heights[g.index(z)*(g.Resolution+1)+g.index(x)]
}

func (g *HeightGrid) index(coord float64) int {
	idx := int(math.Floor((coord + g.Size/2) / g.Size * float64(g.Resolution)))
	if idx < 0 {
		idx = 0
	}
	if idx > g.Resolution {
		idx = g.Resolution
	}
	return idx
}

// Heights внутренний слайс высот. Он разделяется с heightfield-формой физики:
// обе поверхности обязаны читать одни и те же значения.
func (g *HeightGrid) Heights() []float64 { return g.heights }

// Step шаг сетки в мировых единицах
func (g *HeightGrid) Step() float64 { return g.Size / float64(g.Resolution) }

// Generator процедурный генератор террейна. Шум сидируется явно,
// чтобы карта воспроизводилась в тестах и при повторном подключении.
type Generator struct {
	noise  opensimplex.Noise
	logger *logrus.Entry
}

// NewGenerator создает генератор с указанным seed
func NewGenerator(seed int64, logger *logrus.Logger) *Generator {
	return &Generator{
		noise:  opensimplex.New(seed),
		logger: logger.WithField("system", "terrain"),
	}
}

// Generate синтезирует сетку высот и обе поверхности из нее.
// Для валидных входов (size > 0, resolution > 0) генерация тотальна,
// ошибок нет.
func (g *Generator) Generate(size float64, resolution int, maxHeight float64) (*HeightGrid, *render.Node, *physics.HeightfieldShape) {
	grid := &HeightGrid{
		Size:       size,
		Resolution: resolution,
		MaxHeight:  maxHeight,
		heights:    make([]float64, (resolution+1)*(resolution+1)),
	}

	// Сумма амплитуд октав — естественный диапазон шума до нормализации
	var amplitudeSum float64
	amp := 1.0
	for o := 0; o < NoiseOctaves; o++ {
		amplitudeSum += amp
		amp *= 0.5
	}

	floor := HeightFloorFactor * maxHeight
	for j := 0; j <= resolution; j++ {
		for i := 0; i <= resolution; i++ {
			nx := float64(i) / float64(resolution)
			nz := float64(j) / float64(resolution)

			total := 0.0
			amp = 1.0
			freq := NoiseBaseFrequency
			for o := 0; o < NoiseOctaves; o++ {
				total += g.noise.Eval2(nx*freq, nz*freq) * amp
				amp *= 0.5
				freq *= 2.0
			}

			// Перенос из [-amplitudeSum, amplitudeSum] в [0, 1]
			normalized := (total/amplitudeSum + 1.0) / 2.0
			height := normalized * maxHeight
			if height < floor {
				height = floor
			}
			if height > maxHeight {
				height = maxHeight
			}
			grid.heights[j*(resolution+1)+i] = height
		}
	}

	visual := BuildSurface(grid)

	// Коллизионная форма строится над тем же слайсом высот: любое
	// расхождение визуальной и физической поверхности — баг, а не тюнинг
	collision := &physics.HeightfieldShape{
		Heights:    grid.heights,
		Resolution: resolution,
		Size:       size,
		MinHeight:  floor,
		MaxHeight:  maxHeight,
	}

	g.logger.Infof("террейн сгенерирован: size=%.0f, resolution=%d, высоты [%.1f, %.1f]",
		size, resolution, floor, maxHeight)

	return grid, visual, collision
}

// GroundBody статическое тело поверхности с меткой роли. Позиция в
// начале координат совмещает начало heightfield с визуальной
// поверхностью.
func GroundBody(id string, shape *physics.HeightfieldShape, tag interface{}) *physics.Body {
	body := physics.NewBody(id, shape, 0, mgl64.Vec3{})
	body.UserData = tag
	return body
}

package world

import (
	"github.com/aquilax/go-perlin"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
)

// Константы генерации ландшафта.
const (
	seaLevel      = 12   // Уровень моря в блоках от нижней границы зоны
	heightScale   = 0.02 // Масштаб шума высот (сглаженность ландшафта)
	dirtThickness = 3    // Толщина слоя земли под поверхностью
)

// Generator детерминированно генерирует ландшафт: одинаковый сид всегда
// даёт одинаковые блоки. Высота поверхности берётся из шума Перлина,
// ниже поверхности камень и земля, на поверхности трава, впадины ниже
// уровня моря заполняются водой.
type Generator struct {
	seed     int64
	noise    *perlin.Perlin
	registry *block.Registry
}

// NewGenerator создаёт генератор мира с указанным сидом.
func NewGenerator(registry *block.Registry, seed int64) *Generator {
	return &Generator{
		seed: seed,
		// alpha=2 — сглаживание, beta=2 — частота, 3 октавы
		noise:    perlin.NewPerlin(2.0, 2.0, 3, seed),
		registry: registry,
	}
}

// GenerateZone заполняет билдер чанками для каждой позиции в его границах
// и строит зону. Генерация — дорогая операция, вызывать её следует вне
// основной горутины игры.
func (g *Generator) GenerateZone(builder *ZoneBuilder) (*Zone, error) {
	min, max := builder.Min(), builder.Max()
	for x := min.X; x <= max.X; x++ {
		for y := min.Y; y <= max.Y; y++ {
			for z := min.Z; z <= max.Z; z++ {
				pos := vec.ChunkPos{X: x, Y: y, Z: z}
				if err := builder.AddChunk(pos, g.GenerateChunk(pos)); err != nil {
					return nil, err
				}
			}
		}
	}
	return builder.Build()
}

// GenerateChunk генерирует один чанк по его позиции.
func (g *Generator) GenerateChunk(pos vec.ChunkPos) *Chunk {
	chunk := NewChunk()

	stone := g.registry.ID(block.KindStone)
	dirt := g.registry.ID(block.KindDirt)
	grass := g.registry.ID(block.KindGrass)
	water := g.registry.IDWith(block.KindWater, 7)

	origin := pos.Origin()
	for x := 0; x < vec.ChunkSize; x++ {
		for z := 0; z < vec.ChunkSize; z++ {
			surface := g.surfaceHeight(origin.X+x, origin.Z+z)

			for y := 0; y < vec.ChunkSize; y++ {
				worldY := origin.Y + y

				switch {
				case worldY < surface-dirtThickness:
					chunk.Set(x, y, z, stone)
				case worldY < surface:
					chunk.Set(x, y, z, dirt)
				case worldY == surface:
					if worldY < seaLevel {
						chunk.Set(x, y, z, dirt)
					} else {
						chunk.Set(x, y, z, grass)
					}
				case worldY <= seaLevel:
					chunk.Set(x, y, z, water)
					// Выше — воздух, чанк им уже заполнен
				}
			}
		}
	}

	return chunk
}

// surfaceHeight возвращает высоту поверхности для столбца (x, z).
func (g *Generator) surfaceHeight(x, z int) int {
	noise := g.noise.Noise2D(float64(x)*heightScale, float64(z)*heightScale)
	// Шум в диапазоне [-1, 1]; переводим в [8, 24) блоков высоты
	return 8 + int((noise+1.0)/2.0*16.0)
}

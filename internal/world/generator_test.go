package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
)

func TestGeneratorFillsZone(t *testing.T) {
	gen := NewGenerator(block.DefaultRegistry(), 12345)

	builder := NewZoneBuilder(vec.ChunkPos{}, vec.ChunkPos{X: 1, Y: 1, Z: 1})
	zone, err := gen.GenerateZone(builder)
	require.NoError(t, err)

	// Каждая позиция в границах доступна
	for x := 0; x < 32; x++ {
		for z := 0; z < 32; z++ {
			_, ok := zone.Block(vec.BlockPos{X: x, Y: 0, Z: z})
			require.True(t, ok)
		}
	}
}

func TestGeneratorDeterministic(t *testing.T) {
	genA := NewGenerator(block.DefaultRegistry(), 777)
	genB := NewGenerator(block.DefaultRegistry(), 777)

	pos := vec.ChunkPos{X: 3, Y: 0, Z: -2}
	a := genA.GenerateChunk(pos)
	b := genB.GenerateChunk(pos)

	for x := 0; x < vec.ChunkSize; x++ {
		for y := 0; y < vec.ChunkSize; y++ {
			for z := 0; z < vec.ChunkSize; z++ {
				require.Equal(t, a.Get(x, y, z), b.Get(x, y, z))
			}
		}
	}
}

func TestGeneratorTerrainShape(t *testing.T) {
	gen := NewGenerator(block.DefaultRegistry(), 1)

	// Нижний чанк у основания мира: столбец обязан начинаться с камня
	chunk := gen.GenerateChunk(vec.ChunkPos{})
	assert.True(t, chunk.Get(0, 0, 0).Is(block.KindStone))

	// Высоко над поверхностью — только воздух
	sky := gen.GenerateChunk(vec.ChunkPos{Y: 4})
	for x := 0; x < vec.ChunkSize; x++ {
		for y := 0; y < vec.ChunkSize; y++ {
			for z := 0; z < vec.ChunkSize; z++ {
				require.True(t, sky.Get(x, y, z).Is(block.KindAir))
			}
		}
	}
}

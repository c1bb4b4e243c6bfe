package world

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
)

func TestZoneBuilderNormalizesBounds(t *testing.T) {
	// Компоненты min/max переставляются независимо по каждой оси
	b := NewZoneBuilder(vec.ChunkPos{X: 5, Y: -2, Z: 0}, vec.ChunkPos{X: -1, Y: 3, Z: 0})
	assert.Equal(t, vec.ChunkPos{X: -1, Y: -2, Z: 0}, b.Min())
	assert.Equal(t, vec.ChunkPos{X: 5, Y: 3, Z: 0}, b.Max())
	assert.Equal(t, 7*6*1, b.NeededChunks())
}

func TestZoneBuilderRejectsOutOfBounds(t *testing.T) {
	b := NewZoneBuilder(vec.ChunkPos{}, vec.ChunkPos{X: 1})

	err := b.AddChunk(vec.ChunkPos{X: 0, Y: 1, Z: 0}, NewChunk())
	require.Error(t, err)

	var oob *ChunkOutOfBoundsError
	require.True(t, errors.As(err, &oob))
	assert.Equal(t, vec.ChunkPos{X: 0, Y: 1, Z: 0}, oob.Pos)
}

func TestZoneBuilderCompletenessGate(t *testing.T) {
	b := NewZoneBuilder(vec.ChunkPos{}, vec.ChunkPos{X: 1})
	require.Equal(t, 2, b.NeededChunks())

	// Build до заполнения всех позиций — ошибка, билдер пригоден дальше
	_, err := b.Build()
	require.ErrorIs(t, err, ErrZoneIncomplete)
	assert.False(t, b.IsComplete())

	require.NoError(t, b.AddChunk(vec.ChunkPos{X: 1}, NewChunk()))
	_, err = b.Build()
	require.ErrorIs(t, err, ErrZoneIncomplete)

	// Дополняем недостающий чанк и повторяем
	require.NoError(t, b.AddChunk(vec.ChunkPos{}, NewChunk()))
	assert.True(t, b.IsComplete())

	zone, err := b.Build()
	require.NoError(t, err)
	assert.NotNil(t, zone.Chunk(vec.ChunkPos{}))
	assert.NotNil(t, zone.Chunk(vec.ChunkPos{X: 1}))
}

func TestZoneBuilderExhaustedAfterBuild(t *testing.T) {
	b := NewZoneBuilder(vec.ChunkPos{}, vec.ChunkPos{})
	require.NoError(t, b.AddChunk(vec.ChunkPos{}, NewChunk()))

	_, err := b.Build()
	require.NoError(t, err)

	// Повторное использование после успешной постройки — ошибка, не паника
	err = b.AddChunk(vec.ChunkPos{}, NewChunk())
	require.ErrorIs(t, err, ErrBuilderExhausted)
}

func TestZoneBuilderInsertionOrderIrrelevant(t *testing.T) {
	reg := block.DefaultRegistry()

	// Заполняем зону 2x2x2 в обратном порядке; каждый чанк помечен
	// блоком, по которому проверяется правильность укладки.
	b := NewZoneBuilder(vec.ChunkPos{}, vec.ChunkPos{X: 1, Y: 1, Z: 1})
	marks := map[vec.ChunkPos]block.ID{}
	level := uint32(0)
	for x := 1; x >= 0; x-- {
		for y := 1; y >= 0; y-- {
			for z := 1; z >= 0; z-- {
				pos := vec.ChunkPos{X: x, Y: y, Z: z}
				mark := reg.IDWith(block.KindWater, level)
				level++

				chunk := NewChunk()
				chunk.Set(0, 0, 0, mark)
				marks[pos] = mark
				require.NoError(t, b.AddChunk(pos, chunk))
			}
		}
	}

	zone, err := b.Build()
	require.NoError(t, err)

	for pos, mark := range marks {
		chunk := zone.Chunk(pos)
		require.NotNil(t, chunk, "чанк %v", pos)
		assert.Equal(t, mark, chunk.Get(0, 0, 0), "чанк %v", pos)
	}
}

func buildZone(t *testing.T, min, max vec.ChunkPos) *Zone {
	t.Helper()
	b := NewZoneBuilder(min, max)
	for x := b.Min().X; x <= b.Max().X; x++ {
		for y := b.Min().Y; y <= b.Max().Y; y++ {
			for z := b.Min().Z; z <= b.Max().Z; z++ {
				require.NoError(t, b.AddChunk(vec.ChunkPos{X: x, Y: y, Z: z}, NewChunk()))
			}
		}
	}
	zone, err := b.Build()
	require.NoError(t, err)
	return zone
}

func TestZoneBlockReadWrite(t *testing.T) {
	reg := block.DefaultRegistry()
	zone := buildZone(t, vec.ChunkPos{}, vec.ChunkPos{X: 1})
	dirt := reg.ID(block.KindDirt)

	for x := 0; x < 32; x++ {
		for y := 0; y < 16; y++ {
			for z := 0; z < 16; z++ {
				pos := vec.BlockPos{X: x, Y: y, Z: z}

				id, ok := zone.Block(pos)
				require.True(t, ok)
				require.True(t, id.Is(block.KindAir))

				require.NoError(t, zone.SetBlock(pos, dirt))

				id, ok = zone.Block(pos)
				require.True(t, ok)
				require.True(t, id.Is(block.KindDirt))
			}
		}
	}
}

func TestZoneBlockOutOfBounds(t *testing.T) {
	reg := block.DefaultRegistry()
	zone := buildZone(t, vec.ChunkPos{}, vec.ChunkPos{})

	// Чтение и запись за границей — восстановимые состояния, не паника
	_, ok := zone.Block(vec.BlockPos{X: 16})
	assert.False(t, ok)
	_, ok = zone.Block(vec.BlockPos{X: -1})
	assert.False(t, ok)

	err := zone.SetBlock(vec.BlockPos{Y: 99}, reg.ID(block.KindDirt))
	var oob *BlockOutOfBoundsError
	require.True(t, errors.As(err, &oob))
	assert.Equal(t, vec.BlockPos{Y: 99}, oob.Pos)
}

func TestZoneWriteDoesNotLeakIntoNeighbour(t *testing.T) {
	reg := block.DefaultRegistry()
	zone := buildZone(t, vec.ChunkPos{}, vec.ChunkPos{X: 1})

	// Мировая позиция (20,0,0) — чанк (1,0,0), локальная (4,0,0)
	require.NoError(t, zone.SetBlock(vec.BlockPos{X: 20}, reg.ID(block.KindStone)))

	// Чанк (0,0,0) не затронут
	first := zone.Chunk(vec.ChunkPos{})
	for x := 0; x < vec.ChunkSize; x++ {
		for y := 0; y < vec.ChunkSize; y++ {
			for z := 0; z < vec.ChunkSize; z++ {
				require.True(t, first.Get(x, y, z).Is(block.KindAir))
			}
		}
	}

	assert.True(t, zone.Chunk(vec.ChunkPos{X: 1}).Get(4, 0, 0).Is(block.KindStone))
}

func TestZoneNegativeBounds(t *testing.T) {
	reg := block.DefaultRegistry()
	zone := buildZone(t, vec.ChunkPos{X: -2, Y: -1, Z: -1}, vec.ChunkPos{X: 1, Y: 1, Z: 1})

	pos := vec.BlockPos{X: -20, Y: -5, Z: -1}
	require.NoError(t, zone.SetBlock(pos, reg.ID(block.KindGrass)))

	id, ok := zone.Block(pos)
	require.True(t, ok)
	assert.True(t, id.Is(block.KindGrass))
}

func TestZoneDims(t *testing.T) {
	zone := buildZone(t, vec.ChunkPos{X: -1}, vec.ChunkPos{X: 2, Y: 1, Z: 3})
	assert.Equal(t, 4, zone.XDim())
	assert.Equal(t, 2, zone.YDim())
	assert.Equal(t, 4, zone.ZDim())
}

func TestZoneForEachChunkOrder(t *testing.T) {
	zone := buildZone(t, vec.ChunkPos{}, vec.ChunkPos{X: 1, Y: 1, Z: 1})

	var visited []vec.ChunkPos
	zone.ForEachChunk(func(pos vec.ChunkPos, chunk *Chunk) {
		require.Same(t, zone.Chunk(pos), chunk)
		visited = append(visited, pos)
	})

	require.Equal(t, 8, len(visited))
	for i := 1; i < len(visited); i++ {
		assert.True(t, visited[i-1].Less(visited[i]), "порядок обхода должен быть лексикографическим")
	}
}

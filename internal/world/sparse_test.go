package world

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
)

func TestSparseZoneUnknownChunk(t *testing.T) {
	s := NewSparseZone()

	// Без загруженных чанков любой запрос — «неизвестно»
	_, ok := s.Block(vec.BlockPos{})
	assert.False(t, ok)
	assert.Nil(t, s.Chunk(vec.ChunkPos{}))

	err := s.SetBlock(vec.BlockPos{}, block.Air())
	var oob *BlockOutOfBoundsError
	assert.True(t, errors.As(err, &oob))
}

func TestSparseZoneInsertThenQuery(t *testing.T) {
	s := NewSparseZone()
	s.Insert(vec.ChunkPos{}, NewChunk())

	id, ok := s.Block(vec.BlockPos{})
	require.True(t, ok)
	assert.True(t, id.Is(block.KindAir))

	// Соседний чанк всё ещё не загружен
	_, ok = s.Block(vec.BlockPos{X: 16})
	assert.False(t, ok)
}

func TestSparseZoneInsertOverwrites(t *testing.T) {
	reg := block.DefaultRegistry()
	s := NewSparseZone()

	first := NewChunk()
	first.Set(0, 0, 0, reg.ID(block.KindDirt))
	s.Insert(vec.ChunkPos{}, first)

	// Повторная вставка заменяет чанк целиком, а не сливает
	s.Insert(vec.ChunkPos{}, NewChunk())

	id, ok := s.Block(vec.BlockPos{})
	require.True(t, ok)
	assert.True(t, id.Is(block.KindAir))
	assert.Equal(t, 1, s.Len())
}

func TestSparseZoneRemove(t *testing.T) {
	reg := block.DefaultRegistry()
	s := NewSparseZone()

	chunk := NewChunk()
	chunk.Set(3, 3, 3, reg.ID(block.KindStone))
	s.Insert(vec.ChunkPos{X: 2}, chunk)

	removed := s.Remove(vec.ChunkPos{X: 2})
	require.NotNil(t, removed)
	assert.True(t, removed.Get(3, 3, 3).Is(block.KindStone))
	assert.Equal(t, 0, s.Len())

	// Повторное удаление — nil, не ошибка
	assert.Nil(t, s.Remove(vec.ChunkPos{X: 2}))
}

func TestSparseZoneSetBlock(t *testing.T) {
	reg := block.DefaultRegistry()
	s := NewSparseZone()
	s.Insert(vec.ChunkPos{X: -1}, NewChunk())

	pos := vec.BlockPos{X: -3, Y: 5, Z: 5}
	require.NoError(t, s.SetBlock(pos, reg.ID(block.KindGrass)))

	id, ok := s.Block(pos)
	require.True(t, ok)
	assert.True(t, id.Is(block.KindGrass))
}

package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/annel0/voxel-world/internal/world/block"
)

func setupTestStorage(t *testing.T) *WorldStorage {
	t.Helper()

	storage, err := NewInMemoryStorage()
	require.NoError(t, err, "не удалось создать хранилище")
	t.Cleanup(func() { storage.Close() })

	return storage
}

func testZoneID(t *testing.T) world.ZoneID {
	t.Helper()
	w := world.NewWorld[*world.SparseZone](world.NewSparseZone())
	return w.MainZoneID()
}

func TestSaveAndLoadChunk(t *testing.T) {
	storage := setupTestStorage(t)
	reg := block.DefaultRegistry()
	zone := testZoneID(t)

	chunk := world.NewChunk()
	chunk.Set(5, 5, 5, reg.ID(block.KindDirt))
	chunk.Set(0, 15, 15, reg.IDWith(block.KindWater, 4))

	pos := vec.ChunkPos{X: -2, Y: 0, Z: 3}
	require.NoError(t, storage.SaveChunk(zone, pos, chunk))

	loaded, found, err := storage.LoadChunk(zone, pos)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, reg.ID(block.KindDirt), loaded.Get(5, 5, 5))
	assert.Equal(t, reg.IDWith(block.KindWater, 4), loaded.Get(0, 15, 15))
	assert.Equal(t, block.Air(), loaded.Get(1, 1, 1))
}

func TestLoadMissingChunk(t *testing.T) {
	storage := setupTestStorage(t)
	zone := testZoneID(t)

	_, found, err := storage.LoadChunk(zone, vec.ChunkPos{X: 9, Y: 9, Z: 9})
	require.NoError(t, err)
	assert.False(t, found, "несохранённый чанк должен отсутствовать")
}

func TestOverwriteChunk(t *testing.T) {
	storage := setupTestStorage(t)
	reg := block.DefaultRegistry()
	zone := testZoneID(t)
	pos := vec.ChunkPos{}

	first := world.NewChunk()
	first.Set(0, 0, 0, reg.ID(block.KindStone))
	require.NoError(t, storage.SaveChunk(zone, pos, first))

	second := world.NewChunk()
	second.Set(0, 0, 0, reg.ID(block.KindGrass))
	require.NoError(t, storage.SaveChunk(zone, pos, second))

	loaded, found, err := storage.LoadChunk(zone, pos)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, reg.ID(block.KindGrass), loaded.Get(0, 0, 0))
}

func TestDeleteChunk(t *testing.T) {
	storage := setupTestStorage(t)
	zone := testZoneID(t)
	pos := vec.ChunkPos{X: 1, Y: 1, Z: 1}

	require.NoError(t, storage.SaveChunk(zone, pos, world.NewChunk()))
	require.NoError(t, storage.DeleteChunk(zone, pos))

	_, found, err := storage.LoadChunk(zone, pos)
	require.NoError(t, err)
	assert.False(t, found)

	// Повторное удаление — не ошибка.
	require.NoError(t, storage.DeleteChunk(zone, pos))
}

func TestChunksIsolatedByZone(t *testing.T) {
	storage := setupTestStorage(t)
	reg := block.DefaultRegistry()
	pos := vec.ChunkPos{}

	wa := world.NewWorld[*world.SparseZone](world.NewSparseZone())
	wb := world.NewWorld[*world.SparseZone](world.NewSparseZone())
	zoneA := wa.MainZoneID()
	zoneB := wb.MainZoneID()

	chunk := world.NewChunk()
	chunk.Set(0, 0, 0, reg.ID(block.KindStone))
	require.NoError(t, storage.SaveChunk(zoneA, pos, chunk))

	_, found, err := storage.LoadChunk(zoneB, pos)
	require.NoError(t, err)
	assert.False(t, found, "чанки разных зон не должны пересекаться")
}

func TestSaveAndLoadZone(t *testing.T) {
	storage := setupTestStorage(t)
	reg := block.DefaultRegistry()
	zoneID := testZoneID(t)

	min := vec.ChunkPos{X: 0, Y: 0, Z: 0}
	max := vec.ChunkPos{X: 1, Y: 0, Z: 1}
	builder := world.NewZoneBuilder(min, max)
	for x := min.X; x <= max.X; x++ {
		for y := min.Y; y <= max.Y; y++ {
			for z := min.Z; z <= max.Z; z++ {
				require.NoError(t, builder.AddChunk(vec.ChunkPos{X: x, Y: y, Z: z}, world.NewChunk()))
			}
		}
	}
	zone, err := builder.Build()
	require.NoError(t, err)
	require.NoError(t, zone.SetBlock(vec.BlockPos{X: 20, Y: 3, Z: 7}, reg.ID(block.KindMelium)))

	require.NoError(t, storage.SaveZone(zoneID, zone))

	loaded, err := storage.LoadZone(zoneID, min, max)
	require.NoError(t, err)
	got, ok := loaded.Block(vec.BlockPos{X: 20, Y: 3, Z: 7})
	require.True(t, ok)
	assert.Equal(t, reg.ID(block.KindMelium), got)
}

func TestLoadZoneIncomplete(t *testing.T) {
	storage := setupTestStorage(t)
	zoneID := testZoneID(t)

	// Сохранён только один чанк из четырёх.
	require.NoError(t, storage.SaveChunk(zoneID, vec.ChunkPos{}, world.NewChunk()))

	_, err := storage.LoadZone(zoneID, vec.ChunkPos{}, vec.ChunkPos{X: 1, Y: 0, Z: 1})
	assert.ErrorIs(t, err, world.ErrZoneIncomplete)
}

func TestSaveSparseZone(t *testing.T) {
	storage := setupTestStorage(t)
	reg := block.DefaultRegistry()
	zoneID := testZoneID(t)

	sparse := world.NewSparseZone()
	a := world.NewChunk()
	a.Set(1, 2, 3, reg.ID(block.KindLog))
	sparse.Insert(vec.ChunkPos{X: -1, Y: 0, Z: 0}, a)
	sparse.Insert(vec.ChunkPos{X: 4, Y: 0, Z: 4}, world.NewChunk())

	require.NoError(t, storage.SaveSparseZone(zoneID, sparse))

	loaded, found, err := storage.LoadChunk(zoneID, vec.ChunkPos{X: -1, Y: 0, Z: 0})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, reg.ID(block.KindLog), loaded.Get(1, 2, 3))
}

func TestMainZoneIDPersistence(t *testing.T) {
	ws := setupTestStorage(t)

	_, found, err := ws.LoadMainZoneID()
	require.NoError(t, err)
	require.False(t, found)

	id := testZoneID(t)
	require.NoError(t, ws.SaveMainZoneID(id))

	loaded, found, err := ws.LoadMainZoneID()
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, id, loaded)
}

func TestBlockRemapOnLoad(t *testing.T) {
	ws := setupTestStorage(t)
	zone := testZoneID(t)

	chunk := world.NewChunk()
	chunk.Set(1, 2, 3, block.ID{Kind: block.KindDirt})
	require.NoError(t, ws.SaveChunk(zone, vec.ChunkPos{}, chunk))

	// Миграция реестра: земля стала камнем
	ws.SetBlockRemap(func(b block.ID) block.ID {
		if b.Kind == block.KindDirt {
			return block.ID{Kind: block.KindStone, State: b.State}
		}
		return b
	})

	loaded, found, err := ws.LoadChunk(zone, vec.ChunkPos{})
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, block.ID{Kind: block.KindStone}, loaded.Get(1, 2, 3))
	require.Equal(t, block.Air(), loaded.Get(0, 0, 0))
}

package tests

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-world/internal/network"
	"github.com/annel0/voxel-world/internal/protocol"
	"github.com/annel0/voxel-world/internal/storage"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/annel0/voxel-world/internal/world/block"
)

// Полный цикл персистентности: генерация зоны, запись блока, сохранение
// в хранилище и восстановление после "перезапуска".
func TestWorldPersistenceRoundTrip(t *testing.T) {
	store, err := storage.NewInMemoryStorage()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	registry := block.DefaultRegistry()
	gen := world.NewGenerator(registry, 1337)

	min := vec.ChunkPos{}
	max := vec.ChunkPos{X: 1, Y: 0, Z: 1}
	zone, err := gen.GenerateZone(world.NewZoneBuilder(min, max))
	require.NoError(t, err)

	w := world.NewWorld(zone)

	// Игрок ставит лампу
	lamp := block.ID{Kind: block.KindLamp}
	pos := vec.BlockPos{X: 20, Y: 8, Z: 3}
	require.NoError(t, zone.SetBlock(pos, lamp))

	require.NoError(t, store.SaveZone(w.MainZoneID(), zone))
	require.NoError(t, store.SaveMainZoneID(w.MainZoneID()))

	// "Перезапуск": восстанавливаем идентификатор зоны и саму зону
	id, found, err := store.LoadMainZoneID()
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, w.MainZoneID(), id)

	loaded, err := store.LoadZone(id, min, max)
	require.NoError(t, err)

	got, ok := loaded.Block(pos)
	require.True(t, ok)
	require.Equal(t, lamp, got)

	// Генерация детерминирована, поэтому остальные блоки совпадают
	for _, probe := range []vec.BlockPos{
		{X: 0, Y: 0, Z: 0},
		{X: 31, Y: 15, Z: 31},
		{X: 7, Y: 12, Z: 19},
	} {
		want, ok := zone.Block(probe)
		require.True(t, ok)
		have, ok := loaded.Block(probe)
		require.True(t, ok)
		require.Equal(t, want, have, "блок %v", probe)
	}
}

// Серверная сторона кодирует чанк, клиентская декодирует и применяет:
// содержимое разреженной зоны клиента совпадает с зоной сервера.
func TestChunkStreamingRoundTrip(t *testing.T) {
	registry := block.DefaultRegistry()
	gen := world.NewGenerator(registry, 7)

	zone, err := gen.GenerateZone(world.NewZoneBuilder(vec.ChunkPos{}, vec.ChunkPos{X: 0, Y: 0, Z: 0}))
	require.NoError(t, err)

	w := world.NewWorld(zone)
	provider := network.NewZoneProvider(w.MainZoneID(), zone)

	// Сервер: чанк по запросу
	chunkPos := vec.ChunkPos{X: 0, Y: 0, Z: 0}
	chunk, err := provider.Chunk(chunkPos)
	require.NoError(t, err)

	frame, err := protocol.EncodeMessage(&protocol.LoadChunk{Pos: chunkPos, Chunk: chunk})
	require.NoError(t, err)

	// Клиент: декодирование и применение
	applier := network.NewChunkApplier()
	msgType, msg, err := protocol.DecodeMessage(frame)
	require.NoError(t, err)
	require.Equal(t, protocol.MsgLoadChunk, msgType)
	require.NoError(t, applier.Apply(msgType, msg))

	require.Equal(t, 1, applier.NumChunks())

	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			for y := 0; y < 16; y++ {
				pos := vec.BlockPos{X: x, Y: y, Z: z}
				want, ok := zone.Block(pos)
				require.True(t, ok)
				have, ok := applier.Block(pos)
				require.True(t, ok)
				require.Equal(t, want, have, "блок %v", pos)
			}
		}
	}
}

// Подтверждённое изменение блока доходит до клиента и применяется;
// изменение в незагруженном чанке молча игнорируется.
func TestBlockUpdatePropagation(t *testing.T) {
	registry := block.DefaultRegistry()
	gen := world.NewGenerator(registry, 7)

	zone, err := gen.GenerateZone(world.NewZoneBuilder(vec.ChunkPos{}, vec.ChunkPos{X: 1, Y: 0, Z: 0}))
	require.NoError(t, err)

	w := world.NewWorld(zone)
	provider := network.NewZoneProvider(w.MainZoneID(), zone)

	// Клиент загрузил только чанк (0,0,0)
	applier := network.NewChunkApplier()
	chunk, err := provider.Chunk(vec.ChunkPos{})
	require.NoError(t, err)
	require.NoError(t, applier.Apply(protocol.MsgLoadChunk, &protocol.LoadChunk{Pos: vec.ChunkPos{}, Chunk: chunk}))

	// Сервер подтверждает запись и рассылает её
	stone := block.ID{Kind: block.KindStone}
	pos := vec.BlockPos{X: 3, Y: 5, Z: 3}
	require.NoError(t, provider.SetBlock(pos, stone))

	frame, err := protocol.EncodeMessage(&protocol.BlockUpdate{Pos: pos, Block: stone})
	require.NoError(t, err)
	msgType, msg, err := protocol.DecodeMessage(frame)
	require.NoError(t, err)
	require.NoError(t, applier.Apply(msgType, msg))

	got, ok := applier.Block(pos)
	require.True(t, ok)
	require.Equal(t, stone, got)

	// Обновление в чанке (1,0,0), который клиент не загружал — не ошибка
	farPos := vec.BlockPos{X: 20, Y: 5, Z: 3}
	require.NoError(t, applier.Apply(protocol.MsgBlockUpdate, &protocol.BlockUpdate{Pos: farPos, Block: stone}))
	_, ok = applier.Block(farPos)
	require.False(t, ok)
}

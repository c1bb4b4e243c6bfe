package network

import (
	"fmt"
	"sync"

	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/protocol"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/annel0/voxel-world/internal/world/block"
)

// ChunkApplier ведёт клиентское представление мира: разреженную зону,
// которую наполняют сообщения сервера.
//
// Семантика сообщений:
//   - LoadChunk полностью заменяет чанк, даже если он уже был загружен;
//   - UnloadChunk для незагруженного чанка — no-op;
//   - BlockUpdate для незагруженного чанка игнорируется: сервер
//     пришлёт актуальное состояние вместе с самим чанком.
//
// Apply вызывается из цикла приёма клиента, читающие методы — из кода
// игры; все они синхронизированы между собой.
type ChunkApplier struct {
	mu     sync.RWMutex
	zone   *world.SparseZone
	logger *logging.Logger
}

// NewChunkApplier создаёт applier над пустой разреженной зоной.
func NewChunkApplier() *ChunkApplier {
	return &ChunkApplier{
		zone:   world.NewSparseZone(),
		logger: logging.GetNetworkLogger(),
	}
}

// NumChunks возвращает количество загруженных чанков.
func (a *ChunkApplier) NumChunks() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.zone.Len()
}

// Block возвращает блок в позиции и признак того, что содержащий её
// чанк загружен.
func (a *ChunkApplier) Block(pos vec.BlockPos) (block.ID, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.zone.Block(pos)
}

// ForEachChunk вызывает fn для каждого загруженного чанка. Зона
// удерживается на чтение на время всего обхода; fn не должна вызывать
// методы applier.
func (a *ChunkApplier) ForEachChunk(fn func(pos vec.ChunkPos, chunk *world.Chunk)) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	a.zone.ForEachChunk(fn)
}

// Apply применяет одно декодированное сообщение сервера.
// Ping/Pong и прочие служебные типы пропускаются без ошибки.
func (a *ChunkApplier) Apply(msgType protocol.MsgType, msg interface{}) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch m := msg.(type) {
	case *protocol.LoadChunk:
		a.zone.Insert(m.Pos, m.Chunk)
		a.logger.Debug("Чанк загружен: %v (палитра %d)", m.Pos, len(m.Chunk.Palette()))
	case *protocol.UnloadChunk:
		if a.zone.Remove(m.Pos) == nil {
			a.logger.Trace("Выгрузка незагруженного чанка %v пропущена", m.Pos)
		}
	case *protocol.BlockUpdate:
		if err := a.zone.SetBlock(m.Pos, m.Block); err != nil {
			a.logger.Trace("Обновление блока %v в незагруженном чанке пропущено", m.Pos)
		}
	case nil:
		// Ping/Pong — нагрузки нет.
	default:
		return fmt.Errorf("неприменимое сообщение типа %s", msgType)
	}
	return nil
}

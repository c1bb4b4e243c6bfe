package protocol

import (
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/annel0/voxel-world/internal/world/block"
)

// MsgType определяет тип сообщения в системе
type MsgType uint8

const (
	MsgUnknown MsgType = 0
	MsgPing    MsgType = 1
	MsgPong    MsgType = 2
	MsgError   MsgType = 3

	// Блоки и чанки
	MsgLoadChunk    MsgType = 10
	MsgUnloadChunk  MsgType = 11
	MsgBlockUpdate  MsgType = 12
	MsgChunkRequest MsgType = 13
)

// String возвращает имя типа для логов.
func (t MsgType) String() string {
	switch t {
	case MsgPing:
		return "Ping"
	case MsgPong:
		return "Pong"
	case MsgError:
		return "Error"
	case MsgLoadChunk:
		return "LoadChunk"
	case MsgUnloadChunk:
		return "UnloadChunk"
	case MsgBlockUpdate:
		return "BlockUpdate"
	case MsgChunkRequest:
		return "ChunkRequest"
	default:
		return "Unknown"
	}
}

// LoadChunk — сервер присылает чанк целиком. Клиент заменяет им всё,
// что знал об этой позиции: полная перезапись, не слияние.
type LoadChunk struct {
	Pos   vec.ChunkPos
	Chunk *world.Chunk
}

// UnloadChunk — сервер сообщает, что чанк можно выгрузить. Если чанк
// и так не загружен, клиент молча игнорирует сообщение.
type UnloadChunk struct {
	Pos vec.ChunkPos
}

// BlockUpdate — точечное изменение одного блока.
type BlockUpdate struct {
	Pos   vec.BlockPos
	Block block.ID
}

// ChunkRequest — клиент просит прислать чанк.
type ChunkRequest struct {
	Pos vec.ChunkPos
}

// ErrorMessage — текст ошибки для клиента.
type ErrorMessage struct {
	Text string
}

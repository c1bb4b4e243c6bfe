package protocol

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/annel0/voxel-world/internal/world/block"
)

// Кадр на проводе: 1 байт типа, 4 байта длины полезной нагрузки
// (little-endian), затем нагрузка. Порядок байтов совпадает с
// бинарным форматом чанка.

const frameHeaderSize = 5

// MaxFrameSize ограничивает размер кадра: повреждённая длина не должна
// заставить приёмник выделить гигабайты.
const MaxFrameSize = 1 << 20

// EncodeMessage кодирует типизированное сообщение в кадр.
func EncodeMessage(msg interface{}) ([]byte, error) {
	switch m := msg.(type) {
	case *LoadChunk:
		if m.Chunk == nil {
			return nil, fmt.Errorf("LoadChunk без чанка")
		}
		chunkData := world.EncodeChunk(m.Chunk)
		payload := make([]byte, 0, 12+len(chunkData))
		payload = appendChunkPos(payload, m.Pos)
		payload = append(payload, chunkData...)
		return frame(MsgLoadChunk, payload), nil
	case *UnloadChunk:
		return frame(MsgUnloadChunk, appendChunkPos(nil, m.Pos)), nil
	case *ChunkRequest:
		return frame(MsgChunkRequest, appendChunkPos(nil, m.Pos)), nil
	case *BlockUpdate:
		payload := make([]byte, 0, 20)
		payload = appendInt32(payload, int32(m.Pos.X))
		payload = appendInt32(payload, int32(m.Pos.Y))
		payload = appendInt32(payload, int32(m.Pos.Z))
		payload = binary.LittleEndian.AppendUint32(payload, uint32(m.Block.Kind))
		payload = binary.LittleEndian.AppendUint32(payload, m.Block.State)
		return frame(MsgBlockUpdate, payload), nil
	case *ErrorMessage:
		return frame(MsgError, []byte(m.Text)), nil
	default:
		return nil, fmt.Errorf("неизвестный тип сообщения %T", msg)
	}
}

// EncodePing и EncodePong — кадры без нагрузки.
func EncodePing() []byte { return frame(MsgPing, nil) }
func EncodePong() []byte { return frame(MsgPong, nil) }

// DecodeMessage разбирает один кадр. Возвращает тип и типизированное
// сообщение (nil для Ping/Pong).
func DecodeMessage(data []byte) (MsgType, interface{}, error) {
	if len(data) < frameHeaderSize {
		return MsgUnknown, nil, fmt.Errorf("кадр короче заголовка: %d байт", len(data))
	}

	msgType := MsgType(data[0])
	length := binary.LittleEndian.Uint32(data[1:5])
	if length > MaxFrameSize {
		return MsgUnknown, nil, fmt.Errorf("нагрузка %d байт превышает предел", length)
	}
	if uint32(len(data)-frameHeaderSize) != length {
		return MsgUnknown, nil, fmt.Errorf("длина нагрузки %d не совпадает с заголовком %d",
			len(data)-frameHeaderSize, length)
	}
	payload := data[frameHeaderSize:]

	switch msgType {
	case MsgPing, MsgPong:
		return msgType, nil, nil
	case MsgError:
		return msgType, &ErrorMessage{Text: string(payload)}, nil
	case MsgLoadChunk:
		pos, rest, err := readChunkPos(payload)
		if err != nil {
			return msgType, nil, err
		}
		chunk, err := world.DecodeChunk(rest)
		if err != nil {
			return msgType, nil, fmt.Errorf("ошибка декодирования чанка: %w", err)
		}
		return msgType, &LoadChunk{Pos: pos, Chunk: chunk}, nil
	case MsgUnloadChunk:
		pos, _, err := readChunkPos(payload)
		if err != nil {
			return msgType, nil, err
		}
		return msgType, &UnloadChunk{Pos: pos}, nil
	case MsgChunkRequest:
		pos, _, err := readChunkPos(payload)
		if err != nil {
			return msgType, nil, err
		}
		return msgType, &ChunkRequest{Pos: pos}, nil
	case MsgBlockUpdate:
		if len(payload) != 20 {
			return msgType, nil, fmt.Errorf("BlockUpdate: нагрузка %d байт вместо 20", len(payload))
		}
		pos := vec.BlockPos{
			X: int(int32(binary.LittleEndian.Uint32(payload[0:4]))),
			Y: int(int32(binary.LittleEndian.Uint32(payload[4:8]))),
			Z: int(int32(binary.LittleEndian.Uint32(payload[8:12]))),
		}
		id := block.ID{
			Kind:  block.Kind(binary.LittleEndian.Uint32(payload[12:16])),
			State: binary.LittleEndian.Uint32(payload[16:20]),
		}
		return msgType, &BlockUpdate{Pos: pos, Block: id}, nil
	default:
		return msgType, nil, fmt.Errorf("неизвестный тип сообщения %d", msgType)
	}
}

// ReadFrame вычитывает из потока ровно один кадр и возвращает его
// целиком, вместе с заголовком. Применяется поверх KCP в stream mode,
// где границы датаграмм не сохраняются.
func ReadFrame(r io.Reader) ([]byte, error) {
	header := make([]byte, frameHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	length := binary.LittleEndian.Uint32(header[1:5])
	if length > MaxFrameSize {
		return nil, fmt.Errorf("нагрузка %d байт превышает предел", length)
	}

	buf := make([]byte, frameHeaderSize+int(length))
	copy(buf, header)
	if _, err := io.ReadFull(r, buf[frameHeaderSize:]); err != nil {
		return nil, err
	}
	return buf, nil
}

func frame(t MsgType, payload []byte) []byte {
	buf := make([]byte, 0, frameHeaderSize+len(payload))
	buf = append(buf, byte(t))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(payload)))
	return append(buf, payload...)
}

func appendInt32(buf []byte, v int32) []byte {
	return binary.LittleEndian.AppendUint32(buf, uint32(v))
}

func appendChunkPos(buf []byte, pos vec.ChunkPos) []byte {
	buf = appendInt32(buf, int32(pos.X))
	buf = appendInt32(buf, int32(pos.Y))
	return appendInt32(buf, int32(pos.Z))
}

func readChunkPos(payload []byte) (vec.ChunkPos, []byte, error) {
	if len(payload) < 12 {
		return vec.ChunkPos{}, nil, fmt.Errorf("нагрузка короче координат чанка: %d байт", len(payload))
	}
	pos := vec.ChunkPos{
		X: int(int32(binary.LittleEndian.Uint32(payload[0:4]))),
		Y: int(int32(binary.LittleEndian.Uint32(payload[4:8]))),
		Z: int(int32(binary.LittleEndian.Uint32(payload[8:12]))),
	}
	return pos, payload[12:], nil
}

package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/annel0/voxel-world/internal/world/block"
)

func TestLoadChunkRoundTrip(t *testing.T) {
	reg := block.DefaultRegistry()
	chunk := world.NewChunk()
	chunk.Set(5, 5, 5, reg.ID(block.KindDirt))
	chunk.Set(15, 0, 15, reg.IDWith(block.KindLamp, 1))

	msg := &LoadChunk{Pos: vec.ChunkPos{X: -2, Y: 1, Z: 7}, Chunk: chunk}
	data, err := EncodeMessage(msg)
	require.NoError(t, err)

	msgType, decoded, err := DecodeMessage(data)
	require.NoError(t, err)
	require.Equal(t, MsgLoadChunk, msgType)

	got := decoded.(*LoadChunk)
	assert.Equal(t, msg.Pos, got.Pos)
	assert.Equal(t, reg.ID(block.KindDirt), got.Chunk.Get(5, 5, 5))
	assert.Equal(t, reg.IDWith(block.KindLamp, 1), got.Chunk.Get(15, 0, 15))
}

func TestUnloadChunkRoundTrip(t *testing.T) {
	msg := &UnloadChunk{Pos: vec.ChunkPos{X: 3, Y: -1, Z: 0}}
	data, err := EncodeMessage(msg)
	require.NoError(t, err)

	msgType, decoded, err := DecodeMessage(data)
	require.NoError(t, err)
	assert.Equal(t, MsgUnloadChunk, msgType)
	assert.Equal(t, msg.Pos, decoded.(*UnloadChunk).Pos)
}

func TestBlockUpdateRoundTrip(t *testing.T) {
	reg := block.DefaultRegistry()
	msg := &BlockUpdate{
		Pos:   vec.BlockPos{X: -17, Y: 200, Z: 33},
		Block: reg.IDWith(block.KindWater, 5),
	}
	data, err := EncodeMessage(msg)
	require.NoError(t, err)

	msgType, decoded, err := DecodeMessage(data)
	require.NoError(t, err)
	assert.Equal(t, MsgBlockUpdate, msgType)

	got := decoded.(*BlockUpdate)
	assert.Equal(t, msg.Pos, got.Pos)
	assert.Equal(t, msg.Block, got.Block)
}

func TestPingPong(t *testing.T) {
	msgType, payload, err := DecodeMessage(EncodePing())
	require.NoError(t, err)
	assert.Equal(t, MsgPing, msgType)
	assert.Nil(t, payload)

	msgType, _, err = DecodeMessage(EncodePong())
	require.NoError(t, err)
	assert.Equal(t, MsgPong, msgType)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	// Обрезанный заголовок.
	_, _, err := DecodeMessage([]byte{1, 2})
	assert.Error(t, err)

	// Длина в заголовке не совпадает с фактической.
	data, err := EncodeMessage(&UnloadChunk{})
	require.NoError(t, err)
	_, _, derr := DecodeMessage(data[:len(data)-4])
	assert.Error(t, derr)

	// Неизвестный тип.
	_, _, err = DecodeMessage([]byte{255, 0, 0, 0, 0})
	assert.Error(t, err)
}

func TestErrorMessage(t *testing.T) {
	data, err := EncodeMessage(&ErrorMessage{Text: "чанк вне зоны"})
	require.NoError(t, err)

	msgType, decoded, err := DecodeMessage(data)
	require.NoError(t, err)
	assert.Equal(t, MsgError, msgType)
	assert.Equal(t, "чанк вне зоны", decoded.(*ErrorMessage).Text)
}

package eventbus

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
)

// Типы доменных событий мира.
const (
	EventBlockUpdated = "block.updated"
	EventChunkLoaded  = "chunk.loaded"
	EventZoneCreated  = "zone.created"
	EventZoneRemoved  = "zone.removed"
)

// BlockUpdatedPayload — полезная нагрузка события изменения блока.
type BlockUpdatedPayload struct {
	Zone  string       `json:"zone"`
	Pos   vec.BlockPos `json:"pos"`
	Kind  block.Kind   `json:"kind"`
	State uint32       `json:"state"`
}

// ChunkLoadedPayload — полезная нагрузка события загрузки чанка.
type ChunkLoadedPayload struct {
	Zone string       `json:"zone"`
	Pos  vec.ChunkPos `json:"pos"`
}

// ZonePayload — полезная нагрузка событий жизненного цикла зоны.
type ZonePayload struct {
	Zone string `json:"zone"`
}

// NewBlockUpdatedEvent собирает Envelope для изменения блока.
func NewBlockUpdatedEvent(source, zone string, pos vec.BlockPos, id block.ID) (*Envelope, error) {
	payload, err := json.Marshal(BlockUpdatedPayload{
		Zone:  zone,
		Pos:   pos,
		Kind:  id.Kind,
		State: id.State,
	})
	if err != nil {
		return nil, err
	}
	return newEnvelope(source, EventBlockUpdated, payload), nil
}

// NewChunkLoadedEvent собирает Envelope для загрузки чанка.
func NewChunkLoadedEvent(source, zone string, pos vec.ChunkPos) (*Envelope, error) {
	payload, err := json.Marshal(ChunkLoadedPayload{Zone: zone, Pos: pos})
	if err != nil {
		return nil, err
	}
	return newEnvelope(source, EventChunkLoaded, payload), nil
}

// NewZoneEvent собирает Envelope для создания или удаления зоны.
func NewZoneEvent(source, eventType, zone string) (*Envelope, error) {
	payload, err := json.Marshal(ZonePayload{Zone: zone})
	if err != nil {
		return nil, err
	}
	return newEnvelope(source, eventType, payload), nil
}

func newEnvelope(source, eventType string, payload []byte) *Envelope {
	return &Envelope{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Source:    source,
		EventType: eventType,
		Version:   1,
		Priority:  5,
		Payload:   payload,
	}
}

package world

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ZoneID — уникальный идентификатор зоны в пределах запуска процесса.
type ZoneID uuid.UUID

// String возвращает каноническую строковую форму идентификатора.
func (id ZoneID) String() string {
	return uuid.UUID(id).String()
}

// ParseZoneID разбирает строковую форму идентификатора зоны.
func ParseZoneID(s string) (ZoneID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ZoneID{}, fmt.Errorf("неверный идентификатор зоны %q: %w", s, err)
	}
	return ZoneID(id), nil
}

// ErrMainZoneRemoval возвращается при попытке удалить главную зону.
// Главная зона обязана существовать всё время жизни мира.
var ErrMainZoneRemoval = errors.New("нельзя удалить главную зону мира")

// World — мир: одна или несколько зон указанного типа.
// Z должен быть *Zone или *SparseZone.
//
// Главная зона — та, что содержит «землю», основную часть мира.
// Остальные зоны соответствуют, например, кораблям.
type World[Z any] struct {
	zones    map[ZoneID]Z
	mainZone ZoneID
}

// NewWorld создаёт мир с указанной главной зоной.
func NewWorld[Z any](mainZone Z) *World[Z] {
	return NewWorldWithMainZoneID(mainZone, newZoneID())
}

// NewWorldWithMainZoneID создаёт мир, сохраняя идентификатор главной
// зоны. Используется при восстановлении мира из хранилища: ключи
// чанков привязаны к идентификатору зоны.
func NewWorldWithMainZoneID[Z any](mainZone Z, id ZoneID) *World[Z] {
	return &World[Z]{
		zones:    map[ZoneID]Z{id: mainZone},
		mainZone: id,
	}
}

// Zone возвращает зону по идентификатору.
func (w *World[Z]) Zone(id ZoneID) (Z, bool) {
	zone, ok := w.zones[id]
	return zone, ok
}

// MainZone возвращает главную зону.
//
// Паникует, если инвариант «главная зона всегда присутствует» нарушен.
// Нормальный API не позволяет его нарушить (см. RemoveZone), поэтому
// паника здесь означает повреждение мира.
func (w *World[Z]) MainZone() Z {
	zone, ok := w.zones[w.mainZone]
	if !ok {
		panic("world: главная зона отсутствует")
	}
	return zone
}

// MainZoneID возвращает идентификатор главной зоны.
func (w *World[Z]) MainZoneID() ZoneID {
	return w.mainZone
}

// AddZone добавляет зону в мир и возвращает её идентификатор.
func (w *World[Z]) AddZone(zone Z) ZoneID {
	id := newZoneID()
	w.zones[id] = zone
	return id
}

// RemoveZone удаляет зону из мира и возвращает её.
// Удаление главной зоны запрещено: возвращается ErrMainZoneRemoval,
// мир не изменяется.
func (w *World[Z]) RemoveZone(id ZoneID) (Z, error) {
	var zero Z
	if id == w.mainZone {
		return zero, ErrMainZoneRemoval
	}
	zone, ok := w.zones[id]
	if !ok {
		return zero, errors.New("зона не найдена")
	}
	delete(w.zones, id)
	return zone, nil
}

// NumZones возвращает количество зон в мире.
func (w *World[Z]) NumZones() int {
	return len(w.zones)
}

// ForEachZone вызывает fn для каждой зоны мира.
func (w *World[Z]) ForEachZone(fn func(id ZoneID, zone Z)) {
	for id, zone := range w.zones {
		fn(id, zone)
	}
}

func newZoneID() ZoneID {
	return ZoneID(uuid.New())
}

// Package block содержит идентификацию блоков: компактный ID состояния,
// реестр видов блоков и упаковку свойств в целое число.
package block

// Kind представляет вид блока ("stone", "water" и т.д.).
// Набор видов закрыт и известен на этапе компиляции; числовые значения
// присваиваются последовательно в порядке регистрации и должны совпадать
// у клиента и сервера для совместимости протокола.
type Kind uint32

// Виды блоков. Порядок констант фиксирует wire-идентификаторы:
// новые виды добавляются строго в конец.
const (
	KindAir Kind = iota
	KindDirt
	KindStone
	KindGrass
	KindMelium
	KindWater
	KindLog
	KindLamp

	kindCount // Всегда последняя — количество видов
)

// ID — компактный идентификатор состояния блока: вид плюс упакованные
// значения свойств. Два ID равны тогда и только тогда, когда совпадают
// оба поля. Копируется по значению (два целых числа, без аллокаций).
//
// ID стабилен в пределах одного запуска процесса и между пирами с
// одинаковым реестром, но НЕ между версиями реестра: при сохранении на
// диск нужно использовать slug и карту свойств (см. Descriptor.Slug).
//
// Нулевое значение ID — воздух в базовом состоянии.
type ID struct {
	Kind  Kind
	State uint32
}

// Is сообщает, относится ли блок к указанному виду.
// Несовпадение вида — нормальный результат запроса, не ошибка.
func (id ID) Is(kind Kind) bool {
	return id.Kind == kind
}

// Air возвращает идентификатор воздуха.
func Air() ID {
	return ID{Kind: KindAir}
}

// Descriptor содержит общие свойства вида блока.
type Descriptor struct {
	Slug        string // Стабильный идентификатор для сохранения ("stone")
	DisplayName string // Имя для отображения игроку
}

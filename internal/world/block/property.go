package block

import "fmt"

// Property описывает одно свойство блока: имя и конечное множество
// возможных значений. Числовые свойства дополнительно хранят начало
// диапазона, чтобы отображать значение в индекс и обратно.
type Property struct {
	Name   string
	Values uint32 // Количество возможных значений
	Start  int    // Начало диапазона для числовых свойств
}

// Bool создаёт булево свойство (два значения: false=0, true=1).
func Bool(name string) Property {
	return Property{Name: name, Values: 2}
}

// IntRange создаёт числовое свойство с включительным диапазоном [start, end].
func IntRange(name string, start, end int) Property {
	if end < start {
		panic(fmt.Sprintf("block: пустой диапазон свойства %q: [%d, %d]", name, start, end))
	}
	return Property{Name: name, Values: uint32(end - start + 1), Start: start}
}

// ToIndex преобразует значение числового свойства в индекс [0, Values).
func (p Property) ToIndex(value int) (uint32, bool) {
	idx := value - p.Start
	if idx < 0 || uint32(idx) >= p.Values {
		return 0, false
	}
	return uint32(idx), true
}

// FromIndex преобразует индекс обратно в значение числового свойства.
func (p Property) FromIndex(index uint32) (int, bool) {
	if index >= p.Values {
		return 0, false
	}
	return p.Start + int(index), true
}

// PropertyPacker упаковывает комбинацию значений свойств в одно число,
// интерпретируя их как координаты в n-мерном пространстве.
//
// Шаг (stride) свойства i равен произведению количеств значений всех
// последующих свойств: последние свойства меняются быстрее, как при
// row-major индексации. Unpack(Pack(v)) == v для всех допустимых v.
type PropertyPacker struct {
	props   []Property
	strides []uint32
}

// NewPacker создаёт упаковщик для упорядоченного списка свойств.
func NewPacker(props []Property) *PropertyPacker {
	strides := make([]uint32, len(props))
	for i := range props {
		stride := uint32(1)
		for j := i + 1; j < len(props); j++ {
			stride *= props[j].Values
		}
		strides[i] = stride
	}
	return &PropertyPacker{props: props, strides: strides}
}

// NumStates возвращает количество различных комбинаций значений.
func (pp *PropertyPacker) NumStates() uint32 {
	n := uint32(1)
	for _, p := range pp.props {
		n *= p.Values
	}
	return n
}

// Pack упаковывает индексы значений свойств в одно число.
// Индекс i-го свойства должен быть в диапазоне [0, props[i].Values).
//
// Паникует при несовпадении количества значений или выходе за диапазон:
// это ошибка вызывающего кода, а не условие времени выполнения.
func (pp *PropertyPacker) Pack(values []uint32) uint32 {
	if len(values) != len(pp.props) {
		panic(fmt.Sprintf("block: ожидалось %d значений свойств, получено %d", len(pp.props), len(values)))
	}

	var packed uint32
	for i, v := range values {
		if v >= pp.props[i].Values {
			panic(fmt.Sprintf("block: значение %d свойства %q вне диапазона [0, %d)", v, pp.props[i].Name, pp.props[i].Values))
		}
		packed += v * pp.strides[i]
	}
	return packed
}

// Unpack распаковывает число в индексы значений свойств.
// Возвращает false, если packed не является допустимым состоянием.
func (pp *PropertyPacker) Unpack(packed uint32) ([]uint32, bool) {
	if packed >= pp.NumStates() {
		return nil, false
	}

	values := make([]uint32, len(pp.props))
	for i, stride := range pp.strides {
		values[i] = packed / stride
		packed -= values[i] * stride
	}
	return values, true
}

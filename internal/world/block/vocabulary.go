package block

// Словарь блоков, которые умеет хранить секция чанка. Код 0 зарезервирован за воздухом,
// код i+1 соответствует vocabulary[i]. Порядок зафиксирован: он задает палитру сетевого
// кодирования и не должен меняться.
var vocabulary = [...]Identifier{
	ID("stone"),
	ID("granite"),
	ID("polished_granite"),
	ID("diorite"),
	ID("polished_diorite"),
	ID("andesite"),
	ID("polished_andesite"),
	ID("grass_block"),
	ID("dirt"),
	ID("coarse_dirt"),
	ID("podzol"),
	ID("cobblestone"),
	ID("oak_planks"),
	ID("bedrock"),
}

// AirCode локальный код воздуха
const AirCode uint8 = 0

// VocabularySize число блоков словаря (без воздуха)
const VocabularySize = len(vocabulary)

var vocabularyCodes = func() map[Identifier]uint8 {
	m := make(map[Identifier]uint8, len(vocabulary)+1)
	m[Air] = AirCode
	for i, id := range vocabulary {
		m[id] = uint8(i + 1)
	}
	return m
}()

// Vocabulary возвращает блоки словаря в порядке их кодов
func Vocabulary() []Identifier {
	return append([]Identifier(nil), vocabulary[:]...)
}

// LocalCode возвращает код блока в словаре; для воздуха 0
func LocalCode(id Identifier) (uint8, bool) {
	code, ok := vocabularyCodes[id]
	return code, ok
}

// FromLocalCode обратное преобразование кода в идентификатор
func FromLocalCode(code uint8) (Identifier, bool) {
	if code == AirCode {
		return Air, true
	}
	if int(code) > len(vocabulary) {
		return Identifier{}, false
	}
	return vocabulary[code-1], true
}

// NetworkPalette возвращает глобальные id [воздух, словарь...] для палитры секции в пакете чанка
func (r *Registry) NetworkPalette() ([]int32, error) {
	palette := make([]int32, 0, len(vocabulary)+1)
	for _, id := range append([]Identifier{Air}, vocabulary[:]...) {
		global, err := r.BlockID(id)
		if err != nil {
			return nil, err
		}
		palette = append(palette, global)
	}
	return palette, nil
}

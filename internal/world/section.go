package world

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/annel0/blockverse/internal/world/block"
)

const (
	// SectionSize длина ребра секции в блоках
	SectionSize = 16
	// SectionVolume число блоков в секции
	SectionVolume = SectionSize * SectionSize * SectionSize
	// MaxSectionPalette максимум различных не-воздушных блоков в сохраненной секции
	MaxSectionPalette = 255
)

// ErrPaletteOverflow в секции больше различных блоков, чем помещается в байтовый индекс палитры
var ErrPaletteOverflow = errors.New("section palette overflow")

// Section куб 16x16x16. Каждый блок хранится байтом локального кода словаря (0 = воздух).
type Section struct {
	blocks     [SectionVolume]uint8
	blockCount int
}

// SectionData сохраненная форма секции: палитра различных блоков в порядке первого
// появления и индексы палитры (с 1, 0 = воздух), упакованные минимальной шириной.
type SectionData struct {
	Y       int32    `nbt:"y" json:"y"`
	Palette []string `nbt:"palette" json:"palette"`
	Bits    int32    `nbt:"bits" json:"bits"`
	Data    []int64  `nbt:"data" json:"data"`
}

// NewSection создает пустую секцию
func NewSection() *Section {
	return &Section{}
}

// sectionIndex порядок хранения: ось X развернута
func sectionIndex(x, y, z int) int {
	return y*256 + z*16 + (15 - x)
}

func inSection(x, y, z int) bool {
	return x >= 0 && x < SectionSize && y >= 0 && y < SectionSize && z >= 0 && z < SectionSize
}

// Block возвращает блок по локальным координатам; false для воздуха
func (s *Section) Block(x, y, z int) (block.Identifier, bool) {
	if !inSection(x, y, z) {
		return block.Air, false
	}
	code := s.blocks[sectionIndex(x, y, z)]
	if code == block.AirCode {
		return block.Air, false
	}
	id, _ := block.FromLocalCode(code)
	return id, true
}

// SetBlock ставит блок; nil (или воздух) очищает позицию
func (s *Section) SetBlock(x, y, z int, id *block.Identifier) error {
	if !inSection(x, y, z) {
		return fmt.Errorf("координаты секции вне диапазона: %d,%d,%d", x, y, z)
	}
	code := block.AirCode
	if id != nil {
		var ok bool
		if code, ok = block.LocalCode(*id); !ok {
			return fmt.Errorf("%w: %s", block.ErrUnknownBlock, id)
		}
	}

	idx := sectionIndex(x, y, z)
	old := s.blocks[idx]
	s.blocks[idx] = code

	switch {
	case old == block.AirCode && code != block.AirCode:
		s.blockCount++
	case old != block.AirCode && code == block.AirCode:
		s.blockCount--
	}
	return nil
}

// BlockCount число не-воздушных блоков
func (s *Section) BlockCount() int {
	return s.blockCount
}

// IsEmpty сообщает, что в секции только воздух
func (s *Section) IsEmpty() bool {
	return s.blockCount == 0
}

// codeAt локальный код по индексу хранения
func (s *Section) codeAt(index int) uint8 {
	return s.blocks[index]
}

// ToData кодирует секцию в сохраняемую форму
func (s *Section) ToData(y int) (SectionData, error) {
	var (
		remap   [256]int
		palette []string
	)
	storage := make([]uint32, SectionVolume)
	for i, code := range s.blocks {
		if code == block.AirCode {
			continue
		}
		if remap[code] == 0 {
			if len(palette) == MaxSectionPalette {
				return SectionData{}, ErrPaletteOverflow
			}
			id, ok := block.FromLocalCode(code)
			if !ok {
				return SectionData{}, fmt.Errorf("%w: код %d", block.ErrUnknownBlock, code)
			}
			palette = append(palette, id.String())
			remap[code] = len(palette)
		}
		storage[i] = uint32(remap[code])
	}

	packed := NewSimpleBitStorage(paletteBits(len(palette)), SectionVolume)
	for i, v := range storage {
		if v != 0 {
			packed.Set(i, v)
		}
	}
	return SectionData{
		Y:       int32(y),
		Palette: palette,
		Bits:    int32(packed.Bits()),
		Data:    packed.Raw(),
	}, nil
}

// paletteBits минимальная ширина для значений 0..n
func paletteBits(n int) int {
	if b := bits.Len(uint(n)); b > 0 {
		return b
	}
	return 1
}

// SectionFromData восстанавливает секцию из сохраненной формы
func SectionFromData(data SectionData) (*Section, error) {
	if len(data.Palette) > MaxSectionPalette {
		return nil, ErrPaletteOverflow
	}
	codes := make([]uint8, len(data.Palette)+1)
	for i, name := range data.Palette {
		id, err := block.ParseIdentifier(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", block.ErrUnknownBlock, name)
		}
		code, ok := block.LocalCode(id)
		if !ok || code == block.AirCode {
			return nil, fmt.Errorf("%w: %s", block.ErrUnknownBlock, id)
		}
		codes[i+1] = code
	}

	if int(data.Bits) != paletteBits(len(data.Palette)) {
		return nil, fmt.Errorf("%w: ширина %d для палитры из %d", ErrStorageMismatch, data.Bits, len(data.Palette))
	}
	packed := NewSimpleBitStorage(int(data.Bits), SectionVolume)
	if err := packed.LoadRaw(int(data.Bits), SectionVolume, data.Data); err != nil {
		return nil, err
	}

	s := NewSection()
	for i := 0; i < SectionVolume; i++ {
		v := packed.Get(i)
		if int(v) >= len(codes) {
			return nil, fmt.Errorf("%w: индекс палитры %d вне %d", block.ErrUnknownBlock, v, len(data.Palette))
		}
		if code := codes[v]; code != block.AirCode {
			s.blocks[i] = code
			s.blockCount++
		}
	}
	return s, nil
}

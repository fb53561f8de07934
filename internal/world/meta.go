package world

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// MetaFileName имя файла метаданных в каталоге мира
const MetaFileName = "meta.json"

// Dimension высотный диапазон измерения, объявляемый клиенту
type Dimension struct {
	MinY   int `json:"min_y"`
	Height int `json:"height"`
}

// DefaultDimension диапазон ванильного верхнего мира
var DefaultDimension = Dimension{MinY: -64, Height: 384}

// Validate проверяет, что диапазон выровнен по секциям и помещается в слоты чанка
func (d Dimension) Validate() error {
	if d.Height <= 0 || d.Height%SectionSize != 0 || d.MinY%SectionSize != 0 {
		return fmt.Errorf("измерение min_y=%d height=%d не выровнено по секциям", d.MinY, d.Height)
	}
	if d.MinSection() < MinSectionY || d.MaxSection() >= MinSectionY+SectionCount {
		return fmt.Errorf("измерение min_y=%d height=%d выходит за пределы чанка", d.MinY, d.Height)
	}
	return nil
}

// MinSection Y нижней секции измерения
func (d Dimension) MinSection() int {
	return d.MinY / SectionSize
}

// MaxSection Y верхней секции измерения (включительно)
func (d Dimension) MaxSection() int {
	return (d.MinY+d.Height)/SectionSize - 1
}

// Sections число секций измерения
func (d Dimension) Sections() int {
	return d.Height / SectionSize
}

// Meta метаданные мира. Формат сохранения и сжатие фиксируются при создании.
type Meta struct {
	Seed        int64         `json:"seed"`
	Generator   GeneratorKind `json:"generator"`
	SaveFormat  SaveFormat    `json:"save_format"`
	Compression Compression   `json:"compression"`
	Ticks       int64         `json:"ticks"`
	Dimension   Dimension     `json:"dimension"`
}

// Validate проверяет метаданные
func (m Meta) Validate() error {
	switch m.Generator {
	case GeneratorFlat, GeneratorNormal:
	default:
		return fmt.Errorf("неизвестный генератор %q", m.Generator)
	}
	switch m.SaveFormat {
	case FormatNBT, FormatJSON:
	default:
		return fmt.Errorf("неизвестный формат сохранения %q", m.SaveFormat)
	}
	switch m.Compression {
	case CompressionNone, CompressionZstd:
	default:
		return fmt.Errorf("неизвестное сжатие %q", m.Compression)
	}
	return m.Dimension.Validate()
}

// LoadMeta читает метаданные. Если файла нет, возвращает defaults и false.
func LoadMeta(path string, defaults Meta) (Meta, bool, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return defaults, false, nil
	}
	if err != nil {
		return defaults, false, fmt.Errorf("чтение %s: %w", path, err)
	}

	m := defaults
	if err := json.Unmarshal(raw, &m); err != nil {
		return defaults, false, fmt.Errorf("разбор %s: %w", path, err)
	}
	if m.Compression == "" {
		m.Compression = CompressionNone
	}
	return m, true, nil
}

// Save записывает метаданные
func (m Meta) Save(path string) error {
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("запись %s: %w", path, err)
	}
	return nil
}

package world

import (
	"fmt"

	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world/block"
)

const (
	// SectionCount число слотов секций в чанке
	SectionCount = 254
	// MinSectionY Y нижней секции (слот 0)
	MinSectionY = -127
	// MinBlockY и MaxBlockY границы Y для доступа к блокам (включительно)
	MinBlockY = -2064
	MaxBlockY = 2063

	heightmapBits = 12
	heightmapSize = SectionSize * SectionSize
)

// Chunk столб 16 x 16 блоков с секциями по высоте и картой высот
type Chunk struct {
	// X, Z координаты чанка в мире
	X, Z int

	sections  [SectionCount]*Section
	heightmap *SimpleBitStorage
}

// ChunkData сохраненная форма чанка
type ChunkData struct {
	Index     int32         `nbt:"index" json:"index"`
	Sections  []SectionData `nbt:"sections" json:"sections"`
	Heightmap []int64       `nbt:"heightmap" json:"heightmap"`
}

// NewChunk создает пустой чанк
func NewChunk(x, z int) *Chunk {
	return &Chunk{
		X:         x,
		Z:         z,
		heightmap: NewSimpleBitStorage(heightmapBits, heightmapSize),
	}
}

// Coords координаты чанка
func (c *Chunk) Coords() vec.Vec2 {
	return vec.Vec2{X: c.X, Z: c.Z}
}

// sectionSlot возвращает слот секции для Y; false если Y вне мира или слота нет
func sectionSlot(y int) (int, bool) {
	if y < MinBlockY || y > MaxBlockY {
		return 0, false
	}
	slot := vec.FloorDiv(y, SectionSize) - MinSectionY
	return slot, slot >= 0 && slot < SectionCount
}

func inColumn(x, z int) bool {
	return x >= 0 && x < SectionSize && z >= 0 && z < SectionSize
}

// Block возвращает блок по локальным x, z и абсолютной y
func (c *Chunk) Block(x, y, z int) (block.Identifier, bool) {
	slot, ok := sectionSlot(y)
	if !ok || !inColumn(x, z) || c.sections[slot] == nil {
		return block.Air, false
	}
	return c.sections[slot].Block(x, vec.FloorMod(y, SectionSize), z)
}

// SetBlock ставит блок по локальным x, z и абсолютной y.
// Вне допустимой высоты запись игнорируется. Секция создается только при записи не-воздуха.
func (c *Chunk) SetBlock(x, y, z int, id *block.Identifier) error {
	if !inColumn(x, z) {
		return fmt.Errorf("координаты чанка вне диапазона: %d,%d", x, z)
	}
	slot, ok := sectionSlot(y)
	if !ok {
		return nil
	}
	if id != nil && id.IsAir() {
		id = nil
	}

	section := c.sections[slot]
	if section == nil {
		if id == nil {
			return nil
		}
		section = NewSection()
		if err := section.SetBlock(x, vec.FloorMod(y, SectionSize), z, id); err != nil {
			return err
		}
		c.sections[slot] = section
	} else if err := section.SetBlock(x, vec.FloorMod(y, SectionSize), z, id); err != nil {
		return err
	}

	c.updateHeight(x, y, z, id != nil)
	return nil
}

// heightValue значение карты высот для блока на высоте y (0 = пустой столб)
func heightValue(y int) uint32 {
	return uint32(y - MinSectionY*SectionSize + 1)
}

func (c *Chunk) updateHeight(x, y, z int, placed bool) {
	idx := z*SectionSize + x
	top := c.heightmap.Get(idx)
	v := heightValue(y)
	if placed {
		if v > top {
			c.heightmap.Set(idx, v)
		}
		return
	}
	if v == top {
		c.heightmap.Set(idx, c.scanHeight(x, z, y-1))
	}
}

// scanHeight ищет верхний блок столба не выше from
func (c *Chunk) scanHeight(x, z, from int) uint32 {
	startSlot := vec.FloorDiv(from, SectionSize) - MinSectionY
	if startSlot < 0 {
		return 0
	}
	if startSlot >= SectionCount {
		startSlot = SectionCount - 1
		from = (startSlot+MinSectionY)*SectionSize + SectionSize - 1
	}
	for slot := startSlot; slot >= 0; slot-- {
		section := c.sections[slot]
		if section == nil || section.IsEmpty() {
			continue
		}
		base := (slot + MinSectionY) * SectionSize
		ly := SectionSize - 1
		if slot == startSlot {
			ly = from - base
		}
		for ; ly >= 0; ly-- {
			if _, ok := section.Block(x, ly, z); ok {
				return heightValue(base + ly)
			}
		}
	}
	return 0
}

// Height возвращает Y верхнего блока столба; false для пустого столба
func (c *Chunk) Height(x, z int) (int, bool) {
	if !inColumn(x, z) {
		return 0, false
	}
	v := c.heightmap.Get(z*SectionSize + x)
	if v == 0 {
		return 0, false
	}
	return int(v) + MinSectionY*SectionSize - 1, true
}

// Heightmap карта высот чанка (12 бит на столб)
func (c *Chunk) Heightmap() *SimpleBitStorage {
	return c.heightmap
}

// Section возвращает секцию по ее Y (в секциях) или nil
func (c *Chunk) Section(sectionY int) *Section {
	slot := sectionY - MinSectionY
	if slot < 0 || slot >= SectionCount {
		return nil
	}
	return c.sections[slot]
}

// AllocatedSections число выделенных секций
func (c *Chunk) AllocatedSections() int {
	n := 0
	for _, s := range c.sections {
		if s != nil {
			n++
		}
	}
	return n
}

func (c *Chunk) recalculateHeightmap() {
	for z := 0; z < SectionSize; z++ {
		for x := 0; x < SectionSize; x++ {
			c.heightmap.Set(z*SectionSize+x, c.scanHeight(x, z, MaxBlockY))
		}
	}
}

// ToData кодирует чанк; index задает слот в регионе
func (c *Chunk) ToData(index int) (ChunkData, error) {
	data := ChunkData{
		Index:     int32(index),
		Sections:  make([]SectionData, 0, c.AllocatedSections()),
		Heightmap: c.heightmap.Raw(),
	}
	for slot, s := range c.sections {
		if s == nil {
			continue
		}
		sd, err := s.ToData(slot + MinSectionY)
		if err != nil {
			return ChunkData{}, fmt.Errorf("секция %d чанка %d,%d: %w", slot+MinSectionY, c.X, c.Z, err)
		}
		data.Sections = append(data.Sections, sd)
	}
	return data, nil
}

// ChunkFromData восстанавливает чанк с координатами x, z
func ChunkFromData(x, z int, data ChunkData) (*Chunk, error) {
	c := NewChunk(x, z)
	for _, sd := range data.Sections {
		slot := int(sd.Y) - MinSectionY
		if slot < 0 || slot >= SectionCount {
			return nil, fmt.Errorf("секция %d вне диапазона чанка", sd.Y)
		}
		if c.sections[slot] != nil {
			return nil, fmt.Errorf("секция %d встречается дважды", sd.Y)
		}
		s, err := SectionFromData(sd)
		if err != nil {
			return nil, fmt.Errorf("секция %d чанка %d,%d: %w", sd.Y, x, z, err)
		}
		c.sections[slot] = s
	}

	if len(data.Heightmap) == 0 {
		c.recalculateHeightmap()
		return c, nil
	}
	if err := c.heightmap.LoadRaw(heightmapBits, heightmapSize, data.Heightmap); err != nil {
		return nil, fmt.Errorf("карта высот чанка %d,%d: %w", x, z, err)
	}
	return c, nil
}

package world

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/annel0/blockverse/internal/logging"
	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world/block"
)

// RegionsDir каталог файлов регионов внутри каталога мира
const RegionsDir = "regions"

// Observer получает события мира (используется метриками)
type Observer interface {
	ChunkGenerated()
	RegionLoaded()
	RegionSaved()
}

type noopObserver struct{}

func (noopObserver) ChunkGenerated() {}
func (noopObserver) RegionLoaded()   {}
func (noopObserver) RegionSaved()    {}

// World мир: метаданные, генератор и лениво загружаемые регионы.
// Внутренней синхронизации нет: все обращения должны идти из одного контекста
// (сетевой сервер держит для этого мьютекс).
type World struct {
	dir       string
	meta      Meta
	codec     *regionCodec
	generator Generator
	regions   map[vec.Vec2]*Region
	observer  Observer
	logger    *logging.Logger
}

// Option настройка мира при открытии
type Option func(*World)

// WithObserver подписывает наблюдателя на события мира
func WithObserver(o Observer) Option {
	return func(w *World) {
		if o != nil {
			w.observer = o
		}
	}
}

// WithGenerator заменяет генератор, выбранный по метаданным
func WithGenerator(g Generator) Option {
	return func(w *World) {
		w.generator = g
	}
}

// Open открывает мир в каталоге dir. Если meta.json нет или его нельзя прочитать,
// мир открывается с defaults.
func Open(dir string, defaults Meta, opts ...Option) (*World, error) {
	logger := logging.GetWorldLogger()

	meta, existed, err := LoadMeta(filepath.Join(dir, MetaFileName), defaults)
	if err == nil && existed {
		err = meta.Validate()
	}
	if err != nil {
		// испорченные метаданные не мешают запуску: мир открывается с defaults,
		// файл перезапишется при следующем сохранении
		logger.Warn("Метаданные мира %s не используются, берутся значения по умолчанию: %v", dir, err)
		meta, existed = defaults, false
	}
	if err := meta.Validate(); err != nil {
		return nil, fmt.Errorf("метаданные мира: %w", err)
	}

	if err := os.MkdirAll(filepath.Join(dir, RegionsDir), 0o755); err != nil {
		return nil, fmt.Errorf("каталог мира: %w", err)
	}

	codec, err := newRegionCodec(meta.SaveFormat, meta.Compression)
	if err != nil {
		return nil, err
	}

	w := &World{
		dir:      dir,
		meta:     meta,
		codec:    codec,
		regions:  make(map[vec.Vec2]*Region),
		observer: noopObserver{},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.generator == nil {
		if w.generator, err = NewGenerator(meta.Generator, meta.Seed, meta.Dimension); err != nil {
			return nil, err
		}
	}

	if existed {
		logger.Info("Мир загружен из %s (генератор %s, формат %s/%s, тик %d)", dir, meta.Generator, meta.SaveFormat, meta.Compression, meta.Ticks)
	} else {
		logger.Info("Создан новый мир в %s (генератор %s, сид %d)", dir, meta.Generator, meta.Seed)
	}
	return w, nil
}

// Meta возвращает копию метаданных
func (w *World) Meta() Meta {
	return w.meta
}

// Dimension высотный диапазон мира
func (w *World) Dimension() Dimension {
	return w.meta.Dimension
}

// Tick увеличивает счетчик тиков и возвращает новое значение
func (w *World) Tick() int64 {
	w.meta.Ticks++
	return w.meta.Ticks
}

// Region возвращает регион, загружая его файл при первом обращении
func (w *World) Region(rx, rz int) (*Region, error) {
	key := vec.Vec2{X: rx, Z: rz}
	if r, ok := w.regions[key]; ok {
		return r, nil
	}
	r, err := loadRegion(filepath.Join(w.dir, RegionsDir), rx, rz, w.codec)
	if err != nil {
		return nil, err
	}
	w.regions[key] = r
	w.observer.RegionLoaded()
	w.logger.Debug("Регион %d,%d загружен (%d чанков)", rx, rz, r.ChunkCount())
	return r, nil
}

// Chunk возвращает чанк по координатам чанка или nil, если он еще не создан
func (w *World) Chunk(cx, cz int) (*Chunk, error) {
	region, local := vec.Vec2{X: cx, Z: cz}.ChunkToRegion()
	r, err := w.Region(region.X, region.Z)
	if err != nil {
		return nil, err
	}
	return r.Chunk(local.X, local.Z), nil
}

// ChunkOrGenerate возвращает чанк, создавая его генератором при первом обращении
func (w *World) ChunkOrGenerate(cx, cz int) (*Chunk, error) {
	region, local := vec.Vec2{X: cx, Z: cz}.ChunkToRegion()
	r, err := w.Region(region.X, region.Z)
	if err != nil {
		return nil, err
	}
	if c := r.Chunk(local.X, local.Z); c != nil {
		return c, nil
	}

	c := NewChunk(cx, cz)
	if err := w.generator.Generate(c); err != nil {
		return nil, fmt.Errorf("генерация чанка %d,%d: %w", cx, cz, err)
	}
	r.setChunk(local.X, local.Z, c)
	w.observer.ChunkGenerated()
	return c, nil
}

// Block возвращает блок в абсолютных координатах. Незагруженный регион читается с диска,
// но отсутствующий чанк не генерируется.
func (w *World) Block(x, y, z int) (block.Identifier, bool, error) {
	if y < MinBlockY || y > MaxBlockY {
		return block.Air, false, nil
	}
	c, err := w.Chunk(vec.FloorDiv(x, SectionSize), vec.FloorDiv(z, SectionSize))
	if err != nil || c == nil {
		return block.Air, false, err
	}
	id, ok := c.Block(vec.FloorMod(x, SectionSize), y, vec.FloorMod(z, SectionSize))
	return id, ok, nil
}

// SetBlock ставит блок в абсолютных координатах; nil очищает позицию.
// Несуществующий чанк сначала генерируется.
func (w *World) SetBlock(x, y, z int, id *block.Identifier) error {
	if y < MinBlockY || y > MaxBlockY {
		return nil
	}
	c, err := w.ChunkOrGenerate(vec.FloorDiv(x, SectionSize), vec.FloorDiv(z, SectionSize))
	if err != nil {
		return err
	}
	return c.SetBlock(vec.FloorMod(x, SectionSize), y, vec.FloorMod(z, SectionSize), id)
}

// LoadedRegions число загруженных регионов
func (w *World) LoadedRegions() int {
	return len(w.regions)
}

// Save сохраняет метаданные и все загруженные регионы.
// Ошибка одного региона не останавливает сохранение остальных.
func (w *World) Save() error {
	var errs []error
	if err := w.meta.Save(filepath.Join(w.dir, MetaFileName)); err != nil {
		errs = append(errs, err)
	}

	keys := make([]vec.Vec2, 0, len(w.regions))
	for k := range w.regions {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].X != keys[j].X {
			return keys[i].X < keys[j].X
		}
		return keys[i].Z < keys[j].Z
	})

	saved := 0
	for _, k := range keys {
		if err := w.regions[k].Save(); err != nil {
			w.logger.Error("Не удалось сохранить регион %d,%d: %v", k.X, k.Z, err)
			errs = append(errs, err)
			continue
		}
		saved++
		w.observer.RegionSaved()
	}
	w.logger.Info("Мир сохранен: %d регионов, тик %d", saved, w.meta.Ticks)
	return errors.Join(errs...)
}

// Close освобождает ресурсы кодека; мир после этого не используется
func (w *World) Close() {
	w.codec.Close()
}

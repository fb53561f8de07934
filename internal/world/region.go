package world

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	// RegionSize длина ребра региона в чанках
	RegionSize = 32
	// RegionChunks число слотов чанков в регионе
	RegionChunks = RegionSize * RegionSize
	// RegionBlocks длина ребра региона в блоках
	RegionBlocks = RegionSize * SectionSize
)

// Region 32x32 чанка, хранящиеся в одном файле. Загружается и сохраняется целиком.
type Region struct {
	X, Z int

	path   string
	codec  *regionCodec
	chunks [RegionChunks]*Chunk
}

func chunkIndex(localX, localZ int) int {
	return localX*RegionSize + localZ
}

func inRegion(localX, localZ int) bool {
	return localX >= 0 && localX < RegionSize && localZ >= 0 && localZ < RegionSize
}

// loadRegion читает файл региона; отсутствующий файл дает пустой регион
func loadRegion(dir string, x, z int, codec *regionCodec) (*Region, error) {
	r := &Region{
		X:     x,
		Z:     z,
		path:  filepath.Join(dir, codec.fileName(x, z)),
		codec: codec,
	}

	raw, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("чтение региона %d,%d: %w", x, z, err)
	}

	rd, err := codec.decode(raw)
	if err != nil {
		return nil, fmt.Errorf("разбор региона %d,%d: %w", x, z, err)
	}
	if err := r.fromData(rd); err != nil {
		return nil, fmt.Errorf("регион %d,%d: %w", x, z, err)
	}
	return r, nil
}

func (r *Region) fromData(rd *RegionData) error {
	for _, cd := range rd.Chunks {
		idx := int(cd.Index)
		if idx < 0 || idx >= RegionChunks {
			return fmt.Errorf("слот чанка %d вне региона", idx)
		}
		if r.chunks[idx] != nil {
			return fmt.Errorf("слот чанка %d встречается дважды", idx)
		}
		localX, localZ := idx/RegionSize, idx%RegionSize
		c, err := ChunkFromData(r.X*RegionSize+localX, r.Z*RegionSize+localZ, cd)
		if err != nil {
			return err
		}
		r.chunks[idx] = c
	}
	return nil
}

// ToData кодирует все присутствующие чанки региона
func (r *Region) ToData() (*RegionData, error) {
	rd := &RegionData{X: int32(r.X), Z: int32(r.Z), Chunks: make([]ChunkData, 0, r.ChunkCount())}
	for idx, c := range r.chunks {
		if c == nil {
			continue
		}
		cd, err := c.ToData(idx)
		if err != nil {
			return nil, err
		}
		rd.Chunks = append(rd.Chunks, cd)
	}
	return rd, nil
}

// Save перезаписывает файл региона текущим состоянием
func (r *Region) Save() error {
	rd, err := r.ToData()
	if err != nil {
		return fmt.Errorf("регион %d,%d: %w", r.X, r.Z, err)
	}
	raw, err := r.codec.encode(rd)
	if err != nil {
		return fmt.Errorf("кодирование региона %d,%d: %w", r.X, r.Z, err)
	}
	if err := os.WriteFile(r.path, raw, 0o644); err != nil {
		return fmt.Errorf("запись региона %d,%d: %w", r.X, r.Z, err)
	}
	return nil
}

// Chunk возвращает чанк по локальным координатам или nil
func (r *Region) Chunk(localX, localZ int) *Chunk {
	if !inRegion(localX, localZ) {
		return nil
	}
	return r.chunks[chunkIndex(localX, localZ)]
}

// HasChunk проверяет наличие чанка в слоте
func (r *Region) HasChunk(localX, localZ int) bool {
	return r.Chunk(localX, localZ) != nil
}

// setChunk помещает чанк в слот (nil освобождает слот)
func (r *Region) setChunk(localX, localZ int, c *Chunk) {
	if inRegion(localX, localZ) {
		r.chunks[chunkIndex(localX, localZ)] = c
	}
}

// ChunkCount число присутствующих чанков
func (r *Region) ChunkCount() int {
	n := 0
	for _, c := range r.chunks {
		if c != nil {
			n++
		}
	}
	return n
}

// Path путь к файлу региона
func (r *Region) Path() string {
	return r.path
}

package world

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Tnze/go-mc/nbt"
	"github.com/klauspost/compress/zstd"
)

// SaveFormat кодировка файлов регионов
type SaveFormat string

const (
	FormatNBT  SaveFormat = "nbt"
	FormatJSON SaveFormat = "json"
)

// Compression сжатие файлов регионов
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
)

// RegionData сохраненная форма региона: только присутствующие чанки с их слотами
type RegionData struct {
	X      int32       `nbt:"x" json:"x"`
	Z      int32       `nbt:"z" json:"z"`
	Chunks []ChunkData `nbt:"chunks" json:"chunks"`
}

// regionCodec переводит RegionData в байты файла и обратно.
// Формат и сжатие задаются один раз при создании мира.
type regionCodec struct {
	format       SaveFormat
	compression  Compression
	compressor   *zstd.Encoder
	decompressor *zstd.Decoder
}

func newRegionCodec(format SaveFormat, compression Compression) (*regionCodec, error) {
	c := &regionCodec{format: format, compression: compression}
	switch format {
	case FormatNBT, FormatJSON:
	default:
		return nil, fmt.Errorf("неизвестный формат сохранения %q", format)
	}

	switch compression {
	case CompressionNone, "":
		c.compression = CompressionNone
	case CompressionZstd:
		var err error
		c.compressor, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("zstd encoder: %w", err)
		}
		c.decompressor, err = zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decoder: %w", err)
		}
	default:
		return nil, fmt.Errorf("неизвестное сжатие %q", compression)
	}
	return c, nil
}

// fileName имя файла региона
func (c *regionCodec) fileName(x, z int) string {
	name := fmt.Sprintf("r.%d.%d.%s", x, z, c.format)
	if c.compression == CompressionZstd {
		name += ".zst"
	}
	return name
}

func (c *regionCodec) encode(rd *RegionData) ([]byte, error) {
	var buf bytes.Buffer
	switch c.format {
	case FormatNBT:
		if err := nbt.NewEncoder(&buf).Encode(rd, "region"); err != nil {
			return nil, fmt.Errorf("nbt: %w", err)
		}
	case FormatJSON:
		if err := json.NewEncoder(&buf).Encode(rd); err != nil {
			return nil, fmt.Errorf("json: %w", err)
		}
	}

	if c.compressor != nil {
		return c.compressor.EncodeAll(buf.Bytes(), nil), nil
	}
	return buf.Bytes(), nil
}

func (c *regionCodec) decode(data []byte) (*RegionData, error) {
	if c.decompressor != nil {
		var err error
		data, err = c.decompressor.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
	}

	rd := &RegionData{}
	switch c.format {
	case FormatNBT:
		if _, err := nbt.NewDecoder(bytes.NewReader(data)).Decode(rd); err != nil {
			return nil, fmt.Errorf("nbt: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, rd); err != nil {
			return nil, fmt.Errorf("json: %w", err)
		}
	}
	return rd, nil
}

func (c *regionCodec) Close() {
	if c.compressor != nil {
		c.compressor.Close()
	}
	if c.decompressor != nil {
		c.decompressor.Close()
	}
}

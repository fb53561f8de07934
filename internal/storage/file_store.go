package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore хранит каждого игрока в отдельном JSON файле <dir>/<name>.json
type FileStore struct {
	basePath string
	mu       sync.Mutex
}

// NewFileStore создает хранилище, при необходимости создавая каталог
func NewFileStore(basePath string) (*FileStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию %s: %w", basePath, err)
	}
	return &FileStore{basePath: basePath}, nil
}

func (s *FileStore) fileName(name string) string {
	return filepath.Join(s.basePath, name+".json")
}

func (s *FileStore) Load(ctx context.Context, name string) (*PlayerData, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(s.fileName(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("чтение данных игрока %s: %w", name, err)
	}

	var data PlayerData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("ошибка десериализации игрока %s: %w", name, err)
	}
	return &data, nil
}

// Save пишет во временный файл и переименовывает его поверх старого
func (s *FileStore) Save(ctx context.Context, name string, data *PlayerData) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := checkContext(ctx); err != nil {
		return err
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации игрока %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.fileName(name) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("запись данных игрока %s: %w", name, err)
	}
	if err := os.Rename(tmp, s.fileName(name)); err != nil {
		return fmt.Errorf("запись данных игрока %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

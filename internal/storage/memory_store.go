package storage

import (
	"context"
	"sync"
)

// MemoryStore хранит данные игроков в памяти.
// Данные теряются при перезапуске: используется в тестах и для временных серверов.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]PlayerData
}

// NewMemoryStore создает пустое хранилище в памяти
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]PlayerData)}
}

func (s *MemoryStore) Load(ctx context.Context, name string) (*PlayerData, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[name]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return &data, nil
}

func (s *MemoryStore) Save(ctx context.Context, name string, data *PlayerData) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := checkContext(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[name] = *data
	return nil
}

// Count число сохраненных игроков
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *MemoryStore) Close() error { return nil }

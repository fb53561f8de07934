package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v3"
)

// BadgerStore хранит игроков в BadgerDB под ключами player:<name>
type BadgerStore struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool
}

// NewBadgerStore открывает (или создает) базу в каталоге dbPath
func NewBadgerStore(dbPath string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	return &BadgerStore{
		db:      db,
		dbPath:  dbPath,
		isReady: true,
	}, nil
}

func playerKey(name string) []byte {
	return []byte("player:" + name)
}

func (s *BadgerStore) Load(ctx context.Context, name string) (*PlayerData, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return nil, fmt.Errorf("хранилище не готово")
	}

	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(playerKey(name))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	var data PlayerData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("ошибка десериализации игрока %s: %w", name, err)
	}
	return &data, nil
}

func (s *BadgerStore) Save(ctx context.Context, name string, data *PlayerData) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := checkContext(ctx); err != nil {
		return err
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("ошибка сериализации игрока %s: %w", name, err)
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return fmt.Errorf("хранилище не готово")
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(playerKey(name), raw)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	return nil
}

// Close закрывает базу; повторный вызов ничего не делает
func (s *BadgerStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isReady {
		return nil
	}
	s.isReady = false
	return s.db.Close()
}

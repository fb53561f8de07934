package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// ErrPlayerNotFound данных игрока еще нет (первый вход)
var ErrPlayerNotFound = errors.New("player not found")

// ErrInvalidName имя игрока недопустимо как ключ хранилища
var ErrInvalidName = errors.New("invalid player name")

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,16}$`)

// ValidName проверяет имя игрока: 1..16 символов из [A-Za-z0-9_]
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// PlayerData сохраняемое состояние игрока
type PlayerData struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Yaw      float32 `json:"yaw"`
	Pitch    float32 `json:"pitch"`
	OnGround bool    `json:"on_ground"`
	Flying   bool    `json:"flying"`
	OpLevel  int     `json:"op_level"`
}

// DefaultPlayerData состояние нового игрока в точке появления
func DefaultPlayerData(x, y, z float64) *PlayerData {
	return &PlayerData{X: x, Y: y, Z: z, OnGround: true}
}

// PlayerStore хранилище данных игроков по имени.
// Load возвращает ErrPlayerNotFound, если игрок еще не сохранялся.
type PlayerStore interface {
	Load(ctx context.Context, name string) (*PlayerData, error)
	Save(ctx context.Context, name string, data *PlayerData) error
	Close() error
}

// Backend вид хранилища игроков
type Backend string

const (
	BackendFile   Backend = "file"
	BackendBadger Backend = "badger"
	BackendMemory Backend = "memory"
)

// Open создает хранилище игроков выбранного вида в каталоге path
func Open(backend Backend, path string) (PlayerStore, error) {
	switch backend {
	case BackendFile, "":
		return NewFileStore(path)
	case BackendBadger:
		return NewBadgerStore(path)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("неизвестное хранилище игроков %q", backend)
	}
}

func checkName(name string) error {
	if !ValidName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

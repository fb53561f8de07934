package block

import (
	"sync"

	"github.com/annel0/blockverse/internal/vec"
)

// UseResult результат взаимодействия с блоком
type UseResult int

const (
	// UsePass блок не обработал взаимодействие
	UsePass UseResult = iota
	// UseConsume взаимодействие поглощено без изменений
	UseConsume
	// UseSuccess блок изменил мир
	UseSuccess
)

func (r UseResult) String() string {
	switch r {
	case UsePass:
		return "pass"
	case UseConsume:
		return "consume"
	case UseSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// UseContext параметры взаимодействия игрока с блоком
type UseContext struct {
	Player   string
	Position vec.Vec3
	Face     int32
	Cursor   vec.Vec3Float
	Inside   bool
	Sneaking bool
}

// Handler поведение блока при взаимодействии.
// Хранилище мира обработчики не вызывает: их вызывает сетевой код.
type Handler interface {
	// OnUse вызывается при использовании блока (правый клик)
	OnUse(state *BlockState, world BlockAccess, ctx UseContext) UseResult
	// CanReplace сообщает, можно ли поставить блок поверх этого
	CanReplace(state *BlockState, ctx UseContext) bool
}

// DefaultHandler используется для блоков без собственного обработчика
type DefaultHandler struct{}

func (DefaultHandler) OnUse(*BlockState, BlockAccess, UseContext) UseResult { return UsePass }
func (DefaultHandler) CanReplace(*BlockState, UseContext) bool              { return false }

var (
	handlersMu sync.RWMutex
	handlers   = make(map[Identifier]Handler)
)

// RegisterHandler регистрирует обработчик блока (обычно из init)
func RegisterHandler(id Identifier, h Handler) {
	handlersMu.Lock()
	defer handlersMu.Unlock()
	handlers[id] = h
}

// HandlerFor возвращает обработчик блока или DefaultHandler
func HandlerFor(id Identifier) Handler {
	handlersMu.RLock()
	defer handlersMu.RUnlock()
	if h, ok := handlers[id]; ok {
		return h
	}
	return DefaultHandler{}
}

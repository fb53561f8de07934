package block

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var (
	// ErrUnknownBlock блок не зарегистрирован (или не входит в словарь секции)
	ErrUnknownBlock = errors.New("unknown block")
	// ErrUnknownBlockState сочетание блока и свойств не зарегистрировано
	ErrUnknownBlockState = errors.New("unknown block state")
)

//go:embed data/blocks.json
var blocksJSON []byte

// PropertyDef допустимые значения свойства блока
type PropertyDef struct {
	Name   string
	Values []string
}

type blockEntry struct {
	id           Identifier
	protocolID   int32
	properties   []PropertyDef
	defaultState *BlockState
	states       []*BlockState
}

// Registry глобальная палитра: идентификаторы блоков, их состояния и протокольные id.
// Строится один раз и далее только читается.
type Registry struct {
	blocks map[Identifier]*blockEntry
	order  []Identifier
	states map[int32]*BlockState
	keys   map[string]int32
}

type stateJSON struct {
	ID         int32                                  `json:"id"`
	Default    bool                                   `json:"default"`
	Properties *orderedmap.OrderedMap[string, string] `json:"properties"`
}

type blockJSON struct {
	Properties *orderedmap.OrderedMap[string, []string] `json:"properties"`
	States     []stateJSON                              `json:"states"`
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r, err := LoadRegistry(blocksJSON)
	if err != nil {
		panic(fmt.Sprintf("встроенная таблица блоков повреждена: %v", err))
	}
	return r
})

// Default возвращает реестр, построенный из встроенной таблицы блоков
func Default() *Registry {
	return defaultRegistry()
}

// LoadRegistry строит реестр из таблицы состояний в формате отчета blocks.json
func LoadRegistry(data []byte) (*Registry, error) {
	table := orderedmap.New[string, blockJSON]()
	if err := json.Unmarshal(data, table); err != nil {
		return nil, fmt.Errorf("ошибка разбора таблицы блоков: %w", err)
	}

	r := &Registry{
		blocks: make(map[Identifier]*blockEntry, table.Len()),
		states: make(map[int32]*BlockState),
		keys:   make(map[string]int32),
	}

	for pair := table.Oldest(); pair != nil; pair = pair.Next() {
		if err := r.addBlock(pair.Key, pair.Value); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) addBlock(name string, data blockJSON) error {
	id, err := ParseIdentifier(name)
	if err != nil {
		return err
	}
	if _, dup := r.blocks[id]; dup {
		return fmt.Errorf("блок %s объявлен дважды", id)
	}

	entry := &blockEntry{id: id}
	if data.Properties != nil {
		for p := data.Properties.Oldest(); p != nil; p = p.Next() {
			entry.properties = append(entry.properties, PropertyDef{Name: p.Key, Values: p.Value})
		}
	}

	for _, s := range data.States {
		state := &BlockState{block: id, id: s.ID, canonical: true}
		for _, def := range entry.properties {
			if s.Properties == nil {
				return fmt.Errorf("%w: %s state %d has no properties", ErrUnknownBlockState, id, s.ID)
			}
			value, ok := s.Properties.Get(def.Name)
			if !ok || !contains(def.Values, value) {
				return fmt.Errorf("%w: %s state %d has bad property %s", ErrUnknownBlockState, id, s.ID, def.Name)
			}
			state.properties = append(state.properties, Property{Name: def.Name, Value: value})
		}
		if s.Properties != nil && s.Properties.Len() != len(entry.properties) {
			return fmt.Errorf("%w: %s state %d has undeclared properties", ErrUnknownBlockState, id, s.ID)
		}
		if _, dup := r.states[s.ID]; dup {
			return fmt.Errorf("state id %d used twice (%s)", s.ID, id)
		}

		r.states[s.ID] = state
		r.keys[stateKey(id, state.properties)] = s.ID
		entry.states = append(entry.states, state)
		if s.Default {
			if entry.defaultState != nil {
				return fmt.Errorf("блок %s имеет несколько состояний по умолчанию", id)
			}
			entry.defaultState = state
			entry.protocolID = s.ID
		}
	}
	if entry.defaultState == nil {
		return fmt.Errorf("блок %s не имеет состояния по умолчанию", id)
	}

	r.blocks[id] = entry
	r.order = append(r.order, id)
	return nil
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func stateKey(id Identifier, props []Property) string {
	var sb strings.Builder
	sb.WriteString(id.String())
	for _, p := range props {
		sb.WriteByte('|')
		sb.WriteString(p.Name)
		sb.WriteByte('=')
		sb.WriteString(p.Value)
	}
	return sb.String()
}

func (r *Registry) entry(id Identifier) (*blockEntry, error) {
	e, ok := r.blocks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBlock, id)
	}
	return e, nil
}

// Contains проверяет, зарегистрирован ли блок
func (r *Registry) Contains(id Identifier) bool {
	_, ok := r.blocks[id]
	return ok
}

// Blocks возвращает идентификаторы в порядке таблицы
func (r *Registry) Blocks() []Identifier {
	return append([]Identifier(nil), r.order...)
}

// BlockID возвращает глобальный id блока: id его состояния по умолчанию
func (r *Registry) BlockID(id Identifier) (int32, error) {
	e, err := r.entry(id)
	if err != nil {
		return 0, err
	}
	return e.protocolID, nil
}

// DefaultState возвращает каноническое состояние блока по умолчанию
func (r *Registry) DefaultState(id Identifier) (*BlockState, error) {
	e, err := r.entry(id)
	if err != nil {
		return nil, err
	}
	return e.defaultState, nil
}

// Properties возвращает допустимые свойства блока
func (r *Registry) Properties(id Identifier) ([]PropertyDef, error) {
	e, err := r.entry(id)
	if err != nil {
		return nil, err
	}
	return append([]PropertyDef(nil), e.properties...), nil
}

// StateByID возвращает каноническое состояние по глобальному id
func (r *Registry) StateByID(stateID int32) (*BlockState, error) {
	s, ok := r.states[stateID]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownBlockState, stateID)
	}
	return s, nil
}

// Canonicalize находит единственную запись таблицы для сырого состояния.
// Свойства должны совпадать с объявленными у блока: ни лишних, ни пропущенных.
func (r *Registry) Canonicalize(s *BlockState) (*BlockState, error) {
	if s.canonical {
		if own, ok := r.states[s.id]; ok && own == s {
			return s, nil
		}
	}
	e, err := r.entry(s.block)
	if err != nil {
		return nil, err
	}
	if len(s.properties) != len(e.properties) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBlockState, s)
	}

	ordered := make([]Property, 0, len(e.properties))
	for _, def := range e.properties {
		v, ok := s.Property(def.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownBlockState, s)
		}
		ordered = append(ordered, Property{Name: def.Name, Value: v})
	}

	stateID, ok := r.keys[stateKey(s.block, ordered)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBlockState, s)
	}
	return r.states[stateID], nil
}

// StateID возвращает глобальный id состояния (сырое состояние сначала канонизируется)
func (r *Registry) StateID(s *BlockState) (int32, error) {
	c, err := r.Canonicalize(s)
	if err != nil {
		return 0, err
	}
	return c.id, nil
}

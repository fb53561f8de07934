package block

import (
	"fmt"
	"strings"
)

// Property пара имя=значение свойства блока
type Property struct {
	Name  string
	Value string
}

// BlockState блок вместе с набором свойств.
//
// Состояние бывает сырым (создано при разборе, из сети или из хранилища) и каноническим
// (единственная запись в таблице реестра). Сырые состояния сравниваются по значению.
// Канонические равны только если это одна и та же запись таблицы: копия канонического
// состояния ему не равна.
type BlockState struct {
	block      Identifier
	properties []Property
	id         int32
	canonical  bool
}

// NewBlockState создает сырое состояние
func NewBlockState(block Identifier, props ...Property) *BlockState {
	return &BlockState{
		block:      block,
		properties: append([]Property(nil), props...),
	}
}

// ParseBlockState разбирает запись вида minecraft:grass_block[snowy=true]
func ParseBlockState(s string) (*BlockState, error) {
	name, rest, hasProps := strings.Cut(s, "[")
	id, err := ParseIdentifier(name)
	if err != nil {
		return nil, err
	}
	state := &BlockState{block: id}
	if !hasProps {
		return state, nil
	}
	if !strings.HasSuffix(rest, "]") {
		return nil, fmt.Errorf("%w: unterminated properties in %q", ErrUnknownBlockState, s)
	}
	rest = strings.TrimSuffix(rest, "]")
	if rest == "" {
		return state, nil
	}
	for _, pair := range strings.Split(rest, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" || v == "" {
			return nil, fmt.Errorf("%w: bad property %q in %q", ErrUnknownBlockState, pair, s)
		}
		state.properties = append(state.properties, Property{Name: strings.TrimSpace(k), Value: strings.TrimSpace(v)})
	}
	return state, nil
}

// Block возвращает идентификатор блока
func (s *BlockState) Block() Identifier {
	return s.block
}

// Properties возвращает копию свойств в их порядке
func (s *BlockState) Properties() []Property {
	return append([]Property(nil), s.properties...)
}

// Property возвращает значение свойства
func (s *BlockState) Property(name string) (string, bool) {
	for _, p := range s.properties {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// IsCanonical сообщает, является ли состояние записью реестра
func (s *BlockState) IsCanonical() bool {
	return s.canonical
}

// ID возвращает глобальный протокольный id; есть только у канонических состояний
func (s *BlockState) ID() (int32, bool) {
	return s.id, s.canonical
}

// Equal сравнивает состояния: канонические по идентичности, сырые по значению
func (s *BlockState) Equal(other *BlockState) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.canonical || other.canonical {
		return s == other
	}
	if s.block != other.block || len(s.properties) != len(other.properties) {
		return false
	}
	for _, p := range s.properties {
		v, ok := other.Property(p.Name)
		if !ok || v != p.Value {
			return false
		}
	}
	return true
}

// String возвращает запись вида minecraft:grass_block[snowy=true]
func (s *BlockState) String() string {
	if len(s.properties) == 0 {
		return s.block.String()
	}
	var sb strings.Builder
	sb.WriteString(s.block.String())
	sb.WriteByte('[')
	for i, p := range s.properties {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(p.Name)
		sb.WriteByte('=')
		sb.WriteString(p.Value)
	}
	sb.WriteByte(']')
	return sb.String()
}

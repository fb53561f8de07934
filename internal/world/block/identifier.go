package block

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultNamespace пространство имен по умолчанию для идентификаторов без префикса
const DefaultNamespace = "minecraft"

// ErrInvalidIdentifier строка не является корректным идентификатором namespace:path
var ErrInvalidIdentifier = errors.New("invalid identifier")

// Identifier ключ блока или записи реестра вида namespace:path.
// Сравнивается по значению, пригоден как ключ map.
type Identifier struct {
	Namespace string
	Path      string
}

// Air идентификатор воздуха
var Air = Identifier{Namespace: DefaultNamespace, Path: "air"}

// ID создает идентификатор в пространстве имен minecraft
func ID(path string) Identifier {
	return Identifier{Namespace: DefaultNamespace, Path: path}
}

// ParseIdentifier разбирает "namespace:path" или "path" (namespace minecraft)
func ParseIdentifier(s string) (Identifier, error) {
	namespace, path, found := strings.Cut(s, ":")
	if !found {
		namespace, path = DefaultNamespace, s
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if path == "" || !validChars(namespace, false) || !validChars(path, true) {
		return Identifier{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, s)
	}
	return Identifier{Namespace: namespace, Path: path}, nil
}

// MustParseIdentifier как ParseIdentifier, но паникует при ошибке (для статических таблиц)
func MustParseIdentifier(s string) Identifier {
	id, err := ParseIdentifier(s)
	if err != nil {
		panic(err)
	}
	return id
}

func validChars(s string, allowSlash bool) bool {
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_', c == '-', c == '.':
		case c == '/' && allowSlash:
		default:
			return false
		}
	}
	return true
}

// String возвращает каноническую запись namespace:path
func (id Identifier) String() string {
	return id.Namespace + ":" + id.Path
}

// IsAir проверяет, что идентификатор обозначает воздух
func (id Identifier) IsAir() bool {
	return id == Air
}

// MarshalText кодирует идентификатор как строку (JSON и ключи map)
func (id Identifier) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText разбирает идентификатор из строки
func (id *Identifier) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentifier(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

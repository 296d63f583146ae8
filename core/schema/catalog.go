package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// Catalog is the read-only view of the renderable component registry that the
// validator needs. Implementations resolve aliases and compare names
// case-insensitively; the validator only asks the two questions below.
type Catalog interface {
	// IsValidType reports whether name is a known component type.
	IsValidType(name string) bool
	// ResolveAlias maps an alias to its canonical type name.
	ResolveAlias(name string) (string, bool)
}

// PropCatalog is implemented by catalogs that can also describe the props a
// component type accepts.
type PropCatalog interface {
	Catalog
	// PropSpecs returns the prop schema for a canonical type name.
	PropSpecs(typeName string) (map[string]PropSpec, bool)
}

// PropKind is the tagged variant of a prop value.
type PropKind string

const (
	KindString   PropKind = "string"
	KindNumber   PropKind = "number"
	KindBoolean  PropKind = "boolean"
	KindObject   PropKind = "object"
	KindArray    PropKind = "array"
	KindFunction PropKind = "function"
	// KindAny disables the kind check for a prop.
	KindAny PropKind = "any"
)

// ParsePropKind converts a catalog string into a PropKind.
func ParsePropKind(s string) (PropKind, error) {
	switch kind := PropKind(strings.ToLower(strings.TrimSpace(s))); kind {
	case KindString, KindNumber, KindBoolean, KindObject, KindArray, KindFunction, KindAny:
		return kind, nil
	case "":
		return KindAny, nil
	default:
		return "", fmt.Errorf("unknown prop kind %q", s)
	}
}

// PropSpec describes one prop of a component type.
type PropSpec struct {
	Kind        PropKind `json:"kind" yaml:"kind"`
	Required    bool     `json:"required,omitempty" yaml:"required,omitempty"`
	Default     any      `json:"default,omitempty" yaml:"default,omitempty"`
	Enum        []any    `json:"enum,omitempty" yaml:"enum,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// Matches reports whether a decoded JSON value has the spec's kind.
// Functions travel over JSON as handler names, so they are strings.
func (p PropSpec) Matches(value any) bool {
	switch p.Kind {
	case KindAny, "":
		return true
	case KindString, KindFunction:
		_, ok := value.(string)
		return ok
	case KindNumber:
		switch value.(type) {
		case float64, float32, int, int64, int32:
			return true
		}
		return false
	case KindBoolean:
		_, ok := value.(bool)
		return ok
	case KindObject:
		_, ok := value.(map[string]any)
		return ok
	case KindArray:
		_, ok := value.([]any)
		return ok
	}
	return false
}

// Allows reports whether value is accepted by the spec's enum. An empty enum
// accepts everything.
func (p PropSpec) Allows(value any) bool {
	if len(p.Enum) == 0 {
		return true
	}
	for _, allowed := range p.Enum {
		if enumEqual(allowed, value) {
			return true
		}
	}
	return false
}

// enumEqual compares numbers by value, since catalogs decode 1 as an int and
// replies decode it as a float64, and everything else by type and value.
func enumEqual(a, b any) bool {
	if x, ok := asFloat(a); ok {
		y, ok := asFloat(b)
		return ok && x == y
	}
	return reflect.DeepEqual(a, b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

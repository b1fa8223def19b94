package params

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"
)

var ErrInvalidField = errors.New("invalid parameter field")

// Kind is the value type of a parameter field.
type Kind int

const (
	KindAny Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindList
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// jsonType returns the JSON schema type of k, empty for KindAny.
func (k Kind) jsonType() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "integer"
	case KindFloat:
		return "number"
	case KindBool:
		return "boolean"
	case KindList:
		return "array"
	case KindObject:
		return "object"
	default:
		return ""
	}
}

// Field describes one parameter of a schema.
type Field struct {
	Name string
	Kind Kind

	// Required fields must be given unless they have a default.
	Required bool

	// Default is used if the field is not given.
	Default any

	// Options restricts the field to the listed values.
	Options []any

	// Deprecated lists former names of the field that are still accepted.
	Deprecated []string

	// Display is an alternative name for user interfaces.
	Display string

	// Hint describes the field.
	Hint string
}

func (f Field) validate() error {
	if f.Name == "" {
		return fmt.Errorf("%w: field without name", ErrInvalidField)
	}

	if f.Required && f.Default != nil {
		return fmt.Errorf("%w: field %q is required and has a default", ErrInvalidField, f.Name)
	}

	for _, option := range f.Options {
		if _, ok := coerce(f.Kind, option); !ok {
			return fmt.Errorf("%w: option %v of field %q is not of kind %s", ErrInvalidField, option, f.Name, f.Kind)
		}
	}

	if f.Default == nil {
		return nil
	}

	def, ok := coerce(f.Kind, f.Default)
	if !ok {
		return fmt.Errorf("%w: default %v of field %q is not of kind %s", ErrInvalidField, f.Default, f.Name, f.Kind)
	}

	if len(f.Options) > 0 && !slices.ContainsFunc(f.Options, func(option any) bool {
		o, _ := coerce(f.Kind, option)
		return reflect.DeepEqual(o, def)
	}) {
		return fmt.Errorf("%w: default %v of field %q is not in options %v", ErrInvalidField, f.Default, f.Name, f.Options)
	}

	return nil
}

// coerce converts numeric values to the representation of kind. Values of
// other kinds are returned unchanged. The second return value is false if
// value cannot be of the kind.
func coerce(kind Kind, value any) (any, bool) {
	switch kind {
	case KindInt:
		switch v := value.(type) {
		case int:
			return v, true
		case int32:
			return int(v), true
		case int64:
			return int(v), true
		case float64:
			if v == math.Trunc(v) {
				return int(v), true
			}
		}
		return value, false
	case KindFloat:
		switch v := value.(type) {
		case float64:
			return v, true
		case float32:
			return float64(v), true
		case int:
			return float64(v), true
		case int64:
			return float64(v), true
		}
		return value, false
	case KindString:
		_, ok := value.(string)
		return value, ok
	case KindBool:
		_, ok := value.(bool)
		return value, ok
	case KindList:
		_, ok := value.([]any)
		return value, ok
	case KindObject:
		_, ok := value.(map[string]any)
		return value, ok
	default:
		return value, true
	}
}

package document

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/catharsys/anybase/internal/dti"
)

// CheckType matches the "sDTI" element of doc against target.
func CheckType(doc Document, target string) (dti.Match, error) {
	config, err := GetValue[string](doc, KeyDTI, Where(fmt.Sprintf("configuration data (%s)", target)))
	if err != nil {
		return dti.Match{}, err
	}

	return dti.Check(config, target)
}

// IsType reports whether doc is of type target. It is false for nil
// documents and documents without a valid "sDTI" element.
func IsType(doc Document, target string) bool {
	if doc == nil {
		return false
	}

	m, err := CheckType(doc, target)
	return err == nil && m.OK
}

// AssertType is like CheckType but fails with ErrTypeMismatch if the
// types do not match.
func AssertType(doc Document, target string) (dti.Match, error) {
	m, err := CheckType(doc, target)
	if err != nil {
		return m, err
	}

	if !m.OK {
		return m, fmt.Errorf("%w: invalid configuration data of type %q given: %s",
			ErrTypeMismatch, m.Config, m.Message)
	}

	return m, nil
}

// DataBlocksOfType returns the values of all elements whose key is a DTI
// matching target, in key order. List values are flattened into the result.
func DataBlocksOfType(doc Document, target string) []any {
	var blocks []any

	for _, key := range sortedKeys(doc) {
		if !dti.IsMatch(key, target) {
			continue
		}

		if list, ok := doc[key].([]any); ok {
			blocks = append(blocks, list...)
		} else {
			blocks = append(blocks, doc[key])
		}
	}

	return blocks
}

// Paths returns the "/"-separated key paths of all nested objects that
// carry an "sDTI" element. Objects without one are descended into. If
// target is not empty, only objects of that type are returned.
func Paths(doc Document, target string) []string {
	var paths []string

	for _, key := range sortedKeys(doc) {
		sub, ok := doc[key].(map[string]any)
		if !ok {
			continue
		}

		config, typed := sub[KeyDTI]
		switch {
		case !typed:
			for _, p := range Paths(sub, target) {
				paths = append(paths, key+"/"+p)
			}
		case target == "":
			paths = append(paths, key)
		default:
			if s, ok := config.(string); ok && dti.IsMatch(s, target) {
				paths = append(paths, key)
			}
		}
	}

	return paths
}

// SetAtPath stores value at the "/"-separated key path, creating missing
// intermediate objects.
func SetAtPath(doc Document, path string, value any) error {
	keys := strings.Split(path, "/")

	current := doc
	for i, key := range keys[:len(keys)-1] {
		next, ok := current[key]
		if !ok || next == nil {
			created := make(map[string]any)
			current[key] = created
			current = created
			continue
		}

		obj, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: element %q is of type %T, not an object",
				ErrWrongType, strings.Join(keys[:i+1], "/"), next)
		}
		current = obj
	}

	current[keys[len(keys)-1]] = value

	return nil
}

type getOptions struct {
	def      any
	where    string
	optional bool
	keyPath  bool
	dtiKey   bool
}

type GetOption func(*getOptions)

// WithDefault is returned if the element does not exist.
func WithDefault(value any) GetOption {
	return func(o *getOptions) {
		o.def = value
	}
}

// Where names the data in error messages.
func Where(where string) GetOption {
	return func(o *getOptions) {
		o.where = where
	}
}

// Optional returns the zero value instead of ErrNotFound.
func Optional() GetOption {
	return func(o *getOptions) {
		o.optional = true
	}
}

// AllowKeyPath interprets the key as "/"-separated path if no element has
// the key itself.
func AllowKeyPath() GetOption {
	return func(o *getOptions) {
		o.keyPath = true
	}
}

// DTIKey interprets the key as target DTI and returns the value of the
// first element, in key order, whose key matches it.
func DTIKey() GetOption {
	return func(o *getOptions) {
		o.dtiKey = true
	}
}

// GetValue returns the element key of doc as T. Integral numbers convert
// to int types and ints to float64.
func GetValue[T any](doc Document, key string, opts ...GetOption) (T, error) {
	var zero T

	o := getOptions{where: "dictionary"}
	for _, opt := range opts {
		opt(&o)
	}

	if o.def != nil {
		if _, ok := convert[T](o.def); !ok {
			return zero, fmt.Errorf("%w: default value is not of type '%T'", ErrWrongType, zero)
		}
	}

	value := lookup(doc, key, o)
	if value == nil {
		value = o.def
	}

	if value == nil {
		if o.optional {
			return zero, nil
		}
		return zero, fmt.Errorf("%w: element '%s' not found in %s", ErrNotFound, key, o.where)
	}

	converted, ok := convert[T](value)
	if !ok {
		return zero, fmt.Errorf("%w: element '%s' is of type '%T' but should be of type '%T' in %s",
			ErrWrongType, key, value, zero, o.where)
	}

	return converted, nil
}

func lookup(doc Document, key string, o getOptions) any {
	if o.dtiKey {
		for _, k := range sortedKeys(doc) {
			if dti.IsMatch(k, key) {
				return doc[k]
			}
		}
		return nil
	}

	if value, ok := doc[key]; ok && value != nil {
		return value
	}

	if !o.keyPath {
		return nil
	}

	var current any = doc
	for _, part := range strings.Split(key, "/") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = obj[part]
		if current == nil {
			return nil
		}
	}

	return current
}

func convert[T any](value any) (T, bool) {
	if v, ok := value.(T); ok {
		return v, true
	}

	var zero T
	var out any

	switch any(zero).(type) {
	case float64:
		switch n := value.(type) {
		case int:
			out = float64(n)
		case int64:
			out = float64(n)
		}
	case int:
		if f, ok := value.(float64); ok && f == math.Trunc(f) {
			out = int(f)
		}
	case int64:
		switch n := value.(type) {
		case float64:
			if n == math.Trunc(n) {
				out = int64(n)
			}
		case int:
			out = int64(n)
		}
	}

	if out == nil {
		return zero, false
	}

	return out.(T), true
}

func sortedKeys(doc Document) []string {
	keys := make([]string, 0, len(doc))
	for key := range doc {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys
}

package params

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
)

const rootField = "(root)"

// Issue is a single problem found while validating parameters.
type Issue struct {
	Field   string
	Message string
}

// ValidationError lists every issue found in a parameter set.
type ValidationError struct {
	Schema string
	Where  string
	Issues []Issue
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.Field + ": " + issue.Message
	}

	where := ""
	if e.Where != "" {
		where = " in " + e.Where
	}

	return fmt.Sprintf("invalid parameters for %s%s: %s", e.Schema, where, strings.Join(msgs, "; "))
}

// Schema validates parameter sets against a list of fields.
type Schema struct {
	name   string
	fields []Field
	schema *gojsonschema.Schema

	log *zap.Logger
}

// NewSchema checks the field descriptors and compiles them into a JSON
// schema. Parameters not described by a field are allowed.
func NewSchema(name string, fields ...Field) (*Schema, error) {
	seen := make(map[string]string)
	properties := make(map[string]any, len(fields))
	var required []string

	for _, f := range fields {
		if err := f.validate(); err != nil {
			return nil, err
		}

		for _, key := range append([]string{f.Name}, f.Deprecated...) {
			if owner, ok := seen[key]; ok {
				return nil, fmt.Errorf("%w: name %q of field %q is already used by field %q",
					ErrInvalidField, key, f.Name, owner)
			}
			seen[key] = f.Name
		}

		property := map[string]any{}
		if t := f.Kind.jsonType(); t != "" {
			property["type"] = t
		}
		if len(f.Options) > 0 {
			property["enum"] = f.Options
		}
		if f.Hint != "" {
			property["description"] = f.Hint
		}
		properties[f.Name] = property

		if f.Required {
			required = append(required, f.Name)
		}
	}

	doc := map[string]any{
		"$schema":    "http://json-schema.org/draft-07/schema#",
		"title":      name,
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		doc["required"] = required
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
	}

	return &Schema{
		name:   name,
		fields: fields,
		schema: schema,
		log:    zap.NewNop(),
	}, nil
}

// WithLogger returns a copy of s that reports the use of deprecated names to log.
func (s *Schema) WithLogger(log *zap.Logger) *Schema {
	c := *s
	c.log = log.Named("params").With(zap.String("schema", s.name))

	return &c
}

func (s *Schema) Name() string {
	return s.name
}

func (s *Schema) Fields() []Field {
	return s.fields
}

// Validate returns a normalised copy of data: deprecated names are
// replaced by the current ones, defaults are filled in and numbers are
// converted to the kind of their field. where describes the origin of
// data in errors. Invalid data fails with a *ValidationError.
func (s *Schema) Validate(data map[string]any, where string) (map[string]any, error) {
	out := make(map[string]any, len(data))
	for key, value := range data {
		out[key] = value
	}

	for _, f := range s.fields {
		if _, ok := out[f.Name]; !ok {
			s.resolveDeprecated(out, f, where)
		}

		value, ok := out[f.Name]
		if !ok || value == nil {
			if f.Default == nil {
				continue
			}
			value = f.Default
		}

		if coerced, ok := coerce(f.Kind, value); ok {
			value = coerced
		}
		out[f.Name] = value
	}

	result, err := s.schema.Validate(gojsonschema.NewGoLoader(out))
	if err != nil {
		return nil, fmt.Errorf("failed to validate parameters for %s: %w", s.name, err)
	}

	if result.Valid() {
		return out, nil
	}

	verr := &ValidationError{Schema: s.name, Where: where}
	for _, e := range result.Errors() {
		field := e.Field()
		if property, ok := e.Details()["property"].(string); ok && field == rootField {
			field = property
		}
		verr.Issues = append(verr.Issues, Issue{Field: field, Message: e.Description()})
	}

	return nil, verr
}

// Decode validates data and decodes the result into out, which must be a
// pointer to a struct whose fields are tagged with `param:"<name>"`.
func (s *Schema) Decode(data map[string]any, where string, out any) error {
	values, err := s.Validate(data, where)
	if err != nil {
		return err
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "param",
		Result:  out,
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(values); err != nil {
		return fmt.Errorf("failed to decode parameters for %s: %w", s.name, err)
	}

	return nil
}

func (s *Schema) resolveDeprecated(data map[string]any, f Field, where string) {
	for _, alias := range f.Deprecated {
		value, ok := data[alias]
		if !ok {
			continue
		}

		s.log.Warn("deprecated parameter name used",
			zap.String("name", alias),
			zap.String("preferred", f.Name),
			zap.String("where", where),
		)

		data[f.Name] = value
		delete(data, alias)

		return
	}
}

package params_test

import (
	"testing"

	"github.com/catharsys/anybase/internal/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func renderSchema(t *testing.T) *params.Schema {
	t.Helper()

	s, err := params.NewSchema("render",
		params.Field{Name: "sDTI", Kind: params.KindString, Required: true},
		params.Field{Name: "iSamples", Kind: params.KindInt, Default: 16},
		params.Field{Name: "fScale", Kind: params.KindFloat, Required: true, Deprecated: []string{"fScaleFactor"}},
		params.Field{Name: "sMode", Kind: params.KindString, Options: []any{"INIT", "FRAME_UPDATE"}, Default: "INIT"},
		params.Field{Name: "bDenoise", Kind: params.KindBool},
	)
	require.NoError(t, err)

	return s.WithLogger(zap.NewNop())
}

func TestSchema_Validate(t *testing.T) {
	s := renderSchema(t)

	out, err := s.Validate(map[string]any{
		"sDTI":         "/catharsys/render:1.0",
		"fScaleFactor": 2,
		"sExtra":       "kept",
	}, "render.json")
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"sDTI":     "/catharsys/render:1.0",
		"iSamples": 16,
		"fScale":   2.0,
		"sMode":    "INIT",
		"sExtra":   "kept",
	}, out)
}

func TestSchema_Validate_CoercesIntegralFloats(t *testing.T) {
	s := renderSchema(t)

	out, err := s.Validate(map[string]any{
		"sDTI":     "/catharsys/render:1.0",
		"fScale":   1.5,
		"iSamples": 32.0,
	}, "")
	require.NoError(t, err)

	assert.Equal(t, 32, out["iSamples"])
}

func TestSchema_Validate_Issues(t *testing.T) {
	s := renderSchema(t)

	_, err := s.Validate(map[string]any{
		"iSamples": 2.5,
		"sMode":    "OTHER",
		"bDenoise": "yes",
	}, "render.json")

	var verr *params.ValidationError
	require.ErrorAs(t, err, &verr)

	assert.Equal(t, "render", verr.Schema)
	assert.Equal(t, "render.json", verr.Where)

	fields := make([]string, len(verr.Issues))
	for i, issue := range verr.Issues {
		fields[i] = issue.Field
	}
	assert.ElementsMatch(t, []string{"sDTI", "fScale", "iSamples", "sMode", "bDenoise"}, fields)
	assert.Contains(t, err.Error(), "invalid parameters for render in render.json")
}

func TestNewSchema_InvalidFields(t *testing.T) {
	cases := map[string]params.Field{
		"no name":            {Kind: params.KindInt},
		"required default":   {Name: "a", Required: true, Default: 1},
		"default wrong kind": {Name: "a", Kind: params.KindInt, Default: "x"},
		"default not option": {Name: "a", Kind: params.KindString, Options: []any{"x", "y"}, Default: "z"},
		"option wrong kind":  {Name: "a", Kind: params.KindString, Options: []any{"x", 1}},
	}

	for name, f := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := params.NewSchema("test", f)
			assert.ErrorIs(t, err, params.ErrInvalidField)
		})
	}
}

func TestNewSchema_DuplicateNames(t *testing.T) {
	_, err := params.NewSchema("test",
		params.Field{Name: "a"},
		params.Field{Name: "b", Deprecated: []string{"a"}},
	)
	assert.ErrorIs(t, err, params.ErrInvalidField)
}

type renderParams struct {
	DTI     string  `param:"sDTI"`
	Samples int     `param:"iSamples"`
	Scale   float64 `param:"fScale"`
	Mode    string  `param:"sMode"`
	Denoise bool    `param:"bDenoise"`
}

func TestSchema_Decode(t *testing.T) {
	s := renderSchema(t)

	var p renderParams
	err := s.Decode(map[string]any{
		"sDTI":     "/catharsys/render:1.0",
		"fScale":   0.5,
		"bDenoise": true,
	}, "", &p)
	require.NoError(t, err)

	assert.Equal(t, renderParams{
		DTI:     "/catharsys/render:1.0",
		Samples: 16,
		Scale:   0.5,
		Mode:    "INIT",
		Denoise: true,
	}, p)
}

func TestSchema_Decode_Invalid(t *testing.T) {
	s := renderSchema(t)

	var p renderParams
	err := s.Decode(map[string]any{"sDTI": "/catharsys/render:1.0"}, "", &p)

	var verr *params.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Issues, 1)
	assert.Equal(t, "fScale", verr.Issues[0].Field)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "int", params.KindInt.String())
	assert.Equal(t, "object", params.KindObject.String())
}

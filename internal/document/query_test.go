package document_test

import (
	"testing"

	"github.com/catharsys/anybase/internal/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckType(t *testing.T) {
	doc := document.Document{"sDTI": "/catharsys/render:1.2"}

	m, err := document.CheckType(doc, "/catharsys/render:1")
	require.NoError(t, err)
	assert.True(t, m.OK)

	assert.True(t, document.IsType(doc, "/catharsys/*:1"))
	assert.False(t, document.IsType(doc, "/catharsys/render:2"))
	assert.False(t, document.IsType(nil, "/catharsys/render:1"))
	assert.False(t, document.IsType(document.Document{}, "/catharsys/render:1"))

	_, err = document.AssertType(doc, "/catharsys/launch:1")
	assert.ErrorIs(t, err, document.ErrTypeMismatch)

	_, err = document.AssertType(document.Document{"sDTI": 3.0}, "/catharsys/launch:1")
	assert.ErrorIs(t, err, document.ErrWrongType)
}

func TestDataBlocksOfType(t *testing.T) {
	doc := document.Document{
		"/catharsys/action/render:1.0": map[string]any{"sId": "a"},
		"/catharsys/action/launch:1.0": []any{
			map[string]any{"sId": "b"},
			map[string]any{"sId": "c"},
		},
		"/catharsys/other:1.0": map[string]any{"sId": "x"},
		"not a dti:x":          map[string]any{"sId": "y"},
	}

	blocks := document.DataBlocksOfType(doc, "/catharsys/action/*:1")

	assert.Equal(t, []any{
		map[string]any{"sId": "b"},
		map[string]any{"sId": "c"},
		map[string]any{"sId": "a"},
	}, blocks)
}

func TestPaths(t *testing.T) {
	doc := document.Document{
		"mGroup": map[string]any{
			"mRender": map[string]any{"sDTI": "/catharsys/render:1.0"},
			"mLaunch": map[string]any{"sDTI": "/catharsys/launch:1.0"},
		},
		"mTop":   map[string]any{"sDTI": "/catharsys/render:1.1"},
		"iValue": 3,
	}

	assert.Equal(t, []string{"mGroup/mLaunch", "mGroup/mRender", "mTop"}, document.Paths(doc, ""))
	assert.Equal(t, []string{"mGroup/mRender", "mTop"}, document.Paths(doc, "/catharsys/render:1"))
}

func TestSetAtPath(t *testing.T) {
	doc := document.Document{"mA": map[string]any{"iX": 1.0}}

	require.NoError(t, document.SetAtPath(doc, "mA/mB/iY", 2))
	require.NoError(t, document.SetAtPath(doc, "mA/iX", 5))
	require.NoError(t, document.SetAtPath(doc, "iTop", 7))

	assert.Equal(t, document.Document{
		"mA": map[string]any{
			"iX": 5,
			"mB": map[string]any{"iY": 2},
		},
		"iTop": 7,
	}, doc)

	err := document.SetAtPath(doc, "iTop/iZ", 1)
	assert.ErrorIs(t, err, document.ErrWrongType)
}

func TestGetValue(t *testing.T) {
	doc := document.Document{
		"sName":  "scene",
		"iCount": float64(3),
		"fScale": 2,
		"fHalf":  0.5,
		"mNested": map[string]any{
			"mDeep": map[string]any{"sKey": "found"},
		},
		"/catharsys/render:1.0": "render",
	}

	name, err := document.GetValue[string](doc, "sName")
	require.NoError(t, err)
	assert.Equal(t, "scene", name)

	count, err := document.GetValue[int](doc, "iCount")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	scale, err := document.GetValue[float64](doc, "fScale")
	require.NoError(t, err)
	assert.Equal(t, 2.0, scale)

	_, err = document.GetValue[int](doc, "fHalf")
	assert.ErrorIs(t, err, document.ErrWrongType)

	_, err = document.GetValue[string](doc, "iCount", document.Where("render config"))
	assert.ErrorIs(t, err, document.ErrWrongType)
	assert.ErrorContains(t, err, "in render config")

	_, err = document.GetValue[string](doc, "sMissing")
	assert.ErrorIs(t, err, document.ErrNotFound)
	assert.ErrorContains(t, err, "element 'sMissing' not found in dictionary")

	missing, err := document.GetValue[string](doc, "sMissing", document.Optional())
	require.NoError(t, err)
	assert.Empty(t, missing)

	def, err := document.GetValue[string](doc, "sMissing", document.WithDefault("fallback"))
	require.NoError(t, err)
	assert.Equal(t, "fallback", def)

	_, err = document.GetValue[string](doc, "sMissing", document.WithDefault(1))
	assert.ErrorIs(t, err, document.ErrWrongType)

	_, err = document.GetValue[string](doc, "mNested/mDeep/sKey")
	assert.ErrorIs(t, err, document.ErrNotFound)

	deep, err := document.GetValue[string](doc, "mNested/mDeep/sKey", document.AllowKeyPath())
	require.NoError(t, err)
	assert.Equal(t, "found", deep)

	byDTI, err := document.GetValue[string](doc, "/catharsys/*:1", document.DTIKey())
	require.NoError(t, err)
	assert.Equal(t, "render", byDTI)

	nested, err := document.GetValue[map[string]any](doc, "mNested")
	require.NoError(t, err)
	assert.Contains(t, nested, "mDeep")
}

func TestReplaceVars(t *testing.T) {
	in := map[string]any{
		"a": "${x}-${y}",
		"b": []any{"${x}", 1.0},
		"c": map[string]any{"d": "$x ${z}"},
	}

	out := document.ReplaceVars(in, map[string]string{"x": "1", "y": "2"})

	assert.Equal(t, map[string]any{
		"a": "1-2",
		"b": []any{"1", 1.0},
		"c": map[string]any{"d": "$x ${z}"},
	}, out)
	assert.Equal(t, "${x}-${y}", in["a"])
}

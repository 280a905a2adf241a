package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dipeo/dipeo-core/domain"
)

func TestResolve_PacksSingleBindingUnderLabel(t *testing.T) {
	spec := domain.HandleSpec{Inputs: []domain.PortSpec{{Label: domain.HandleDefault, ContentType: domain.ContentObject}}}
	bindings := []Binding{{Label: domain.HandleDefault, Value: "hello"}}

	out, err := Resolve("n1", spec, bindings)
	require.NoError(t, err)
	assert.Equal(t, "hello", out["default"])
}

func TestResolve_SpreadMergesObjectKeys(t *testing.T) {
	spec := domain.HandleSpec{}
	bindings := []Binding{{Label: domain.HandleDefault, Value: map[string]any{"a": 1, "b": 2}, Spread: true}}

	out, err := Resolve("n1", spec, bindings)
	require.NoError(t, err)
	assert.Equal(t, 1, out["a"])
	assert.Equal(t, 2, out["b"])
}

func TestResolve_SpreadCollisionIsError(t *testing.T) {
	spec := domain.HandleSpec{}
	bindings := []Binding{
		{Label: domain.HandleDefault, Value: map[string]any{"a": 1}, Spread: true},
		{Label: domain.HandleFirst, Value: map[string]any{"a": 2}, Spread: true},
	}

	_, err := Resolve("n1", spec, bindings)
	require.Error(t, err)
	var collision *InputCollision
	assert.ErrorAs(t, err, &collision)
}

func TestResolve_MissingRequiredInputUsesDefault(t *testing.T) {
	spec := domain.HandleSpec{Inputs: []domain.PortSpec{{Label: domain.HandleDefault, Required: true, Default: "fallback"}}}

	out, err := Resolve("n1", spec, nil)
	require.NoError(t, err)
	assert.Equal(t, "fallback", out["default"])
}

func TestResolve_MissingRequiredInputNoDefaultErrors(t *testing.T) {
	spec := domain.HandleSpec{Inputs: []domain.PortSpec{{Label: domain.HandleDefault, Required: true}}}

	_, err := Resolve("n1", spec, nil)
	require.Error(t, err)
	var missing *MissingRequiredInput
	assert.ErrorAs(t, err, &missing)
}

func TestResolve_ExtractTransformWalksDottedPath(t *testing.T) {
	spec := domain.HandleSpec{}
	bindings := []Binding{{
		Label: domain.HandleDefault,
		Value: map[string]any{"outer": map[string]any{"inner": "value"}},
		Transforms: []domain.TransformRule{
			{Kind: domain.TransformExtract, Path: "outer.inner"},
		},
	}}

	out, err := Resolve("n1", spec, bindings)
	require.NoError(t, err)
	assert.Equal(t, "value", out["default"])
}

func TestResolve_MultipleBindingsOnSameLabelCollectIntoList(t *testing.T) {
	spec := domain.HandleSpec{}
	bindings := []Binding{
		{Label: domain.HandleDefault, Value: "a"},
		{Label: domain.HandleDefault, Value: "b"},
	}

	out, err := Resolve("n1", spec, bindings)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, out["default"])
}

package extract

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_value(t *testing.T) {
	type scenario struct {
		name     string
		origin   string
		dataset  map[string]any
		expected any
		fails    bool
	}
	scenarios := []scenario{
		{
			name:     "single level path",
			origin:   "dataset_jpath:_source.urls",
			dataset:  map[string]any{"urls": []any{"s3://bucket/a"}},
			expected: []any{"s3://bucket/a"},
		},
		{
			name:     "nested path walks level by level",
			origin:   "dataset_jpath:_source.a.b",
			dataset:  map[string]any{"a": map[string]any{"b": "v"}},
			expected: "v",
		},
		{
			name:     "_id maps to the id field",
			origin:   "dataset_jpath:_source._id",
			dataset:  map[string]any{"id": "X123"},
			expected: "X123",
		},
		{
			name:    "_id with no id field fails",
			origin:  "dataset_jpath:_source._id",
			dataset: map[string]any{"name": "X123"},
			fails:   true,
		},
		{
			name:    "missing segment fails",
			origin:  "dataset_jpath:_source.a.missing",
			dataset: map[string]any{"a": map[string]any{"b": "v"}},
			fails:   true,
		},
		{
			name:    "segment through non-object fails",
			origin:  "dataset_jpath:_source.a.b",
			dataset: map[string]any{"a": "flat"},
			fails:   true,
		},
	}
	for _, ts := range scenarios {
		t.Run(ts.name, func(t *testing.T) {
			value, err := Value(ts.origin, ts.dataset)
			if ts.fails {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, ts.expected, value)
		})
	}
}

func Test_fieldPath(t *testing.T) {
	assert.Equal(t, "metadata.id", FieldPath("dataset_jpath:_source.metadata.id"))
	assert.Equal(t, "_id", FieldPath("dataset_jpath:_source._id"))
	assert.Equal(t, "plain", FieldPath("plain"))
}

func Test_registry(t *testing.T) {
	registry := NewRegistry()

	_, ok := registry.Lookup("first_url")
	assert.False(t, ok)

	registry.Register("first_url", func(dataset map[string]any) (any, error) {
		urls, ok := dataset["urls"].([]any)
		if !ok || len(urls) == 0 {
			return nil, fmt.Errorf("dataset has no urls")
		}
		return urls[0], nil
	})

	fn, ok := registry.Lookup("first_url")
	require.True(t, ok)
	value, err := fn(map[string]any{"urls": []any{"s3://bucket/a", "s3://bucket/b"}})
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/a", value)
}

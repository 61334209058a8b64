package mapper_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unionjson/unionjson/mapper"
)

type base struct {
	ID      string `json:"id"`
	Version int    `json:"version"`
}

type tagged struct {
	Name     string `json:"name"`
	Age      int    `json:"age,omitempty"`
	Internal string `json:"-"`
	Untagged bool
	hidden   string //nolint:unused
}

type derived struct {
	base
	Version string `json:"version"` // shadows the embedded field
	Extra   string `json:"extra"`
}

type viaPointer struct {
	*base
	Own string `json:"own"`
}

func TestFields_Success(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		typ      reflect.Type
		expected []string
	}{
		{
			name:     "json tags and untagged fields",
			typ:      reflect.TypeOf(tagged{}),
			expected: []string{"name", "age", "Untagged"},
		},
		{
			name:     "embedded fields promoted in declaration order",
			typ:      reflect.TypeOf(derived{}),
			expected: []string{"id", "version", "extra"},
		},
		{
			name:     "embedded pointer promoted",
			typ:      reflect.TypeOf(viaPointer{}),
			expected: []string{"id", "version", "own"},
		},
		{
			name:     "pointer to struct is dereferenced",
			typ:      reflect.TypeOf(&tagged{}),
			expected: []string{"name", "age", "Untagged"},
		},
		{
			name:     "non-struct has no fields",
			typ:      reflect.TypeOf(""),
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fields := mapper.Fields(tt.typ)

			var names []string
			for _, field := range fields {
				names = append(names, field.Name)
			}
			assert.Equal(t, tt.expected, names)
		})
	}
}

func TestFields_OmitEmpty_Success(t *testing.T) {
	t.Parallel()

	field, ok := mapper.FieldByName(reflect.TypeOf(tagged{}), "age")
	require.True(t, ok)
	assert.True(t, field.OmitEmpty)

	field, ok = mapper.FieldByName(reflect.TypeOf(tagged{}), "name")
	require.True(t, ok)
	assert.False(t, field.OmitEmpty)
}

func TestFieldByName_Success(t *testing.T) {
	t.Parallel()

	field, ok := mapper.FieldByName(reflect.TypeOf(derived{}), "id")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeOf(""), field.Type)
	assert.Equal(t, []int{0, 0}, field.Index)

	// Shadowing field resolves to the outer declaration.
	field, ok = mapper.FieldByName(reflect.TypeOf(derived{}), "version")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeOf(""), field.Type)
	assert.Equal(t, []int{1}, field.Index)

	_, ok = mapper.FieldByName(reflect.TypeOf(derived{}), "missing")
	assert.False(t, ok)
}

func TestEmbeddedTypes_Success(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		typ      reflect.Type
		expected []reflect.Type
	}{
		{
			name:     "embedded value",
			typ:      reflect.TypeOf(derived{}),
			expected: []reflect.Type{reflect.TypeOf(base{})},
		},
		{
			name:     "embedded pointer",
			typ:      reflect.TypeOf(viaPointer{}),
			expected: []reflect.Type{reflect.TypeOf(base{})},
		},
		{
			name:     "no embedding",
			typ:      reflect.TypeOf(tagged{}),
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, mapper.EmbeddedTypes(tt.typ))
		})
	}
}

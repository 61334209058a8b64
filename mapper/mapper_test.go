package mapper_test

import (
	"bytes"
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unionjson/unionjson/mapper"
	"github.com/unionjson/unionjson/validation"
	"github.com/unionjson/unionjson/yml"
	"gopkg.in/yaml.v3"
)

type Address struct {
	City string `json:"city"`
	Zip  string `json:"zip,omitempty"`
}

type Person struct {
	Name    string         `json:"name"`
	Age     int            `json:"age"`
	Tags    []string       `json:"tags,omitempty"`
	Address *Address       `json:"address,omitempty"`
	Meta    map[string]int `json:"meta,omitempty"`
	Raw     []byte         `json:"raw,omitempty"`
}

func TestMarshal_JSON_Success(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		model    any
		expected string
	}{
		{
			name:     "flat struct",
			model:    Person{Name: "John", Age: 30},
			expected: `{"name":"John","age":30}`,
		},
		{
			name:     "nested struct pointer",
			model:    Person{Name: "Jane", Age: 25, Address: &Address{City: "Oslo"}},
			expected: `{"name":"Jane","age":25,"address":{"city":"Oslo"}}`,
		},
		{
			name:     "slice field",
			model:    Person{Name: "John", Age: 30, Tags: []string{"a", "b"}},
			expected: `{"name":"John","age":30,"tags":["a","b"]}`,
		},
		{
			name:     "map field sorted by key",
			model:    Person{Name: "John", Age: 30, Meta: map[string]int{"z": 1, "a": 2}},
			expected: `{"name":"John","age":30,"meta":{"a":2,"z":1}}`,
		},
		{
			name:     "bytes field base64 encoded",
			model:    Person{Name: "John", Age: 30, Raw: []byte("hi")},
			expected: `{"name":"John","age":30,"raw":"aGk="}`,
		},
		{
			name:     "nil pointer model",
			model:    (*Person)(nil),
			expected: `null`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := yml.ContextWithConfig(t.Context(), &yml.Config{
				OutputFormat: yml.OutputFormatJSON,
			})

			var buf bytes.Buffer
			err := mapper.Marshal(ctx, tt.model, &buf)

			require.NoError(t, err)
			assert.Equal(t, tt.expected+"\n", buf.String())
		})
	}
}

func TestMarshal_YAML_Success(t *testing.T) {
	t.Parallel()
	ctx := t.Context() // default config is YAML

	var buf bytes.Buffer
	err := mapper.Marshal(ctx, Person{Name: "John", Age: 30, Address: &Address{City: "Oslo"}}, &buf)

	require.NoError(t, err)
	assert.Equal(t, "name: John\nage: 30\naddress:\n  city: Oslo\n", buf.String())
}

func TestMarshal_YAMLZeroIndentation_Success(t *testing.T) {
	t.Parallel()

	// A zero indentation is valid for JSON but would panic the yaml encoder,
	// so the default is substituted.
	ctx := yml.ContextWithConfig(t.Context(), &yml.Config{
		OutputFormat: yml.OutputFormatYAML,
		Indentation:  0,
	})

	var buf bytes.Buffer
	err := mapper.Marshal(ctx, Person{Name: "John", Age: 30}, &buf)

	require.NoError(t, err)
	assert.Equal(t, "name: John\nage: 30\n", buf.String())
}

func TestMarshalNode_JSONToYAML_Success(t *testing.T) {
	t.Parallel()

	data := []byte(`{"name": "John", "age": 30}`)
	doc, cfg, err := mapper.ParseDocument(t.Context(), data)
	require.NoError(t, err)
	require.Equal(t, yml.OutputFormatJSON, cfg.OriginalFormat)

	cfg.OutputFormat = yml.OutputFormatYAML
	ctx := yml.ContextWithConfig(t.Context(), cfg)

	var buf bytes.Buffer
	err = mapper.MarshalNode(ctx, doc, &buf)

	require.NoError(t, err)
	assert.Equal(t, "name: John\nage: 30\n", buf.String())
}

func TestUnmarshal_Success(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		data           string
		expected       Person
		expectedFormat yml.OutputFormat
	}{
		{
			name:           "json input",
			data:           `{"name":"John","age":30,"tags":["a"],"address":{"city":"Oslo","zip":"0150"}}`,
			expected:       Person{Name: "John", Age: 30, Tags: []string{"a"}, Address: &Address{City: "Oslo", Zip: "0150"}},
			expectedFormat: yml.OutputFormatJSON,
		},
		{
			name: "yaml input",
			data: "name: John\nage: 30\nmeta:\n  a: 1\n",
			expected: Person{
				Name: "John",
				Age:  30,
				Meta: map[string]int{"a": 1},
			},
			expectedFormat: yml.OutputFormatYAML,
		},
		{
			name:           "null nested pointer",
			data:           `{"name":"John","age":30,"address":null}`,
			expected:       Person{Name: "John", Age: 30},
			expectedFormat: yml.OutputFormatJSON,
		},
		{
			name:           "bytes from base64",
			data:           `{"name":"John","age":30,"raw":"aGk="}`,
			expected:       Person{Name: "John", Age: 30, Raw: []byte("hi")},
			expectedFormat: yml.OutputFormatJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out Person
			cfg, err := mapper.Unmarshal(t.Context(), strings.NewReader(tt.data), &out)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
			assert.Equal(t, tt.expectedFormat, cfg.OutputFormat)
		})
	}
}

func TestDecode_AbsentFieldsZeroed_Success(t *testing.T) {
	t.Parallel()

	out := Person{Name: "stale", Age: 99, Tags: []string{"stale"}}

	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(`{"name":"fresh"}`), &doc))

	require.NoError(t, mapper.Decode(t.Context(), &doc, &out))
	assert.Equal(t, Person{Name: "fresh"}, out)
}

func TestDecode_AnyField_Success(t *testing.T) {
	t.Parallel()

	type doc struct {
		Meta any `json:"meta"`
	}

	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(`{"meta":{"a":1,"b":[true]}}`), &node))

	var out doc
	require.NoError(t, mapper.Decode(t.Context(), &node, &out))
	assert.Equal(t, map[string]any{"a": 1, "b": []any{true}}, out.Meta)
}

func TestDecode_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		data        string
		out         any
		expectedErr string
	}{
		{
			name:        "scalar into struct",
			data:        `"just a string"`,
			out:         &Person{},
			expectedErr: "expected object, got scalar",
		},
		{
			name:        "scalar into slice",
			data:        `{"name":"John","age":30,"tags":"oops"}`,
			out:         &Person{},
			expectedErr: "expected sequence, got scalar",
		},
		{
			name:        "non-pointer output",
			data:        `{}`,
			out:         Person{},
			expectedErr: "expected non-nil pointer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var doc yaml.Node
			require.NoError(t, yaml.Unmarshal([]byte(tt.data), &doc))

			err := mapper.Decode(t.Context(), &doc, tt.out)

			require.Error(t, err)
			assert.ErrorContains(t, err, tt.expectedErr)
		})
	}
}

func TestDecode_ValidationErrorCarriesPosition_Success(t *testing.T) {
	t.Parallel()

	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("name: John\nage: 30\ntags: oops\n"), &doc))

	err := mapper.Decode(t.Context(), &doc, &Person{})
	require.Error(t, err)

	var vErr *validation.Error
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, 3, vErr.GetLineNumber())
}

func TestParseDocument_Error(t *testing.T) {
	t.Parallel()

	_, _, err := mapper.ParseDocument(t.Context(), []byte("  \n"))
	assert.ErrorContains(t, err, "empty document")
}

type Payload interface {
	PayloadName() string
}

type Box struct {
	Label string `json:"label"`
}

func (b Box) PayloadName() string { return b.Label }

type Carrier struct {
	Kind    string  `json:"kind"`
	Payload Payload `json:"payload"`
}

func TestMarshal_WithMarshalHook_Success(t *testing.T) {
	t.Parallel()

	hook := func(ctx context.Context, v reflect.Value, node *yaml.Node) (*yaml.Node, error) {
		if v.Type() == reflect.TypeOf(Carrier{}) {
			return yml.RenameMapNodeKey(ctx, node, "payload", "box"), nil
		}
		return node, nil
	}

	ctx := yml.ContextWithConfig(t.Context(), &yml.Config{OutputFormat: yml.OutputFormatJSON})

	var buf bytes.Buffer
	err := mapper.Marshal(ctx, Carrier{Kind: "BOX", Payload: Box{Label: "fragile"}}, &buf, mapper.WithMarshalHook(hook))

	require.NoError(t, err)
	assert.Equal(t, `{"kind":"BOX","box":{"label":"fragile"}}`+"\n", buf.String())
}

func TestDecode_WithUnmarshalHookAndConverter_Success(t *testing.T) {
	t.Parallel()

	hook := func(ctx context.Context, typ reflect.Type, node *yaml.Node) (*yaml.Node, []mapper.TypeConverter, error) {
		if typ != reflect.TypeOf(Carrier{}) {
			return node, nil, nil
		}

		node = yml.RenameMapNodeKey(ctx, node, "box", "payload")

		converters := []mapper.TypeConverter{{
			Type: reflect.TypeOf((*Payload)(nil)).Elem(),
			Convert: func(ctx context.Context, node *yaml.Node) (any, error) {
				var box Box
				if err := mapper.Decode(ctx, node, &box); err != nil {
					return nil, err
				}
				return box, nil
			},
		}}

		return node, converters, nil
	}

	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(`{"kind":"BOX","box":{"label":"fragile"}}`), &doc))

	var out Carrier
	require.NoError(t, mapper.Decode(t.Context(), &doc, &out, mapper.WithUnmarshalHook(hook)))

	assert.Equal(t, "BOX", out.Kind)
	require.NotNil(t, out.Payload)
	assert.Equal(t, "fragile", out.Payload.PayloadName())
}

func TestDecode_InterfaceWithoutConverter_Error(t *testing.T) {
	t.Parallel()

	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(`{"kind":"BOX","payload":{"label":"x"}}`), &doc))

	var out Carrier
	err := mapper.Decode(t.Context(), &doc, &out)

	require.Error(t, err)
	assert.ErrorContains(t, err, "cannot decode into interface")
}

func TestRoundTrip_Success(t *testing.T) {
	t.Parallel()

	in := Person{
		Name:    "John",
		Age:     30,
		Tags:    []string{"a", "b"},
		Address: &Address{City: "Oslo", Zip: "0150"},
		Meta:    map[string]int{"x": 1},
		Raw:     []byte{0x1, 0x2},
	}

	node, err := mapper.Encode(t.Context(), in)
	require.NoError(t, err)

	var out Person
	require.NoError(t, mapper.Decode(t.Context(), node, &out))

	assert.Equal(t, in, out)
}

package union_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unionjson/unionjson/mapper"
	"github.com/unionjson/unionjson/union"
)

type Animal interface {
	Sound() string
}

type Cat struct {
	Purrs bool `json:"purrs"`
}

func (Cat) Sound() string { return "purr" }

type Dog struct {
	GoodBoy bool `json:"goodBoy"`
}

func (Dog) Sound() string { return "woof" }

type Stone struct{}

func init() {
	mapper.RegisterTypeAs[Cat]("cat")
	mapper.RegisterTypeAs[Dog]("dog")
	mapper.RegisterTypeAs[Stone]("stone")
	mapper.RegisterTypeAs[UnionObject]("container")
}

func TestMarshalEnveloped_Success(t *testing.T) {
	t.Parallel()

	t.Run("registered name becomes the type id", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, union.MarshalEnveloped[Animal](t.Context(), Cat{Purrs: true}, &buf))
		assert.Equal(t, `{"type":"cat","data":{"purrs":true}}`+"\n", buf.String())
	})

	t.Run("custom envelope keys", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, union.MarshalEnveloped[Animal](t.Context(), Dog{GoodBoy: true}, &buf,
			union.WithEnvelopeKeys("kind", "payload")))
		assert.Equal(t, `{"kind":"dog","payload":{"goodBoy":true}}`+"\n", buf.String())
	})

	t.Run("union fields inside the content still resolve", func(t *testing.T) {
		t.Parallel()

		value := UnionObject{Kind: KindFoo, Data: Foo{Value: "boxed"}}

		var buf bytes.Buffer
		require.NoError(t, union.MarshalEnveloped(t.Context(), value, &buf))
		assert.Equal(t, `{"type":"container","data":{"type":"FOO","data":{"value":"boxed"}}}`+"\n", buf.String())
	})
}

func TestMarshalEnveloped_NilValue_Error(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	err := union.MarshalEnveloped[Animal](t.Context(), nil, &buf)
	require.Error(t, err)
	assert.ErrorContains(t, err, "nil value")

	err = union.MarshalEnveloped[*Cat](t.Context(), nil, &buf)
	require.Error(t, err)
	assert.ErrorContains(t, err, "nil value")
}

func TestUnmarshalEnveloped_Success(t *testing.T) {
	t.Parallel()

	t.Run("resolves the type id to a registered type", func(t *testing.T) {
		t.Parallel()

		got, err := union.UnmarshalEnveloped[Animal](t.Context(), strings.NewReader(`{"type":"cat","data":{"purrs":true}}`))
		require.NoError(t, err)
		assert.Equal(t, Cat{Purrs: true}, got)
	})

	t.Run("null content yields the zero value", func(t *testing.T) {
		t.Parallel()

		got, err := union.UnmarshalEnveloped[Animal](t.Context(), strings.NewReader(`{"type":"cat","data":null}`))
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("yaml envelope", func(t *testing.T) {
		t.Parallel()

		got, err := union.UnmarshalEnveloped[Animal](t.Context(), strings.NewReader("type: dog\ndata:\n  goodBoy: true\n"))
		require.NoError(t, err)
		assert.Equal(t, Dog{GoodBoy: true}, got)
	})

	t.Run("union fields inside the content still resolve", func(t *testing.T) {
		t.Parallel()

		got, err := union.UnmarshalEnveloped[UnionObject](t.Context(),
			strings.NewReader(`{"type":"container","data":{"type":"FOO","data":{"value":"boxed"}}}`))
		require.NoError(t, err)
		assert.Equal(t, UnionObject{Kind: KindFoo, Data: Foo{Value: "boxed"}}, got)
	})
}

func TestUnmarshalEnveloped_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		doc      string
		target   error
		contains string
	}{
		{
			name:     "unknown type id",
			doc:      `{"type":"ghost","data":{}}`,
			target:   union.ErrTypeResolution,
			contains: `no type registered for "ghost"`,
		},
		{
			name:     "type not assignable to the requested type",
			doc:      `{"type":"stone","data":{}}`,
			target:   union.ErrTypeResolution,
			contains: "not assignable",
		},
		{
			name:     "malformed envelope",
			doc:      `{"nope":1}`,
			target:   union.ErrInvalidEnvelope,
			contains: `missing "type" member`,
		},
		{
			name:     "scalar document",
			doc:      `42`,
			target:   union.ErrInvalidEnvelope,
			contains: "expected object",
		},
		{
			name:     "empty document",
			doc:      "",
			contains: "empty document",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := union.UnmarshalEnveloped[Animal](t.Context(), strings.NewReader(tt.doc))
			require.Error(t, err)

			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			assert.ErrorContains(t, err, tt.contains)
		})
	}
}

func TestEnveloped_CustomKeys_RoundTrip_Success(t *testing.T) {
	t.Parallel()

	keys := union.WithEnvelopeKeys("kind", "payload")

	var buf bytes.Buffer
	require.NoError(t, union.MarshalEnveloped[Animal](t.Context(), Cat{Purrs: true}, &buf, keys))

	got, err := union.UnmarshalEnveloped[Animal](t.Context(), &buf, keys)
	require.NoError(t, err)
	assert.Equal(t, Cat{Purrs: true}, got)

	// Reading with mismatched keys fails envelope validation.
	_, err = union.UnmarshalEnveloped[Animal](t.Context(),
		strings.NewReader(`{"kind":"cat","payload":{"purrs":true}}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, union.ErrInvalidEnvelope)
}

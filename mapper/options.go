package mapper

import (
	"context"
	"reflect"

	"gopkg.in/yaml.v3"
)

// MarshalHook rewrites the node produced for a struct value after its fields
// have been encoded. Returning the node unchanged is valid.
type MarshalHook func(ctx context.Context, v reflect.Value, node *yaml.Node) (*yaml.Node, error)

// UnmarshalHook rewrites the node for a struct type before its fields are
// decoded. It may additionally return TypeConverters that take over decoding
// of specific declared field types of that struct.
type UnmarshalHook func(ctx context.Context, typ reflect.Type, node *yaml.Node) (*yaml.Node, []TypeConverter, error)

// TypeConverter decodes a node into a value assignable to Type. A converter
// applies only to the immediate fields of the struct whose UnmarshalHook
// returned it, not to nested structs.
type TypeConverter struct {
	Type    reflect.Type
	Convert func(ctx context.Context, node *yaml.Node) (any, error)
}

// Options configure a single Marshal or Unmarshal call.
type Options struct {
	marshalHook   MarshalHook
	unmarshalHook UnmarshalHook
}

// Option configures marshalling and unmarshalling behavior for a single call.
type Option func(*Options)

// WithMarshalHook runs hook over every struct node produced during marshalling.
func WithMarshalHook(hook MarshalHook) Option {
	return func(o *Options) {
		o.marshalHook = hook
	}
}

// WithUnmarshalHook runs hook over every struct node before it is decoded.
func WithUnmarshalHook(hook UnmarshalHook) Option {
	return func(o *Options) {
		o.unmarshalHook = hook
	}
}

func applyOptions(opts []Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	return options
}

package union

import (
	"context"
	"fmt"
	"io"
	"reflect"

	"github.com/unionjson/unionjson/mapper"
	"github.com/unionjson/unionjson/validation"
	"github.com/unionjson/unionjson/yml"
	"gopkg.in/yaml.v3"
)

// MarshalEnveloped writes value wrapped in an explicit type envelope: an
// object whose type member carries the value's registered name and whose data
// member carries its content. Unlike union fields, the envelope is visible on
// the wire. Union fields inside the content still resolve through their
// registered specs.
func MarshalEnveloped[T any](ctx context.Context, value T, w io.Writer, opts ...AdapterOption) error {
	options := applyAdapterOptions(opts)

	v := reflect.ValueOf(value)
	if !v.IsValid() || (v.Kind() == reflect.Ptr && v.IsNil()) {
		return fmt.Errorf("cannot envelope a nil value")
	}

	typ := v.Type()

	// Register on the way out so a same-process round trip always resolves.
	mapper.RegisterTypeOf(typ)
	typeID, _ := mapper.TypeNameOf(typ)

	core := &adapterCore{inherited: options.inherited, keys: options.keys}

	ctx = ensureOutputConfig(ctx)

	content, err := mapper.Encode(ctx, value, mapper.WithMarshalHook(core.marshalHook))
	if err != nil {
		return err
	}

	envelope := WrapElement(ctx, content, typeID, options.keys)

	return mapper.MarshalNode(ctx, envelope, w)
}

// UnmarshalEnveloped reads an envelope document from r, resolves its type id
// to a registered type and decodes the content into it. The decoded value
// must be assignable to T.
func UnmarshalEnveloped[T any](ctx context.Context, r io.Reader, opts ...AdapterOption) (T, error) {
	var zero T

	options := applyAdapterOptions(opts)

	data, err := io.ReadAll(r)
	if err != nil {
		return zero, err
	}

	doc, cfg, err := mapper.ParseDocument(ctx, data)
	if err != nil {
		return zero, err
	}

	ctx = yml.ContextWithConfig(ctx, cfg)

	node := yml.ResolveAlias(doc)
	if node != nil && node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return zero, fmt.Errorf("empty document")
		}
		node = node.Content[0]
	}

	typeID, content, err := UnwrapElement(ctx, node, options.keys)
	if err != nil {
		return zero, err
	}

	typ, ok := mapper.TypeByName(typeID)
	if !ok {
		return zero, validation.NewValidationError(
			ErrTypeResolution.Wrap(fmt.Errorf("no type registered for %q", typeID)), node)
	}

	want := reflect.TypeOf((*T)(nil)).Elem()
	if !typ.AssignableTo(want) {
		return zero, validation.NewValidationError(
			ErrTypeResolution.Wrap(fmt.Errorf("type %s is not assignable to %s", typ, want)), node)
	}

	resolvedContent := yml.ResolveAlias(content)
	if resolvedContent == nil || resolvedContent.Tag == "!!null" {
		return zero, nil
	}

	core := &adapterCore{inherited: options.inherited, keys: options.keys}

	instance := mapper.CreateInstance(typ)
	if err := mapper.Decode(ctx, content, instance.Interface(), mapper.WithUnmarshalHook(core.unmarshalHook)); err != nil {
		return zero, err
	}

	out := instance.Interface()
	if typ.Kind() != reflect.Ptr {
		out = instance.Elem().Interface()
	}

	result, ok := out.(T)
	if !ok {
		return zero, validation.NewValidationError(
			ErrTypeResolution.Wrap(fmt.Errorf("decoded %T is not assignable to %s", out, want)), node)
	}

	return result, nil
}

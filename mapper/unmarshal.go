package mapper

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"reflect"

	"github.com/unionjson/unionjson/validation"
	"github.com/unionjson/unionjson/yml"
	"gopkg.in/yaml.v3"
)

// ParseDocument parses raw YAML or JSON into a document node and derives the
// output configuration that will round trip the source formatting.
func ParseDocument(ctx context.Context, data []byte) (*yaml.Node, *yml.Config, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, fmt.Errorf("empty document")
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, err
	}

	cfg := yml.GetConfigFromDoc(data, &doc)

	return &doc, cfg, nil
}

// Unmarshal reads a document from r and decodes it into out, which must be a
// non-nil pointer. The returned configuration captures the source formatting
// and can be placed in a context to round trip it on marshalling.
func Unmarshal(ctx context.Context, r io.Reader, out any, opts ...Option) (*yml.Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc, cfg, err := ParseDocument(ctx, data)
	if err != nil {
		return nil, err
	}

	ctx = yml.ContextWithConfig(ctx, cfg)

	if err := Decode(ctx, doc, out, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Decode decodes a node tree into out, which must be a non-nil pointer.
// Fields absent from the document are set to their zero value.
func Decode(ctx context.Context, node *yaml.Node, out any, opts ...Option) error {
	options := applyOptions(opts)

	v := reflect.ValueOf(out)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("expected non-nil pointer, got %v", reflect.TypeOf(out))
	}

	resolved := yml.ResolveAlias(node)
	if resolved != nil && resolved.Kind == yaml.DocumentNode {
		if len(resolved.Content) == 0 {
			return fmt.Errorf("empty document")
		}
		node = resolved.Content[0]
	}

	return decodeValue(ctx, node, v.Elem(), options)
}

func decodeValue(ctx context.Context, node *yaml.Node, v reflect.Value, options *Options) error {
	node = yml.ResolveAlias(node)
	if node == nil || node.Tag == "!!null" {
		v.SetZero()
		return nil
	}

	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		return decodeValue(ctx, node, v.Elem(), options)
	case reflect.Interface:
		if v.NumMethod() == 0 {
			var out any
			if err := node.Decode(&out); err != nil {
				return validation.NewValidationError(err, node)
			}
			if out == nil {
				v.SetZero()
				return nil
			}
			v.Set(reflect.ValueOf(out))
			return nil
		}
		return validation.NewValidationError(fmt.Errorf("cannot decode into interface %s without a converter", v.Type()), node)
	case reflect.Struct:
		if v.Type() == timeType {
			return decodeScalar(node, v)
		}
		return decodeStruct(ctx, node, v, options)
	case reflect.Slice:
		return decodeSlice(ctx, node, v, options)
	case reflect.Array:
		return decodeArray(ctx, node, v, options)
	case reflect.Map:
		return decodeMap(ctx, node, v, options)
	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return validation.NewValidationError(fmt.Errorf("cannot unmarshal into value of kind %s", v.Kind()), node)
	default:
		return decodeScalar(node, v)
	}
}

func decodeStruct(ctx context.Context, node *yaml.Node, v reflect.Value, options *Options) error {
	if node.Kind != yaml.MappingNode {
		return validation.NewValidationError(fmt.Errorf("expected object, got %s", yml.NodeKindToString(node.Kind)), node)
	}

	typ := v.Type()

	var converters map[reflect.Type]TypeConverter

	if options.unmarshalHook != nil {
		hooked, fieldConverters, err := options.unmarshalHook(ctx, typ, node)
		if err != nil {
			return err
		}
		if hooked != nil {
			node = hooked
		}
		if len(fieldConverters) > 0 {
			converters = make(map[reflect.Type]TypeConverter, len(fieldConverters))
			for _, converter := range fieldConverters {
				converters[converter.Type] = converter
			}
		}
	}

	for _, field := range Fields(typ) {
		_, valueNode, found := yml.GetMapElementNodes(ctx, node, field.Name)

		fv := fieldByIndexAlloc(v, field.Index)

		if !found {
			fv.SetZero()
			continue
		}

		if converter, ok := converters[field.Type]; ok {
			out, err := converter.Convert(ctx, valueNode)
			if err != nil {
				return err
			}

			if out == nil {
				fv.SetZero()
				continue
			}

			outValue := reflect.ValueOf(out)
			if !outValue.Type().AssignableTo(field.Type) {
				return validation.NewValidationError(fmt.Errorf("converter for %s returned incompatible value of type %T", field.Type, out), valueNode)
			}

			fv.Set(outValue)
			continue
		}

		if err := decodeValue(ctx, valueNode, fv, options); err != nil {
			return err
		}
	}

	return nil
}

func decodeSlice(ctx context.Context, node *yaml.Node, v reflect.Value, options *Options) error {
	// []byte decodes from a base64 scalar, mirroring encoding/json
	if node.Kind == yaml.ScalarNode && v.Type().Elem().Kind() == reflect.Uint8 {
		data, err := base64.StdEncoding.DecodeString(node.Value)
		if err != nil {
			return validation.NewValidationError(err, node)
		}
		v.SetBytes(data)
		return nil
	}

	if node.Kind != yaml.SequenceNode {
		return validation.NewValidationError(fmt.Errorf("expected sequence, got %s", yml.NodeKindToString(node.Kind)), node)
	}

	slice := reflect.MakeSlice(v.Type(), len(node.Content), len(node.Content))

	for i, child := range node.Content {
		if err := decodeValue(ctx, child, slice.Index(i), options); err != nil {
			return err
		}
	}

	v.Set(slice)

	return nil
}

func decodeArray(ctx context.Context, node *yaml.Node, v reflect.Value, options *Options) error {
	if node.Kind != yaml.SequenceNode {
		return validation.NewValidationError(fmt.Errorf("expected sequence, got %s", yml.NodeKindToString(node.Kind)), node)
	}

	if len(node.Content) != v.Len() {
		return validation.NewValidationError(fmt.Errorf("expected sequence of length %d, got %d", v.Len(), len(node.Content)), node)
	}

	for i, child := range node.Content {
		if err := decodeValue(ctx, child, v.Index(i), options); err != nil {
			return err
		}
	}

	return nil
}

func decodeMap(ctx context.Context, node *yaml.Node, v reflect.Value, options *Options) error {
	if node.Kind != yaml.MappingNode {
		return validation.NewValidationError(fmt.Errorf("expected object, got %s", yml.NodeKindToString(node.Kind)), node)
	}

	keyType := v.Type().Key()
	if keyType.Kind() != reflect.String {
		return validation.NewValidationError(fmt.Errorf("cannot unmarshal map with %s keys", keyType.Kind()), node)
	}

	m := reflect.MakeMapWithSize(v.Type(), len(node.Content)/2)

	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := yml.ResolveAlias(node.Content[i])
		if keyNode == nil {
			continue
		}

		elem := reflect.New(v.Type().Elem()).Elem()
		if err := decodeValue(ctx, node.Content[i+1], elem, options); err != nil {
			return err
		}

		m.SetMapIndex(reflect.ValueOf(keyNode.Value).Convert(keyType), elem)
	}

	v.Set(m)

	return nil
}

func decodeScalar(node *yaml.Node, v reflect.Value) error {
	out := reflect.New(v.Type())

	if err := node.Decode(out.Interface()); err != nil {
		return validation.NewValidationError(err, node)
	}

	v.Set(out.Elem())

	return nil
}

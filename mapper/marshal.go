package mapper

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"reflect"
	"slices"
	"time"

	"github.com/unionjson/unionjson/json"
	"github.com/unionjson/unionjson/yml"
	"gopkg.in/yaml.v3"
)

var timeType = reflect.TypeOf(time.Time{})

// Marshal encodes a model to the writer, formatted per the output
// configuration in the context.
func Marshal(ctx context.Context, model any, w io.Writer, opts ...Option) error {
	node, err := Encode(ctx, model, opts...)
	if err != nil {
		return err
	}

	return MarshalNode(ctx, node, w)
}

// Encode converts a Go value into a yaml.Node tree.
func Encode(ctx context.Context, model any, opts ...Option) (*yaml.Node, error) {
	options := applyOptions(opts)

	return encodeValue(ctx, reflect.ValueOf(model), options)
}

// MarshalNode writes a node tree to the writer as YAML or JSON based on the
// output configuration from the context.
func MarshalNode(ctx context.Context, node *yaml.Node, w io.Writer) error {
	cfg := yml.GetConfigFromContext(ctx)

	switch cfg.OutputFormat {
	case yml.OutputFormatYAML:
		// Reset styles carried over from a JSON source so the output reads as YAML
		if cfg.OriginalFormat == yml.OutputFormatJSON {
			resetNodeStylesForYAML(node, cfg)
		}

		indent := cfg.Indentation
		if indent <= 0 {
			indent = GetDefaultIndentation()
		}

		enc := yaml.NewEncoder(w)
		enc.SetIndent(indent)
		if err := enc.Encode(node); err != nil {
			return err
		}

		return enc.Close()
	case yml.OutputFormatJSON:
		return json.YAMLToJSON(node, cfg.Indentation, w)
	default:
		return fmt.Errorf("unsupported output format: %s", cfg.OutputFormat)
	}
}

// GetDefaultIndentation returns the indentation used when the configured
// value is unusable for the target format.
func GetDefaultIndentation() int {
	return yml.GetDefaultConfig().Indentation
}

func encodeValue(ctx context.Context, v reflect.Value, options *Options) (*yaml.Node, error) {
	if !v.IsValid() {
		return yml.CreateNullNode(), nil
	}

	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return yml.CreateNullNode(), nil
		}
		return encodeValue(ctx, v.Elem(), options)
	case reflect.Struct:
		if v.Type() == timeType {
			return encodeScalar(ctx, v)
		}
		return encodeStruct(ctx, v, options)
	case reflect.Map:
		return encodeMap(ctx, v, options)
	case reflect.Slice:
		if v.IsNil() {
			return yml.CreateNullNode(), nil
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return yml.CreateStringNode(base64.StdEncoding.EncodeToString(v.Bytes())), nil
		}
		return encodeSequence(ctx, v, options)
	case reflect.Array:
		return encodeSequence(ctx, v, options)
	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return nil, fmt.Errorf("cannot marshal value of kind %s", v.Kind())
	default:
		return encodeScalar(ctx, v)
	}
}

func encodeStruct(ctx context.Context, v reflect.Value, options *Options) (*yaml.Node, error) {
	var node *yaml.Node

	for _, field := range Fields(v.Type()) {
		fv, ok := fieldByIndex(v, field.Index)
		if !ok {
			continue // nil embedded pointer
		}

		if field.OmitEmpty && isEmptyValue(fv) {
			continue
		}

		valueNode, err := encodeValue(ctx, fv, options)
		if err != nil {
			return nil, err
		}

		node = yml.CreateOrUpdateMapNodeElement(ctx, field.Name, nil, valueNode, node)
	}

	if node == nil {
		node = yml.CreateMapNode(ctx, nil)
	}

	if options.marshalHook != nil {
		hooked, err := options.marshalHook(ctx, v, node)
		if err != nil {
			return nil, err
		}
		if hooked != nil {
			node = hooked
		}
	}

	return node, nil
}

func encodeMap(ctx context.Context, v reflect.Value, options *Options) (*yaml.Node, error) {
	if v.IsNil() {
		return yml.CreateNullNode(), nil
	}

	keyType := v.Type().Key()
	if keyType.Kind() != reflect.String {
		return nil, fmt.Errorf("cannot marshal map with %s keys", keyType.Kind())
	}

	// Map iteration order is random, sort keys for deterministic output
	keys := make([]string, 0, v.Len())
	for _, key := range v.MapKeys() {
		keys = append(keys, key.String())
	}
	slices.Sort(keys)

	var node *yaml.Node

	for _, key := range keys {
		valueNode, err := encodeValue(ctx, v.MapIndex(reflect.ValueOf(key).Convert(keyType)), options)
		if err != nil {
			return nil, err
		}

		node = yml.CreateOrUpdateMapNodeElement(ctx, key, nil, valueNode, node)
	}

	if node == nil {
		node = yml.CreateMapNode(ctx, nil)
	}

	return node, nil
}

func encodeSequence(ctx context.Context, v reflect.Value, options *Options) (*yaml.Node, error) {
	content := make([]*yaml.Node, 0, v.Len())

	for i := 0; i < v.Len(); i++ {
		valueNode, err := encodeValue(ctx, v.Index(i), options)
		if err != nil {
			return nil, err
		}

		content = append(content, valueNode)
	}

	return yml.CreateSequenceNode(ctx, content), nil
}

func encodeScalar(ctx context.Context, v reflect.Value) (*yaml.Node, error) {
	node := yml.CreateOrUpdateScalarNode(ctx, v.Interface(), nil)
	if node == nil {
		return nil, fmt.Errorf("cannot marshal value of type %s", v.Type())
	}

	return node, nil
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Interface, reflect.Ptr:
		return v.IsNil()
	case reflect.Struct:
		return false
	default:
		return v.IsZero()
	}
}

// resetNodeStylesForYAML recursively resets node styles carried over from a
// JSON source so the tree encodes as plain YAML.
func resetNodeStylesForYAML(node *yaml.Node, cfg *yml.Config) {
	resetNodeStylesForYAMLRecursive(node, cfg, false)
}

func resetNodeStylesForYAMLRecursive(node *yaml.Node, cfg *yml.Config, isKey bool) {
	if node == nil {
		return
	}

	if node.Kind == yaml.ScalarNode && node.Tag == "!!str" {
		if isKey {
			node.Style = cfg.KeyStringStyle
		} else {
			node.Style = cfg.ValueStringStyle
		}
	} else {
		node.Style = 0
	}

	switch node.Kind {
	case yaml.MappingNode:
		// Content alternates between keys (even indices) and values (odd indices)
		for i, child := range node.Content {
			resetNodeStylesForYAMLRecursive(child, cfg, i%2 == 0)
		}
	case yaml.SequenceNode, yaml.DocumentNode:
		for _, child := range node.Content {
			resetNodeStylesForYAMLRecursive(child, cfg, false)
		}
	}

	if node.Alias != nil {
		resetNodeStylesForYAMLRecursive(node.Alias, cfg, isKey)
	}
}

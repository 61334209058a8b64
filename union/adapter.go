package union

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"sync"

	"github.com/unionjson/unionjson/mapper"
	"github.com/unionjson/unionjson/validation"
	"github.com/unionjson/unionjson/yml"
	"gopkg.in/yaml.v3"
)

// AdapterOption configures an Adapter.
type AdapterOption func(*adapterOptions)

type adapterOptions struct {
	inherited bool
	keys      EnvelopeKeys
}

// WithInheritedFields controls whether union field specs registered on
// embedded struct types apply to the structs that embed them. Off by default.
func WithInheritedFields(inherited bool) AdapterOption {
	return func(o *adapterOptions) {
		o.inherited = inherited
	}
}

// WithEnvelopeKeys overrides the member names of type envelopes.
func WithEnvelopeKeys(typeKey, dataKey string) AdapterOption {
	return func(o *adapterOptions) {
		o.keys = EnvelopeKeys{TypeKey: typeKey, DataKey: dataKey}
	}
}

func applyAdapterOptions(opts []AdapterOption) adapterOptions {
	options := adapterOptions{keys: DefaultEnvelopeKeys()}
	for _, opt := range opts {
		opt(&options)
	}

	return options
}

// Adapter serializes and deserializes values of T, resolving union fields of
// T and of every struct reachable from it through their registered specs.
type Adapter[T any] struct {
	core *adapterCore
}

// adapterCore carries the per-adapter state shared by both directions. It is
// independent of the adapted type so nested unions of any type reuse it.
type adapterCore struct {
	inherited bool
	keys      EnvelopeKeys
	specCache sync.Map // reflect.Type -> []resolvedField
}

// resolvedField pairs a union field spec with the declared Go type of the
// field it applies to.
type resolvedField struct {
	spec     Field
	declared reflect.Type
}

// NewAdapter builds an adapter for struct type T. The union field specs of T
// and of every struct type statically reachable from it are validated up
// front; types first seen during a call, such as concrete values behind
// interface fields, are validated on first use.
func NewAdapter[T any](opts ...AdapterOption) (*Adapter[T], error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("union adapter requires a struct type, got %s", typ)
	}

	options := applyAdapterOptions(opts)

	core := &adapterCore{
		inherited: options.inherited,
		keys:      options.keys,
	}

	if err := core.validateReachable(typ); err != nil {
		return nil, err
	}

	return &Adapter[T]{core: core}, nil
}

// MustNewAdapter is NewAdapter panicking on invalid specs, for package-level
// adapter variables.
func MustNewAdapter[T any](opts ...AdapterOption) *Adapter[T] {
	adapter, err := NewAdapter[T](opts...)
	if err != nil {
		panic(err)
	}

	return adapter
}

// Marshal serializes value to w. Without an output configuration in the
// context the document is written as compact JSON.
func (a *Adapter[T]) Marshal(ctx context.Context, value *T, w io.Writer) error {
	ctx = ensureOutputConfig(ctx)

	return mapper.Marshal(ctx, value, w, mapper.WithMarshalHook(a.core.marshalHook))
}

// MarshalNode serializes value to a node tree without writing it out.
func (a *Adapter[T]) MarshalNode(ctx context.Context, value *T) (*yaml.Node, error) {
	return mapper.Encode(ctx, value, mapper.WithMarshalHook(a.core.marshalHook))
}

// Unmarshal reads a document from r and decodes it into a new T. The returned
// configuration captures the source format so a later Marshal through a
// configured context can round trip it.
func (a *Adapter[T]) Unmarshal(ctx context.Context, r io.Reader) (*T, *yml.Config, error) {
	value := new(T)

	cfg, err := mapper.Unmarshal(ctx, r, value, mapper.WithUnmarshalHook(a.core.unmarshalHook))
	if err != nil {
		return nil, nil, err
	}

	return value, cfg, nil
}

// UnmarshalNode decodes a node tree into a new T.
func (a *Adapter[T]) UnmarshalNode(ctx context.Context, node *yaml.Node) (*T, error) {
	value := new(T)

	if err := mapper.Decode(ctx, node, value, mapper.WithUnmarshalHook(a.core.unmarshalHook)); err != nil {
		return nil, err
	}

	return value, nil
}

// defaultAdapters caches the cores backing the package level Marshal and
// Unmarshal per adapted type.
var defaultAdapters sync.Map // reflect.Type -> *adapterCore

// Marshal serializes value through a default adapter for T.
func Marshal[T any](ctx context.Context, value *T, w io.Writer) error {
	adapter, err := defaultAdapter[T]()
	if err != nil {
		return err
	}

	return adapter.Marshal(ctx, value, w)
}

// Unmarshal reads a document from r through a default adapter for T.
func Unmarshal[T any](ctx context.Context, r io.Reader) (*T, *yml.Config, error) {
	adapter, err := defaultAdapter[T]()
	if err != nil {
		return nil, nil, err
	}

	return adapter.Unmarshal(ctx, r)
}

func defaultAdapter[T any]() (*Adapter[T], error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()

	if cached, ok := defaultAdapters.Load(typ); ok {
		return &Adapter[T]{core: cached.(*adapterCore)}, nil
	}

	adapter, err := NewAdapter[T]()
	if err != nil {
		return nil, err
	}

	core, _ := defaultAdapters.LoadOrStore(typ, adapter.core)

	return &Adapter[T]{core: core.(*adapterCore)}, nil
}

func ensureOutputConfig(ctx context.Context) context.Context {
	if yml.HasConfigInContext(ctx) {
		return ctx
	}

	return yml.ContextWithConfig(ctx, &yml.Config{
		OutputFormat:   yml.OutputFormatJSON,
		OriginalFormat: yml.OutputFormatJSON,
	})
}

// validateReachable walks the struct types statically reachable from root and
// resolves their union field specs, surfacing configuration problems when the
// adapter is built instead of mid-call.
func (c *adapterCore) validateReachable(root reflect.Type) error {
	visited := map[reflect.Type]bool{}
	queue := []reflect.Type{root}

	for len(queue) > 0 {
		typ := derefType(queue[0])
		queue = queue[1:]

		switch typ.Kind() {
		case reflect.Slice, reflect.Array, reflect.Map:
			queue = append(queue, typ.Elem())
			continue
		case reflect.Struct:
		default:
			continue
		}

		if visited[typ] {
			continue
		}
		visited[typ] = true

		fields, err := c.fieldsFor(typ)
		if err != nil {
			return err
		}

		for _, field := range mapper.Fields(typ) {
			queue = append(queue, field.Type)
		}

		// Mapping types are reachable through decoding
		for _, rf := range fields {
			for _, mapping := range rf.spec.Mappings {
				queue = append(queue, mapping.Type)
			}
		}
	}

	return nil
}

// fieldsFor resolves and caches the union field specs applying to a struct
// type. Specs are re-validated against the type they apply to since embedding
// can shadow the union field or its discriminator.
func (c *adapterCore) fieldsFor(typ reflect.Type) ([]resolvedField, error) {
	if cached, ok := c.specCache.Load(typ); ok {
		return cached.([]resolvedField), nil
	}

	specs := specsFor(typ, c.inherited)

	if err := validateFields(typ, specs); err != nil {
		return nil, err
	}

	resolved := make([]resolvedField, 0, len(specs))
	for _, spec := range specs {
		field, _ := mapper.FieldByName(typ, spec.Name)
		resolved = append(resolved, resolvedField{spec: spec, declared: field.Type})
	}

	cached, _ := c.specCache.LoadOrStore(typ, resolved)

	return cached.([]resolvedField), nil
}

// resolveMapping reads the discriminator named by a spec from a serialized
// object node and scans the spec's mappings for its value. A nil return with
// no error means the value is unmapped and the field passes through untouched.
func (c *adapterCore) resolveMapping(ctx context.Context, node *yaml.Node, spec Field) (*Mapping, error) {
	_, discriminatorNode, found := yml.GetMapElementNodes(ctx, node, spec.Discriminator)
	if !found {
		return nil, validation.NewValidationError(
			ErrDiscriminatorNotFound.Wrap(fmt.Errorf("%q not found for union field %q", spec.Discriminator, spec.Name)), node)
	}

	value, ok := yml.GetScalarString(discriminatorNode)
	if !ok {
		return nil, validation.NewValidationError(
			fmt.Errorf("discriminator %q must be a scalar value, got %s", spec.Discriminator, yml.NodeKindToString(discriminatorNode.Kind)), discriminatorNode)
	}

	for i := range spec.Mappings {
		if spec.Mappings[i].Value == value {
			return &spec.Mappings[i], nil
		}
	}

	return nil, nil
}

// marshalHook renames union fields to their resolved wire names after a
// struct has been encoded.
func (c *adapterCore) marshalHook(ctx context.Context, v reflect.Value, node *yaml.Node) (*yaml.Node, error) {
	fields, err := c.fieldsFor(v.Type())
	if err != nil {
		return nil, err
	}

	for _, rf := range fields {
		mapping, err := c.resolveMapping(ctx, node, rf.spec)
		if err != nil {
			return nil, err
		}
		if mapping == nil {
			continue
		}

		node = Flatten(ctx, node, rf.spec.Name, mapping.ResolvedName(rf.spec.Name))
	}

	return node, nil
}

// unmarshalHook moves union content back under its field name, enveloped with
// the resolved type id, and returns a converter for the field's declared type
// that decodes the envelope.
func (c *adapterCore) unmarshalHook(ctx context.Context, typ reflect.Type, node *yaml.Node) (*yaml.Node, []mapper.TypeConverter, error) {
	fields, err := c.fieldsFor(typ)
	if err != nil {
		return nil, nil, err
	}

	var converters []mapper.TypeConverter

	for _, rf := range fields {
		mapping, err := c.resolveMapping(ctx, node, rf.spec)
		if err != nil {
			return nil, nil, err
		}
		if mapping == nil {
			continue
		}

		typeID, ok := mapper.TypeNameOf(mapping.Type)
		if !ok {
			typeID = mapper.DefaultTypeName(mapping.Type)
		}

		node = Wrap(ctx, node, rf.spec.Name, mapping.ResolvedName(rf.spec.Name), typeID, c.keys)

		converters = append(converters, mapper.TypeConverter{
			Type:    rf.declared,
			Convert: c.convertEnvelope,
		})
	}

	return node, converters, nil
}

// convertEnvelope decodes an enveloped union content node into its concrete
// type. The type id inside the envelope decides the type, so union fields
// sharing a declared type resolve independently of each other.
func (c *adapterCore) convertEnvelope(ctx context.Context, node *yaml.Node) (any, error) {
	typeID, content, err := UnwrapElement(ctx, node, c.keys)
	if err != nil {
		return nil, err
	}

	typ, ok := mapper.TypeByName(typeID)
	if !ok {
		return nil, validation.NewValidationError(
			ErrTypeResolution.Wrap(fmt.Errorf("no type registered for %q", typeID)), node)
	}

	resolvedContent := yml.ResolveAlias(content)
	if resolvedContent == nil || resolvedContent.Tag == "!!null" {
		return nil, nil
	}

	instance := mapper.CreateInstance(typ)

	if err := mapper.Decode(ctx, content, instance.Interface(), mapper.WithUnmarshalHook(c.unmarshalHook)); err != nil {
		return nil, err
	}

	if typ.Kind() == reflect.Ptr {
		return instance.Interface(), nil
	}

	return instance.Elem().Interface(), nil
}

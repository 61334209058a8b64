// Package mapper converts between Go values and yaml.Node document trees.
//
// It is the bridge between typed models and the node trees the rest of the
// module operates on. Structs are mapped field by field using their json
// tags, embedded structs are flattened the way encoding/json flattens them,
// and per-call hooks allow callers to rewrite nodes and take over decoding of
// individual field types.
package mapper

import (
	"fmt"
	"reflect"
	"sync"
)

// TypeFactory represents a function that creates a new instance of a specific type
type TypeFactory func() any

// Global registries using sync.Map for better performance
var (
	typeFactories sync.Map // reflect.Type -> TypeFactory
	typeNames     sync.Map // reflect.Type -> string
	namedTypes    sync.Map // string -> reflect.Type
)

// RegisterType registers T under its default name so instances can be created
// and the type resolved by name. This should be called in init() functions of
// packages that define models.
func RegisterType[T any]() {
	registerType(typeOf[T](), "")
}

// RegisterTypeAs registers T under the given name instead of its default
// name. The default name remains resolvable if T was registered before; the
// latest registration becomes the canonical name reported by TypeNameOf.
func RegisterTypeAs[T any](name string) {
	registerType(typeOf[T](), name)
}

// RegisterTypeOf registers typ under its default name unless it is already
// registered. Existing registrations, including custom names, are kept.
func RegisterTypeOf(typ reflect.Type) {
	if typ == nil {
		return
	}

	if _, ok := typeNames.Load(typ); ok {
		return
	}

	registerType(typ, "")
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func registerType(typ reflect.Type, name string) {
	if typ == nil {
		panic("mapper: cannot register nil type")
	}

	if name == "" {
		name = DefaultTypeName(typ)
	}

	// A name resolving to two different types would surface as decode errors
	// far from the registration site, so fail loudly here instead.
	if existing, ok := namedTypes.Load(name); ok && existing.(reflect.Type) != typ {
		panic(fmt.Sprintf("mapper: type name %q already registered for %s", name, existing.(reflect.Type)))
	}

	elemType := typ
	if typ.Kind() == reflect.Ptr {
		elemType = typ.Elem()
	}

	typeFactories.Store(elemType, TypeFactory(func() any {
		return reflect.New(elemType).Interface()
	}))
	typeNames.Store(typ, name)
	namedTypes.Store(name, typ)
}

// DefaultTypeName returns the registry name a type is known by when no custom
// name is given: the package path qualified type name, prefixed with "*" for
// pointers. Builtin and unnamed types use their Go syntax.
func DefaultTypeName(typ reflect.Type) string {
	if typ == nil {
		return ""
	}

	if typ.Kind() == reflect.Ptr {
		return "*" + DefaultTypeName(typ.Elem())
	}

	if pkg := typ.PkgPath(); pkg != "" {
		return pkg + "." + typ.Name()
	}

	return typ.String()
}

// TypeNameOf returns the canonical registered name for a type.
func TypeNameOf(typ reflect.Type) (string, bool) {
	if v, ok := typeNames.Load(typ); ok {
		return v.(string), true
	}

	return "", false
}

// TypeByName resolves a registered name back to its type.
func TypeByName(name string) (reflect.Type, bool) {
	if v, ok := namedTypes.Load(name); ok {
		return v.(reflect.Type), true
	}

	return nil, false
}

// CreateInstance creates a new instance using a registered factory or falls
// back to reflection. The returned value is always a pointer to the element
// type of typ.
func CreateInstance(typ reflect.Type) reflect.Value {
	elemType := typ
	if typ.Kind() == reflect.Ptr {
		elemType = elemType.Elem()
	}

	if factory, ok := typeFactories.Load(elemType); ok {
		return reflect.ValueOf(factory.(TypeFactory)())
	}

	// Fallback to reflection for unregistered types
	return reflect.New(elemType)
}

// IsRegistered checks if a type has a registered factory
func IsRegistered(typ reflect.Type) bool {
	elemType := typ
	if typ.Kind() == reflect.Ptr {
		elemType = typ.Elem()
	}

	_, exists := typeFactories.Load(elemType)
	return exists
}

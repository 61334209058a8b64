// Package union implements polymorphic serialization of struct fields whose
// concrete type is decided by the value of a sibling discriminator field.
//
// A union field spec maps discriminator values to concrete Go types and,
// optionally, to alternate wire names for the field's content. On the wire
// the content appears as a plain sibling of the discriminator with no extra
// metadata; the registered specs drive renaming on write and type resolution
// on read.
package union

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/unionjson/unionjson/errors"
	"github.com/unionjson/unionjson/mapper"
)

// DefaultDiscriminator is the discriminator field name used when a spec does
// not name one.
const DefaultDiscriminator = "type"

const (
	// ErrInvalidDiscriminator occurs when a field spec names a discriminator
	// field that does not exist on the struct.
	ErrInvalidDiscriminator = errors.Error("invalid discriminator field")

	// ErrIncompatibleMapping occurs when a mapping names a type that is not
	// assignable to the union field's declared type.
	ErrIncompatibleMapping = errors.Error("mapping type is not assignable to field type")

	// ErrDuplicateMapping occurs when two mappings of a field spec share a
	// discriminator value.
	ErrDuplicateMapping = errors.Error("duplicate mapping for discriminator value")

	// ErrUnknownField occurs when a field spec names a field that does not
	// exist on the struct.
	ErrUnknownField = errors.Error("union field does not exist")

	// ErrDiscriminatorNotFound occurs when a document is missing the
	// discriminator needed to resolve a union field.
	ErrDiscriminatorNotFound = errors.Error("discriminator not found in document")

	// ErrInvalidEnvelope occurs when a type envelope is malformed.
	ErrInvalidEnvelope = errors.Error("invalid type envelope")

	// ErrTypeResolution occurs when a type id cannot be resolved to a
	// registered type.
	ErrTypeResolution = errors.Error("cannot resolve type")
)

// Mapping associates one discriminator value with the concrete type the union
// field holds when the discriminator carries that value.
type Mapping struct {
	// Value is the discriminator value this mapping applies to.
	Value string
	// Type is the concrete Go type of the union field's content.
	Type reflect.Type
	// SerializedName optionally renames the union field on the wire when this
	// mapping applies. Empty means the field keeps its own name.
	SerializedName string
}

// MapTo builds a Mapping from a discriminator value to T.
func MapTo[T any](value string) Mapping {
	return Mapping{Value: value, Type: reflect.TypeOf((*T)(nil)).Elem()}
}

// MapToNamed builds a Mapping from a discriminator value to T with an
// alternate wire name for the union field's content.
func MapToNamed[T any](value, serializedName string) Mapping {
	return Mapping{Value: value, Type: reflect.TypeOf((*T)(nil)).Elem(), SerializedName: serializedName}
}

// ResolvedName returns the wire name the union field's content is stored
// under when this mapping applies.
func (m Mapping) ResolvedName(fieldName string) string {
	if m.SerializedName != "" {
		return m.SerializedName
	}

	return fieldName
}

// Field is the spec for one union field of a struct.
type Field struct {
	// Name is the wire name of the union field.
	Name string
	// Discriminator is the wire name of the sibling field whose value selects
	// the mapping. Defaults to DefaultDiscriminator.
	Discriminator string
	// Mappings associate discriminator values with concrete types.
	Mappings []Mapping
}

// fieldSpecs holds the registered union field specs per struct type.
var fieldSpecs sync.Map // reflect.Type -> []Field

// RegisterFields registers the union field specs for T, replacing any earlier
// registration. The specs are validated against T's fields and every mapping
// type is registered with the mapper so it can be resolved by name during
// decoding. This should be called in init() functions of packages that define
// union models.
func RegisterFields[T any](fields ...Field) error {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	if typ.Kind() != reflect.Struct {
		return fmt.Errorf("union fields can only be registered on struct types, got %s", typ)
	}

	normalized := make([]Field, len(fields))
	for i, field := range fields {
		if field.Discriminator == "" {
			field.Discriminator = DefaultDiscriminator
		}
		normalized[i] = field
	}

	if err := validateFields(typ, normalized); err != nil {
		return err
	}

	for _, field := range normalized {
		for _, mapping := range field.Mappings {
			mapper.RegisterTypeOf(mapping.Type)
		}
	}

	fieldSpecs.Store(typ, normalized)

	return nil
}

// MustRegisterFields is RegisterFields panicking on invalid specs, for use in
// init() functions.
func MustRegisterFields[T any](fields ...Field) {
	if err := RegisterFields[T](fields...); err != nil {
		panic(err)
	}
}

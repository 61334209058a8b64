package union

import (
	"fmt"
	"reflect"

	"github.com/unionjson/unionjson/mapper"
)

// specsFor returns the union field specs that apply to typ: its own
// registered specs plus, when inherited is true, specs registered on embedded
// struct types whose fields promote into typ. The outermost registration wins
// per field name.
func specsFor(typ reflect.Type, inherited bool) []Field {
	typ = derefType(typ)

	var specs []Field
	seen := map[string]bool{}

	collect := func(t reflect.Type) {
		stored, ok := fieldSpecs.Load(t)
		if !ok {
			return
		}

		for _, field := range stored.([]Field) {
			if seen[field.Name] {
				continue
			}
			seen[field.Name] = true
			specs = append(specs, field)
		}
	}

	collect(typ)

	if !inherited {
		return specs
	}

	visited := map[reflect.Type]bool{typ: true}
	queue := mapper.EmbeddedTypes(typ)

	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]

		if visited[t] {
			continue
		}
		visited[t] = true

		collect(t)
		queue = append(queue, mapper.EmbeddedTypes(t)...)
	}

	return specs
}

// validateFields checks field specs against the struct type they apply to:
// the union field and its discriminator must exist, every mapping type must
// be assignable to the union field's declared type, and no discriminator
// value may be mapped twice.
func validateFields(typ reflect.Type, fields []Field) error {
	for _, field := range fields {
		unionField, ok := mapper.FieldByName(typ, field.Name)
		if !ok {
			return ErrUnknownField.Wrap(fmt.Errorf("field %q does not exist on %s", field.Name, typ))
		}

		if _, ok := mapper.FieldByName(typ, field.Discriminator); !ok {
			return ErrInvalidDiscriminator.Wrap(fmt.Errorf("invalid discriminator field %q for union field %q on %s", field.Discriminator, field.Name, typ))
		}

		seen := map[string]bool{}

		for _, mapping := range field.Mappings {
			if mapping.Type == nil {
				return ErrIncompatibleMapping.Wrap(fmt.Errorf("mapping %q for union field %q has no type", mapping.Value, field.Name))
			}

			if seen[mapping.Value] {
				return ErrDuplicateMapping.Wrap(fmt.Errorf("discriminator value %q mapped twice for union field %q on %s", mapping.Value, field.Name, typ))
			}
			seen[mapping.Value] = true

			if !mapping.Type.AssignableTo(unionField.Type) {
				return ErrIncompatibleMapping.Wrap(fmt.Errorf("mapping %q type %s is not assignable to union field %q type %s", mapping.Value, mapping.Type, field.Name, unionField.Type))
			}
		}
	}

	return nil
}

func derefType(typ reflect.Type) reflect.Type {
	for typ != nil && typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	return typ
}

package mapper

import (
	"reflect"
	"slices"
	"strings"
	"sync"
)

// Field describes a struct field visible to the mapper, including fields
// promoted from embedded structs.
type Field struct {
	// Name is the wire name of the field, taken from the json tag when present.
	Name string
	// Index is the index path to the field for use with reflect field access.
	Index []int
	// Type is the declared Go type of the field.
	Type reflect.Type
	// OmitEmpty reports whether the field's json tag carries the omitempty option.
	OmitEmpty bool
}

// fieldPlans caches the computed field list per struct type.
var fieldPlans sync.Map // reflect.Type -> []Field

// Fields returns the fields of a struct type in declaration order. Embedded
// structs are walked breadth first so shallower fields win name conflicts,
// mirroring encoding/json promotion.
func Fields(typ reflect.Type) []Field {
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	if typ.Kind() != reflect.Struct {
		return nil
	}

	if cached, ok := fieldPlans.Load(typ); ok {
		return cached.([]Field)
	}

	plan := computeFields(typ)
	fieldPlans.Store(typ, plan)

	return plan
}

// FieldByName returns the field with the given wire name.
func FieldByName(typ reflect.Type, name string) (Field, bool) {
	for _, field := range Fields(typ) {
		if field.Name == name {
			return field, true
		}
	}

	return Field{}, false
}

// EmbeddedTypes returns the immediate embedded struct types of typ with
// pointers dereferenced.
func EmbeddedTypes(typ reflect.Type) []reflect.Type {
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	if typ.Kind() != reflect.Struct {
		return nil
	}

	var embedded []reflect.Type

	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		if !sf.Anonymous {
			continue
		}

		ft := sf.Type
		if ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
		}

		if ft.Kind() == reflect.Struct {
			embedded = append(embedded, ft)
		}
	}

	return embedded
}

func computeFields(typ reflect.Type) []Field {
	type queueEntry struct {
		typ   reflect.Type
		index []int
	}

	var plan []Field
	seen := map[string]bool{}
	visited := map[reflect.Type]bool{}
	queue := []queueEntry{{typ: typ}}

	for len(queue) > 0 {
		entry := queue[0]
		queue = queue[1:]

		if visited[entry.typ] {
			continue
		}
		visited[entry.typ] = true

		for i := 0; i < entry.typ.NumField(); i++ {
			sf := entry.typ.Field(i)

			index := make([]int, 0, len(entry.index)+1)
			index = append(index, entry.index...)
			index = append(index, i)

			name, omitEmpty, skip := parseJSONTag(sf)
			if skip {
				continue
			}

			// Untagged embedded structs are flattened into the parent.
			if sf.Anonymous && name == "" {
				ft := sf.Type
				if ft.Kind() == reflect.Ptr {
					ft = ft.Elem()
				}

				if ft.Kind() == reflect.Struct {
					queue = append(queue, queueEntry{typ: ft, index: index})
					continue
				}
			}

			if !sf.IsExported() {
				continue
			}

			if name == "" {
				name = sf.Name
			}

			if seen[name] {
				continue
			}
			seen[name] = true

			plan = append(plan, Field{
				Name:      name,
				Index:     index,
				Type:      sf.Type,
				OmitEmpty: omitEmpty,
			})
		}
	}

	// Order fields by index path so promoted fields appear where the
	// embedded struct is declared, matching encoding/json.
	slices.SortStableFunc(plan, func(a, b Field) int {
		return slices.Compare(a.Index, b.Index)
	})

	return plan
}

func parseJSONTag(sf reflect.StructField) (name string, omitEmpty, skip bool) {
	tag := sf.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}

	parts := strings.Split(tag, ",")
	name = parts[0]

	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitEmpty = true
		}
	}

	return name, omitEmpty, false
}

// fieldByIndex walks an index path without allocating intermediate pointers.
// It reports false when a nil embedded pointer is on the path.
func fieldByIndex(v reflect.Value, index []int) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 {
			if v.Kind() == reflect.Ptr {
				if v.IsNil() {
					return reflect.Value{}, false
				}
				v = v.Elem()
			}
		}
		v = v.Field(x)
	}

	return v, true
}

// fieldByIndexAlloc walks an index path allocating nil embedded pointers
// along the way so the returned value is settable.
func fieldByIndexAlloc(v reflect.Value, index []int) reflect.Value {
	for i, x := range index {
		if i > 0 {
			if v.Kind() == reflect.Ptr {
				if v.IsNil() {
					v.Set(reflect.New(v.Type().Elem()))
				}
				v = v.Elem()
			}
		}
		v = v.Field(x)
	}

	return v
}

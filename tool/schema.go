package tool

import (
	"reflect"
	"strings"
)

// SchemaFromStruct derives a JSON-Schema object from a Go struct using
// reflection. Field mapping:
//
//   - scalars map to their JSON-Schema types and are required
//   - pointer-of-scalar unwraps to the element type and is not required
//   - slices map to arrays with a typed items clause when the element is a
//     known primitive, opaque object items otherwise
//   - maps and anything unrecognized degrade to an opaque object type
//
// Schema generation never fails; unknown shapes lose precision, not
// generability. Field names come from json tags, descriptions from
// description tags.
func SchemaFromStruct(structType any) map[string]any {
	t := reflect.TypeOf(structType)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return map[string]any{"type": "object", "properties": map[string]any{}}
	}

	properties := make(map[string]any)
	required := make([]string, 0)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		fieldName := field.Name
		if jsonTag != "" {
			if name := strings.Split(jsonTag, ",")[0]; name != "" {
				fieldName = name
			}
		}

		fieldType := field.Type
		optional := fieldType.Kind() == reflect.Ptr || hasOmitEmpty(jsonTag)
		if fieldType.Kind() == reflect.Ptr {
			fieldType = fieldType.Elem()
		}

		fieldSchema := propertySchema(fieldType)
		if description := field.Tag.Get("description"); description != "" {
			fieldSchema["description"] = description
		}
		properties[fieldName] = fieldSchema

		if !optional {
			required = append(required, fieldName)
		}
	}

	schema := map[string]any{"type": "object", "properties": properties}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// propertySchema maps a single Go type onto a JSON-Schema property.
func propertySchema(t reflect.Type) map[string]any {
	switch t.Kind() {
	case reflect.String:
		return map[string]any{"type": "string"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}
	case reflect.Bool:
		return map[string]any{"type": "boolean"}
	case reflect.Slice, reflect.Array:
		return map[string]any{"type": "array", "items": itemsSchema(t.Elem())}
	default:
		// Maps, structs, interfaces and anything else degrade to an
		// opaque object rather than failing generation.
		return map[string]any{"type": "object"}
	}
}

// itemsSchema types array elements for known primitives and degrades to an
// opaque object otherwise.
func itemsSchema(elem reflect.Type) map[string]any {
	switch elem.Kind() {
	case reflect.String:
		return map[string]any{"type": "string"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}
	case reflect.Bool:
		return map[string]any{"type": "boolean"}
	default:
		return map[string]any{"type": "object"}
	}
}

func hasOmitEmpty(tag string) bool {
	parts := strings.Split(tag, ",")
	for _, part := range parts[1:] {
		if strings.TrimSpace(part) == "omitempty" {
			return true
		}
	}
	return false
}

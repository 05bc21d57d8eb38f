package tool

import (
	"github.com/xeipuuv/gojsonschema"
)

// validateArgs checks raw arguments against a tool's declared parameter
// schema. A schema that fails to compile is reported as a validation failure
// on the schema itself rather than a panic; callers never see raw
// gojsonschema errors.
func validateArgs(toolName string, schema map[string]any, args map[string]any) error {
	if args == nil {
		args = map[string]any{}
	}

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	if err != nil {
		return &ValidationError{Tool: toolName, Fields: []FieldError{{
			Field:   "(schema)",
			Message: err.Error(),
		}}}
	}

	result, err := compiled.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return &ValidationError{Tool: toolName, Fields: []FieldError{{
			Field:   "(arguments)",
			Message: err.Error(),
		}}}
	}
	if result.Valid() {
		return nil
	}

	fields := make([]FieldError, 0, len(result.Errors()))
	for _, rerr := range result.Errors() {
		fields = append(fields, FieldError{Field: rerr.Field(), Message: rerr.Description()})
	}
	return &ValidationError{Tool: toolName, Fields: fields}
}

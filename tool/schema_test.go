package tool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleArgs struct {
	Text    string         `json:"text" description:"Text payload"`
	Count   *int           `json:"count" description:"Optional repeat count"`
	Tags    []string       `json:"tags,omitempty"`
	Scores  []float64      `json:"scores,omitempty"`
	Nested  []sampleArgs   `json:"nested,omitempty"`
	Options map[string]any `json:"options,omitempty"`
	hidden  string         //nolint:unused
}

func TestSchemaFromStruct(t *testing.T) {
	schema := SchemaFromStruct(sampleArgs{})

	assert.Equal(t, "object", schema["type"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.NotContains(t, props, "hidden")

	text := props["text"].(map[string]any)
	assert.Equal(t, "string", text["type"])
	assert.Equal(t, "Text payload", text["description"])

	// Pointer fields unwrap to their element type and drop out of required.
	count := props["count"].(map[string]any)
	assert.Equal(t, "integer", count["type"])

	tags := props["tags"].(map[string]any)
	assert.Equal(t, "array", tags["type"])
	assert.Equal(t, map[string]any{"type": "string"}, tags["items"])

	scores := props["scores"].(map[string]any)
	assert.Equal(t, map[string]any{"type": "number"}, scores["items"])

	// Non-primitive elements degrade to opaque object items.
	nested := props["nested"].(map[string]any)
	assert.Equal(t, map[string]any{"type": "object"}, nested["items"])

	options := props["options"].(map[string]any)
	assert.Equal(t, "object", options["type"])

	required, ok := schema["required"].([]string)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"text"}, required)
}

func TestSchemaFromStructDegenerateInputs(t *testing.T) {
	for _, input := range []any{nil, "not a struct", 42} {
		schema := SchemaFromStruct(input)
		assert.Equal(t, "object", schema["type"])
		assert.Empty(t, schema["properties"])
	}

	// Pointers to structs work like the struct itself.
	schema := SchemaFromStruct(&sampleArgs{})
	props := schema["properties"].(map[string]any)
	assert.Contains(t, props, "text")
}

func TestValidateArgs(t *testing.T) {
	schema := SchemaFromStruct(sampleArgs{})

	assert.NoError(t, validateArgs("sample", schema, map[string]any{"text": "hi"}))
	assert.NoError(t, validateArgs("sample", schema, map[string]any{"text": "hi", "count": 3}))

	err := validateArgs("sample", schema, map[string]any{})
	require.Error(t, err)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "sample", vErr.Tool)
	require.NotEmpty(t, vErr.Fields)

	err = validateArgs("sample", schema, map[string]any{"text": 7})
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Error(), "text")

	// nil args behave like an empty object.
	err = validateArgs("sample", schema, nil)
	assert.Error(t, err)
}

package anthropic

import (
	"testing"

	"github.com/agentloop/agentloop/core"
	"github.com/agentloop/agentloop/provider"
	"github.com/stretchr/testify/assert"
)

func TestNewDefaults(t *testing.T) {
	p := New(provider.Config{APIKey: "sk-test"})
	assert.Equal(t, "anthropic", p.Name())
	assert.Equal(t, defaultModel, p.ModelName())
	assert.Equal(t, 200000, p.ContextWindow())
}

func TestContextWindowFallback(t *testing.T) {
	p := New(provider.Config{APIKey: "sk-test", Model: "claude-99-experimental"})
	assert.Equal(t, fallbackWindow, p.ContextWindow())

	override := New(provider.Config{APIKey: "sk-test", Model: "claude-99", ContextWindow: 32000})
	assert.Equal(t, 32000, override.ContextWindow())
}

func TestFormatTool(t *testing.T) {
	p := New(provider.Config{APIKey: "sk-test"})
	schema := core.ToolSchema{
		Name:        "echo",
		Description: "Echo text back",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"text": map[string]any{"type": "string"}},
			"required":   []string{"text"},
		},
	}

	formatted := p.FormatTool(schema)
	assert.Equal(t, "echo", formatted["name"])
	assert.Equal(t, "Echo text back", formatted["description"])
	assert.Equal(t, schema.Parameters, formatted["input_schema"])
}

func TestBuildMessages(t *testing.T) {
	messages := []core.Message{
		core.NewUserMessage("hello"),
		{
			Role:      core.RoleAssistant,
			Content:   core.TextContent("let me check"),
			ToolCalls: []core.ToolCall{{ID: "tc_1", Name: "echo", Arguments: map[string]any{"text": "hi"}}},
		},
		core.NewToolMessage("tc_1", "hi"),
	}

	out := buildMessages(messages)
	assert.Len(t, out, 3)
	assert.Equal(t, "user", string(out[0].Role))
	assert.Equal(t, "assistant", string(out[1].Role))
	// Tool results travel back as user-authored tool_result blocks.
	assert.Equal(t, "user", string(out[2].Role))
}

func TestBuildTools(t *testing.T) {
	tools := buildTools([]core.ToolSchema{{
		Name:        "echo",
		Description: "Echo text back",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"text": map[string]any{"type": "string"}},
			"required":   []any{"text"},
		},
	}})

	assert.Len(t, tools, 1)
	assert.Equal(t, "echo", tools[0].OfTool.Name)
	assert.Equal(t, []string{"text"}, tools[0].OfTool.InputSchema.Required)
}

func TestRequiredStrings(t *testing.T) {
	assert.Equal(t, []string{"a"}, requiredStrings([]string{"a"}))
	assert.Equal(t, []string{"a", "b"}, requiredStrings([]any{"a", "b", 3}))
	assert.Nil(t, requiredStrings("nope"))
}

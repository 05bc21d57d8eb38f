package openai

import (
	"testing"

	"github.com/agentloop/agentloop/core"
	"github.com/agentloop/agentloop/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	p := New(provider.Config{APIKey: "sk-test"})
	assert.Equal(t, "openai", p.Name())
	assert.Equal(t, defaultModel, p.ModelName())
	assert.Equal(t, 128000, p.ContextWindow())
}

func TestContextWindowTable(t *testing.T) {
	assert.Equal(t, 8192, New(provider.Config{Model: "gpt-4-0613"}).ContextWindow())
	assert.Equal(t, 128000, New(provider.Config{Model: "gpt-4o-2024-08-06"}).ContextWindow())
	assert.Equal(t, fallbackWindow, New(provider.Config{Model: "unknown-model"}).ContextWindow())
}

func TestFormatToolEnvelope(t *testing.T) {
	p := New(provider.Config{})
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
	assert.Equal(t, "function", formatted["type"])

	fn, ok := formatted["function"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "echo", fn["name"])
	assert.Equal(t, "Echo text back", fn["description"])
	assert.Equal(t, schema.Parameters, fn["parameters"])
}

func TestBuildMessages(t *testing.T) {
	messages := []core.Message{
		core.NewUserMessage("hello"),
		{
			Role:      core.RoleAssistant,
			ToolCalls: []core.ToolCall{{ID: "tc_1", Name: "echo", Arguments: map[string]any{"text": "hi"}}},
		},
		core.NewToolMessage("tc_1", "hi"),
		core.NewAssistantMessage("the tool said hi"),
	}

	out, err := buildMessages("system prompt", messages)
	require.NoError(t, err)
	require.Len(t, out, 5)

	assert.NotNil(t, out[0].OfSystem)
	assert.NotNil(t, out[1].OfUser)
	require.NotNil(t, out[2].OfAssistant)
	require.Len(t, out[2].OfAssistant.ToolCalls, 1)
	assert.Equal(t, "tc_1", out[2].OfAssistant.ToolCalls[0].ID)
	assert.JSONEq(t, `{"text":"hi"}`, out[2].OfAssistant.ToolCalls[0].Function.Arguments)
	require.NotNil(t, out[3].OfTool)
	assert.Equal(t, "tc_1", out[3].OfTool.ToolCallID)
	assert.NotNil(t, out[4].OfAssistant)
}

func TestBuildTools(t *testing.T) {
	tools := buildTools([]core.ToolSchema{{
		Name:        "echo",
		Description: "Echo text back",
		Parameters:  map[string]any{"type": "object"},
	}})
	require.Len(t, tools, 1)
	assert.Equal(t, "echo", tools[0].Function.Name)
}

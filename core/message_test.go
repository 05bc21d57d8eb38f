package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsToolCall(t *testing.T) {
	call := ToolCall{ID: "tc_1", Name: "echo", Arguments: map[string]any{"text": "hi"}}

	msg := Message{Role: RoleAssistant, ToolCalls: []ToolCall{call}}
	assert.True(t, msg.IsToolCall())

	// Assistant without tool calls is a plain completion.
	assert.False(t, NewAssistantMessage("hello").IsToolCall())

	// Non-assistant roles never count as tool calls, even with the field set.
	userMsg := Message{Role: RoleUser, ToolCalls: []ToolCall{call}}
	assert.False(t, userMsg.IsToolCall())

	empty := Message{Role: RoleAssistant, ToolCalls: []ToolCall{}}
	assert.False(t, empty.IsToolCall())
}

func TestContentFlatten(t *testing.T) {
	assert.Equal(t, "plain", TextContent("plain").Flatten())

	structured := Content{Type: "note", Text: "annotated"}
	assert.Equal(t, "annotated", structured.Flatten())

	noText := Content{Type: "blob", Data: map[string]any{"k": "v"}}
	assert.Equal(t, "", noText.Flatten())
	assert.False(t, noText.Empty())

	assert.True(t, Content{}.Empty())
}

func TestMessageConstructors(t *testing.T) {
	sys := NewSystemMessage("be brief")
	assert.Equal(t, RoleSystem, sys.Role)
	assert.Equal(t, "be brief", sys.Content.Flatten())

	toolMsg := NewToolMessage("tc_9", "42")
	assert.Equal(t, RoleTool, toolMsg.Role)
	assert.Equal(t, "tc_9", toolMsg.ToolCallID)
	assert.Equal(t, "42", toolMsg.Content.Flatten())
}

package provider

import (
	"context"

	"github.com/agentloop/agentloop/core"
)

// Mock is a scripted in-process Provider useful for tests and examples. Each
// Generate call pops the next scripted response; once the script is exhausted
// it answers with a fixed fallback text.
type Mock struct {
	Responses []Response
	Err       error
	Fallback  string

	// Calls records every Generate invocation for assertions.
	Calls [][]core.Message

	next int
}

// NewMock constructs a Mock with the given scripted responses.
func NewMock(responses ...Response) *Mock {
	return &Mock{Responses: responses, Fallback: "done"}
}

// MockText builds a scripted plain-text response.
func MockText(text string) Response {
	return Response{Message: core.NewAssistantMessage(text)}
}

// MockToolCall builds a scripted response proposing a single tool call.
func MockToolCall(id, name string, args map[string]any) Response {
	return Response{Message: core.Message{
		Role:      core.RoleAssistant,
		ToolCalls: []core.ToolCall{{ID: id, Name: name, Arguments: args}},
	}}
}

// Generate implements Provider.
func (m *Mock) Generate(ctx context.Context, messages []core.Message, tools []core.ToolSchema, opts GenerateOptions) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewError(KindGeneric, m.Name(), m.ModelName(), err.Error(), err)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	snapshot := make([]core.Message, len(messages))
	copy(snapshot, messages)
	m.Calls = append(m.Calls, snapshot)

	if m.next < len(m.Responses) {
		resp := m.Responses[m.next]
		m.next++
		return &resp, nil
	}
	return &Response{Message: core.NewAssistantMessage(m.Fallback)}, nil
}

// CountTokens implements Provider using the shared heuristic.
func (m *Mock) CountTokens(text string) int { return EstimateTokens(text) }

// FormatTool implements Provider with a flat schema envelope.
func (m *Mock) FormatTool(schema core.ToolSchema) map[string]any {
	return map[string]any{
		"name":        schema.Name,
		"description": schema.Description,
		"parameters":  schema.Parameters,
	}
}

// Name implements Provider.
func (m *Mock) Name() string { return "mock" }

// ModelName implements Provider.
func (m *Mock) ModelName() string { return "mock-model" }

// ContextWindow implements Provider.
func (m *Mock) ContextWindow() int { return 8192 }

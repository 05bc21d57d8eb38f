// Package core defines the conversation data model shared by providers, the
// tool subsystem and the agent loop: typed messages, tool call records and
// token usage. Everything here is a pure value type; behavior lives in the
// packages that consume these types.
package core

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleSystem carries instructions that frame the whole conversation.
	RoleSystem Role = "system"
	// RoleUser marks input from the controlling process.
	RoleUser Role = "user"
	// RoleAssistant marks model output, including proposed tool calls.
	RoleAssistant Role = "assistant"
	// RoleTool marks a tool result folded back into the conversation.
	RoleTool Role = "tool"
)

// Content is the payload of a message. Plain text leaves Type empty and sets
// Text; structured content names its shape in Type and may carry an optional
// Text field plus arbitrary structured data. Providers flatten Content to
// whatever their wire protocol expects via Flatten.
type Content struct {
	Type string         `json:"type,omitempty"`
	Text string         `json:"text,omitempty"`
	Data map[string]any `json:"data,omitempty"`
}

// TextContent builds plain text content.
func TextContent(text string) Content { return Content{Text: text} }

// Flatten returns the textual form of the content. Structured content
// without a text field flattens to the empty string.
func (c Content) Flatten() string { return c.Text }

// Empty reports whether the content carries neither text nor structured data.
func (c Content) Empty() bool { return c.Text == "" && c.Type == "" && len(c.Data) == 0 }

// ToolCall is a capability invocation proposed by the model. The ID is opaque
// and unique within a conversation: adapters reuse the backend-provided id
// when one exists and mint one otherwise.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`

	// Result is an optional denormalized audit record. Execution never
	// depends on it; the authoritative result travels as a tool Message.
	Result *ToolCallResult `json:"result,omitempty"`
}

// ToolCallResult records the outcome of a tool call for audit purposes.
type ToolCallResult struct {
	ToolName string `json:"tool_name"`
	Result   any    `json:"result,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Message is a single turn in a conversation. Only assistant messages carry
// ToolCalls; only tool messages carry ToolCallID, which must reference a
// ToolCall.ID from a prior assistant message. A conversation is an ordered
// []Message and the order is the model's context.
type Message struct {
	Role       Role       `json:"role"`
	Content    Content    `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// NewSystemMessage builds a system message from plain text.
func NewSystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: TextContent(text)}
}

// NewUserMessage builds a user message from plain text.
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Content: TextContent(text)}
}

// NewAssistantMessage builds an assistant message from plain text.
func NewAssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: TextContent(text)}
}

// NewToolMessage builds a tool result message referencing the originating
// assistant tool call.
func NewToolMessage(toolCallID, text string) Message {
	return Message{Role: RoleTool, Content: TextContent(text), ToolCallID: toolCallID}
}

// IsToolCall reports whether the message is an assistant turn proposing at
// least one tool call.
func (m Message) IsToolCall() bool {
	return m.Role == RoleAssistant && len(m.ToolCalls) > 0
}

// ToolSchema declares a capability to a model backend: a unique name, a
// human description and a JSON-Schema object describing the accepted
// arguments. Adapters reshape it into their backend's declaration envelope.
type ToolSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Usage captures token accounting for one generation. Each provider computes
// it differently, so it is informational and never authoritative across
// providers.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

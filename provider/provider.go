// Package provider defines the backend-agnostic contract for language model
// providers plus the shared error taxonomy every adapter must classify its
// failures into. Concrete adapters live in the subpackages (anthropic, openai,
// ollama); selection happens once, in the root facade.
package provider

import (
	"context"
	"strings"

	"github.com/agentloop/agentloop/core"
)

// GenerateOptions tune a single generation call.
type GenerateOptions struct {
	// Temperature is the sampling temperature in [0, 1]. Zero means
	// backend default.
	Temperature float64
	// MaxTokens caps the completion length. Zero means adapter default.
	MaxTokens int
}

// Response is the normalized result of one generation: exactly one assistant
// message, plus token usage when the backend reports it.
type Response struct {
	Message core.Message
	Usage   *core.Usage
}

// Provider is the contract every backend adapter implements. Generate is the
// only suspending call; everything else is static per configured model.
type Provider interface {
	// Generate issues one remote call and returns the parsed assistant
	// message. Every failure is classified into a *Error; raw SDK or
	// transport errors never escape.
	Generate(ctx context.Context, messages []core.Message, tools []core.ToolSchema, opts GenerateOptions) (*Response, error)

	// CountTokens approximates the token count of text. Adapters without a
	// tokenizer use a documented heuristic.
	CountTokens(text string) int

	// FormatTool reshapes a neutral tool schema into the backend's
	// declaration envelope.
	FormatTool(schema core.ToolSchema) map[string]any

	// Name is the provider identifier ("anthropic", "openai", "ollama").
	Name() string

	// ModelName is the configured model.
	ModelName() string

	// ContextWindow is the model's window size in tokens, from a static
	// table with a conservative fallback for unknown models.
	ContextWindow() int
}

// Config carries the per-backend settings the facade hands to an adapter
// constructor. Unused fields are ignored by adapters that do not need them.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	// ContextWindow overrides the static table when non-zero. Mainly for
	// local models whose window is deployment-specific.
	ContextWindow int
}

// Partition splits a conversation for backends that take the system prompt
// out of band: it extracts the first system message into a side channel and
// drops user/assistant messages with empty content and no tool calls. Order
// of the surviving messages is preserved.
func Partition(messages []core.Message) (system string, rest []core.Message) {
	rest = make([]core.Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == core.RoleSystem {
			if system == "" {
				system = m.Content.Flatten()
			}
			continue
		}
		if (m.Role == core.RoleUser || m.Role == core.RoleAssistant) &&
			strings.TrimSpace(m.Content.Flatten()) == "" && len(m.ToolCalls) == 0 {
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}

// WindowFor looks up a model's context window in a static table, falling back
// to the supplied conservative default for unrecognized models. Lookup is by
// longest matching prefix so dated model revisions resolve to their family.
func WindowFor(model string, table map[string]int, fallback int) int {
	if w, ok := table[model]; ok {
		return w
	}
	best := 0
	window := fallback
	for prefix, w := range table {
		if strings.HasPrefix(model, prefix) && len(prefix) > best {
			best = len(prefix)
			window = w
		}
	}
	return window
}

// EstimateTokens is the shared token-count heuristic for adapters without a
// real tokenizer: word count plus one token per four runes.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(strings.Fields(text)) + len([]rune(text))/4
}

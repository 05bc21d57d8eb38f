// Package anthropic adapts the Anthropic Messages API to the generic
// provider contract.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/agentloop/agentloop/core"
	"github.com/agentloop/agentloop/provider"
)

const (
	// ProviderName is the identifier this adapter registers under.
	ProviderName = "anthropic"

	defaultModel     = string(anthropic.ModelClaude3_5Sonnet20241022)
	defaultMaxTokens = 4096
	fallbackWindow   = 100000
)

// contextWindows maps model families to their window size in tokens.
var contextWindows = map[string]int{
	"claude-3-5-sonnet": 200000,
	"claude-3-5-haiku":  200000,
	"claude-3-opus":     200000,
	"claude-3-sonnet":   200000,
	"claude-3-haiku":    200000,
	"claude-2.1":        200000,
	"claude-2":          100000,
	"claude-instant":    100000,
}

// Provider wraps the Anthropic Messages API behind the generic contract.
type Provider struct {
	client anthropic.Client
	model  string
	window int
}

// New constructs an adapter for the given configuration. An empty model
// selects the adapter default; an empty API key defers to the SDK's
// environment lookup.
func New(cfg provider.Config) *Provider {
	var clientOpts []option.RequestOption
	if cfg.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	window := cfg.ContextWindow
	if window == 0 {
		window = provider.WindowFor(model, contextWindows, fallbackWindow)
	}

	return &Provider{client: anthropic.NewClient(clientOpts...), model: model, window: window}
}

// Name implements provider.Provider.
func (p *Provider) Name() string { return ProviderName }

// ModelName implements provider.Provider.
func (p *Provider) ModelName() string { return p.model }

// ContextWindow implements provider.Provider.
func (p *Provider) ContextWindow() int { return p.window }

// CountTokens implements provider.Provider with the shared heuristic; the
// exact tokenizer is not exposed by the API without a remote call.
func (p *Provider) CountTokens(text string) int { return provider.EstimateTokens(text) }

// FormatTool implements provider.Provider. Anthropic uses a flat envelope
// with the schema under "input_schema".
func (p *Provider) FormatTool(schema core.ToolSchema) map[string]any {
	return map[string]any{
		"name":         schema.Name,
		"description":  schema.Description,
		"input_schema": schema.Parameters,
	}
}

// Generate implements provider.Provider.
func (p *Provider) Generate(ctx context.Context, messages []core.Message, tools []core.ToolSchema, opts provider.GenerateOptions) (*provider.Response, error) {
	system, rest := provider.Partition(messages)

	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		Messages:  buildMessages(rest),
		MaxTokens: int64(maxTokens),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if opts.Temperature > 0 {
		params.Temperature = anthropic.Float(opts.Temperature)
	}
	if len(tools) > 0 {
		params.Tools = buildTools(tools)
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, p.classify(err)
	}

	msg, err := parseContent(resp)
	if err != nil {
		return nil, provider.NewError(provider.KindGeneric, ProviderName, p.model, err.Error(), err)
	}

	return &provider.Response{
		Message: msg,
		Usage: &core.Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}, nil
}

// buildMessages converts conversation turns into Anthropic message params.
// Tool results re-enter the conversation as tool_result blocks inside a user
// message, which is how the Messages API expects them.
func buildMessages(messages []core.Message) []anthropic.MessageParam {
	var out []anthropic.MessageParam

	for _, m := range messages {
		switch m.Role {
		case core.RoleTool:
			out = append(out, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(m.ToolCallID, m.Content.Flatten(), false),
			))
		case core.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if text := m.Content.Flatten(); text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(text))
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, tc.Arguments, tc.Name))
			}
			if len(blocks) > 0 {
				out = append(out, anthropic.MessageParam{
					Role:    anthropic.MessageParamRoleAssistant,
					Content: blocks,
				})
			}
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content.Flatten())))
		}
	}

	return out
}

// buildTools converts neutral tool schemas into Anthropic tool declarations.
func buildTools(tools []core.ToolSchema) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, len(tools))
	for i, t := range tools {
		inputSchema := anthropic.ToolInputSchemaParam{Type: constant.Object("object")}
		if props, ok := t.Parameters["properties"]; ok {
			inputSchema.Properties = props
		}
		if required, ok := t.Parameters["required"]; ok {
			inputSchema.Required = requiredStrings(required)
		}
		out[i] = anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: inputSchema,
		}}
	}
	return out
}

// requiredStrings normalizes the schema's required clause, which may be
// []string (built in-process) or []any (round-tripped through JSON).
func requiredStrings(required any) []string {
	switch v := required.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, r := range v {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// parseContent folds response blocks into one assistant message: at most one
// concatenated text segment plus zero or more tool calls.
func parseContent(resp *anthropic.Message) (core.Message, error) {
	var text strings.Builder
	var toolCalls []core.ToolCall

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.AsText().Text)
		case "tool_use":
			toolBlock := block.AsToolUse()
			var args map[string]any
			if raw := toolBlock.JSON.Input.Raw(); raw != "" {
				if err := json.Unmarshal([]byte(raw), &args); err != nil {
					return core.Message{}, err
				}
			}
			toolCalls = append(toolCalls, core.ToolCall{
				ID:        toolBlock.ID,
				Name:      toolBlock.Name,
				Arguments: args,
			})
		}
	}

	return core.Message{
		Role:      core.RoleAssistant,
		Content:   core.TextContent(text.String()),
		ToolCalls: toolCalls,
	}, nil
}

// classify maps SDK failures onto the shared taxonomy. The SDK surfaces HTTP
// failures as *anthropic.Error with a status code; everything else classifies
// by message text.
func (p *Provider) classify(err error) *provider.Error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		return provider.Classify(ProviderName, p.model, apierr.StatusCode, apierr.Error(), err)
	}
	return provider.Classify(ProviderName, p.model, 0, err.Error(), err)
}

// Package openai adapts the OpenAI Chat Completions API (including
// function/tool calling) to the generic provider contract.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/agentloop/agentloop/core"
	"github.com/agentloop/agentloop/provider"
)

const (
	// ProviderName is the identifier this adapter registers under.
	ProviderName = "openai"

	defaultModel     = openai.ChatModelGPT4oMini
	defaultMaxTokens = 4096
	fallbackWindow   = 8192
)

// contextWindows maps model families to their window size in tokens.
var contextWindows = map[string]int{
	"gpt-4o":        128000,
	"gpt-4o-mini":   128000,
	"gpt-4-turbo":   128000,
	"gpt-4":         8192,
	"gpt-3.5-turbo": 16385,
	"o1":            200000,
	"o3":            200000,
}

// Provider wraps the OpenAI Chat Completions API behind the generic contract.
type Provider struct {
	client openai.Client
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

	return &Provider{client: openai.NewClient(clientOpts...), model: model, window: window}
}

// Name implements provider.Provider.
func (p *Provider) Name() string { return ProviderName }

// ModelName implements provider.Provider.
func (p *Provider) ModelName() string { return p.model }

// ContextWindow implements provider.Provider.
func (p *Provider) ContextWindow() int { return p.window }

// CountTokens implements provider.Provider with the shared heuristic.
func (p *Provider) CountTokens(text string) int { return provider.EstimateTokens(text) }

// FormatTool implements provider.Provider. OpenAI nests the schema inside a
// "function" envelope.
func (p *Provider) FormatTool(schema core.ToolSchema) map[string]any {
	return map[string]any{
		"type": "function",
		"function": map[string]any{
			"name":        schema.Name,
			"description": schema.Description,
			"parameters":  schema.Parameters,
		},
	}
}

// Generate implements provider.Provider.
func (p *Provider) Generate(ctx context.Context, messages []core.Message, tools []core.ToolSchema, opts provider.GenerateOptions) (*provider.Response, error) {
	system, rest := provider.Partition(messages)

	chatMessages, err := buildMessages(system, rest)
	if err != nil {
		return nil, provider.NewError(provider.KindGeneric, ProviderName, p.model, err.Error(), err)
	}

	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	params := openai.ChatCompletionNewParams{
		Messages:            chatMessages,
		Model:               p.model,
		MaxCompletionTokens: openai.Int(int64(maxTokens)),
	}
	if opts.Temperature > 0 {
		params.Temperature = openai.Float(opts.Temperature)
	}
	if len(tools) > 0 {
		params.Tools = buildTools(tools)
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, p.classify(err)
	}
	if len(resp.Choices) == 0 {
		return nil, provider.NewError(provider.KindGeneric, ProviderName, p.model, "no choices returned", nil)
	}

	msg, err := parseChoice(resp.Choices[0])
	if err != nil {
		return nil, provider.NewError(provider.KindGeneric, ProviderName, p.model, err.Error(), err)
	}

	return &provider.Response{
		Message: msg,
		Usage: &core.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

// buildMessages converts conversation turns into OpenAI chat messages. Tool
// results map directly onto the API's native tool role.
func buildMessages(system string, messages []core.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	var out []openai.ChatCompletionMessageParamUnion
	if system != "" {
		out = append(out, openai.SystemMessage(system))
	}

	for _, m := range messages {
		switch m.Role {
		case core.RoleUser:
			out = append(out, openai.UserMessage(m.Content.Flatten()))
		case core.RoleTool:
			out = append(out, openai.ToolMessage(m.Content.Flatten(), m.ToolCallID))
		case core.RoleAssistant:
			if len(m.ToolCalls) == 0 {
				out = append(out, openai.AssistantMessage(m.Content.Flatten()))
				continue
			}
			toolCalls := make([]openai.ChatCompletionMessageToolCallParam, len(m.ToolCalls))
			for i, tc := range m.ToolCalls {
				args, err := json.Marshal(tc.Arguments)
				if err != nil {
					return nil, fmt.Errorf("marshal arguments for %s: %w", tc.Name, err)
				}
				toolCalls[i] = openai.ChatCompletionMessageToolCallParam{
					ID:   tc.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: string(args),
					},
				}
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Role:      "assistant",
					ToolCalls: toolCalls,
				},
			})
		default:
			if text := m.Content.Flatten(); text != "" {
				out = append(out, openai.UserMessage(text))
			}
		}
	}

	return out, nil
}

// buildTools converts neutral tool schemas into OpenAI tool declarations.
func buildTools(tools []core.ToolSchema) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, len(tools))
	for i, t := range tools {
		out[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  t.Parameters,
			},
		}
	}
	return out
}

// parseChoice folds the completion choice into one assistant message. Tool
// call arguments arrive as a JSON string and are decoded into a map.
func parseChoice(choice openai.ChatCompletionChoice) (core.Message, error) {
	var toolCalls []core.ToolCall
	for _, tc := range choice.Message.ToolCalls {
		var args map[string]any
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return core.Message{}, fmt.Errorf("parse tool arguments for %s: %w", tc.Function.Name, err)
			}
		}
		toolCalls = append(toolCalls, core.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}

	return core.Message{
		Role:      core.RoleAssistant,
		Content:   core.TextContent(choice.Message.Content),
		ToolCalls: toolCalls,
	}, nil
}

// classify maps SDK failures onto the shared taxonomy.
func (p *Provider) classify(err error) *provider.Error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return provider.Classify(ProviderName, p.model, apierr.StatusCode, apierr.Error(), err)
	}
	return provider.Classify(ProviderName, p.model, 0, err.Error(), err)
}

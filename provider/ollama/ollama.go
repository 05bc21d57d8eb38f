// Package ollama adapts a locally hosted model reached over a plain
// completion endpoint to the generic provider contract. The backend has no
// native tool calling, so tool declarations are serialized into the prompt as
// an instruction block and tool calls are scraped back out of the free-text
// response.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/tidwall/gjson"

	"github.com/agentloop/agentloop/core"
	"github.com/agentloop/agentloop/provider"
)

const (
	// ProviderName is the identifier this adapter registers under.
	ProviderName = "ollama"

	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "llama3"
	defaultWindow  = 4096
	requestTimeout = 120 * time.Second
)

// fencedJSON matches a JSON object inside a fenced code block, with or
// without a language tag.
var fencedJSON = regexp.MustCompile("```(?:json)?\\s*((?s:\\{.*?\\}))\\s*```")

// Provider speaks the /api/generate completion protocol.
type Provider struct {
	httpClient *http.Client
	baseURL    string
	model      string
	window     int
}

// New constructs an adapter for the given configuration.
func New(cfg provider.Config) *Provider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	window := cfg.ContextWindow
	if window == 0 {
		window = defaultWindow
	}
	return &Provider{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    baseURL,
		model:      model,
		window:     window,
	}
}

// Name implements provider.Provider.
func (p *Provider) Name() string { return ProviderName }

// ModelName implements provider.Provider.
func (p *Provider) ModelName() string { return p.model }

// ContextWindow implements provider.Provider. Local deployments vary, so the
// window comes from configuration rather than a model table.
func (p *Provider) ContextWindow() int { return p.window }

// CountTokens implements provider.Provider. Each local model may use a
// different tokenizer, so this is a deliberate approximation.
func (p *Provider) CountTokens(text string) int { return provider.EstimateTokens(text) }

// FormatTool implements provider.Provider. The declaration only ever ends up
// inside the prompt instruction block, so a flat envelope suffices.
func (p *Provider) FormatTool(schema core.ToolSchema) map[string]any {
	return map[string]any{
		"name":        schema.Name,
		"description": schema.Description,
		"parameters":  schema.Parameters,
	}
}

type generateRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Stream      bool    `json:"stream"`
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
	System      string  `json:"system,omitempty"`
}

type generateResponse struct {
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

// Generate implements provider.Provider.
func (p *Provider) Generate(ctx context.Context, messages []core.Message, tools []core.ToolSchema, opts provider.GenerateOptions) (*provider.Response, error) {
	reqBody := generateRequest{
		Model:       p.model,
		Prompt:      formatPrompt(messages, tools),
		Stream:      false,
		Temperature: opts.Temperature,
		NumPredict:  opts.MaxTokens,
	}
	if len(tools) > 0 {
		reqBody.System = toolInstruction(tools)
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, provider.NewError(provider.KindGeneric, ProviderName, p.model, err.Error(), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, provider.NewError(provider.KindGeneric, ProviderName, p.model, err.Error(), err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, provider.Classify(ProviderName, p.model, 0, err.Error(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, provider.NewError(provider.KindGeneric, ProviderName, p.model, err.Error(), err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, provider.Classify(ProviderName, p.model, resp.StatusCode, string(body), nil)
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, provider.NewError(provider.KindGeneric, ProviderName, p.model,
			fmt.Sprintf("malformed completion response: %v", err), err)
	}

	msg := parseMessage(parsed.Response, len(tools) > 0)

	return &provider.Response{
		Message: msg,
		Usage: &core.Usage{
			PromptTokens:     parsed.PromptEvalCount,
			CompletionTokens: parsed.EvalCount,
			TotalTokens:      parsed.PromptEvalCount + parsed.EvalCount,
		},
	}, nil
}

// formatPrompt flattens the conversation into the "Role: text" transcript the
// completion endpoint expects, replaying tool calls and results as labeled
// text segments, and ends with an open assistant turn.
func formatPrompt(messages []core.Message, tools []core.ToolSchema) string {
	var b strings.Builder

	callNames := map[string]string{}
	for _, m := range messages {
		for _, tc := range m.ToolCalls {
			callNames[tc.ID] = tc.Name
		}
	}

	for _, m := range messages {
		switch m.Role {
		case core.RoleSystem:
			fmt.Fprintf(&b, "System: %s\n", m.Content.Flatten())
		case core.RoleUser:
			fmt.Fprintf(&b, "User: %s\n", m.Content.Flatten())
		case core.RoleAssistant:
			if text := m.Content.Flatten(); strings.TrimSpace(text) != "" {
				fmt.Fprintf(&b, "Assistant: %s\n", text)
			}
			for _, tc := range m.ToolCalls {
				args, _ := json.MarshalIndent(tc.Arguments, "", "  ")
				fmt.Fprintf(&b, "Assistant: I need to use the %s tool.\nArguments: ```json\n%s\n```\n", tc.Name, args)
			}
		case core.RoleTool:
			name := callNames[m.ToolCallID]
			if name == "" {
				name = "tool"
			}
			fmt.Fprintf(&b, "Result from %s: %s\n", name, m.Content.Flatten())
		}
	}

	b.WriteString("Assistant: ")
	return b.String()
}

// toolInstruction builds the system instruction block declaring the available
// tools and the JSON shape the model should answer with to invoke one.
func toolInstruction(tools []core.ToolSchema) string {
	var decls []string
	for _, t := range tools {
		params, _ := json.MarshalIndent(t.Parameters, "", "  ")
		decls = append(decls, fmt.Sprintf("Tool: %s\nDescription: %s\nParameters: %s\n", t.Name, t.Description, params))
	}

	return "You have access to the following tools. When you need to use a tool, " +
		"respond with a JSON object in the following format:\n\n" +
		"```json\n{\n  \"name\": \"tool_name\",\n  \"arguments\": {\n    \"arg1\": \"value1\"\n  }\n}\n```\n\n" +
		"Available tools:\n\n" + strings.Join(decls, "\n")
}

// parseMessage turns the raw completion into an assistant message. With tools
// in play it first scans for a scraped tool call; without a match the raw
// text is returned untouched.
func parseMessage(text string, toolsAvailable bool) core.Message {
	if toolsAvailable {
		if call, ok := scanToolCall(text); ok {
			return core.Message{Role: core.RoleAssistant, ToolCalls: []core.ToolCall{call}}
		}
	}
	return core.NewAssistantMessage(text)
}

// scanToolCall looks for exactly one well-formed {name, arguments} JSON
// object in the response text. Fenced code blocks are scanned first; when
// none are present a single bare object spanning the outermost braces is
// considered. Ambiguity (two or more candidates) and malformed JSON both fall
// back to plain text; this is an intentional simplification, not a guarantee
// of correctness for adversarial model output.
func scanToolCall(text string) (core.ToolCall, bool) {
	var candidates []string
	for _, m := range fencedJSON.FindAllStringSubmatch(text, -1) {
		candidates = append(candidates, m[1])
	}
	if len(candidates) == 0 {
		if start := strings.Index(text, "{"); start >= 0 {
			if end := strings.LastIndex(text, "}"); end > start {
				candidates = append(candidates, text[start:end+1])
			}
		}
	}
	if len(candidates) != 1 {
		return core.ToolCall{}, false
	}

	candidate := candidates[0]
	if !gjson.Valid(candidate) {
		return core.ToolCall{}, false
	}
	name := gjson.Get(candidate, "name")
	if name.Type != gjson.String || name.String() == "" {
		return core.ToolCall{}, false
	}

	args := map[string]any{}
	if arguments := gjson.Get(candidate, "arguments"); arguments.Exists() {
		if !arguments.IsObject() {
			return core.ToolCall{}, false
		}
		for k, v := range arguments.Map() {
			args[k] = v.Value()
		}
	}

	id, err := gonanoid.New()
	if err != nil {
		return core.ToolCall{}, false
	}

	return core.ToolCall{ID: "call_" + id, Name: name.String(), Arguments: args}, true
}

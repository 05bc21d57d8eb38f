package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agentloop/agentloop/core"
	"github.com/agentloop/agentloop/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var echoSchema = core.ToolSchema{
	Name:        "echo",
	Description: "Echo text back",
	Parameters: map[string]any{
		"type":       "object",
		"properties": map[string]any{"text": map[string]any{"type": "string"}},
		"required":   []string{"text"},
	},
}

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(provider.Config{BaseURL: srv.URL, Model: "llama3"})
}

func TestGeneratePlainText(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req.Model)
		assert.False(t, req.Stream)
		assert.Contains(t, req.Prompt, "User: hello")

		json.NewEncoder(w).Encode(generateResponse{
			Response:        "hi there",
			Done:            true,
			PromptEvalCount: 12,
			EvalCount:       5,
		})
	})

	resp, err := p.Generate(context.Background(), []core.Message{core.NewUserMessage("hello")}, nil, provider.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "hi there", resp.Message.Content.Flatten())
	assert.False(t, resp.Message.IsToolCall())
	assert.Equal(t, 12, resp.Usage.PromptTokens)
	assert.Equal(t, 5, resp.Usage.CompletionTokens)
	assert.Equal(t, 17, resp.Usage.TotalTokens)
}

func TestGenerateScrapedToolCall(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		// Tool declarations travel as a system instruction block.
		assert.Contains(t, req.System, "Tool: echo")
		assert.Contains(t, req.System, "respond with a JSON object")

		json.NewEncoder(w).Encode(generateResponse{
			Response: "```json\n{\"name\": \"echo\", \"arguments\": {\"text\": \"hi\"}}\n```",
			Done:     true,
		})
	})

	resp, err := p.Generate(context.Background(), []core.Message{core.NewUserMessage("echo hi")},
		[]core.ToolSchema{echoSchema}, provider.GenerateOptions{})
	require.NoError(t, err)
	require.True(t, resp.Message.IsToolCall())

	call := resp.Message.ToolCalls[0]
	assert.Equal(t, "echo", call.Name)
	assert.Equal(t, "hi", call.Arguments["text"])
	assert.NotEmpty(t, call.ID)
	// A scraped call carries an empty text body.
	assert.Equal(t, "", resp.Message.Content.Flatten())
}

func TestGenerateErrorClassification(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("rate limit exceeded, try again later"))
	})

	_, err := p.Generate(context.Background(), []core.Message{core.NewUserMessage("hello")}, nil, provider.GenerateOptions{})
	require.Error(t, err)

	var perr *provider.Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, provider.KindRateLimit, perr.Kind)
	assert.Equal(t, "ollama", perr.Provider)
	assert.Equal(t, "llama3", perr.Model)
}

func TestScanToolCall(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantCall bool
		wantName string
	}{
		{"fenced json", "```json\n{\"name\": \"echo\", \"arguments\": {\"text\": \"hi\"}}\n```", true, "echo"},
		{"fenced without tag", "```\n{\"name\": \"echo\", \"arguments\": {}}\n```", true, "echo"},
		{"bare object", `{"name": "echo", "arguments": {"text": "hi"}}`, true, "echo"},
		{"bare with prose", `I will call the tool now: {"name": "echo", "arguments": {"text": "hi"}} ok?`, true, "echo"},
		{"no arguments key", `{"name": "echo"}`, true, "echo"},
		{"plain text", "just an answer, no tools", false, ""},
		{"malformed json", "```json\n{\"name\": \"echo\", \n```", false, ""},
		{"missing name", `{"arguments": {"text": "hi"}}`, false, ""},
		{"non-object arguments", `{"name": "echo", "arguments": "hi"}`, false, ""},
		{"multiple fenced objects", "```json\n{\"name\": \"a\", \"arguments\": {}}\n```\n```json\n{\"name\": \"b\", \"arguments\": {}}\n```", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call, ok := scanToolCall(tt.text)
			assert.Equal(t, tt.wantCall, ok)
			if tt.wantCall {
				assert.Equal(t, tt.wantName, call.Name)
				assert.NotNil(t, call.Arguments)
			}
		})
	}
}

func TestFormatPromptReplaysToolExchange(t *testing.T) {
	messages := []core.Message{
		core.NewSystemMessage("be brief"),
		core.NewUserMessage("echo hi"),
		{
			Role:      core.RoleAssistant,
			ToolCalls: []core.ToolCall{{ID: "tc_1", Name: "echo", Arguments: map[string]any{"text": "hi"}}},
		},
		core.NewToolMessage("tc_1", "hi"),
	}

	prompt := formatPrompt(messages, []core.ToolSchema{echoSchema})
	assert.Contains(t, prompt, "System: be brief")
	assert.Contains(t, prompt, "User: echo hi")
	assert.Contains(t, prompt, "I need to use the echo tool.")
	assert.Contains(t, prompt, "Result from echo: hi")
	assert.True(t, len(prompt) > 0 && prompt[len(prompt)-1] == ' ')
}

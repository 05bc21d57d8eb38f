// Package agent drives the generate/execute loop: it sends the conversation
// to a provider, dispatches requested tool calls through the registry, folds
// the results back in as tool messages, and repeats until the model answers
// in plain text or the turn cap is reached.
package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/agentloop/agentloop/core"
	"github.com/agentloop/agentloop/logging"
	"github.com/agentloop/agentloop/provider"
	"github.com/agentloop/agentloop/tool"
)

// Options configures an Agent instance. Use functional options with New to
// override defaults.
type Options struct {
	Logger       logging.Logger
	SystemPrompt string
	MaxTurns     int
	Generate     provider.GenerateOptions
}

// Agent owns one conversation. It is the only writer of its message history;
// concurrently running sub-agents each get an Agent of their own.
type Agent struct {
	provider provider.Provider
	registry *tool.Registry
	logger   logging.Logger
	system   string
	maxTurns int
	genOpts  provider.GenerateOptions
}

// Result is the outcome of one Run: the final text, the full transcript and
// the aggregated token usage.
type Result struct {
	Output   string
	Messages []core.Message
	Usage    core.Usage
	Turns    int
}

// New creates an agent bound to a provider and a tool registry.
//
// Defaults: no system prompt, 10 turns, no-op logger.
func New(p provider.Provider, registry *tool.Registry, optFns ...func(o *Options)) *Agent {
	opts := Options{
		Logger:   logging.NewNopLogger(),
		MaxTurns: 10,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = 10
	}
	return &Agent{
		provider: p,
		registry: registry,
		logger:   opts.Logger,
		system:   opts.SystemPrompt,
		maxTurns: opts.MaxTurns,
		genOpts:  opts.Generate,
	}
}

// Run executes the loop for a single user prompt. Tool failures are folded
// back to the model as data; only provider failures and context cancellation
// abort the run.
func (a *Agent) Run(ctx context.Context, prompt string) (*Result, error) {
	messages := make([]core.Message, 0, 4)
	if a.system != "" {
		messages = append(messages, core.NewSystemMessage(a.system))
	}
	messages = append(messages, core.NewUserMessage(prompt))
	return a.run(ctx, messages)
}

// Resume continues an existing transcript, e.g. a restored session. The
// slice is copied; the caller's view is never mutated.
func (a *Agent) Resume(ctx context.Context, messages []core.Message) (*Result, error) {
	return a.run(ctx, append([]core.Message(nil), messages...))
}

func (a *Agent) run(ctx context.Context, messages []core.Message) (*Result, error) {
	schemas := a.registry.Schemas()
	result := &Result{}

	for turn := 0; turn < a.maxTurns; turn++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		a.logger.Debug("generating", "provider", a.provider.Name(), "turn", turn, "messages", len(messages))
		resp, err := a.provider.Generate(ctx, messages, schemas, a.genOpts)
		if err != nil {
			a.logger.Error("generate failed", "provider", a.provider.Name(), "error", err)
			return nil, err
		}
		if resp.Usage != nil {
			result.Usage.PromptTokens += resp.Usage.PromptTokens
			result.Usage.CompletionTokens += resp.Usage.CompletionTokens
			result.Usage.TotalTokens += resp.Usage.TotalTokens
		}

		messages = append(messages, resp.Message)
		result.Turns = turn + 1

		if !resp.Message.IsToolCall() {
			result.Output = resp.Message.Content.Flatten()
			result.Messages = messages
			a.logger.Info("run complete", "turns", result.Turns, "total_tokens", result.Usage.TotalTokens)
			return result, nil
		}

		// One tool message per call, in completion order.
		for _, call := range resp.Message.ToolCalls {
			a.logger.Debug("executing tool", "tool", call.Name, "call_id", call.ID)
			// handleErrors folds failures into data so the model can react.
			out, _ := a.registry.Execute(ctx, call.Name, call.Arguments, true)
			messages = append(messages, core.NewToolMessage(call.ID, renderResult(out)))
		}
	}

	return nil, fmt.Errorf("no final answer after %d turns", a.maxTurns)
}

// renderResult serializes a tool result for the model. Strings pass through
// untouched; everything else becomes JSON.
func renderResult(out any) string {
	switch v := out.(type) {
	case nil:
		return "null"
	case string:
		return v
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(raw)
	}
}

package subagent

import (
	"context"
	"fmt"

	"github.com/agentloop/agentloop/tool"
)

// Tools exposes the supervisor as a family of generic tools. Each operation
// has its own tool; the model names what it wants instead of the runtime
// guessing from argument shapes.
func Tools(s *Supervisor) []tool.Tool {
	return []tool.Tool{spawnTool(s), statusTool(s), cancelTool(s)}
}

func spawnTool(s *Supervisor) tool.Tool {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prompt": map[string]any{
				"type":        "string",
				"description": "The instruction for the sub-agent to execute",
			},
			"working_dir": map[string]any{
				"type":        "string",
				"description": "Working directory for the sub-agent; defaults to the current directory",
			},
			"tools": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Tool names the sub-agent may use; omit to inherit the parent's tools",
			},
			"provider": map[string]any{
				"type":        "string",
				"description": "Backend for the sub-agent; omit to inherit the parent's",
			},
			"model": map[string]any{
				"type":        "string",
				"description": "Model for the sub-agent; omit to inherit the parent's",
			},
			"wait": map[string]any{
				"type":        "boolean",
				"description": "Block until the sub-agent finishes instead of returning its id immediately",
			},
		},
		"required": []string{"prompt"},
	}
	return tool.NewFunctionTool(
		"spawn_agent",
		"Spawn a subordinate agent to handle a task, optionally waiting for its result. Use this to run independent tasks concurrently.",
		schema,
		func(ctx context.Context, args map[string]any) (any, error) {
			prompt, _ := args["prompt"].(string)
			if prompt == "" {
				return nil, fmt.Errorf("prompt must not be empty")
			}
			params := SpawnParams{Prompt: prompt}
			params.WorkingDir, _ = args["working_dir"].(string)
			if params.WorkingDir == "" {
				params.WorkingDir = "."
			}
			params.Provider, _ = args["provider"].(string)
			params.Model, _ = args["model"].(string)
			params.Wait, _ = args["wait"].(bool)
			if names, ok := args["tools"].([]any); ok {
				for _, n := range names {
					if name, ok := n.(string); ok {
						params.Tools = append(params.Tools, name)
					}
				}
			}

			rec, err := s.Spawn(ctx, params)
			if err != nil {
				return nil, err
			}
			return recordPayload(rec), nil
		},
	)
}

func statusTool(s *Supervisor) tool.Tool {
	return tool.NewFunctionTool(
		"agent_status",
		"Check on a previously spawned sub-agent by its id.",
		agentIDSchema("Id returned by spawn_agent"),
		func(ctx context.Context, args map[string]any) (any, error) {
			id, _ := args["agent_id"].(string)
			rec, err := s.Status(id)
			if err != nil {
				return nil, err
			}
			return recordPayload(rec), nil
		},
	)
}

func cancelTool(s *Supervisor) tool.Tool {
	return tool.NewFunctionTool(
		"cancel_agent",
		"Cancel a running sub-agent by its id.",
		agentIDSchema("Id of the sub-agent to cancel"),
		func(ctx context.Context, args map[string]any) (any, error) {
			id, _ := args["agent_id"].(string)
			rec, err := s.Cancel(id)
			if err != nil {
				return nil, err
			}
			return recordPayload(rec), nil
		},
	)
}

func agentIDSchema(description string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"agent_id": map[string]any{
				"type":        "string",
				"description": description,
			},
		},
		"required": []string{"agent_id"},
	}
}

func recordPayload(rec Record) map[string]any {
	out := map[string]any{
		"agent_id": rec.AgentID,
		"status":   string(rec.Status),
	}
	if rec.Result != "" {
		out["result"] = rec.Result
	}
	if rec.Err != "" {
		out["error"] = rec.Err
	}
	return out
}

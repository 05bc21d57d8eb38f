package builtin

import (
	"context"
	"fmt"
	"time"

	"github.com/agentloop/agentloop/tool"
)

// maxSleep caps a single pause. Longer waits should be broken up so the
// surrounding context keeps a chance to cancel between pauses.
const maxSleep = 60 * time.Second

// Sleep returns a tool that pauses for a bounded number of seconds. The
// pause is context-aware: cancelling the context ends it early with the
// context's error.
func Sleep() tool.Tool {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"seconds": map[string]any{
				"type":        "number",
				"description": "Number of seconds to pause, between 0 and 60",
				"minimum":     0,
				"maximum":     60,
			},
		},
		"required": []string{"seconds"},
	}
	return tool.NewFunctionTool(
		"sleep",
		"Pause execution for a specified number of seconds before the next action. Maximum pause is 60 seconds.",
		schema,
		func(ctx context.Context, args map[string]any) (any, error) {
			seconds, ok := args["seconds"].(float64)
			if !ok {
				return nil, fmt.Errorf("seconds must be a number")
			}
			d := time.Duration(seconds * float64(time.Second))
			if d > maxSleep {
				d = maxSleep
			}

			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-timer.C:
			}
			return map[string]any{"message": fmt.Sprintf("Slept for %g seconds", seconds)}, nil
		},
	)
}

// Package builtin provides generic tools that depend on nothing beyond the
// tool contract and the blob store: a scratchpad, a bounded pause, and a
// keyed session state tool.
package builtin

import (
	"context"

	"github.com/agentloop/agentloop/logging"
	"github.com/agentloop/agentloop/tool"
)

type thinkArgs struct {
	Thought string `json:"thought" description:"The reasoning or plan to record"`
}

// Think returns a scratchpad tool. It records the model's reasoning note and
// acknowledges it; the note has no side effects beyond a log line.
func Think(logger logging.Logger) tool.Tool {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return tool.NewFunctionToolFromStruct(
		"think",
		"Record a thought or plan before acting. Use this to reason through a problem step by step. The thought is noted and acknowledged; nothing else happens.",
		thinkArgs{},
		func(ctx context.Context, args map[string]any) (any, error) {
			thought, _ := args["thought"].(string)
			logger.Debug("thought recorded", "length", len(thought))
			return map[string]any{"acknowledged": true}, nil
		},
	)
}

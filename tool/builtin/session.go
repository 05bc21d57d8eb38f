package builtin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/agentloop/agentloop/core"
	"github.com/agentloop/agentloop/store"
)

// SessionTool exposes keyed state that survives across tool calls. Every
// call names its operation explicitly and is scoped to a session_id; state
// lives in the injected store, never in package globals, so two supervisors
// in one process stay independent.
type SessionTool struct {
	store store.Store
}

// NewSessionTool wraps a store into the session tool.
func NewSessionTool(st store.Store) *SessionTool {
	return &SessionTool{store: st}
}

// Name implements tool.Tool.
func (s *SessionTool) Name() string { return "session" }

// Description implements tool.Tool.
func (s *SessionTool) Description() string {
	return "Store and retrieve data that persists across interactions. " +
		"Specify the operation (get, set, delete, list, clear) and a session_id; " +
		"get, set and delete also need a key, and set needs a value."
}

// Schema implements tool.Tool.
func (s *SessionTool) Schema() core.ToolSchema {
	return core.ToolSchema{
		Name:        s.Name(),
		Description: s.Description(),
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"operation": map[string]any{
					"type":        "string",
					"description": "The operation to perform",
					"enum":        []string{"get", "set", "delete", "list", "clear"},
				},
				"session_id": map[string]any{
					"type":        "string",
					"description": "Session the data belongs to",
				},
				"key": map[string]any{
					"type":        "string",
					"description": "Key of the value (get, set, delete)",
				},
				"value": map[string]any{
					"description": "Value to store (set); must be JSON-serializable",
				},
			},
			"required": []string{"operation", "session_id"},
		},
	}
}

// Run implements tool.Tool. Results are data shaped: {success, message} plus
// the retrieved value for get and the key list for list.
func (s *SessionTool) Run(ctx context.Context, args map[string]any) (any, error) {
	op, _ := args["operation"].(string)
	session, _ := args["session_id"].(string)
	key, _ := args["key"].(string)

	switch op {
	case "set":
		if key == "" {
			return nil, fmt.Errorf("set requires a key")
		}
		value, ok := args["value"]
		if !ok {
			return nil, fmt.Errorf("set requires a value")
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("value is not JSON-serializable: %w", err)
		}
		if err := s.store.Set(ctx, session, key, raw); err != nil {
			return nil, err
		}
		return result(fmt.Sprintf("stored %q in session %q", key, session), nil), nil

	case "get":
		if key == "" {
			return nil, fmt.Errorf("get requires a key")
		}
		raw, err := s.store.Get(ctx, session, key)
		if errors.Is(err, store.ErrNotFound) {
			return map[string]any{
				"success": false,
				"message": fmt.Sprintf("no value for %q in session %q", key, session),
			}, nil
		}
		if err != nil {
			return nil, err
		}
		var value any
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, fmt.Errorf("decode stored value: %w", err)
		}
		return result(fmt.Sprintf("retrieved %q from session %q", key, session), value), nil

	case "delete":
		if key == "" {
			return nil, fmt.Errorf("delete requires a key")
		}
		err := s.store.Delete(ctx, session, key)
		if errors.Is(err, store.ErrNotFound) {
			return map[string]any{
				"success": false,
				"message": fmt.Sprintf("no value for %q in session %q", key, session),
			}, nil
		}
		if err != nil {
			return nil, err
		}
		return result(fmt.Sprintf("deleted %q from session %q", key, session), nil), nil

	case "list":
		keys, err := s.store.Keys(ctx, session)
		if err != nil {
			return nil, err
		}
		sort.Strings(keys)
		return result(fmt.Sprintf("session %q has %d keys", session, len(keys)), keys), nil

	case "clear":
		if err := s.store.Clear(ctx, session); err != nil {
			return nil, err
		}
		return result(fmt.Sprintf("cleared session %q", session), nil), nil

	default:
		return nil, fmt.Errorf("unknown operation %q (want get, set, delete, list or clear)", op)
	}
}

func result(message string, data any) map[string]any {
	out := map[string]any{"success": true, "message": message}
	if data != nil {
		out["data"] = data
	}
	return out
}

package tool

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/agentloop/agentloop/core"
	"github.com/agentloop/agentloop/logging"
)

// Formatter reshapes a neutral tool schema into a backend's declaration
// envelope. Provider adapters satisfy it with their FormatTool method.
type Formatter func(schema core.ToolSchema) map[string]any

// ErrorResult is the data-shaped failure Execute returns when handleErrors
// is set: a single failing tool call never terminates an orchestration loop.
type ErrorResult struct {
	Error     string `json:"error"`
	ErrorKind string `json:"error_kind"`
}

// Registry owns the set of available capabilities. It is read-mostly after
// startup registration and safe for concurrent Execute calls from multiple
// in-flight sub-agents.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	logger logging.Logger
}

// NewRegistry builds an empty registry. A nil logger falls back to a no-op.
func NewRegistry(logger logging.Logger) *Registry {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Registry{tools: make(map[string]Tool), logger: logger}
}

// Register adds a tool. Registering a duplicate name fails the registration
// and leaves the existing entry untouched.
func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name()]; exists {
		return fmt.Errorf("a tool with name %q is already registered", t.Name())
	}
	r.tools[t.Name()] = t
	r.logger.Debug("tool.registered", "tool", t.Name())
	return nil
}

// RegisterAll registers tools in order, stopping at the first failure.
func (r *Registry) RegisterAll(tools ...Tool) error {
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the named tool or a *NotFoundError.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return t, nil
}

// Has reports whether the named tool is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Names returns the sorted registered tool names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schemas returns the neutral schema of every registered tool, ordered by
// name.
func (r *Registry) Schemas() []core.ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	schemas := make([]core.ToolSchema, 0, len(r.tools))
	for _, name := range r.namesLocked() {
		schemas = append(schemas, r.tools[name].Schema())
	}
	return schemas
}

// SchemasFor returns the full tool set reshaped for a specific backend's
// declaration format. The indirection exists because backends disagree on
// envelope shape (flat parameters vs. nested function.parameters).
func (r *Registry) SchemasFor(format Formatter) []map[string]any {
	neutral := r.Schemas()
	out := make([]map[string]any, len(neutral))
	for i, s := range neutral {
		out[i] = format(s)
	}
	return out
}

// Subset returns a new registry view containing only the named tools.
// Unknown names fail with a *NotFoundError so a sub-agent never silently
// runs with fewer capabilities than requested.
func (r *Registry) Subset(names []string) (*Registry, error) {
	sub := NewRegistry(r.logger)
	for _, name := range names {
		t, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		if err := sub.Register(t); err != nil {
			return nil, err
		}
	}
	return sub, nil
}

// Execute looks up the named tool, validates args against its schema and
// runs it. With handleErrors set, every classified failure is converted into
// an ErrorResult value instead of an error return; with it unset, failures
// surface as typed errors for callers that want to halt.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any, handleErrors bool) (any, error) {
	result, err := r.execute(ctx, name, args)
	if err == nil {
		return result, nil
	}

	r.logger.Error("tool.execute.failed", "tool", name, "error", err.Error(), "kind", ErrorKind(err))
	if handleErrors {
		return ErrorResult{
			Error:     fmt.Sprintf("error executing tool %q: %v", name, err),
			ErrorKind: ErrorKind(err),
		}, nil
	}
	return nil, err
}

func (r *Registry) execute(ctx context.Context, name string, args map[string]any) (any, error) {
	t, err := r.Get(name)
	if err != nil {
		return nil, err
	}

	if err := validateArgs(name, t.Schema().Parameters, args); err != nil {
		return nil, err
	}

	start := time.Now()
	r.logger.Debug("tool.execute.start", "tool", name)

	result, err := t.Run(ctx, args)
	if err != nil {
		// Foreign error types never escape the tool boundary unwrapped.
		if _, ok := err.(*ExecutionError); !ok {
			err = NewExecutionError(name, err)
		}
		return nil, err
	}

	r.logger.Info("tool.execute.success", "tool", name, "duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

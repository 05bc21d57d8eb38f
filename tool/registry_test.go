package tool

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/agentloop/agentloop/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoArgs struct {
	Text string `json:"text" description:"Text to echo back"`
}

func newEchoTool() *FunctionTool {
	return NewFunctionToolFromStruct("echo", "Echo text back", echoArgs{},
		func(ctx context.Context, args map[string]any) (any, error) {
			return args["text"], nil
		})
}

func TestRegisterDuplicateFails(t *testing.T) {
	reg := NewRegistry(nil)
	original := newEchoTool()
	require.NoError(t, reg.Register(original))

	impostor := NewFunctionTool("echo", "Different tool", map[string]any{"type": "object"},
		func(ctx context.Context, args map[string]any) (any, error) { return nil, nil })
	err := reg.Register(impostor)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "echo")

	// The existing registration is untouched.
	got, err := reg.Get("echo")
	require.NoError(t, err)
	assert.Same(t, Tool(original), got)
}

func TestExecuteEcho(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(newEchoTool()))

	result, err := reg.Execute(context.Background(), "echo", map[string]any{"text": "hi"}, true)
	require.NoError(t, err)
	assert.Equal(t, "hi", result)
}

func TestExecuteMissingToolHandled(t *testing.T) {
	reg := NewRegistry(nil)

	result, err := reg.Execute(context.Background(), "missing", map[string]any{}, true)
	require.NoError(t, err)

	errResult, ok := result.(ErrorResult)
	require.True(t, ok)
	assert.Equal(t, KindNotFound, errResult.ErrorKind)
	assert.Contains(t, errResult.Error, "missing")
}

func TestExecuteMissingToolRaised(t *testing.T) {
	reg := NewRegistry(nil)

	_, err := reg.Execute(context.Background(), "missing", map[string]any{}, false)
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.Name)
}

func TestExecuteValidationFailure(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(newEchoTool()))

	// Raised form carries the offending fields.
	_, err := reg.Execute(context.Background(), "echo", map[string]any{}, false)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.NotEmpty(t, vErr.Fields)

	// Data form carries the taxonomy kind.
	result, err := reg.Execute(context.Background(), "echo", map[string]any{}, true)
	require.NoError(t, err)
	errResult := result.(ErrorResult)
	assert.Equal(t, KindValidation, errResult.ErrorKind)
}

func TestExecuteWrapsForeignErrors(t *testing.T) {
	reg := NewRegistry(nil)
	boom := errors.New("disk on fire")
	failing := NewFunctionTool("burn", "Always fails", map[string]any{"type": "object"},
		func(ctx context.Context, args map[string]any) (any, error) { return nil, boom })
	require.NoError(t, reg.Register(failing))

	_, err := reg.Execute(context.Background(), "burn", map[string]any{}, false)
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "burn", execErr.Tool)
	assert.ErrorIs(t, err, boom)

	result, err := reg.Execute(context.Background(), "burn", map[string]any{}, true)
	require.NoError(t, err)
	assert.Equal(t, KindExecution, result.(ErrorResult).ErrorKind)
}

func TestSchemasFor(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.RegisterAll(
		newEchoTool(),
		NewFunctionTool("noop", "Do nothing", map[string]any{"type": "object"},
			func(ctx context.Context, args map[string]any) (any, error) { return nil, nil }),
	))

	// A flat, anthropic-style envelope.
	views := reg.SchemasFor(func(s core.ToolSchema) map[string]any {
		return map[string]any{"name": s.Name, "description": s.Description, "input_schema": s.Parameters}
	})
	require.Len(t, views, 2)
	for _, v := range views {
		assert.NotEmpty(t, v["name"])
		assert.Contains(t, v, "description")
		assert.Contains(t, v, "input_schema")
	}
	// Ordered by name, so registration order does not leak into the view.
	assert.Equal(t, "echo", views[0]["name"])
	assert.Equal(t, "noop", views[1]["name"])
}

func TestSubset(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.RegisterAll(
		newEchoTool(),
		NewFunctionTool("noop", "Do nothing", map[string]any{"type": "object"},
			func(ctx context.Context, args map[string]any) (any, error) { return nil, nil }),
	))

	sub, err := reg.Subset([]string{"echo"})
	require.NoError(t, err)
	assert.Equal(t, []string{"echo"}, sub.Names())

	_, err = reg.Subset([]string{"echo", "ghost"})
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestConcurrentExecute(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(newEchoTool()))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := reg.Execute(context.Background(), "echo", map[string]any{"text": "hi"}, true)
			assert.NoError(t, err)
			assert.Equal(t, "hi", result)
		}()
	}
	wg.Wait()
}

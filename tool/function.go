package tool

import (
	"context"

	"github.com/agentloop/agentloop/core"
)

// Func is the implementation signature wrapped by FunctionTool. Arguments
// have already passed schema validation when it is invoked.
type Func func(ctx context.Context, args map[string]any) (any, error)

// FunctionTool is a generic adapter that exposes a plain Go function as a
// Tool. It has no internal mutable state after construction and is safe for
// concurrent use.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          Func
}

// NewFunctionTool constructs a FunctionTool from an explicit JSON-Schema
// parameter map and a function.
func NewFunctionTool(name, description string, parameters map[string]any, fn Func) *FunctionTool {
	return &FunctionTool{name: name, description: description, parameters: parameters, fn: fn}
}

// NewFunctionToolFromStruct derives the parameter schema from a struct via
// SchemaFromStruct. Convenience for simple argument containers.
//
// Example:
//
//	type EchoArgs struct {
//	    Text string `json:"text" description:"Text to echo back"`
//	}
//
//	echo := NewFunctionToolFromStruct("echo", "Echo text back", EchoArgs{},
//	    func(ctx context.Context, args map[string]any) (any, error) {
//	        return args["text"], nil
//	    })
func NewFunctionToolFromStruct(name, description string, structType any, fn Func) *FunctionTool {
	return NewFunctionTool(name, description, SchemaFromStruct(structType), fn)
}

// Name implements Tool.
func (t *FunctionTool) Name() string { return t.name }

// Description implements Tool.
func (t *FunctionTool) Description() string { return t.description }

// Schema implements Tool.
func (t *FunctionTool) Schema() core.ToolSchema {
	return core.ToolSchema{Name: t.name, Description: t.description, Parameters: t.parameters}
}

// Run implements Tool by delegating to the wrapped function.
func (t *FunctionTool) Run(ctx context.Context, args map[string]any) (any, error) {
	return t.fn(ctx, args)
}

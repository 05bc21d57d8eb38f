// Package tool implements the capability subsystem that lets a model invoke
// structured external actions: the Tool contract, JSON-schema parameter
// validation, and the Registry that owns the set of available capabilities
// and dispatches validated invocations.
package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agentloop/agentloop/core"
)

// Tool is a named, schema-validated unit of external action. Implementations
// are constructed once at registry build time and must be safe for concurrent
// Run calls; any cross-call state a tool owns (a browser session, stored
// key/value data) must be keyed by an explicit session identifier supplied in
// the arguments, never held in ambient globals.
type Tool interface {
	// Name returns the unique, immutable tool identifier.
	Name() string

	// Description is the natural language description shown to models.
	Description() string

	// Schema declares the accepted arguments as a JSON-Schema object.
	Schema() core.ToolSchema

	// Run executes the tool with already-validated arguments. It may block
	// on I/O and must observe ctx cancellation at its suspension points.
	Run(ctx context.Context, args map[string]any) (any, error)
}

// Error kind identifiers surfaced in data-shaped results.
const (
	KindNotFound   = "ToolNotFoundError"
	KindValidation = "ToolValidationError"
	KindExecution  = "ToolExecutionError"
)

// NotFoundError reports a request for an unregistered capability name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no tool found with name %q", e.Name)
}

// FieldError identifies one offending field of a failed validation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports arguments that failed schema validation before
// reaching the tool body.
type ValidationError struct {
	Tool   string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return fmt.Sprintf("invalid arguments for tool %q: %s", e.Tool, strings.Join(parts, "; "))
}

// ExecutionError reports a tool that ran and failed. It wraps the original
// cause for diagnostics without letting it cross the tool boundary untyped.
type ExecutionError struct {
	Tool    string
	Message string
	cause   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("tool %q failed: %s", e.Tool, e.Message)
}

// Unwrap exposes the original cause.
func (e *ExecutionError) Unwrap() error { return e.cause }

// NewExecutionError wraps a tool failure.
func NewExecutionError(tool string, cause error) *ExecutionError {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	return &ExecutionError{Tool: tool, Message: msg, cause: cause}
}

// ErrorKind classifies an error from the tool subsystem into its taxonomy
// kind string; unrecognized errors classify as execution failures.
func ErrorKind(err error) string {
	var notFound *NotFoundError
	var invalid *ValidationError
	switch {
	case errors.As(err, &notFound):
		return KindNotFound
	case errors.As(err, &invalid):
		return KindValidation
	default:
		return KindExecution
	}
}

package provider

import (
	"fmt"
	"strings"
)

// Kind is the closed taxonomy of classified provider failures. Adapters map
// backend-native errors onto these kinds; nothing else leaves Generate.
type Kind string

const (
	// KindAuthentication marks invalid or missing credentials. Fatal for
	// the provider until reconfigured.
	KindAuthentication Kind = "AuthenticationError"
	// KindRateLimit marks backend throttling. Retry policy is the
	// caller's concern.
	KindRateLimit Kind = "RateLimitError"
	// KindContextLength marks input exceeding the model window. Not
	// retryable without trimming.
	KindContextLength Kind = "ContextLengthExceededError"
	// KindContentFilter marks a policy refusal. Not retryable.
	KindContentFilter Kind = "ContentFilterError"
	// KindGeneric is the catch-all backend failure.
	KindGeneric Kind = "GenericProviderError"
)

// Error is the classified provider failure carrying provider/model context.
type Error struct {
	Kind       Kind
	Provider   string
	Model      string
	Message    string
	StatusCode int
	cause      error
}

// Error renders "[provider/model] message" so logs identify the backend at a
// glance.
func (e *Error) Error() string {
	switch {
	case e.Provider != "" && e.Model != "":
		return fmt.Sprintf("[%s/%s] %s", e.Provider, e.Model, e.Message)
	case e.Provider != "":
		return fmt.Sprintf("[%s] %s", e.Provider, e.Message)
	default:
		return e.Message
	}
}

// Unwrap exposes the original backend error for diagnostics.
func (e *Error) Unwrap() error { return e.cause }

// NewError builds a classified error of an explicit kind.
func NewError(kind Kind, providerName, model, message string, cause error) *Error {
	return &Error{Kind: kind, Provider: providerName, Model: model, Message: message, cause: cause}
}

// Classify maps a backend failure onto the shared taxonomy using the HTTP
// status (0 when unknown) and the error body text. Substring signals follow
// the backends' observed wording: "rate limit", "context length" variants and
// "content polic*" / "content filter". Unmatched failures classify as
// KindGeneric.
func Classify(providerName, model string, status int, body string, cause error) *Error {
	kind := KindGeneric
	lower := strings.ToLower(body)

	switch {
	case status == 401 || status == 403,
		strings.Contains(lower, "invalid api key"),
		strings.Contains(lower, "authentication"),
		strings.Contains(lower, "unauthorized"):
		kind = KindAuthentication
	case status == 429, strings.Contains(lower, "rate limit"):
		kind = KindRateLimit
	case strings.Contains(lower, "context length"),
		strings.Contains(lower, "maximum context"),
		strings.Contains(lower, "context window"),
		strings.Contains(lower, "too many tokens"):
		kind = KindContextLength
	case strings.Contains(lower, "content polic"),
		strings.Contains(lower, "content filter"),
		strings.Contains(lower, "content filtered"):
		kind = KindContentFilter
	}

	return &Error{
		Kind:       kind,
		Provider:   providerName,
		Model:      model,
		Message:    body,
		StatusCode: status,
		cause:      cause,
	}
}

package responder

import (
	"errors"
	"strings"
)

// ErrorKind groups generation failures so callers can pick the right
// user-facing apology without string matching.
type ErrorKind string

const (
	ErrorKindAuth      ErrorKind = "auth"
	ErrorKindRateLimit ErrorKind = "rate-limit"
	ErrorKindSafety    ErrorKind = "safety"
	ErrorKindGeneric   ErrorKind = "generic"
)

// GenerationError wraps a provider error with a coarse classification.
type GenerationError struct {
	Kind ErrorKind
	Err  error
}

func (e *GenerationError) Error() string {
	return "responder: generation failed (" + string(e.Kind) + "): " + e.Err.Error()
}

func (e *GenerationError) Unwrap() error { return e.Err }

// KindOf returns the classification of err, or ErrorKindGeneric when err is
// not a GenerationError.
func KindOf(err error) ErrorKind {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Kind
	}
	return ErrorKindGeneric
}

// classify maps provider error text onto an ErrorKind. Providers surface
// these as message substrings rather than typed errors.
func classify(err error) *GenerationError {
	msg := strings.ToUpper(err.Error())
	kind := ErrorKindGeneric
	switch {
	case strings.Contains(msg, "API_KEY_INVALID"),
		strings.Contains(msg, "API KEY"),
		strings.Contains(msg, "401"),
		strings.Contains(msg, "UNAUTHENTICATED"):
		kind = ErrorKindAuth
	case strings.Contains(msg, "QUOTA_EXCEEDED"),
		strings.Contains(msg, "RESOURCE_EXHAUSTED"),
		strings.Contains(msg, "RATE LIMIT"),
		strings.Contains(msg, "429"):
		kind = ErrorKindRateLimit
	case strings.Contains(msg, "SAFETY"):
		kind = ErrorKindSafety
	}
	return &GenerationError{Kind: kind, Err: err}
}

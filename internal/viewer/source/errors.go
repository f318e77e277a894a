package source

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// ErrorKind categorizes a document load failure. Each kind maps to a
// distinct user-facing message on the error panel.
type ErrorKind int

const (
	ErrGeneric ErrorKind = iota
	ErrNetwork
	ErrInvalidDocument
	ErrNotFound
	ErrForbidden
	ErrServer
	ErrTimeout
)

// String returns the kind's identifier for logs.
func (k ErrorKind) String() string {
	switch k {
	case ErrNetwork:
		return "network"
	case ErrInvalidDocument:
		return "invalid-document"
	case ErrNotFound:
		return "not-found"
	case ErrForbidden:
		return "forbidden"
	case ErrServer:
		return "server"
	case ErrTimeout:
		return "timeout"
	default:
		return "generic"
	}
}

// Message returns the user-facing description for the kind.
func (k ErrorKind) Message() string {
	switch k {
	case ErrNetwork:
		return "Could not reach the server. Check your connection and retry."
	case ErrInvalidDocument:
		return "This chapter's file is damaged or not a readable document."
	case ErrNotFound:
		return "This chapter could not be found."
	case ErrForbidden:
		return "You don't have access to this chapter."
	case ErrServer:
		return "The server had a problem delivering this chapter. Try again shortly."
	case ErrTimeout:
		return "Loading the chapter took too long. Retry when your connection is better."
	default:
		return "Something went wrong loading this chapter."
	}
}

// LoadError is a categorized document load failure. Load-level errors
// are terminal for the current document; recovery is a manual retry.
type LoadError struct {
	Kind  ErrorKind
	cause error
}

func (e *LoadError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("load %s: %v", e.Kind, e.cause)
	}
	return "load " + e.Kind.String()
}

func (e *LoadError) Unwrap() error { return e.cause }

// Message returns the user-facing text for this failure.
func (e *LoadError) Message() string { return e.Kind.Message() }

// NewLoadError wraps cause with an explicit kind.
func NewLoadError(kind ErrorKind, cause error) *LoadError {
	return &LoadError{Kind: kind, cause: cause}
}

// Classify maps a raw failure plus an optional HTTP status to a
// LoadError. Already-classified errors pass through unchanged.
func Classify(err error, status int) *LoadError {
	var le *LoadError
	if errors.As(err, &le) {
		return le
	}

	switch {
	case status == 404:
		return &LoadError{Kind: ErrNotFound, cause: err}
	case status == 401 || status == 403:
		return &LoadError{Kind: ErrForbidden, cause: err}
	case status >= 500:
		return &LoadError{Kind: ErrServer, cause: err}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &LoadError{Kind: ErrTimeout, cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &LoadError{Kind: ErrTimeout, cause: err}
		}
		return &LoadError{Kind: ErrNetwork, cause: err}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &LoadError{Kind: ErrNetwork, cause: err}
	}

	return &LoadError{Kind: ErrGeneric, cause: err}
}

package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrUnknownStage    = errors.New("unknown stage")
	ErrInvalidJobType  = errors.New("invalid job type")
	ErrStageMismatch   = errors.New("action not allowed at current stage")
	ErrNoStrategy      = errors.New("no strategy selected")
	ErrNothingToExport = errors.New("no approved assets to export")
	ErrBatchRunning    = errors.New("generation batch already running")
)

// Generation failure kinds. Match them with errors.Is.
var (
	ErrAuth              = errors.New("auth error")
	ErrRateLimit         = errors.New("rate limit error")
	ErrPermission        = errors.New("permission error")
	ErrMalformedResponse = errors.New("malformed response error")
	ErrTimeout           = errors.New("timeout error")
	ErrNetwork           = errors.New("network error")
	// ErrOperationFailed marks a long-running operation that finished with an error.
	ErrOperationFailed   = errors.New("operation failed")
)

// GenerationError is returned by the credential and remote generation adapters.
type GenerationError struct {
	Kind       error
	Op         string
	StatusCode int
	Err        error
}

// NewGenerationError wraps err with a failure kind and the operation that failed.
func NewGenerationError(kind error, op string, err error) *GenerationError {
	return &GenerationError{Kind: kind, Op: op, Err: err}
}

func (e *GenerationError) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GenerationError) Is(target error) bool {
	return target == e.Kind
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Retryable reports whether a later attempt of the same request may succeed.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimit) || errors.Is(err, ErrNetwork)
}

package shared

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Session errors
	ErrBusy          = fmt.Errorf("operation already in progress")
	ErrInvalidState  = fmt.Errorf("invalid session state")
	ErrSessionClosed = fmt.Errorf("session closed")
	ErrTimeout       = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrNotFound           = fmt.Errorf("not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// ValidationError blocks a submission locally; it never reaches the network.
type ValidationError struct {
	Reason string
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NetworkError describes a rejected or unreachable backend request.
//
// StatusCode is zero when the request never got a response.
type NetworkError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *NetworkError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrAPIRequest
}

// ArtifactNotFoundError is returned when a download answers 404.
type ArtifactNotFoundError struct {
	ProtocolID string
	Kind       string
}

func (e *ArtifactNotFoundError) Error() string {
	return fmt.Sprintf("%s artifact for protocol %s not found", e.Kind, e.ProtocolID)
}

func (e *ArtifactNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// TimeoutError is returned when a backend call exceeds the configured deadline.
type TimeoutError struct {
	Op    string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timed out after %s", e.Op, e.After)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// UserMessage returns the text shown to a user for err.
//
// Typed errors render without the wrapping chain; anything else falls back to err.Error().
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var verr *ValidationError
	var nerr *NetworkError
	var aerr *ArtifactNotFoundError
	var terr *TimeoutError

	switch {
	case errors.As(err, &verr):
		return verr.Reason
	case errors.As(err, &aerr):
		return aerr.Error()
	case errors.As(err, &terr):
		return terr.Error()
	case errors.As(err, &nerr):
		if nerr.Message != "" {
			return nerr.Message
		}
		return nerr.Error()
	default:
		return err.Error()
	}
}

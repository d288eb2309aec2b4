package stt

import (
	"errors"
	"fmt"
)

// Sentinel errors for the HTTP status classes every provider maps the same
// way, regardless of response body content.
var (
	ErrAuthentication     = errors.New("stt authentication failed")
	ErrRateLimit          = errors.New("stt rate limit exceeded")
	ErrServiceUnavailable = errors.New("stt service unavailable")

	// ErrUnsupportedAudio indicates the converted audio does not satisfy the
	// provider's input contract. This is a pipeline bug, not a transient
	// provider failure.
	ErrUnsupportedAudio = errors.New("audio format not accepted by provider")
)

// APIError is a non-success provider response outside the fixed status
// classes. Message holds the text extracted from the provider's structured
// error body, or the raw body when it could not be parsed.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stt api error (HTTP %d): %s", e.Status, e.Message)
}

// TransportError is a network-level failure (connection refused, timeout)
// that never reached the provider API.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("stt request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// classifyStatus maps a non-success HTTP status to the error taxonomy.
func classifyStatus(status int, message string) error {
	switch status {
	case 401:
		return ErrAuthentication
	case 429:
		return ErrRateLimit
	case 503:
		return ErrServiceUnavailable
	default:
		return &APIError{Status: status, Message: message}
	}
}

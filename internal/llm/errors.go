package llm

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey is returned by client constructors when no credential is supplied.
var ErrMissingAPIKey = errors.New("API key is required")

// APIError represents a non-success response from the provider
type APIError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gemini API error (status %d): %s", e.StatusCode, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("gemini API error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("gemini API error: %s", e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

// EmptyResponseError is returned when a successful response carries no generated text
type EmptyResponseError struct {
	Message string
}

func (e *EmptyResponseError) Error() string {
	return fmt.Sprintf("empty response: %s", e.Message)
}

package assist

import (
	"errors"
	"fmt"
)

// ErrSuperseded is returned when a newer request on the same slot replaced this one.
// The superseded result is never applied.
var ErrSuperseded = errors.New("assist request superseded by a newer request")

// ValidationError is returned when the document lacks an input an action needs.
// No request is issued.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error [%s]: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// MissingCredentialError is returned when no API key was supplied with the request.
type MissingCredentialError struct {
	Message string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("missing credential: %s", e.Message)
}

// GenerationUnavailableError wraps any failure to obtain generated text.
type GenerationUnavailableError struct {
	Message string
	Cause   error
}

func (e *GenerationUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("generation unavailable: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("generation unavailable: %s", e.Message)
}

func (e *GenerationUnavailableError) Unwrap() error {
	return e.Cause
}

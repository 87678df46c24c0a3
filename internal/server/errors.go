package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/resume-builder/internal/assist"
	"github.com/jonathan/resume-builder/internal/export"
	"github.com/jonathan/resume-builder/internal/schemas"
	"github.com/jonathan/resume-builder/internal/session"
	"github.com/jonathan/resume-builder/internal/types"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrBadRequest indicates a body that could not be decoded
type ErrBadRequest struct {
	Message string
	Cause   error
}

func (e *ErrBadRequest) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ErrBadRequest) Unwrap() error {
	return e.Cause
}

// fromValidator converts validator errors into an ErrValidation for the first failing field.
func fromValidator(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ErrValidation{Field: fe.Field(), Message: fmt.Sprintf("failed on the '%s' rule", fe.Tag())}
	}
	return &ErrValidation{Field: "(body)", Message: err.Error()}
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusInternalServerError
	}

	var (
		notFound     *session.NotFoundError
		validation   *ErrValidation
		badRequest   *ErrBadRequest
		unknownField *types.UnknownFieldError
		assistInput  *assist.ValidationError
		missingKey   *assist.MissingCredentialError
		unavailable  *assist.GenerationUnavailableError
		schemaErr    *schemas.ValidationError
		exportErr    *export.ExportError
		tooLarge     *http.MaxBytesError
	)

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &validation), errors.As(err, &badRequest), errors.As(err, &unknownField),
		errors.As(err, &assistInput), errors.As(err, &schemaErr):
		return http.StatusBadRequest
	case errors.As(err, &missingKey):
		return http.StatusUnauthorized
	case errors.Is(err, assist.ErrSuperseded):
		return http.StatusConflict
	case errors.As(err, &unavailable), errors.As(err, &exportErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

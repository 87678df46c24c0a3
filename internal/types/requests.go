package types

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// FieldValueRequest sets one text field. Empty values are allowed.
type FieldValueRequest struct {
	Value *string `json:"value" validate:"required"`
}

// ThemeRequest sets the accent color. Any string is accepted, including colors outside the palette.
type ThemeRequest struct {
	Color *string `json:"color" validate:"required"`
}

// SkillsRequest commits the skills input text verbatim.
type SkillsRequest struct {
	Text *string `json:"text" validate:"required"`
}

// AssistRequest carries the credential for an assist action when it is not sent as a header.
type AssistRequest struct {
	APIKey string `json:"api_key,omitempty"`
}

// PersonalFieldParam validates the {field} path segment of a personal field update.
type PersonalFieldParam struct {
	Field string `validate:"required,oneof=fullName jobTitle email phone address summary"`
}

// Validate validates the FieldValueRequest using the validator.
func (r *FieldValueRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the ThemeRequest using the validator.
func (r *ThemeRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the SkillsRequest using the validator.
func (r *SkillsRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the PersonalFieldParam using the validator.
func (r *PersonalFieldParam) Validate() error {
	return validate.Struct(r)
}

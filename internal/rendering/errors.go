// Package rendering projects a resume document into HTML preview regions, the editor page
// and a LaTeX export.
package rendering

import "fmt"

// TemplateError represents an error parsing or locating a template
type TemplateError struct {
	Name    string
	Message string
	Cause   error
}

func (e *TemplateError) Error() string {
	name := e.Name
	if name == "" {
		name = "(unnamed)"
	}
	if e.Cause != nil {
		return fmt.Sprintf("template error [%s]: %s: %v", name, e.Message, e.Cause)
	}
	return fmt.Sprintf("template error [%s]: %s", name, e.Message)
}

func (e *TemplateError) Unwrap() error {
	return e.Cause
}

// RenderError represents a failure executing a template against a document
type RenderError struct {
	Region  RegionID
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	prefix := "render error"
	if e.Region != "" {
		prefix = fmt.Sprintf("render error [%s]", e.Region)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

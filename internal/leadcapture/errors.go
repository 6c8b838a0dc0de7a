package leadcapture

import (
	"fmt"
	"strings"
)

type FieldErrorKind string

const (
	Required      FieldErrorKind = "required"
	InvalidFormat FieldErrorKind = "invalid_format"
)

type FieldError struct {
	Field string         `json:"field"`
	Kind  FieldErrorKind `json:"kind"`
}

func (e FieldError) Message() string {
	switch e.Kind {
	case Required:
		return fmt.Sprintf("%s is required", e.Field)
	case InvalidFormat:
		return fmt.Sprintf("%s has an invalid format", e.Field)
	default:
		return fmt.Sprintf("%s is invalid", e.Field)
	}
}

// ValidationError collects every field that failed validation.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Errors) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+string(fe.Kind))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

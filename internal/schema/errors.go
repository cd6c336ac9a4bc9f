package schema

import (
	"errors"
	"fmt"
)

var (
	ErrInferenceParse  = errors.New("model output is not valid structured data")
	ErrSchemaViolation = errors.New("schema violation")
)

// ParseError reports model output that could not be recovered as JSON even
// after sanitization.
type ParseError struct {
	Shape string
	Raw   string
	Err   error
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrInferenceParse.Error(), e.Shape)
	}
	return fmt.Sprintf("%s: %s: %v", ErrInferenceParse.Error(), e.Shape, e.Err)
}

func (e *ParseError) Unwrap() error { return ErrInferenceParse }

// Violation reports structurally valid output that breaks a shape rule.
// Field is the JSON name of the offending field.
type Violation struct {
	Shape string
	Field string
	Rule  string
	Value any
}

func (e *Violation) Error() string {
	if e == nil {
		return ""
	}
	field := e.Field
	if field == "" {
		field = "(root)"
	}
	if e.Value == nil {
		return fmt.Sprintf("%s: %s.%s: %s", ErrSchemaViolation.Error(), e.Shape, field, e.Rule)
	}
	return fmt.Sprintf("%s: %s.%s: %s (got %v)", ErrSchemaViolation.Error(), e.Shape, field, e.Rule, e.Value)
}

func (e *Violation) Unwrap() error { return ErrSchemaViolation }

func violationf(shape, field, rule string, value any) error {
	return &Violation{Shape: shape, Field: field, Rule: rule, Value: value}
}

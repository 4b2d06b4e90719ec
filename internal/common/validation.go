package common

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// Validator collects rule failures for a set of fields.
type Validator struct {
	errors []ValidationError
}

func NewValidator() *Validator {
	return &Validator{
		errors: make([]ValidationError, 0),
	}
}

// Field validates a field and collects errors
func (v *Validator) Field(fieldName string, value any, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// ErrorMessage returns the first failure's message, which is what clients see.
func (v *Validator) ErrorMessage() string {
	if !v.HasErrors() {
		return ""
	}
	return v.errors[0].Message
}

// Err returns an AppError wrapping ErrInvalidInput, or nil.
func (v *Validator) Err() error {
	if !v.HasErrors() {
		return nil
	}
	var all []string
	for _, e := range v.errors {
		all = append(all, e.Error())
	}
	return NewAppError("INVALID_INPUT", v.ErrorMessage(), fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(all, "; ")))
}

// ValidationRule represents a single validation rule
type ValidationRule func(fieldName string, value any) *ValidationError

// Required fails on nil or blank strings.
func Required(fieldName string, value any) *ValidationError {
	if value == nil {
		return &ValidationError{Field: fieldName, Value: value, Message: fieldName + " is required"}
	}
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return &ValidationError{Field: fieldName, Value: value, Message: fieldName + " is required"}
	}
	return nil
}

func MaxLength(max int) ValidationRule {
	return func(fieldName string, value any) *ValidationError {
		s, ok := value.(string)
		if !ok {
			return nil
		}
		if utf8.RuneCountInString(s) > max {
			return &ValidationError{
				Field:   fieldName,
				Value:   value,
				Message: fmt.Sprintf("%s must be at most %d characters", fieldName, max),
			}
		}
		return nil
	}
}

// OneOf fails when the value, after normalize, is not in allowed. The message is
// produced by describe so callers control the client-facing wording.
func OneOf(allowed func(string) bool, normalize func(string) string, describe func(string) string) ValidationRule {
	return func(fieldName string, value any) *ValidationError {
		s, ok := value.(string)
		if !ok {
			return &ValidationError{Field: fieldName, Value: value, Message: fieldName + " must be a string"}
		}
		n := s
		if normalize != nil {
			n = normalize(s)
		}
		if !allowed(n) {
			return &ValidationError{Field: fieldName, Value: value, Message: describe(n)}
		}
		return nil
	}
}

package common

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// Validator provides validation utilities
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		errors: make([]ValidationError, 0),
	}
}

// Field validates a field and collects errors
func (v *Validator) Field(fieldName string, value interface{}, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors
func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// Error returns the collected failures as one error, or nil.
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}
	return errors.New(v.ErrorMessage())
}

// ErrorMessage joins the collected failures with "; ".
func (v *Validator) ErrorMessage() string {
	messages := make([]string, 0, len(v.errors))
	for _, err := range v.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// ValidationRule represents a single validation rule
type ValidationRule func(fieldName string, value interface{}) *ValidationError

// Required - Common validation rules
func Required(fieldName string, value interface{}) *ValidationError {
	if value == nil {
		return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
	}

	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
		}
	case *string:
		if v == nil || strings.TrimSpace(*v) == "" {
			return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
		}
	}
	return nil
}

// MaxLength returns a rule capping the rune length of a string.
func MaxLength(max int) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		str, ok := value.(string)
		if !ok {
			return nil
		}
		if utf8.RuneCountInString(str) > max {
			return &ValidationError{
				Field:   fieldName,
				Value:   value,
				Message: fmt.Sprintf("must be at most %d characters", max),
			}
		}
		return nil
	}
}

var (
	rosterRegex     = regexp.MustCompile(`^(FA|SP|SU|WI)\d{2}$`)
	courseCodeRegex = regexp.MustCompile(`^[A-Z]{2,6} \d{4}$`)
)

// RosterToken accepts term tokens such as FA23 or SP24.
func RosterToken(fieldName string, value interface{}) *ValidationError {
	str, ok := value.(string)
	if !ok {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a string"}
	}
	if !rosterRegex.MatchString(str) {
		return &ValidationError{
			Field:   fieldName,
			Value:   value,
			Message: "must be a roster token like FA23 or SP24",
		}
	}
	return nil
}

// CourseCode accepts "SUBJ NNNN", e.g. "CS 2110".
func CourseCode(fieldName string, value interface{}) *ValidationError {
	str, ok := value.(string)
	if !ok {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a string"}
	}
	if !courseCodeRegex.MatchString(str) {
		return &ValidationError{
			Field:   fieldName,
			Value:   value,
			Message: "must look like \"CS 2110\"",
		}
	}
	return nil
}

// ISODate accepts YYYY-MM-DD.
func ISODate(fieldName string, value interface{}) *ValidationError {
	str, ok := value.(string)
	if !ok {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a string"}
	}
	if _, err := time.Parse("2006-01-02", str); err != nil {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a YYYY-MM-DD date"}
	}
	return nil
}

// ValidateAndReturnError validates and returns an invalid-argument error if validation fails
func ValidateAndReturnError(validator *Validator) error {
	if validator.HasErrors() {
		return NewAppError("INVALID_ARGUMENT", validator.ErrorMessage(), ErrValidation)
	}
	return nil
}

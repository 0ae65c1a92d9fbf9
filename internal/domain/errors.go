package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeConflict     ErrorCode = "CONFLICT"

	// Validation errors
	CodeValidation    ErrorCode = "VALIDATION_ERROR"
	CodeMissingField  ErrorCode = "MISSING_FIELD"
	CodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	CodeOutOfRange    ErrorCode = "OUT_OF_RANGE"

	// Exercise pipeline errors
	CodeInvalidExerciseType ErrorCode = "INVALID_EXERCISE_TYPE"
	CodeLLMServiceError     ErrorCode = "LLM_SERVICE_ERROR"
	CodeMalformedAIResponse ErrorCode = "MALFORMED_AI_RESPONSE"
)

var (
	// ErrUnsupportedExerciseType is returned for exercise types outside the closed set.
	ErrUnsupportedExerciseType = errors.New("unsupported exercise type")
	// ErrProviderFailure covers network, quota, timeout and model-side failures of the AI provider.
	ErrProviderFailure = errors.New("ai provider failure")
	// ErrMalformedResponse is returned when the AI answered with empty or undecodable text.
	ErrMalformedResponse = errors.New("malformed ai response")
	// ErrUserNotFound is returned by user lookups that match no row.
	ErrUserNotFound = errors.New("user not found")
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
	})
}

// WithContext attaches a detail that is echoed back to API clients.
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func NewInternalError(message string, cause error) *DomainError {
	return NewError(CodeInternal, message, cause)
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(CodeInvalidInput, message, nil)
}

func NewNotFoundError(message string) *DomainError {
	return NewError(CodeNotFound, message, nil)
}

func NewUnauthorizedError(message string) *DomainError {
	return NewError(CodeUnauthorized, message, nil)
}

func NewConflictError(message string) *DomainError {
	return NewError(CodeConflict, message, nil)
}

func NewValidationError(message string) *DomainError {
	return NewError(CodeValidation, message, nil)
}

func NewInvalidExerciseTypeError(exerciseType string) *DomainError {
	return NewError(CodeInvalidExerciseType, fmt.Sprintf("Unsupported exercise type: %s", exerciseType), ErrUnsupportedExerciseType).
		WithContext("supported", AllExerciseTypes())
}

func NewLLMServiceError(cause error) *DomainError {
	return NewError(CodeLLMServiceError, "Failed to process with LLM service", cause)
}

func NewMalformedAIResponseError(cause error) *DomainError {
	return NewError(CodeMalformedAIResponse, "The AI returned an exercise that could not be used", cause)
}

// ValidationError describes a single invalid request field.
type ValidationError struct {
	Field   string      `json:"field"`
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in one request.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func NewMissingFieldError(field string) ValidationError {
	return ValidationError{
		Field:   field,
		Code:    CodeMissingField,
		Message: fmt.Sprintf("%s is required", field),
	}
}

func NewInvalidFormatError(field string, value interface{}) ValidationError {
	return ValidationError{
		Field:   field,
		Code:    CodeInvalidFormat,
		Message: fmt.Sprintf("%s has an invalid format", field),
		Value:   value,
	}
}

func NewOutOfRangeError(field string, value interface{}, min, max int) ValidationError {
	return ValidationError{
		Field:   field,
		Code:    CodeOutOfRange,
		Message: fmt.Sprintf("%s must be between %d and %d", field, min, max),
		Value:   value,
	}
}

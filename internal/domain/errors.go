package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeConflict         = "CONFLICT"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
)

// Not found errors
var (
	ErrInsightNotFound    = NewDomainError(ErrCodeNotFound, "insight not found")
	ErrAgentNotFound      = NewDomainError(ErrCodeNotFound, "agent not found")
	ErrValidationNotFound = NewDomainError(ErrCodeNotFound, "validation not found")
)

// Forbidden errors
var (
	ErrSelfValidation  = NewDomainError(ErrCodeForbidden, "agents may not validate their own insights")
	ErrInsightNotOwned = NewDomainError(ErrCodeForbidden, "insight belongs to another agent")
)

// Validation errors
var (
	ErrMissingRequiredField    = NewDomainError(ErrCodeValidation, "missing required field")
	ErrInvalidValidationSignal = NewDomainError(ErrCodeValidation, "invalid validation signal")
	ErrInvalidConfidence       = NewDomainError(ErrCodeValidation, "confidence must be between 0 and 1")
)

// DuplicateError is returned when an insight write is rejected because an
// existing insight's embedding is too similar. It names the colliding insight
// so the caller can inspect or amend instead of blindly resubmitting.
type DuplicateError struct {
	ExistingID string
	Similarity float64
}

// Error implements the error interface
func (e *DuplicateError) Error() string {
	return fmt.Sprintf("[%s] near-duplicate of existing insight %s (similarity %.2f)",
		ErrCodeConflict, e.ExistingID, e.Similarity)
}

// NewDuplicateError creates a DuplicateError naming the existing insight
func NewDuplicateError(existingID string, similarity float64) *DuplicateError {
	return &DuplicateError{ExistingID: existingID, Similarity: similarity}
}

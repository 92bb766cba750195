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
	ErrCodeAlreadyExists    = "ALREADY_EXISTS"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
)

// Validation errors
var (
	ErrInvalidDocumentStatus = NewDomainError(ErrCodeValidation, "invalid document status")
	ErrInvalidContentState   = NewDomainError(ErrCodeValidation, "invalid document content state")
	ErrInvalidSearchStrategy = NewDomainError(ErrCodeValidation, "invalid search strategy")
	ErrInvalidChunkStrategy  = NewDomainError(ErrCodeValidation, "invalid chunk strategy")
	ErrMissingRequiredField  = NewDomainError(ErrCodeValidation, "missing required field")
)

// Not found errors
var (
	ErrDocumentNotFound       = NewDomainError(ErrCodeNotFound, "document not found")
	ErrTitleEmbeddingNotFound = NewDomainError(ErrCodeNotFound, "title embedding not found")
	ErrIndexingJobNotFound    = NewDomainError(ErrCodeNotFound, "indexing job not found")
)

// Conflict errors
var (
	ErrDocumentAlreadyExists = NewDomainError(ErrCodeAlreadyExists, "document already exists in another organization")
)

// Operation errors
var (
	ErrDocumentDeleted        = NewDomainError(ErrCodeInvalidOperation, "document has been deleted")
	ErrEmbeddingCountMismatch = NewDomainError(ErrCodeInternalError, "embedding count does not match chunk count")
	ErrStorageOperationFail   = NewDomainError(ErrCodeInternalError, "storage operation failed")
)

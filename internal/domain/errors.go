package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business logic error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Domain validation errors
const (
	ErrCodeInvalidStatus        = "INVALID_STATUS"
	ErrCodeEmptyUpdate          = "EMPTY_UPDATE"
	ErrCodeInvalidTransition    = "INVALID_TRANSITION"
	ErrCodeOrderNotFound        = "ORDER_NOT_FOUND"
	ErrCodeBookNotFound         = "BOOK_NOT_FOUND"
	ErrCodeDuplicateTransaction = "DUPLICATE_TRANSACTION"
	ErrCodeMissingRequiredField = "MISSING_REQUIRED_FIELD"
)

func NewInvalidStatusError(status string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidStatus,
		Message: "Invalid status value",
		Err:     fmt.Errorf("status %q is not allowed", status),
	}
}

func NewEmptyUpdateError() *DomainError {
	return &DomainError{
		Code:    ErrCodeEmptyUpdate,
		Message: "No valid update field provided",
	}
}

func NewInvalidTransitionError(from, to OrderStatus) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

func NewOrderNotFoundError(id string) *DomainError {
	return &DomainError{
		Code:    ErrCodeOrderNotFound,
		Message: fmt.Sprintf("order with ID %s not found", id),
	}
}

func NewBookNotFoundError(id string) *DomainError {
	return &DomainError{
		Code:    ErrCodeBookNotFound,
		Message: "Book not found",
		Err:     fmt.Errorf("book with ID %s not found", id),
	}
}

func NewDuplicateTransactionError(transactionID string) *DomainError {
	return &DomainError{
		Code:    ErrCodeDuplicateTransaction,
		Message: fmt.Sprintf("payment for transaction %s already recorded", transactionID),
	}
}

func NewMissingRequiredFieldError(field string) *DomainError {
	return &DomainError{
		Code:    ErrCodeMissingRequiredField,
		Message: fmt.Sprintf("%s is required", field),
	}
}

// IsErrorCode checks if an error is a DomainError with a specific code
func IsErrorCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

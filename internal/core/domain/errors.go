// internal/core/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services, repositories and handlers.
var (
	// ErrItemNotFound is returned when a referenced inventory item does not exist.
	ErrItemNotFound = errors.New("inventory item not found")

	// ErrInsufficientStock is returned when a sale requests more units than are on hand.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrDuplicateReturn is returned when an invoice already has a return request.
	ErrDuplicateReturn = errors.New("a return already exists for this invoice")

	// ErrReturnNotFound is returned when a return request does not exist.
	ErrReturnNotFound = errors.New("return request not found")

	// ErrSaleNotFound is returned when an invoice number resolves to no sale.
	ErrSaleNotFound = errors.New("sale not found")

	// ErrCustomerNotFound is returned when a non-walk-in customer id does not exist.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrTransientConnection is returned after connection retries are exhausted.
	ErrTransientConnection = errors.New("transient database connection failure")

	// ErrConstraintViolation is returned when the database rejects a write with
	// a unique or check constraint violation.
	ErrConstraintViolation = errors.New("constraint violation")
)

// ValidationError carries a field-level message for a rejected request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

package services

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrVendorNotFound   = errors.New("vendor not found")
	ErrAlertNotFound    = errors.New("alert not found")
	ErrProductInUse     = errors.New("product is referenced by existing orders")
)

// Kind classifies an error for callers that need to map it onto a transport.
type Kind string

const (
	KindValidation        Kind = "validation_error"
	KindNotFound          Kind = "not_found"
	KindInsufficientStock Kind = "insufficient_stock"
	KindConflict          Kind = "conflict"
	KindStorage           Kind = "storage_failure"
	KindUnauthenticated   Kind = "unauthenticated"
)

// ValidationError rejects input before any transaction is opened.
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

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// InsufficientStockError aborts the transaction it was raised in.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s. Available: %d, requested: %d.", e.ProductName, e.Available, e.Requested)
}

// StorageError wraps a failure of the underlying store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

func storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// KindOf reports the class of err. Anything unrecognised is a storage failure.
func KindOf(err error) Kind {
	var (
		validation   *ValidationError
		insufficient *InsufficientStockError
	)
	switch {
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &insufficient):
		return KindInsufficientStock
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrOrderNotFound),
		errors.Is(err, ErrCustomerNotFound), errors.Is(err, ErrVendorNotFound),
		errors.Is(err, ErrAlertNotFound):
		return KindNotFound
	case errors.Is(err, ErrProductInUse):
		return KindConflict
	default:
		return KindStorage
	}
}

package ledger

import "errors"

// Validation errors. Raised before any transaction is opened, so a caller
// seeing one of these knows zero writes took place.
var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidRate     = errors.New("rate must be positive")
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrMissingVehicle  = errors.New("weight sale requires a vehicle")
	ErrInvalidSaleType = errors.New("invalid sale type")
	ErrInvalidPayment  = errors.New("invalid payment type")
)

// Precondition errors. Raised inside the transaction after the relevant
// read, so the check is always against live state.
var (
	ErrCustomerNotFound         = errors.New("customer not found")
	ErrVehicleNotFound          = errors.New("vehicle not found")
	ErrSaleNotFound             = errors.New("sale not found")
	ErrPaymentNotFound          = errors.New("payment not found")
	ErrNoTrackingFound          = errors.New("no cylinder tracking record for customer")
	ErrReturnExceedsOutstanding = errors.New("returned cylinders exceed outstanding")
	ErrOutstandingNotZero       = errors.New("cylinders outstanding is not zero")
	ErrHasOutstandingBalance    = errors.New("customer has outstanding balance")
	ErrHasOutstandingCylinders  = errors.New("customer has outstanding cylinders")
	ErrVehicleHasPendingSales   = errors.New("vehicle has pending sales")
)

// Infrastructure errors.
var (
	// ErrCounterMissing means the transaction counter row was never
	// provisioned. Migration 001 seeds it; hitting this in production is a
	// deployment fault, not a user error.
	ErrCounterMissing = errors.New("transaction counter not provisioned")

	// ErrTransactionConflict is returned after the bounded retry budget for
	// serialization conflicts is exhausted.
	ErrTransactionConflict = errors.New("transaction conflict: retries exhausted")
)

// IsNotFound reports whether err is a missing-record precondition failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrVehicleNotFound) ||
		errors.Is(err, ErrSaleNotFound) ||
		errors.Is(err, ErrPaymentNotFound) ||
		errors.Is(err, ErrNoTrackingFound)
}

// IsValidation reports whether err is a bad-input failure raised before any
// transaction was opened.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidRate) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrMissingVehicle) ||
		errors.Is(err, ErrInvalidSaleType) ||
		errors.Is(err, ErrInvalidPayment)
}

// IsStateConflict reports whether err means the operation is legal in shape
// but the current state refuses it.
func IsStateConflict(err error) bool {
	return errors.Is(err, ErrReturnExceedsOutstanding) ||
		errors.Is(err, ErrOutstandingNotZero) ||
		errors.Is(err, ErrHasOutstandingBalance) ||
		errors.Is(err, ErrHasOutstandingCylinders) ||
		errors.Is(err, ErrVehicleHasPendingSales)
}

// IsRetryable reports whether the caller may retry the whole operation.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransactionConflict)
}

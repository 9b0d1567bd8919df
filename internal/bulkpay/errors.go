package bulkpay

import "errors"

var (
	// ErrNotFound indicates a missing bulk payment.
	ErrNotFound = errors.New("bulkpay: bulk payment not found")
	// ErrLocked indicates another allocation for the same payer is in
	// flight.
	ErrLocked = errors.New("bulkpay: allocation already in progress for payer")
	// ErrNoMethods indicates a bulk payment without payment methods.
	ErrNoMethods = errors.New("bulkpay: at least one payment method required")
)

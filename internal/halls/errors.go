package halls

import "errors"

var (
	// ErrBookingNotFound indicates a missing hall booking.
	ErrBookingNotFound = errors.New("halls: booking not found")
	// ErrPaymentNotFound indicates a missing payment.
	ErrPaymentNotFound = errors.New("halls: payment not found")
	// ErrInvalidGuests indicates a guest count below one.
	ErrInvalidGuests = errors.New("halls: guest count must be positive")
)

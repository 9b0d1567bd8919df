package shared

import "errors"

var (
	// ErrUnbalanced indicates a booking whose debit and credit totals differ.
	ErrUnbalanced = errors.New("ledger: booking lines must balance")
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = errors.New("ledger: booking requires at least two lines")
	// ErrLineBothSides indicates a line with both or neither side populated.
	ErrLineBothSides = errors.New("ledger: line must carry exactly one of debit or credit")
	// ErrNegativeAmount indicates a negative monetary amount.
	ErrNegativeAmount = errors.New("ledger: amount must not be negative")
	// ErrBookingNotFound indicates a missing booking header.
	ErrBookingNotFound = errors.New("ledger: booking not found")
	// ErrAccountNotFound indicates a missing chart-of-accounts entry.
	ErrAccountNotFound = errors.New("ledger: account not found")
	// ErrInvalidAccountCode indicates a code that cannot be classified.
	ErrInvalidAccountCode = errors.New("ledger: invalid account code")
	// ErrRateNotFound indicates no exchange rate published for the requested date.
	ErrRateNotFound = errors.New("ledger: exchange rate not found")
	// ErrNoOpenObligations indicates an allocation pool with nothing to settle.
	ErrNoOpenObligations = errors.New("ledger: no open obligations to allocate against")
	// ErrPoolExceedsDue indicates a pool larger than the total outstanding amount.
	ErrPoolExceedsDue = errors.New("ledger: pool exceeds total amount due")
	// ErrUnallocatedRemainder indicates money left over after the allocation loop.
	ErrUnallocatedRemainder = errors.New("ledger: unallocated remainder after allocation")
	// ErrObligationOverpaid indicates a payment that would drive remaining below zero.
	ErrObligationOverpaid = errors.New("ledger: payment exceeds remaining amount")
	// ErrMethodsMismatch indicates payment method sub-amounts that do not sum to the pool.
	ErrMethodsMismatch = errors.New("ledger: payment methods must sum to the total amount")
	// ErrReversalIncomplete indicates posted lines expected by a reversal are missing.
	ErrReversalIncomplete = errors.New("ledger: reversal could not locate posted lines")
	// ErrOutOfBalance indicates the ledger itself failed the assets = liabilities + equity check.
	ErrOutOfBalance = errors.New("ledger: balance sheet does not reconcile")
	// ErrInvalidStatus indicates a document transition that is not allowed.
	ErrInvalidStatus = errors.New("ledger: invalid status transition")
)

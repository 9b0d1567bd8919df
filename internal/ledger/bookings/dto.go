package bookings

import (
	"time"

	"github.com/google/uuid"

	"github.com/venue-erp/venue-erp/internal/ledger/shared"
)

// LineInput describes one leg of a booking to be written.
type LineInput struct {
	AccountID   int64
	Type        LineType
	DrAmount    float64
	CrAmount    float64
	Description string
	Origin      Origin
	Ref         uuid.UUID
}

// CreateInput describes a full booking: header plus balanced lines.
type CreateInput struct {
	Reference string
	Source    string
	Date      time.Time
	Amount    float64
	Origin    Origin
	Lines     []LineInput
}

// Validate enforces the double-entry invariants before anything is
// written: at least two lines, one populated side per line, and debit
// and credit totals equal at two decimal places.
func (in CreateInput) Validate() error {
	if len(in.Lines) < 2 {
		return shared.ErrTooFewLines
	}
	var dr, cr float64
	for _, l := range in.Lines {
		if l.DrAmount < 0 || l.CrAmount < 0 {
			return shared.ErrNegativeAmount
		}
		switch l.Type {
		case LineDebit:
			if l.DrAmount == 0 || l.CrAmount != 0 {
				return shared.ErrLineBothSides
			}
		case LineCredit:
			if l.CrAmount == 0 || l.DrAmount != 0 {
				return shared.ErrLineBothSides
			}
		default:
			return shared.ErrLineBothSides
		}
		dr += l.DrAmount
		cr += l.CrAmount
	}
	if !shared.SameAmount(dr, cr) {
		return shared.ErrUnbalanced
	}
	return nil
}

// ListFilter narrows booking listings.
type ListFilter struct {
	Source string
	Status PaymentStatus
	Limit  int
}

package allocation

import (
	"github.com/google/uuid"

	"github.com/venue-erp/venue-erp/internal/ledger/bookings"
	"github.com/venue-erp/venue-erp/internal/ledger/shared"
)

// Direction says which way the money moves in a bulk event.
type Direction string

const (
	// Incoming collects receivables: dr payment methods, cr control.
	Incoming Direction = "incoming"
	// Outgoing settles payables: dr control, cr payment methods.
	Outgoing Direction = "outgoing"
)

// Method is one payment instrument and its share of the pool.
type Method struct {
	AccountID int64
	Amount    float64
}

// PostingInput describes the single booking posted for one bulk event.
type PostingInput struct {
	Direction        Direction
	Methods          []Method
	ControlAccountID int64
	Pool             float64
	Description      string
	Origin           bookings.Origin
	Ref              uuid.UUID
}

// PostingLines builds the balanced legs for a bulk payment event: one
// leg per payment method against a single aggregate control-account
// leg, flipped by direction. Method sub-amounts must sum to the pool.
func PostingLines(in PostingInput) ([]bookings.LineInput, error) {
	if len(in.Methods) == 0 {
		return nil, shared.ErrMethodsMismatch
	}
	var sum float64
	for _, m := range in.Methods {
		if m.Amount < 0 {
			return nil, shared.ErrNegativeAmount
		}
		sum += m.Amount
	}
	if !shared.SameAmount(sum, in.Pool) {
		return nil, shared.ErrMethodsMismatch
	}

	methodType, controlType := bookings.LineDebit, bookings.LineCredit
	if in.Direction == Outgoing {
		methodType, controlType = bookings.LineCredit, bookings.LineDebit
	}

	var lines []bookings.LineInput
	for _, m := range in.Methods {
		l := bookings.LineInput{
			AccountID:   m.AccountID,
			Type:        methodType,
			Description: in.Description,
			Origin:      in.Origin,
			Ref:         in.Ref,
		}
		if methodType == bookings.LineDebit {
			l.DrAmount = shared.Round2(m.Amount)
		} else {
			l.CrAmount = shared.Round2(m.Amount)
		}
		lines = append(lines, l)
	}
	control := bookings.LineInput{
		AccountID:   in.ControlAccountID,
		Type:        controlType,
		Description: in.Description,
		Origin:      in.Origin,
		Ref:         in.Ref,
	}
	if controlType == bookings.LineDebit {
		control.DrAmount = shared.Round2(in.Pool)
	} else {
		control.CrAmount = shared.Round2(in.Pool)
	}
	return append(lines, control), nil
}

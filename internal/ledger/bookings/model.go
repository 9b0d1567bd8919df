// Package bookings is the ledger store. A booking is a transaction
// header carrying a sequence-assigned number; its lines are the
// double-entry legs. Every booking must balance to the cent.
package bookings

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OriginKind tags the document family a booking or line came from.
type OriginKind string

const (
	OriginSaleOrder     OriginKind = "sale_order"
	OriginSaleReturn    OriginKind = "sale_return"
	OriginHallBooking   OriginKind = "hall_booking"
	OriginHallPayment   OriginKind = "hall_payment"
	OriginBulkPayment   OriginKind = "bulk_payment"
	OriginVendorTx      OriginKind = "vendor_transaction"
	OriginSalaryAdvance OriginKind = "salary_advance"
)

// Origin is the single source-document link. Reversal dispatches on
// Kind exhaustively; an unknown kind is a programming error.
type Origin struct {
	Kind OriginKind
	ID   int64
}

func (o Origin) IsZero() bool {
	return o.Kind == "" && o.ID == 0
}

func (o Origin) String() string {
	return fmt.Sprintf("%s:%d", o.Kind, o.ID)
}

// PaymentStatus tracks settlement progress on the booking header.
type PaymentStatus string

const (
	PaymentPending     PaymentStatus = "pending"
	PaymentPartialPaid PaymentStatus = "partial_paid"
	PaymentPaid        PaymentStatus = "paid"
)

// StatusFor derives the payment status from amounts.
func StatusFor(total, paid float64) PaymentStatus {
	switch {
	case paid <= 0:
		return PaymentPending
	case paid < total:
		return PaymentPartialPaid
	default:
		return PaymentPaid
	}
}

// LineType marks which side of the ledger a line sits on.
type LineType string

const (
	LineDebit  LineType = "dr"
	LineCredit LineType = "cr"
)

// Booking is a transaction header.
type Booking struct {
	ID                int64
	TransactionNumber int64
	Reference         string
	Source            string
	Date              time.Time
	Amount            float64
	AmountPaid        float64
	RemainingAmount   float64
	PaymentStatus     PaymentStatus
	Origin            Origin
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Line is one double-entry leg. Exactly one of DrAmount/CrAmount is
// non-zero, matching Type. Ref groups lines written by one payment
// event so reversal can remove them together.
type Line struct {
	ID          int64
	BookingID   int64
	AccountID   int64
	Type        LineType
	DrAmount    float64
	CrAmount    float64
	Date        time.Time
	Description string
	Origin      Origin
	Ref         uuid.UUID
	CreatedAt   time.Time
}

// Amount returns the populated side of the line.
func (l Line) Amount() float64 {
	if l.Type == LineDebit {
		return l.DrAmount
	}
	return l.CrAmount
}

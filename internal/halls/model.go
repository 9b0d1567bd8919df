// Package halls manages hall (venue) bookings and their payments. A
// confirmed hall booking posts receivable against income for the full
// amount; each payment posts its own balanced booking moving money
// from the payment method to the receivable. Edits to confirmed
// documents go through unwind and repost, never line surgery.
package halls

import (
	"time"

	"github.com/google/uuid"

	"github.com/venue-erp/venue-erp/internal/ledger/bookings"
	"github.com/venue-erp/venue-erp/internal/ledger/shared"
)

// Status is the hall booking lifecycle. A posted booking is "booked"
// while money is outstanding and "confirmed" once fully paid.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusBooked    Status = "booked"
	StatusConfirmed Status = "confirmed"
	StatusCanceled  Status = "canceled"
)

// HallBooking is an event reservation and an open obligation: guests
// times rate is owed by the customer until payments cover it.
type HallBooking struct {
	ID                  int64
	Ref                 uuid.UUID
	HallID              int64
	CustomerID          int64
	Currency            string
	EventDate           time.Time
	Guests              int
	Rate                float64
	Total               float64
	Paid                float64
	Status              Status
	ReceivableAccountID int64
	IncomeAccountID     int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Due returns the open amount on the booking.
func (b HallBooking) Due() float64 {
	return shared.Round2(b.Total - b.Paid)
}

func (b HallBooking) Origin() bookings.Origin {
	return bookings.Origin{Kind: bookings.OriginHallBooking, ID: b.ID}
}

// postedStatus derives booked vs confirmed from the paid amount.
func (b HallBooking) postedStatus() Status {
	if shared.SameAmount(b.Paid, b.Total) {
		return StatusConfirmed
	}
	return StatusBooked
}

// Payment is one settlement event against a hall booking. It carries
// its own ledger footprint under the hall_payment origin.
type Payment struct {
	ID        int64
	BookingID int64
	Ref       uuid.UUID
	Date      time.Time
	AccountID int64 // cash or bank account the money arrived on
	Amount    float64
	Status    Status
	CreatedAt time.Time
}

func (p Payment) Origin() bookings.Origin {
	return bookings.Origin{Kind: bookings.OriginHallPayment, ID: p.ID}
}

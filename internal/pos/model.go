// Package pos handles point-of-sale orders and customer sale returns.
// Confirming an order posts its double-entry footprint; editing a
// confirmed order runs through the reversal protocol instead of
// touching posted lines.
package pos

import (
	"time"

	"github.com/google/uuid"

	"github.com/venue-erp/venue-erp/internal/ledger/bookings"
	"github.com/venue-erp/venue-erp/internal/ledger/shared"
)

// Status is the order/return lifecycle.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusConfirmed Status = "confirmed"
	StatusCanceled  Status = "canceled"
)

// SaleOrder is both a sales document and an open obligation: Total
// minus Paid is what the customer still owes, settled later by bulk
// waiter collections or direct payments.
type SaleOrder struct {
	ID              int64
	Ref             uuid.UUID
	CustomerID      int64
	WaiterID        int64
	Currency        string
	Date            time.Time
	DebitAccountID  int64 // cash or customer receivable
	IncomeAccountID int64
	Total           float64
	Paid            float64
	Status          Status
	Lines           []SaleLine
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Due returns the open amount on the order.
func (o SaleOrder) Due() float64 {
	return shared.Round2(o.Total - o.Paid)
}

// PaymentStatus derives the settlement state from amounts.
func (o SaleOrder) PaymentStatus() bookings.PaymentStatus {
	return bookings.StatusFor(o.Total, o.Paid)
}

func (o SaleOrder) Origin() bookings.Origin {
	return bookings.Origin{Kind: bookings.OriginSaleOrder, ID: o.ID}
}

// SaleLine is one product position on an order.
type SaleLine struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Name      string
	Quantity  float64
	Price     float64
}

// Subtotal is quantity times price at currency precision.
func (l SaleLine) Subtotal() float64 {
	return shared.Round2(l.Quantity * l.Price)
}

// SaleReturn reverses part of a confirmed order. The exchange rate is
// captured at the return date, not the order date.
type SaleReturn struct {
	ID        int64
	OrderID   int64
	Date      time.Time
	Rate      float64
	Total     float64
	Status    Status
	Lines     []ReturnLine
	CreatedAt time.Time
}

func (r SaleReturn) Origin() bookings.Origin {
	return bookings.Origin{Kind: bookings.OriginSaleReturn, ID: r.ID}
}

// ReturnLine is one returned product position, priced from the order.
type ReturnLine struct {
	ID        int64
	ReturnID  int64
	ProductID int64
	Quantity  float64
	Price     float64
}

func (l ReturnLine) Subtotal() float64 {
	return shared.Round2(l.Quantity * l.Price)
}

package pos

import (
	"time"

	"github.com/venue-erp/venue-erp/internal/ledger/shared"
)

// LineInput is one product position on an incoming order.
type LineInput struct {
	ProductID int64
	Name      string
	Quantity  float64
	Price     float64
}

// CreateOrderInput opens a draft sale order.
type CreateOrderInput struct {
	CustomerID      int64
	WaiterID        int64
	Currency        string
	Date            time.Time
	DebitAccountID  int64
	IncomeAccountID int64
	Lines           []LineInput
}

// Validate checks the order shape before it is stored.
func (in CreateOrderInput) Validate() error {
	if len(in.Lines) == 0 {
		return ErrNoLines
	}
	for _, l := range in.Lines {
		if l.Quantity <= 0 || l.Price < 0 {
			return shared.ErrNegativeAmount
		}
	}
	if in.DebitAccountID == 0 || in.IncomeAccountID == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}

// Total sums the line subtotals at currency precision.
func (in CreateOrderInput) Total() float64 {
	var t float64
	for _, l := range in.Lines {
		t += shared.Round2(l.Quantity * l.Price)
	}
	return shared.Round2(t)
}

// ReturnLineInput is one returned quantity; the price comes from the
// original order line.
type ReturnLineInput struct {
	ProductID int64
	Quantity  float64
}

// CreateReturnInput registers a return against a confirmed order.
type CreateReturnInput struct {
	OrderID int64
	Date    time.Time
	Lines   []ReturnLineInput
}

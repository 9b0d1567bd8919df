// Package bulkpay settles many open obligations with one payment
// pool: waiter collections against sale orders, vendor settlements
// against vendor transactions, and salary advance recoveries. One
// confirmed bulk payment posts exactly one balanced booking.
package bulkpay

import (
	"time"

	"github.com/google/uuid"

	"github.com/venue-erp/venue-erp/internal/ledger/allocation"
	"github.com/venue-erp/venue-erp/internal/ledger/bookings"
	"github.com/venue-erp/venue-erp/internal/ledger/shared"
)

// PayerKind says whose obligations the pool settles.
type PayerKind string

const (
	// PayerWaiter collects customer receivables a waiter is carrying.
	PayerWaiter PayerKind = "waiter"
	// PayerVendor settles what the venue owes a vendor.
	PayerVendor PayerKind = "vendor"
	// PayerEmployee recovers outstanding salary advances.
	PayerEmployee PayerKind = "employee"
)

// Direction maps the payer kind onto the posting direction: vendor
// settlements are money out, everything else is money in.
func (k PayerKind) Direction() allocation.Direction {
	if k == PayerVendor {
		return allocation.Outgoing
	}
	return allocation.Incoming
}

// ObligationKind is the origin family this payer's obligations use.
func (k PayerKind) ObligationKind() bookings.OriginKind {
	switch k {
	case PayerVendor:
		return bookings.OriginVendorTx
	case PayerEmployee:
		return bookings.OriginSalaryAdvance
	default:
		return bookings.OriginSaleOrder
	}
}

// Status is the bulk payment lifecycle. Confirmed is terminal except
// through the unwind path.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusConfirmed Status = "confirmed"
)

// BulkPayment is one pool of money plus the record of how it was
// spread across obligations.
type BulkPayment struct {
	ID               int64
	Ref              uuid.UUID
	PayerKind        PayerKind
	PayerID          int64
	Date             time.Time
	Pool             float64
	ControlAccountID int64
	Status           Status
	Methods          []allocation.Method
	Allocations      []AllocationLine
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (b BulkPayment) Origin() bookings.Origin {
	return bookings.Origin{Kind: bookings.OriginBulkPayment, ID: b.ID}
}

// AllocationLine records one obligation's share of a confirmed pool.
type AllocationLine struct {
	ID             int64
	BulkID         int64
	ObligationKind bookings.OriginKind
	ObligationID   int64
	Amount         float64
}

// VendorTransaction is an amount owed to a vendor, settled by vendor
// bulk payments.
type VendorTransaction struct {
	ID               int64
	VendorID         int64
	Reference        string
	Date             time.Time
	Total            float64
	Paid             float64
	PayableAccountID int64
	CreatedAt        time.Time
}

func (v VendorTransaction) Due() float64 {
	return shared.Round2(v.Total - v.Paid)
}

// SalaryAdvance is money advanced to an employee, recovered through
// employee bulk payments.
type SalaryAdvance struct {
	ID                  int64
	EmployeeID          int64
	Date                time.Time
	Total               float64
	Paid                float64
	ReceivableAccountID int64
	CreatedAt           time.Time
}

func (a SalaryAdvance) Due() float64 {
	return shared.Round2(a.Total - a.Paid)
}

// Package allocation spreads a payment pool across open obligations.
// The split is deterministic: oldest obligation first, each one paid
// up to its remaining amount, until the pool is exhausted.
package allocation

import (
	"github.com/venue-erp/venue-erp/internal/ledger/bookings"
	"github.com/venue-erp/venue-erp/internal/ledger/shared"
)

// Obligation is an open balance owed by or to a counterparty. Kind and
// ID identify the owning document; callers supply obligations already
// ordered oldest first.
type Obligation struct {
	Kind  bookings.OriginKind
	ID    int64
	Label string
	Total float64
	Paid  float64
}

// Due returns the remaining amount on the obligation.
func (o Obligation) Due() float64 {
	return shared.Round2(o.Total - o.Paid)
}

func (o Obligation) Origin() bookings.Origin {
	return bookings.Origin{Kind: o.Kind, ID: o.ID}
}

// Allocation records how much of the pool one obligation received.
type Allocation struct {
	Obligation Obligation
	PaidNow    float64
	Closes     bool
}

// Allocate splits pool across the obligations in order. The total due
// is computed fresh from the slice before anything is assigned; a pool
// larger than that total fails the whole allocation up front, so no
// obligation is ever touched by a rejected pool.
func Allocate(obligations []Obligation, pool float64) ([]Allocation, error) {
	if pool < 0 {
		return nil, shared.ErrNegativeAmount
	}
	pool = shared.Round2(pool)

	var totalDue float64
	open := 0
	for _, o := range obligations {
		if o.Due() > 0 {
			open++
			totalDue += o.Due()
		}
	}
	totalDue = shared.Round2(totalDue)
	if open == 0 {
		return nil, shared.ErrNoOpenObligations
	}
	if pool > totalDue && !shared.SameAmount(pool, totalDue) {
		return nil, shared.ErrPoolExceedsDue
	}

	remaining := pool
	var out []Allocation
	for _, o := range obligations {
		if remaining <= 0 {
			break
		}
		due := o.Due()
		if due <= 0 {
			continue
		}
		pay := due
		if remaining < due {
			pay = remaining
		}
		pay = shared.Round2(pay)
		out = append(out, Allocation{
			Obligation: o,
			PaidNow:    pay,
			Closes:     shared.SameAmount(pay, due),
		})
		remaining = shared.Round2(remaining - pay)
	}
	if remaining > 0 && !shared.SameAmount(remaining, 0) {
		return nil, shared.ErrUnallocatedRemainder
	}

	// Conservation: what went out equals what came in.
	var assigned float64
	for _, a := range out {
		assigned += a.PaidNow
	}
	if !shared.SameAmount(assigned, pool) {
		return nil, shared.ErrUnallocatedRemainder
	}
	return out, nil
}

// Apply advances one obligation by an allocated amount, guarding
// against overpayment past its remaining balance.
func Apply(o Obligation, paidNow float64) (Obligation, error) {
	if paidNow < 0 {
		return o, shared.ErrNegativeAmount
	}
	due := o.Due()
	if paidNow > due && !shared.SameAmount(paidNow, due) {
		return o, shared.ErrObligationOverpaid
	}
	o.Paid = shared.Round2(o.Paid + paidNow)
	return o, nil
}

// Package reversal implements the unwind-and-repost protocol used to
// edit confirmed documents. A confirmed document is never mutated in
// place: its postings are removed, its obligation contributions rolled
// back, the edit applied to the draft, and the document reposted
// through its normal confirm path. The whole sequence runs inside the
// caller's transaction, so a failed edit leaves the document exactly
// as it was.
package reversal

import (
	"context"
	"fmt"

	"github.com/venue-erp/venue-erp/internal/ledger/bookings"
	"github.com/venue-erp/venue-erp/internal/ledger/shared"
)

// Contribution is an amount this document added to some obligation's
// paid total when it was confirmed.
type Contribution struct {
	Obligation bookings.Origin
	Amount     float64
}

// Document is a confirmed source document that knows how to undo and
// redo itself. Implementations run against the same transaction the
// orchestrator was given.
type Document interface {
	Origin() bookings.Origin
	// Contributions lists the obligation amounts this document's
	// confirmation added, to be subtracted during unwind.
	Contributions(ctx context.Context) ([]Contribution, error)
	// Demote flips the document back to draft.
	Demote(ctx context.Context) error
	// Repost runs the document's normal confirm path again.
	Repost(ctx context.Context) error
}

// LedgerPort is the slice of the ledger store the unwind needs.
type LedgerPort interface {
	FindLinesByOrigin(ctx context.Context, origin bookings.Origin) ([]bookings.Line, error)
	DeleteLinesByOrigin(ctx context.Context, origin bookings.Origin) (int64, error)
	DeleteBookingIfEmpty(ctx context.Context, id int64) (bool, error)
}

// ObligationPort rolls back paid amounts on obligations the document
// contributed to.
type ObligationPort interface {
	SubtractPaid(ctx context.Context, obligation bookings.Origin, amount float64) error
}

// Unwind removes a confirmed document's footprint: ledger lines gone,
// obligation contributions subtracted, document back to draft. The
// document's posted lines must exist; an empty footprint on a document
// that claims to be confirmed means the ledger and the document have
// diverged, and the unwind refuses to guess.
func Unwind(ctx context.Context, doc Document, ledger LedgerPort, obligations ObligationPort) error {
	origin := doc.Origin()

	lines, err := ledger.FindLinesByOrigin(ctx, origin)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return fmt.Errorf("%w: %s", shared.ErrReversalIncomplete, origin)
	}

	contribs, err := doc.Contributions(ctx)
	if err != nil {
		return err
	}
	for _, c := range contribs {
		if c.Amount == 0 {
			continue
		}
		if err := obligations.SubtractPaid(ctx, c.Obligation, c.Amount); err != nil {
			return err
		}
	}

	if _, err := ledger.DeleteLinesByOrigin(ctx, origin); err != nil {
		return err
	}
	touched := map[int64]struct{}{}
	for _, l := range lines {
		touched[l.BookingID] = struct{}{}
	}
	for id := range touched {
		if _, err := ledger.DeleteBookingIfEmpty(ctx, id); err != nil {
			return err
		}
	}

	return doc.Demote(ctx)
}

// Rerun performs the full edit cycle: unwind, apply the edit to the
// draft, repost. An applyEdit of nil reposts unchanged; the reposted
// amounts must then be identical to what was unwound.
func Rerun(ctx context.Context, doc Document, ledger LedgerPort, obligations ObligationPort, applyEdit func(ctx context.Context) error) error {
	if err := Unwind(ctx, doc, ledger, obligations); err != nil {
		return err
	}
	if applyEdit != nil {
		if err := applyEdit(ctx); err != nil {
			return err
		}
	}
	return doc.Repost(ctx)
}

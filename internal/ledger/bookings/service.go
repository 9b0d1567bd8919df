package bookings

import (
	"context"
	"strconv"
	"time"

	"github.com/venue-erp/venue-erp/internal/ledger/shared"
	platform "github.com/venue-erp/venue-erp/internal/shared"
)

// AuditPort records who posted or deleted which booking.
type AuditPort interface {
	Record(ctx context.Context, log platform.AuditLog) error
}

// Service owns booking lifecycle operations.
type Service struct {
	repo  Repository
	audit AuditPort
	now   func() time.Time
}

func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// Create validates and writes a booking header with its lines in one
// transaction. The transaction number is assigned by the database.
func (s *Service) Create(ctx context.Context, in CreateInput) (Booking, error) {
	if in.Date.IsZero() {
		in.Date = s.now()
	}
	if err := in.Validate(); err != nil {
		return Booking{}, err
	}
	var booking Booking
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		b, err := tx.InsertBooking(ctx, in)
		if err != nil {
			return err
		}
		if err := tx.InsertLines(ctx, b.ID, in.Lines); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return Booking{}, err
	}
	s.recordAudit(ctx, "booking.create", booking.ID, map[string]any{
		"transaction_number": booking.TransactionNumber,
		"source":             booking.Source,
		"amount":             booking.Amount,
	})
	return booking, nil
}

// AddLines appends legs to an existing booking. The balance invariant
// is the caller's responsibility here; payment flows append dr and cr
// legs pairwise and are checked at their own layer.
func (s *Service) AddLines(ctx context.Context, bookingID int64, lines []LineInput) error {
	for _, l := range lines {
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
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, _, err := tx.GetWithLines(ctx, bookingID); err != nil {
			return err
		}
		return tx.InsertLines(ctx, bookingID, lines)
	})
}

func (s *Service) Get(ctx context.Context, id int64) (Booking, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) GetWithLines(ctx context.Context, id int64) (Booking, []Line, error) {
	return s.repo.GetWithLines(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Booking, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) FindLinesByOrigin(ctx context.Context, origin Origin) ([]Line, error) {
	return s.repo.FindLinesByOrigin(ctx, origin)
}

// Delete removes a booking and its lines. Only reversal flows call
// this; there is no partial delete.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.DeleteBooking(ctx, id)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "booking.delete", id, nil)
	return nil
}

// RegisterPayment moves the header's paid/remaining forward and keeps
// the status in step.
func (s *Service) RegisterPayment(ctx context.Context, id int64, paidTotal float64) error {
	if paidTotal < 0 {
		return shared.ErrNegativeAmount
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdatePaymentProgress(ctx, id, shared.Round2(paidTotal))
	})
}

func (s *Service) recordAudit(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, platform.AuditLog{
		Action:   action,
		Entity:   "booking",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}

package halls

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/venue-erp/venue-erp/internal/ledger/allocation"
	"github.com/venue-erp/venue-erp/internal/ledger/bookings"
	"github.com/venue-erp/venue-erp/internal/ledger/reversal"
	"github.com/venue-erp/venue-erp/internal/ledger/shared"
	platform "github.com/venue-erp/venue-erp/internal/shared"
)

const sourceBooking = "Hall Booking"
const sourcePayment = "Hall Booking Payment"

// AuditPort records hall document activity.
type AuditPort interface {
	Record(ctx context.Context, log platform.AuditLog) error
}

// Service owns the hall booking lifecycle.
type Service struct {
	repo  Repository
	audit AuditPort
	now   func() time.Time
}

func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

func (s *Service) GetBooking(ctx context.Context, id int64) (HallBooking, error) {
	return s.repo.GetBooking(ctx, id)
}

func (s *Service) ListBookings(ctx context.Context, status Status, limit int) ([]HallBooking, error) {
	return s.repo.ListBookings(ctx, status, limit)
}

func (s *Service) ListPayments(ctx context.Context, bookingID int64) ([]Payment, error) {
	return s.repo.ListPayments(ctx, bookingID)
}

// Book opens a draft reservation; guests times rate fixes the total.
func (s *Service) Book(ctx context.Context, in CreateBookingInput) (HallBooking, error) {
	if in.Guests <= 0 {
		return HallBooking{}, ErrInvalidGuests
	}
	if in.Rate < 0 {
		return HallBooking{}, shared.ErrNegativeAmount
	}
	if in.ReceivableAccountID == 0 || in.IncomeAccountID == 0 {
		return HallBooking{}, shared.ErrAccountNotFound
	}
	if in.EventDate.IsZero() {
		in.EventDate = s.now()
	}
	total := shared.Round2(float64(in.Guests) * in.Rate)
	var booking HallBooking
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		booking, err = tx.InsertHallBooking(ctx, in, uuid.New(), total)
		return err
	})
	if err != nil {
		return HallBooking{}, err
	}
	return booking, nil
}

// Confirm posts the reservation: receivable debited and income
// credited for the full amount, and the booking moves to booked.
func (s *Service) Confirm(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		b, err := tx.GetBookingForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if b.Status != StatusDraft {
			return fmt.Errorf("%w: hall booking %d is %s", shared.ErrInvalidStatus, id, b.Status)
		}
		if err := s.postBooking(ctx, tx, b); err != nil {
			return err
		}
		return tx.UpdateBookingStatus(ctx, id, b.postedStatus())
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "hall_booking.confirm", id, nil)
	return nil
}

func (s *Service) postBooking(ctx context.Context, tx TxRepository, b HallBooking) error {
	in := bookings.CreateInput{
		Reference: b.Ref.String(),
		Source:    sourceBooking,
		Date:      b.EventDate,
		Amount:    b.Total,
		Origin:    b.Origin(),
		Lines: []bookings.LineInput{
			{
				AccountID:   b.ReceivableAccountID,
				Type:        bookings.LineDebit,
				DrAmount:    b.Total,
				Description: fmt.Sprintf("Hall booking %d, %d guests", b.ID, b.Guests),
				Origin:      b.Origin(),
				Ref:         b.Ref,
			},
			{
				AccountID:   b.IncomeAccountID,
				Type:        bookings.LineCredit,
				CrAmount:    b.Total,
				Description: fmt.Sprintf("Hall booking %d income", b.ID),
				Origin:      b.Origin(),
				Ref:         b.Ref,
			},
		},
	}
	if err := in.Validate(); err != nil {
		return err
	}
	posted, err := tx.InsertBooking(ctx, in)
	if err != nil {
		return err
	}
	return tx.InsertLines(ctx, posted.ID, in.Lines)
}

// RegisterPayment posts one settlement: debit the receiving cash or
// bank account, credit the receivable. The payment cannot exceed what
// is still due.
func (s *Service) RegisterPayment(ctx context.Context, bookingID, accountID int64, amount float64) (Payment, error) {
	if amount <= 0 {
		return Payment{}, shared.ErrNegativeAmount
	}
	var payment Payment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		b, err := tx.GetBookingForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.Status != StatusBooked && b.Status != StatusConfirmed {
			return fmt.Errorf("%w: hall booking %d is %s", shared.ErrInvalidStatus, bookingID, b.Status)
		}

		ob := allocation.Obligation{Kind: bookings.OriginHallBooking, ID: b.ID, Total: b.Total, Paid: b.Paid}
		ob, err = allocation.Apply(ob, amount)
		if err != nil {
			return err
		}

		payment, err = tx.InsertPayment(ctx, b.ID, uuid.New(), s.now(), accountID, amount)
		if err != nil {
			return err
		}
		if err := s.postPayment(ctx, tx, b, payment); err != nil {
			return err
		}
		if err := tx.UpdateBookingPaid(ctx, b.ID, ob.Paid); err != nil {
			return err
		}
		b.Paid = ob.Paid
		return tx.UpdateBookingStatus(ctx, b.ID, b.postedStatus())
	})
	if err != nil {
		return Payment{}, err
	}
	s.recordAudit(ctx, "hall_payment.register", payment.ID, map[string]any{"booking_id": bookingID, "amount": amount})
	return payment, nil
}

func (s *Service) postPayment(ctx context.Context, tx TxRepository, b HallBooking, p Payment) error {
	in := bookings.CreateInput{
		Reference: p.Ref.String(),
		Source:    sourcePayment,
		Date:      p.Date,
		Amount:    p.Amount,
		Origin:    p.Origin(),
		Lines: []bookings.LineInput{
			{
				AccountID:   p.AccountID,
				Type:        bookings.LineDebit,
				DrAmount:    p.Amount,
				Description: fmt.Sprintf("Payment on hall booking %d", b.ID),
				Origin:      p.Origin(),
				Ref:         p.Ref,
			},
			{
				AccountID:   b.ReceivableAccountID,
				Type:        bookings.LineCredit,
				CrAmount:    p.Amount,
				Description: fmt.Sprintf("Hall booking %d receivable settled", b.ID),
				Origin:      p.Origin(),
				Ref:         p.Ref,
			},
		},
	}
	if err := in.Validate(); err != nil {
		return err
	}
	posted, err := tx.InsertBooking(ctx, in)
	if err != nil {
		return err
	}
	return tx.InsertLines(ctx, posted.ID, in.Lines)
}

// AmendGuests changes the guest count. Draft bookings update in
// place; posted ones are unwound, edited, and reposted so the income
// and receivable legs always reflect the current total.
func (s *Service) AmendGuests(ctx context.Context, id int64, guests int) error {
	if guests <= 0 {
		return ErrInvalidGuests
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		b, err := tx.GetBookingForUpdate(ctx, id)
		if err != nil {
			return err
		}
		total := shared.Round2(float64(guests) * b.Rate)
		if total < b.Paid && !shared.SameAmount(total, b.Paid) {
			return shared.ErrObligationOverpaid
		}
		switch b.Status {
		case StatusDraft:
			return tx.UpdateBookingGuests(ctx, id, guests, total)
		case StatusBooked, StatusConfirmed:
			doc := &bookingDocument{svc: s, tx: tx, id: id}
			return reversal.Rerun(ctx, doc, tx, noObligations{}, func(ctx context.Context) error {
				return tx.UpdateBookingGuests(ctx, id, guests, total)
			})
		default:
			return fmt.Errorf("%w: hall booking %d is %s", shared.ErrInvalidStatus, id, b.Status)
		}
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "hall_booking.amend_guests", id, map[string]any{"guests": guests})
	return nil
}

// AmendPayment changes a payment's amount by unwinding its footprint
// and reposting it at the new value.
func (s *Service) AmendPayment(ctx context.Context, paymentID int64, amount float64) error {
	if amount <= 0 {
		return shared.ErrNegativeAmount
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.GetPaymentForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if p.Status != StatusConfirmed {
			return fmt.Errorf("%w: payment %d is %s", shared.ErrInvalidStatus, paymentID, p.Status)
		}
		doc := &paymentDocument{svc: s, tx: tx, payment: p}
		return reversal.Rerun(ctx, doc, tx, &bookingObligations{tx: tx}, func(ctx context.Context) error {
			return tx.UpdatePaymentAmount(ctx, paymentID, amount)
		})
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "hall_payment.amend", paymentID, map[string]any{"amount": amount})
	return nil
}

// RemovePayment unwinds a payment's footprint and cancels it.
func (s *Service) RemovePayment(ctx context.Context, paymentID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.GetPaymentForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if p.Status != StatusConfirmed {
			return fmt.Errorf("%w: payment %d is %s", shared.ErrInvalidStatus, paymentID, p.Status)
		}
		doc := &paymentDocument{svc: s, tx: tx, payment: p}
		if err := reversal.Unwind(ctx, doc, tx, &bookingObligations{tx: tx}); err != nil {
			return err
		}
		return tx.UpdatePaymentStatus(ctx, paymentID, StatusCanceled)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "hall_payment.remove", paymentID, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, platform.AuditLog{
		Action:   action,
		Entity:   "halls",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}

// bookingDocument adapts a hall booking to the reversal protocol.
type bookingDocument struct {
	svc *Service
	tx  TxRepository
	id  int64
}

func (d *bookingDocument) Origin() bookings.Origin {
	return bookings.Origin{Kind: bookings.OriginHallBooking, ID: d.id}
}

func (d *bookingDocument) Contributions(context.Context) ([]reversal.Contribution, error) {
	return nil, nil
}

func (d *bookingDocument) Demote(ctx context.Context) error {
	return d.tx.UpdateBookingStatus(ctx, d.id, StatusDraft)
}

func (d *bookingDocument) Repost(ctx context.Context) error {
	b, err := d.tx.GetBookingForUpdate(ctx, d.id)
	if err != nil {
		return err
	}
	if err := d.svc.postBooking(ctx, d.tx, b); err != nil {
		return err
	}
	return d.tx.UpdateBookingStatus(ctx, d.id, b.postedStatus())
}

// paymentDocument adapts a hall payment to the reversal protocol.
type paymentDocument struct {
	svc     *Service
	tx      TxRepository
	payment Payment
}

func (d *paymentDocument) Origin() bookings.Origin { return d.payment.Origin() }

func (d *paymentDocument) Contributions(context.Context) ([]reversal.Contribution, error) {
	return []reversal.Contribution{{
		Obligation: bookings.Origin{Kind: bookings.OriginHallBooking, ID: d.payment.BookingID},
		Amount:     d.payment.Amount,
	}}, nil
}

func (d *paymentDocument) Demote(ctx context.Context) error {
	return d.tx.UpdatePaymentStatus(ctx, d.payment.ID, StatusDraft)
}

func (d *paymentDocument) Repost(ctx context.Context) error {
	p, err := d.tx.GetPaymentForUpdate(ctx, d.payment.ID)
	if err != nil {
		return err
	}
	b, err := d.tx.GetBookingForUpdate(ctx, p.BookingID)
	if err != nil {
		return err
	}

	ob := allocation.Obligation{Kind: bookings.OriginHallBooking, ID: b.ID, Total: b.Total, Paid: b.Paid}
	ob, err = allocation.Apply(ob, p.Amount)
	if err != nil {
		return err
	}

	if err := d.svc.postPayment(ctx, d.tx, b, p); err != nil {
		return err
	}
	if err := d.tx.UpdateBookingPaid(ctx, b.ID, ob.Paid); err != nil {
		return err
	}
	b.Paid = ob.Paid
	if err := d.tx.UpdateBookingStatus(ctx, b.ID, b.postedStatus()); err != nil {
		return err
	}
	return d.tx.UpdatePaymentStatus(ctx, p.ID, StatusConfirmed)
}

// bookingObligations rolls paid amounts back onto hall bookings.
type bookingObligations struct {
	tx TxRepository
}

func (o *bookingObligations) SubtractPaid(ctx context.Context, ob bookings.Origin, amount float64) error {
	b, err := o.tx.GetBookingForUpdate(ctx, ob.ID)
	if err != nil {
		return err
	}
	b.Paid = shared.Round2(b.Paid - amount)
	if err := o.tx.UpdateBookingPaid(ctx, b.ID, b.Paid); err != nil {
		return err
	}
	if b.Status == StatusBooked || b.Status == StatusConfirmed {
		return o.tx.UpdateBookingStatus(ctx, b.ID, b.postedStatus())
	}
	return nil
}

// noObligations is for documents that contributed to nothing.
type noObligations struct{}

func (noObligations) SubtractPaid(context.Context, bookings.Origin, float64) error { return nil }

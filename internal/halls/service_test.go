package halls

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/venue-erp/venue-erp/internal/ledger/bookings"
	"github.com/venue-erp/venue-erp/internal/ledger/shared"
)

type memoryRepo struct {
	hallBookings map[int64]HallBooking
	payments     map[int64]Payment
	ledger       map[int64]bookings.Booking
	lines        map[int64][]bookings.Line
	nextHall     int64
	nextPayment  int64
	nextBooking  int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		hallBookings: map[int64]HallBooking{},
		payments:     map[int64]Payment{},
		ledger:       map[int64]bookings.Booking{},
		lines:        map[int64][]bookings.Line{},
	}
}

func (m *memoryRepo) GetBooking(_ context.Context, id int64) (HallBooking, error) {
	b, ok := m.hallBookings[id]
	if !ok {
		return HallBooking{}, ErrBookingNotFound
	}
	return b, nil
}

func (m *memoryRepo) ListBookings(_ context.Context, status Status, _ int) ([]HallBooking, error) {
	var out []HallBooking
	for _, b := range m.hallBookings {
		if status == "" || b.Status == status {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memoryRepo) GetPayment(_ context.Context, id int64) (Payment, error) {
	p, ok := m.payments[id]
	if !ok {
		return Payment{}, ErrPaymentNotFound
	}
	return p, nil
}

func (m *memoryRepo) ListPayments(_ context.Context, bookingID int64) ([]Payment, error) {
	var out []Payment
	for _, p := range m.payments {
		if p.BookingID == bookingID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, m)
}

func (m *memoryRepo) InsertHallBooking(_ context.Context, in CreateBookingInput, ref uuid.UUID, total float64) (HallBooking, error) {
	m.nextHall++
	b := HallBooking{
		ID:                  m.nextHall,
		Ref:                 ref,
		HallID:              in.HallID,
		CustomerID:          in.CustomerID,
		Currency:            in.Currency,
		EventDate:           in.EventDate,
		Guests:              in.Guests,
		Rate:                in.Rate,
		Total:               total,
		Status:              StatusDraft,
		ReceivableAccountID: in.ReceivableAccountID,
		IncomeAccountID:     in.IncomeAccountID,
	}
	m.hallBookings[b.ID] = b
	return b, nil
}

func (m *memoryRepo) GetBookingForUpdate(ctx context.Context, id int64) (HallBooking, error) {
	return m.GetBooking(ctx, id)
}

func (m *memoryRepo) UpdateBookingStatus(_ context.Context, id int64, status Status) error {
	b, ok := m.hallBookings[id]
	if !ok {
		return ErrBookingNotFound
	}
	b.Status = status
	m.hallBookings[id] = b
	return nil
}

func (m *memoryRepo) UpdateBookingPaid(_ context.Context, id int64, paid float64) error {
	b, ok := m.hallBookings[id]
	if !ok {
		return ErrBookingNotFound
	}
	b.Paid = paid
	m.hallBookings[id] = b
	return nil
}

func (m *memoryRepo) UpdateBookingGuests(_ context.Context, id int64, guests int, total float64) error {
	b, ok := m.hallBookings[id]
	if !ok {
		return ErrBookingNotFound
	}
	b.Guests = guests
	b.Total = total
	m.hallBookings[id] = b
	return nil
}

func (m *memoryRepo) InsertPayment(_ context.Context, bookingID int64, ref uuid.UUID, date time.Time, accountID int64, amount float64) (Payment, error) {
	m.nextPayment++
	p := Payment{ID: m.nextPayment, BookingID: bookingID, Ref: ref, Date: date, AccountID: accountID, Amount: amount, Status: StatusConfirmed}
	m.payments[p.ID] = p
	return p, nil
}

func (m *memoryRepo) GetPaymentForUpdate(ctx context.Context, id int64) (Payment, error) {
	return m.GetPayment(ctx, id)
}

func (m *memoryRepo) UpdatePaymentAmount(_ context.Context, id int64, amount float64) error {
	p, ok := m.payments[id]
	if !ok {
		return ErrPaymentNotFound
	}
	p.Amount = amount
	m.payments[id] = p
	return nil
}

func (m *memoryRepo) UpdatePaymentStatus(_ context.Context, id int64, status Status) error {
	p, ok := m.payments[id]
	if !ok {
		return ErrPaymentNotFound
	}
	p.Status = status
	m.payments[id] = p
	return nil
}

func (m *memoryRepo) InsertBooking(_ context.Context, in bookings.CreateInput) (bookings.Booking, error) {
	m.nextBooking++
	b := bookings.Booking{ID: m.nextBooking, TransactionNumber: m.nextBooking, Reference: in.Reference,
		Source: in.Source, Date: in.Date, Amount: in.Amount, Origin: in.Origin}
	m.ledger[b.ID] = b
	return b, nil
}

func (m *memoryRepo) InsertLines(_ context.Context, bookingID int64, lines []bookings.LineInput) error {
	for _, in := range lines {
		m.lines[bookingID] = append(m.lines[bookingID], bookings.Line{
			BookingID: bookingID, AccountID: in.AccountID, Type: in.Type,
			DrAmount: in.DrAmount, CrAmount: in.CrAmount, Origin: in.Origin, Ref: in.Ref,
		})
	}
	return nil
}

func (m *memoryRepo) FindLinesByOrigin(_ context.Context, origin bookings.Origin) ([]bookings.Line, error) {
	var out []bookings.Line
	for _, ls := range m.lines {
		for _, l := range ls {
			if l.Origin == origin {
				out = append(out, l)
			}
		}
	}
	return out, nil
}

func (m *memoryRepo) DeleteLinesByOrigin(_ context.Context, origin bookings.Origin) (int64, error) {
	var removed int64
	for id, ls := range m.lines {
		var kept []bookings.Line
		for _, l := range ls {
			if l.Origin == origin {
				removed++
				continue
			}
			kept = append(kept, l)
		}
		m.lines[id] = kept
	}
	return removed, nil
}

func (m *memoryRepo) DeleteBookingIfEmpty(_ context.Context, id int64) (bool, error) {
	if len(m.lines[id]) > 0 {
		return false, nil
	}
	delete(m.ledger, id)
	delete(m.lines, id)
	return true, nil
}

func testService(repo *memoryRepo) *Service {
	s := NewService(repo, nil)
	s.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return s
}

func bookedHall(t *testing.T, svc *Service, guests int, rate float64) HallBooking {
	t.Helper()
	b, err := svc.Book(context.Background(), CreateBookingInput{
		HallID:              1,
		CustomerID:          2,
		Currency:            "USD",
		Guests:              guests,
		Rate:                rate,
		ReceivableAccountID: 12,
		IncomeAccountID:     42,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Confirm(context.Background(), b.ID))
	return b
}

func TestConfirmPostsReceivableAgainstIncome(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo)
	b := bookedHall(t, svc, 100, 5)

	got, err := svc.GetBooking(context.Background(), b.ID)
	require.NoError(t, err)
	require.Equal(t, StatusBooked, got.Status)
	require.Equal(t, 500.0, got.Total)

	lines, err := repo.FindLinesByOrigin(context.Background(), b.Origin())
	require.NoError(t, err)
	require.Len(t, lines, 2)
	require.Equal(t, 500.0, lines[0].DrAmount)
	require.Equal(t, int64(12), lines[0].AccountID)
	require.Equal(t, 500.0, lines[1].CrAmount)
	require.Equal(t, int64(42), lines[1].AccountID)
}

func TestPaymentsDriveStatus(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo)
	b := bookedHall(t, svc, 100, 5)

	p1, err := svc.RegisterPayment(context.Background(), b.ID, 11, 200)
	require.NoError(t, err)

	got, _ := svc.GetBooking(context.Background(), b.ID)
	require.Equal(t, StatusBooked, got.Status)
	require.Equal(t, 200.0, got.Paid)

	// Payment carries its own footprint.
	lines, err := repo.FindLinesByOrigin(context.Background(), p1.Origin())
	require.NoError(t, err)
	require.Len(t, lines, 2)
	require.Equal(t, int64(11), lines[0].AccountID)
	require.Equal(t, int64(12), lines[1].AccountID)

	_, err = svc.RegisterPayment(context.Background(), b.ID, 11, 300)
	require.NoError(t, err)
	got, _ = svc.GetBooking(context.Background(), b.ID)
	require.Equal(t, StatusConfirmed, got.Status)
	require.Equal(t, 0.0, got.Due())
}

func TestPaymentCannotExceedDue(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo)
	b := bookedHall(t, svc, 10, 10)

	_, err := svc.RegisterPayment(context.Background(), b.ID, 11, 150)
	require.ErrorIs(t, err, shared.ErrObligationOverpaid)

	got, _ := svc.GetBooking(context.Background(), b.ID)
	require.Equal(t, 0.0, got.Paid)
}

func TestAmendGuestsRepostsTotal(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo)
	b := bookedHall(t, svc, 100, 5)
	_, err := svc.RegisterPayment(context.Background(), b.ID, 11, 200)
	require.NoError(t, err)

	require.NoError(t, svc.AmendGuests(context.Background(), b.ID, 120))

	got, _ := svc.GetBooking(context.Background(), b.ID)
	require.Equal(t, 600.0, got.Total)
	require.Equal(t, 200.0, got.Paid)
	require.Equal(t, StatusBooked, got.Status)

	// Booking footprint reflects the new total; payment footprint is
	// untouched.
	lines, err := repo.FindLinesByOrigin(context.Background(), b.Origin())
	require.NoError(t, err)
	require.Len(t, lines, 2)
	require.Equal(t, 600.0, lines[0].DrAmount)
}

func TestAmendGuestsBelowPaidRefused(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo)
	b := bookedHall(t, svc, 100, 5)
	_, err := svc.RegisterPayment(context.Background(), b.ID, 11, 400)
	require.NoError(t, err)

	err = svc.AmendGuests(context.Background(), b.ID, 10) // total 50 < paid 400
	require.ErrorIs(t, err, shared.ErrObligationOverpaid)
}

func TestAmendPaymentRepostsAmount(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo)
	b := bookedHall(t, svc, 100, 5)
	p, err := svc.RegisterPayment(context.Background(), b.ID, 11, 200)
	require.NoError(t, err)

	require.NoError(t, svc.AmendPayment(context.Background(), p.ID, 350))

	got, _ := svc.GetBooking(context.Background(), b.ID)
	require.Equal(t, 350.0, got.Paid)

	lines, err := repo.FindLinesByOrigin(context.Background(), p.Origin())
	require.NoError(t, err)
	require.Len(t, lines, 2)
	require.Equal(t, 350.0, lines[0].DrAmount)
}

func TestRemovePaymentRollsBack(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo)
	b := bookedHall(t, svc, 100, 5)
	p, err := svc.RegisterPayment(context.Background(), b.ID, 11, 500)
	require.NoError(t, err)

	got, _ := svc.GetBooking(context.Background(), b.ID)
	require.Equal(t, StatusConfirmed, got.Status)

	require.NoError(t, svc.RemovePayment(context.Background(), p.ID))

	got, _ = svc.GetBooking(context.Background(), b.ID)
	require.Equal(t, 0.0, got.Paid)
	require.Equal(t, StatusBooked, got.Status)

	lines, err := repo.FindLinesByOrigin(context.Background(), p.Origin())
	require.NoError(t, err)
	require.Empty(t, lines)
}

package bulkpay

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/venue-erp/venue-erp/internal/ledger/allocation"
	"github.com/venue-erp/venue-erp/internal/ledger/bookings"
	"github.com/venue-erp/venue-erp/internal/ledger/shared"
	platform "github.com/venue-erp/venue-erp/internal/shared"
)

type testOrder struct {
	ID       int64
	WaiterID int64
	Date     time.Time
	Total    float64
	Paid     float64
}

type memoryRepo struct {
	mu          sync.Mutex
	bulks       map[int64]BulkPayment
	orders      map[int64]testOrder
	vendorTxs   map[int64]VendorTransaction
	advances    map[int64]SalaryAdvance
	ledger      map[int64]bookings.Booking
	lines       map[int64][]bookings.Line
	nextBulk    int64
	nextDoc     int64
	nextBooking int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		bulks:     map[int64]BulkPayment{},
		orders:    map[int64]testOrder{},
		vendorTxs: map[int64]VendorTransaction{},
		advances:  map[int64]SalaryAdvance{},
		ledger:    map[int64]bookings.Booking{},
		lines:     map[int64][]bookings.Line{},
	}
}

func (m *memoryRepo) Get(_ context.Context, id int64) (BulkPayment, error) {
	b, ok := m.bulks[id]
	if !ok {
		return BulkPayment{}, ErrNotFound
	}
	return b, nil
}

func (m *memoryRepo) List(_ context.Context, kind PayerKind, _ int) ([]BulkPayment, error) {
	var out []BulkPayment
	for _, b := range m.bulks {
		if kind == "" || b.PayerKind == kind {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memoryRepo) ListVendorTransactions(_ context.Context, vendorID int64) ([]VendorTransaction, error) {
	var out []VendorTransaction
	for _, v := range m.vendorTxs {
		if v.VendorID == vendorID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memoryRepo) ListSalaryAdvances(_ context.Context, employeeID int64) ([]SalaryAdvance, error) {
	var out []SalaryAdvance
	for _, a := range m.advances {
		if a.EmployeeID == employeeID {
			out = append(out, a)
		}
	}
	return out, nil
}

// WithTx serializes callbacks with a mutex, standing in for the row
// locks OpenObligationsForUpdate takes in a real transaction.
func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, m)
}

func (m *memoryRepo) InsertBulk(_ context.Context, in CreateInput, ref uuid.UUID, pool float64) (BulkPayment, error) {
	m.nextBulk++
	b := BulkPayment{
		ID:               m.nextBulk,
		Ref:              ref,
		PayerKind:        in.PayerKind,
		PayerID:          in.PayerID,
		Date:             in.Date,
		Pool:             pool,
		ControlAccountID: in.ControlAccountID,
		Status:           StatusDraft,
		Methods:          in.Methods,
	}
	m.bulks[b.ID] = b
	return b, nil
}

func (m *memoryRepo) GetBulkForUpdate(ctx context.Context, id int64) (BulkPayment, error) {
	return m.Get(ctx, id)
}

func (m *memoryRepo) UpdateBulkStatus(_ context.Context, id int64, status Status) error {
	b, ok := m.bulks[id]
	if !ok {
		return ErrNotFound
	}
	b.Status = status
	m.bulks[id] = b
	return nil
}

func (m *memoryRepo) ReplaceMethods(_ context.Context, bulkID int64, methods []allocation.Method, pool float64) error {
	b, ok := m.bulks[bulkID]
	if !ok {
		return ErrNotFound
	}
	b.Methods = methods
	b.Pool = pool
	m.bulks[bulkID] = b
	return nil
}

func (m *memoryRepo) InsertAllocations(_ context.Context, bulkID int64, allocs []allocation.Allocation) error {
	b, ok := m.bulks[bulkID]
	if !ok {
		return ErrNotFound
	}
	for _, a := range allocs {
		b.Allocations = append(b.Allocations, AllocationLine{
			BulkID:         bulkID,
			ObligationKind: a.Obligation.Kind,
			ObligationID:   a.Obligation.ID,
			Amount:         a.PaidNow,
		})
	}
	m.bulks[bulkID] = b
	return nil
}

func (m *memoryRepo) DeleteAllocations(_ context.Context, bulkID int64) error {
	b, ok := m.bulks[bulkID]
	if !ok {
		return ErrNotFound
	}
	b.Allocations = nil
	m.bulks[bulkID] = b
	return nil
}

func (m *memoryRepo) OpenObligationsForUpdate(_ context.Context, kind PayerKind, payerID int64) ([]allocation.Obligation, error) {
	type dated struct {
		ob   allocation.Obligation
		date time.Time
	}
	var all []dated
	switch kind {
	case PayerWaiter:
		for _, o := range m.orders {
			if o.WaiterID == payerID && o.Paid < o.Total {
				all = append(all, dated{allocation.Obligation{Kind: bookings.OriginSaleOrder, ID: o.ID, Total: o.Total, Paid: o.Paid}, o.Date})
			}
		}
	case PayerVendor:
		for _, v := range m.vendorTxs {
			if v.VendorID == payerID && v.Paid < v.Total {
				all = append(all, dated{allocation.Obligation{Kind: bookings.OriginVendorTx, ID: v.ID, Total: v.Total, Paid: v.Paid}, v.Date})
			}
		}
	case PayerEmployee:
		for _, a := range m.advances {
			if a.EmployeeID == payerID && a.Paid < a.Total {
				all = append(all, dated{allocation.Obligation{Kind: bookings.OriginSalaryAdvance, ID: a.ID, Total: a.Total, Paid: a.Paid}, a.Date})
			}
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].date.Equal(all[j].date) {
			return all[i].ob.ID < all[j].ob.ID
		}
		return all[i].date.Before(all[j].date)
	})
	out := make([]allocation.Obligation, 0, len(all))
	for _, d := range all {
		out = append(out, d.ob)
	}
	return out, nil
}

func (m *memoryRepo) AddObligationPaid(_ context.Context, origin bookings.Origin, delta float64) error {
	switch origin.Kind {
	case bookings.OriginSaleOrder:
		o, ok := m.orders[origin.ID]
		if !ok {
			return fmt.Errorf("bulkpay: obligation %s not found", origin)
		}
		o.Paid = shared.Round2(o.Paid + delta)
		m.orders[origin.ID] = o
	case bookings.OriginVendorTx:
		v, ok := m.vendorTxs[origin.ID]
		if !ok {
			return fmt.Errorf("bulkpay: obligation %s not found", origin)
		}
		v.Paid = shared.Round2(v.Paid + delta)
		m.vendorTxs[origin.ID] = v
	case bookings.OriginSalaryAdvance:
		a, ok := m.advances[origin.ID]
		if !ok {
			return fmt.Errorf("bulkpay: obligation %s not found", origin)
		}
		a.Paid = shared.Round2(a.Paid + delta)
		m.advances[origin.ID] = a
	default:
		return fmt.Errorf("bulkpay: origin %s is not an obligation", origin)
	}
	return nil
}

func (m *memoryRepo) InsertVendorTransaction(_ context.Context, v VendorTransaction) (VendorTransaction, error) {
	m.nextDoc++
	v.ID = m.nextDoc
	m.vendorTxs[v.ID] = v
	return v, nil
}

func (m *memoryRepo) InsertSalaryAdvance(_ context.Context, a SalaryAdvance) (SalaryAdvance, error) {
	m.nextDoc++
	a.ID = m.nextDoc
	m.advances[a.ID] = a
	return a, nil
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

func (m *memoryRepo) addOrder(waiterID int64, day int, total, paid float64) testOrder {
	m.nextDoc++
	o := testOrder{ID: m.nextDoc, WaiterID: waiterID, Date: time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC), Total: total, Paid: paid}
	m.orders[o.ID] = o
	return o
}

func testService(repo *memoryRepo, locker Locker) *Service {
	s := NewService(repo, nil, locker)
	s.now = func() time.Time { return time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC) }
	return s
}

func draftBulk(t *testing.T, svc *Service, kind PayerKind, payerID int64, methods ...allocation.Method) BulkPayment {
	t.Helper()
	b, err := svc.Create(context.Background(), CreateInput{
		PayerKind:        kind,
		PayerID:          payerID,
		ControlAccountID: 12,
		Methods:          methods,
	})
	require.NoError(t, err)
	return b
}

func TestConfirmAllocatesOldestFirst(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo, nil)
	o1 := repo.addOrder(7, 1, 100, 0)
	o2 := repo.addOrder(7, 2, 200, 0)
	o3 := repo.addOrder(7, 3, 50, 0)

	b := draftBulk(t, svc, PayerWaiter, 7, allocation.Method{AccountID: 11, Amount: 250})
	got, err := svc.Confirm(context.Background(), b.ID)
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, got.Status)

	require.Equal(t, 100.0, repo.orders[o1.ID].Paid)
	require.Equal(t, 150.0, repo.orders[o2.ID].Paid)
	require.Equal(t, 0.0, repo.orders[o3.ID].Paid)

	require.Len(t, got.Allocations, 2)
	require.Equal(t, o1.ID, got.Allocations[0].ObligationID)
	require.Equal(t, 100.0, got.Allocations[0].Amount)
	require.Equal(t, o2.ID, got.Allocations[1].ObligationID)
	require.Equal(t, 150.0, got.Allocations[1].Amount)

	// One booking: method leg debited, control leg credited.
	lines, err := repo.FindLinesByOrigin(context.Background(), b.Origin())
	require.NoError(t, err)
	require.Len(t, lines, 2)
	require.Equal(t, 250.0, lines[0].DrAmount)
	require.Equal(t, int64(11), lines[0].AccountID)
	require.Equal(t, 250.0, lines[1].CrAmount)
	require.Equal(t, int64(12), lines[1].AccountID)
}

func TestConfirmPoolExceedsDueTouchesNothing(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo, nil)
	o := repo.addOrder(7, 1, 100, 40)

	b := draftBulk(t, svc, PayerWaiter, 7, allocation.Method{AccountID: 11, Amount: 80})
	_, err := svc.Confirm(context.Background(), b.ID)
	require.ErrorIs(t, err, shared.ErrPoolExceedsDue)

	require.Equal(t, 40.0, repo.orders[o.ID].Paid)
	lines, _ := repo.FindLinesByOrigin(context.Background(), b.Origin())
	require.Empty(t, lines)
	got, _ := svc.Get(context.Background(), b.ID)
	require.Equal(t, StatusDraft, got.Status)
}

func TestConfirmWithoutOpenObligations(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo, nil)
	repo.addOrder(7, 1, 100, 100)

	b := draftBulk(t, svc, PayerWaiter, 7, allocation.Method{AccountID: 11, Amount: 50})
	_, err := svc.Confirm(context.Background(), b.ID)
	require.ErrorIs(t, err, shared.ErrNoOpenObligations)
}

func TestVendorSettlementFlipsDirection(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo, nil)
	v, err := svc.RecordVendorTransaction(context.Background(), VendorTransaction{
		VendorID: 3, Reference: "INV-9", Total: 300, PayableAccountID: 21,
	})
	require.NoError(t, err)

	b := draftBulk(t, svc, PayerVendor, 3,
		allocation.Method{AccountID: 11, Amount: 200},
		allocation.Method{AccountID: 13, Amount: 100})
	_, err = svc.Confirm(context.Background(), b.ID)
	require.NoError(t, err)

	require.Equal(t, 300.0, repo.vendorTxs[v.ID].Paid)

	lines, err := repo.FindLinesByOrigin(context.Background(), b.Origin())
	require.NoError(t, err)
	require.Len(t, lines, 3)
	// Methods credited, control debited for money out.
	require.Equal(t, 200.0, lines[0].CrAmount)
	require.Equal(t, 100.0, lines[1].CrAmount)
	require.Equal(t, 300.0, lines[2].DrAmount)
	require.Equal(t, int64(12), lines[2].AccountID)
}

func TestEmployeeAdvanceRecovery(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo, nil)
	a, err := svc.RecordSalaryAdvance(context.Background(), SalaryAdvance{
		EmployeeID: 5, Total: 120, ReceivableAccountID: 15,
	})
	require.NoError(t, err)

	b := draftBulk(t, svc, PayerEmployee, 5, allocation.Method{AccountID: 11, Amount: 70})
	_, err = svc.Confirm(context.Background(), b.ID)
	require.NoError(t, err)

	require.Equal(t, 70.0, repo.advances[a.ID].Paid)
	require.Equal(t, 50.0, repo.advances[a.ID].Due())
}

func TestUnconfirmRollsEverythingBack(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo, nil)
	o1 := repo.addOrder(7, 1, 100, 0)
	o2 := repo.addOrder(7, 2, 200, 0)

	b := draftBulk(t, svc, PayerWaiter, 7, allocation.Method{AccountID: 11, Amount: 250})
	_, err := svc.Confirm(context.Background(), b.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Unconfirm(context.Background(), b.ID))

	require.Equal(t, 0.0, repo.orders[o1.ID].Paid)
	require.Equal(t, 0.0, repo.orders[o2.ID].Paid)

	got, _ := svc.Get(context.Background(), b.ID)
	require.Equal(t, StatusDraft, got.Status)
	require.Empty(t, got.Allocations)

	lines, _ := repo.FindLinesByOrigin(context.Background(), b.Origin())
	require.Empty(t, lines)
}

func TestCreateRequiresMethods(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo, nil)
	_, err := svc.Create(context.Background(), CreateInput{
		PayerKind: PayerWaiter, PayerID: 7, ControlAccountID: 12,
	})
	require.ErrorIs(t, err, ErrNoMethods)
}

func TestUpdateMethodsOnConfirmedRefused(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo, nil)
	repo.addOrder(7, 1, 100, 0)

	b := draftBulk(t, svc, PayerWaiter, 7, allocation.Method{AccountID: 11, Amount: 100})
	_, err := svc.Confirm(context.Background(), b.ID)
	require.NoError(t, err)

	err = svc.UpdateMethods(context.Background(), b.ID, []allocation.Method{{AccountID: 11, Amount: 60}})
	require.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestConcurrentConfirmsCannotOverAllocate(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo, nil)
	o := repo.addOrder(7, 1, 100, 0)

	// Two drafts for the same waiter whose pools together exceed the
	// single open order. Whichever confirm commits second must see the
	// refreshed paid amount and refuse.
	b1 := draftBulk(t, svc, PayerWaiter, 7, allocation.Method{AccountID: 11, Amount: 80})
	b2 := draftBulk(t, svc, PayerWaiter, 7, allocation.Method{AccountID: 13, Amount: 80})

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for _, id := range []int64{b1.ID, b2.ID} {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := svc.Confirm(context.Background(), id)
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)

	var failed []error
	for err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	require.Len(t, failed, 1)
	require.ErrorIs(t, failed[0], shared.ErrPoolExceedsDue)

	require.Equal(t, 80.0, repo.orders[o.ID].Paid)
	require.LessOrEqual(t, repo.orders[o.ID].Paid, repo.orders[o.ID].Total)

	var confirmed int
	for _, b := range repo.bulks {
		if b.Status == StatusConfirmed {
			confirmed++
		}
	}
	require.Equal(t, 1, confirmed)
}

type heldLocker struct{}

func (heldLocker) Acquire(context.Context, string, time.Duration) (bool, error) { return false, nil }
func (heldLocker) Release(context.Context, string) error                        { return nil }

func TestConfirmRefusedWhilePayerLocked(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo, heldLocker{})
	o := repo.addOrder(7, 1, 100, 0)

	b := draftBulk(t, svc, PayerWaiter, 7, allocation.Method{AccountID: 11, Amount: 100})
	_, err := svc.Confirm(context.Background(), b.ID)
	require.ErrorIs(t, err, ErrLocked)
	require.Equal(t, 0.0, repo.orders[o.ID].Paid)
}

func TestRedisLockerSerializesPayer(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	locker := platform.NewRedisLocker(client)

	key := platform.AllocationLockKey(string(PayerWaiter), 7)
	ctx := context.Background()

	ok, err := locker.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = locker.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, locker.Release(ctx, key))
	ok, err = locker.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
}

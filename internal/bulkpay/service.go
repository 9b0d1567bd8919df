package bulkpay

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

const sourceBulk = "Bulk Payment"

// allocationLockTTL bounds how long a crashed confirm can hold the
// payer's lock.
const allocationLockTTL = 30 * time.Second

// AuditPort records bulk payment activity.
type AuditPort interface {
	Record(ctx context.Context, log platform.AuditLog) error
}

// Locker serializes allocations per payer across processes.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Service owns the bulk payment lifecycle.
type Service struct {
	repo   Repository
	audit  AuditPort
	locker Locker
	now    func() time.Time
}

func NewService(repo Repository, audit AuditPort, locker Locker) *Service {
	return &Service{repo: repo, audit: audit, locker: locker, now: time.Now}
}

func (s *Service) Get(ctx context.Context, id int64) (BulkPayment, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, kind PayerKind, limit int) ([]BulkPayment, error) {
	return s.repo.List(ctx, kind, limit)
}

func (s *Service) ListVendorTransactions(ctx context.Context, vendorID int64) ([]VendorTransaction, error) {
	return s.repo.ListVendorTransactions(ctx, vendorID)
}

func (s *Service) ListSalaryAdvances(ctx context.Context, employeeID int64) ([]SalaryAdvance, error) {
	return s.repo.ListSalaryAdvances(ctx, employeeID)
}

func validateMethods(methods []allocation.Method) (float64, error) {
	if len(methods) == 0 {
		return 0, ErrNoMethods
	}
	var pool float64
	for _, m := range methods {
		if m.Amount < 0 {
			return 0, shared.ErrNegativeAmount
		}
		if m.AccountID == 0 {
			return 0, shared.ErrAccountNotFound
		}
		pool += m.Amount
	}
	pool = shared.Round2(pool)
	if pool <= 0 {
		return 0, shared.ErrNegativeAmount
	}
	return pool, nil
}

// Create opens a draft bulk payment. The pool is the sum of the method
// amounts; nothing is allocated or posted until Confirm.
func (s *Service) Create(ctx context.Context, in CreateInput) (BulkPayment, error) {
	switch in.PayerKind {
	case PayerWaiter, PayerVendor, PayerEmployee:
	default:
		return BulkPayment{}, fmt.Errorf("bulkpay: unknown payer kind %q", in.PayerKind)
	}
	if in.ControlAccountID == 0 {
		return BulkPayment{}, shared.ErrAccountNotFound
	}
	pool, err := validateMethods(in.Methods)
	if err != nil {
		return BulkPayment{}, err
	}
	if in.Date.IsZero() {
		in.Date = s.now()
	}
	var bulk BulkPayment
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		bulk, err = tx.InsertBulk(ctx, in, uuid.New(), pool)
		return err
	})
	if err != nil {
		return BulkPayment{}, err
	}
	s.recordAudit(ctx, "bulk_payment.create", bulk.ID, map[string]any{"payer_kind": in.PayerKind, "pool": pool})
	return bulk, nil
}

// UpdateMethods replaces a draft's payment methods and recomputes the
// pool. Confirmed bulks must be unconfirmed first.
func (s *Service) UpdateMethods(ctx context.Context, id int64, methods []allocation.Method) error {
	pool, err := validateMethods(methods)
	if err != nil {
		return err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		b, err := tx.GetBulkForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if b.Status != StatusDraft {
			return fmt.Errorf("%w: bulk payment %d is %s", shared.ErrInvalidStatus, id, b.Status)
		}
		return tx.ReplaceMethods(ctx, id, methods, pool)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "bulk_payment.update_methods", id, map[string]any{"pool": pool})
	return nil
}

// Confirm runs the allocation and posts the single bulk booking. The
// payer's obligations are read fresh and row-locked inside the
// transaction, and a redis lock keeps two confirms for the same payer
// from interleaving. The whole operation commits or nothing does.
func (s *Service) Confirm(ctx context.Context, id int64) (BulkPayment, error) {
	var bulk BulkPayment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		b, err := tx.GetBulkForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if b.Status != StatusDraft {
			return fmt.Errorf("%w: bulk payment %d is %s", shared.ErrInvalidStatus, id, b.Status)
		}

		unlock, err := s.lockPayer(ctx, b.PayerKind, b.PayerID)
		if err != nil {
			return err
		}
		defer unlock()

		obligations, err := tx.OpenObligationsForUpdate(ctx, b.PayerKind, b.PayerID)
		if err != nil {
			return err
		}
		allocs, err := allocation.Allocate(obligations, b.Pool)
		if err != nil {
			return err
		}

		if err := s.postBulk(ctx, tx, b); err != nil {
			return err
		}
		if err := tx.InsertAllocations(ctx, b.ID, allocs); err != nil {
			return err
		}
		for _, a := range allocs {
			if err := tx.AddObligationPaid(ctx, a.Obligation.Origin(), a.PaidNow); err != nil {
				return err
			}
		}
		if err := tx.UpdateBulkStatus(ctx, b.ID, StatusConfirmed); err != nil {
			return err
		}
		bulk, err = tx.GetBulkForUpdate(ctx, b.ID)
		return err
	})
	if err != nil {
		return BulkPayment{}, err
	}
	s.recordAudit(ctx, "bulk_payment.confirm", id, map[string]any{"pool": bulk.Pool, "allocations": len(bulk.Allocations)})
	return bulk, nil
}

// Unconfirm unwinds a confirmed bulk payment: the posted booking is
// removed, every allocated amount rolled back off its obligation, and
// the bulk returns to draft for editing.
func (s *Service) Unconfirm(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		b, err := tx.GetBulkForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if b.Status != StatusConfirmed {
			return fmt.Errorf("%w: bulk payment %d is %s", shared.ErrInvalidStatus, id, b.Status)
		}

		unlock, err := s.lockPayer(ctx, b.PayerKind, b.PayerID)
		if err != nil {
			return err
		}
		defer unlock()

		doc := &bulkDocument{tx: tx, bulk: b}
		if err := reversal.Unwind(ctx, doc, tx, &obligationRollback{tx: tx}); err != nil {
			return err
		}
		return tx.DeleteAllocations(ctx, b.ID)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "bulk_payment.unconfirm", id, nil)
	return nil
}

// RecordVendorTransaction registers an amount owed to a vendor so a
// later vendor bulk payment can settle it.
func (s *Service) RecordVendorTransaction(ctx context.Context, v VendorTransaction) (VendorTransaction, error) {
	if v.Total <= 0 {
		return VendorTransaction{}, shared.ErrNegativeAmount
	}
	if v.PayableAccountID == 0 {
		return VendorTransaction{}, shared.ErrAccountNotFound
	}
	if v.Date.IsZero() {
		v.Date = s.now()
	}
	var out VendorTransaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		out, err = tx.InsertVendorTransaction(ctx, v)
		return err
	})
	if err != nil {
		return VendorTransaction{}, err
	}
	s.recordAudit(ctx, "vendor_transaction.create", out.ID, map[string]any{"vendor_id": v.VendorID, "total": v.Total})
	return out, nil
}

// RecordSalaryAdvance registers money advanced to an employee so a
// later employee bulk payment can recover it.
func (s *Service) RecordSalaryAdvance(ctx context.Context, a SalaryAdvance) (SalaryAdvance, error) {
	if a.Total <= 0 {
		return SalaryAdvance{}, shared.ErrNegativeAmount
	}
	if a.ReceivableAccountID == 0 {
		return SalaryAdvance{}, shared.ErrAccountNotFound
	}
	if a.Date.IsZero() {
		a.Date = s.now()
	}
	var out SalaryAdvance
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		out, err = tx.InsertSalaryAdvance(ctx, a)
		return err
	})
	if err != nil {
		return SalaryAdvance{}, err
	}
	s.recordAudit(ctx, "salary_advance.create", out.ID, map[string]any{"employee_id": a.EmployeeID, "total": a.Total})
	return out, nil
}

func (s *Service) lockPayer(ctx context.Context, kind PayerKind, payerID int64) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	key := platform.AllocationLockKey(string(kind), payerID)
	ok, err := s.locker.Acquire(ctx, key, allocationLockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLocked
	}
	return func() { _ = s.locker.Release(ctx, key) }, nil
}

func (s *Service) postBulk(ctx context.Context, tx TxRepository, b BulkPayment) error {
	lines, err := allocation.PostingLines(allocation.PostingInput{
		Direction:        b.PayerKind.Direction(),
		Methods:          b.Methods,
		ControlAccountID: b.ControlAccountID,
		Pool:             b.Pool,
		Description:      fmt.Sprintf("Bulk payment %d (%s %d)", b.ID, b.PayerKind, b.PayerID),
		Origin:           b.Origin(),
		Ref:              b.Ref,
	})
	if err != nil {
		return err
	}
	in := bookings.CreateInput{
		Reference: b.Ref.String(),
		Source:    sourceBulk,
		Date:      b.Date,
		Amount:    b.Pool,
		Origin:    b.Origin(),
		Lines:     lines,
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

func (s *Service) recordAudit(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, platform.AuditLog{
		Action:   action,
		Entity:   "bulkpay",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}

// bulkDocument adapts a confirmed bulk payment to the reversal
// protocol. Its contributions are the stored allocation lines.
type bulkDocument struct {
	tx   TxRepository
	bulk BulkPayment
}

func (d *bulkDocument) Origin() bookings.Origin { return d.bulk.Origin() }

func (d *bulkDocument) Contributions(context.Context) ([]reversal.Contribution, error) {
	out := make([]reversal.Contribution, 0, len(d.bulk.Allocations))
	for _, a := range d.bulk.Allocations {
		out = append(out, reversal.Contribution{
			Obligation: bookings.Origin{Kind: a.ObligationKind, ID: a.ObligationID},
			Amount:     a.Amount,
		})
	}
	return out, nil
}

func (d *bulkDocument) Demote(ctx context.Context) error {
	return d.tx.UpdateBulkStatus(ctx, d.bulk.ID, StatusDraft)
}

func (d *bulkDocument) Repost(ctx context.Context) error {
	return fmt.Errorf("%w: bulk payment %d must be confirmed, not reposted", shared.ErrInvalidStatus, d.bulk.ID)
}

// obligationRollback subtracts unwound amounts from the owning
// documents, whatever their kind.
type obligationRollback struct {
	tx TxRepository
}

func (o *obligationRollback) SubtractPaid(ctx context.Context, ob bookings.Origin, amount float64) error {
	return o.tx.AddObligationPaid(ctx, ob, -amount)
}

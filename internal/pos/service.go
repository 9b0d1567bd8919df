package pos

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/venue-erp/venue-erp/internal/ledger/allocation"
	"github.com/venue-erp/venue-erp/internal/ledger/bookings"
	"github.com/venue-erp/venue-erp/internal/ledger/currency"
	"github.com/venue-erp/venue-erp/internal/ledger/reversal"
	"github.com/venue-erp/venue-erp/internal/ledger/shared"
	platform "github.com/venue-erp/venue-erp/internal/shared"
)

const sourcePOS = "Point of Sale"
const sourceReturn = "Sale Return"

// AuditPort records POS document activity.
type AuditPort interface {
	Record(ctx context.Context, log platform.AuditLog) error
}

// Service owns sale order and sale return flows.
type Service struct {
	repo      Repository
	audit     AuditPort
	rates     currency.RateSource
	reporting string
	now       func() time.Time
}

func NewService(repo Repository, audit AuditPort, rates currency.RateSource, reporting string) *Service {
	return &Service{repo: repo, audit: audit, rates: rates, reporting: reporting, now: time.Now}
}

func (s *Service) GetOrder(ctx context.Context, id int64) (SaleOrder, error) {
	return s.repo.GetOrder(ctx, id)
}

func (s *Service) ListOrders(ctx context.Context, status Status, limit int) ([]SaleOrder, error) {
	return s.repo.ListOrders(ctx, status, limit)
}

func (s *Service) GetReturn(ctx context.Context, id int64) (SaleReturn, error) {
	return s.repo.GetReturn(ctx, id)
}

// CreateOrder opens a draft order. Nothing is posted until confirm.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (SaleOrder, error) {
	if err := in.Validate(); err != nil {
		return SaleOrder{}, err
	}
	if in.Date.IsZero() {
		in.Date = s.now()
	}
	var order SaleOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		order, err = tx.InsertOrder(ctx, in, uuid.New(), in.Total())
		return err
	})
	if err != nil {
		return SaleOrder{}, err
	}
	return order, nil
}

// ConfirmOrder posts the order's footprint and flips it to confirmed:
// one booking, debit cash or receivable for the total, credit income.
func (s *Service) ConfirmOrder(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Status != StatusDraft {
			return fmt.Errorf("%w: order %d is %s", shared.ErrInvalidStatus, id, order.Status)
		}
		if err := s.postOrder(ctx, tx, order); err != nil {
			return err
		}
		return tx.UpdateOrderStatus(ctx, id, StatusConfirmed)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "sale_order.confirm", id, nil)
	return nil
}

func (s *Service) postOrder(ctx context.Context, tx TxRepository, order SaleOrder) error {
	in := bookings.CreateInput{
		Reference: order.Ref.String(),
		Source:    sourcePOS,
		Date:      order.Date,
		Amount:    order.Total,
		Origin:    order.Origin(),
		Lines: []bookings.LineInput{
			{
				AccountID:   order.DebitAccountID,
				Type:        bookings.LineDebit,
				DrAmount:    order.Total,
				Description: fmt.Sprintf("Sale order %d", order.ID),
				Origin:      order.Origin(),
				Ref:         order.Ref,
			},
			{
				AccountID:   order.IncomeAccountID,
				Type:        bookings.LineCredit,
				CrAmount:    order.Total,
				Description: fmt.Sprintf("Sale order %d income", order.ID),
				Origin:      order.Origin(),
				Ref:         order.Ref,
			},
		},
	}
	if err := in.Validate(); err != nil {
		return err
	}
	b, err := tx.InsertBooking(ctx, in)
	if err != nil {
		return err
	}
	return tx.InsertLines(ctx, b.ID, in.Lines)
}

// AmendOrder replaces the order's lines. A draft is edited directly; a
// confirmed order is unwound, edited, and reposted in one transaction.
func (s *Service) AmendOrder(ctx context.Context, id int64, lines []LineInput) error {
	if len(lines) == 0 {
		return ErrNoLines
	}
	var total float64
	for _, l := range lines {
		if l.Quantity <= 0 || l.Price < 0 {
			return shared.ErrNegativeAmount
		}
		total += shared.Round2(l.Quantity * l.Price)
	}
	total = shared.Round2(total)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if total < order.Paid && !shared.SameAmount(total, order.Paid) {
			return shared.ErrObligationOverpaid
		}
		switch order.Status {
		case StatusDraft:
			return tx.ReplaceOrderLines(ctx, id, lines, total)
		case StatusConfirmed:
			doc := &orderDocument{svc: s, tx: tx, id: id}
			return reversal.Rerun(ctx, doc, tx, noObligations{}, func(ctx context.Context) error {
				return tx.ReplaceOrderLines(ctx, id, lines, total)
			})
		default:
			return fmt.Errorf("%w: order %d is %s", shared.ErrInvalidStatus, id, order.Status)
		}
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "sale_order.amend", id, map[string]any{"total": total})
	return nil
}

// RegisterReturn records and posts a sale return against a confirmed
// order: the income and cash/receivable legs flip sides, the exchange
// rate is captured at the return date, and the returned amount settles
// part of the order's open balance.
func (s *Service) RegisterReturn(ctx context.Context, in CreateReturnInput) (SaleReturn, error) {
	if len(in.Lines) == 0 {
		return SaleReturn{}, ErrNoLines
	}
	if in.Date.IsZero() {
		in.Date = s.now()
	}
	var ret SaleReturn
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, in.OrderID)
		if err != nil {
			return err
		}
		if order.Status != StatusConfirmed {
			return fmt.Errorf("%w: order %d is %s", shared.ErrInvalidStatus, order.ID, order.Status)
		}

		returned, err := tx.ReturnedQuantities(ctx, order.ID)
		if err != nil {
			return err
		}
		ordered := map[int64]SaleLine{}
		for _, l := range order.Lines {
			ordered[l.ProductID] = l
		}
		var total float64
		for _, rl := range in.Lines {
			ol, ok := ordered[rl.ProductID]
			if !ok {
				return fmt.Errorf("%w: product %d not on order %d", ErrReturnExceedsOrdered, rl.ProductID, order.ID)
			}
			if rl.Quantity <= 0 {
				return shared.ErrNegativeAmount
			}
			if rl.Quantity > ol.Quantity-returned[rl.ProductID] {
				return fmt.Errorf("%w: product %d", ErrReturnExceedsOrdered, rl.ProductID)
			}
			total += shared.Round2(rl.Quantity * ol.Price)
		}
		total = shared.Round2(total)

		rate := 1.0
		if order.Currency != s.reporting {
			published, err := s.rates.RateOn(ctx, order.Currency, in.Date)
			if err != nil {
				return err
			}
			rate = published.Rate
		}

		ret, err = tx.InsertReturn(ctx, order.ID, in.Date, rate, total, in.Lines)
		if err != nil {
			return err
		}
		if err := s.postReturn(ctx, tx, order, ret); err != nil {
			return err
		}

		// The return settles part of what the customer owed.
		ob := allocation.Obligation{Kind: bookings.OriginSaleOrder, ID: order.ID, Total: order.Total, Paid: order.Paid}
		ob, err = allocation.Apply(ob, total)
		if err != nil {
			return err
		}
		if err := tx.UpdateOrderPaid(ctx, order.ID, ob.Paid); err != nil {
			return err
		}
		ret.Status = StatusConfirmed
		return tx.UpdateReturnStatus(ctx, ret.ID, StatusConfirmed)
	})
	if err != nil {
		return SaleReturn{}, err
	}
	s.recordAudit(ctx, "sale_return.confirm", ret.ID, map[string]any{"order_id": ret.OrderID, "total": ret.Total})
	return ret, nil
}

func (s *Service) postReturn(ctx context.Context, tx TxRepository, order SaleOrder, ret SaleReturn) error {
	ref := uuid.New()
	in := bookings.CreateInput{
		Reference: ref.String(),
		Source:    sourceReturn,
		Date:      ret.Date,
		Amount:    ret.Total,
		Origin:    ret.Origin(),
		Lines: []bookings.LineInput{
			{
				AccountID:   order.IncomeAccountID,
				Type:        bookings.LineDebit,
				DrAmount:    ret.Total,
				Description: fmt.Sprintf("Sale return %d against order %d", ret.ID, order.ID),
				Origin:      ret.Origin(),
				Ref:         ref,
			},
			{
				AccountID:   order.DebitAccountID,
				Type:        bookings.LineCredit,
				CrAmount:    ret.Total,
				Description: fmt.Sprintf("Sale return %d refund", ret.ID),
				Origin:      ret.Origin(),
				Ref:         ref,
			},
		},
	}
	if err := in.Validate(); err != nil {
		return err
	}
	b, err := tx.InsertBooking(ctx, in)
	if err != nil {
		return err
	}
	return tx.InsertLines(ctx, b.ID, in.Lines)
}

// CancelReturn unwinds a confirmed return: its postings are removed
// and its contribution to the order's paid total rolled back.
func (s *Service) CancelReturn(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		ret, err := tx.GetReturnForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if ret.Status != StatusConfirmed {
			return fmt.Errorf("%w: return %d is %s", shared.ErrInvalidStatus, id, ret.Status)
		}
		doc := &returnDocument{tx: tx, ret: ret}
		if err := reversal.Unwind(ctx, doc, tx, &orderObligations{tx: tx}); err != nil {
			return err
		}
		return tx.UpdateReturnStatus(ctx, id, StatusCanceled)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "sale_return.cancel", id, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, platform.AuditLog{
		Action:   action,
		Entity:   "pos",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}

// orderDocument adapts a sale order to the reversal protocol.
type orderDocument struct {
	svc *Service
	tx  TxRepository
	id  int64
}

func (d *orderDocument) Origin() bookings.Origin {
	return bookings.Origin{Kind: bookings.OriginSaleOrder, ID: d.id}
}

// Contributions is empty: confirming an order opens an obligation but
// pays nothing into one.
func (d *orderDocument) Contributions(context.Context) ([]reversal.Contribution, error) {
	return nil, nil
}

func (d *orderDocument) Demote(ctx context.Context) error {
	return d.tx.UpdateOrderStatus(ctx, d.id, StatusDraft)
}

func (d *orderDocument) Repost(ctx context.Context) error {
	order, err := d.tx.GetOrderForUpdate(ctx, d.id)
	if err != nil {
		return err
	}
	if err := d.svc.postOrder(ctx, d.tx, order); err != nil {
		return err
	}
	return d.tx.UpdateOrderStatus(ctx, d.id, StatusConfirmed)
}

// returnDocument adapts a sale return to the reversal protocol.
type returnDocument struct {
	tx  TxRepository
	ret SaleReturn
}

func (d *returnDocument) Origin() bookings.Origin { return d.ret.Origin() }

func (d *returnDocument) Contributions(context.Context) ([]reversal.Contribution, error) {
	return []reversal.Contribution{{
		Obligation: bookings.Origin{Kind: bookings.OriginSaleOrder, ID: d.ret.OrderID},
		Amount:     d.ret.Total,
	}}, nil
}

func (d *returnDocument) Demote(ctx context.Context) error {
	return d.tx.UpdateReturnStatus(ctx, d.ret.ID, StatusDraft)
}

// Repost is unused for cancellation; cancel stops at the unwind.
func (d *returnDocument) Repost(context.Context) error {
	return fmt.Errorf("%w: canceled return cannot repost", shared.ErrInvalidStatus)
}

// orderObligations rolls paid amounts back onto sale orders.
type orderObligations struct {
	tx TxRepository
}

func (o *orderObligations) SubtractPaid(ctx context.Context, ob bookings.Origin, amount float64) error {
	order, err := o.tx.GetOrderForUpdate(ctx, ob.ID)
	if err != nil {
		return err
	}
	return o.tx.UpdateOrderPaid(ctx, order.ID, shared.Round2(order.Paid-amount))
}

// noObligations is for documents that contributed to nothing.
type noObligations struct{}

func (noObligations) SubtractPaid(context.Context, bookings.Origin, float64) error { return nil }

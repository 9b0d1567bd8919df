package balances

import (
	"context"
	"fmt"
	"time"

	"github.com/venue-erp/venue-erp/internal/ledger/accounts"
	"github.com/venue-erp/venue-erp/internal/ledger/currency"
	"github.com/venue-erp/venue-erp/internal/ledger/shared"
)

// Service answers balance and report queries. Reports are read-only
// snapshots; nothing here mutates the ledger.
type Service struct {
	repo      Repository
	converter *currency.Converter
}

func NewService(repo Repository, converter *currency.Converter) *Service {
	return &Service{repo: repo, converter: converter}
}

// AccountBalance returns one account's position as of a date, both as
// the signed debits-minus-credits number and as a display magnitude
// with the side it sits on.
func (s *Service) AccountBalance(ctx context.Context, accountID int64, asOf time.Time) (Balance, error) {
	a, err := s.repo.AccountActivityAsOf(ctx, accountID, asOf)
	if err != nil {
		return Balance{}, err
	}
	amount, side := a.Magnitude()
	return Balance{
		AccountID: a.AccountID,
		Code:      a.Code,
		Name:      a.Name,
		Currency:  a.Currency,
		Signed:    a.Net(),
		Amount:    amount,
		Side:      side,
	}, nil
}

// TrialBalance builds the single-currency trial balance: only accounts
// held in that currency, no conversion.
func (s *Service) TrialBalance(ctx context.Context, cur string, asOf time.Time) (TrialBalance, error) {
	activity, err := s.repo.ActivityAsOf(ctx, asOf, cur)
	if err != nil {
		return TrialBalance{}, err
	}
	return BuildTrialBalance(cur, activity), nil
}

// ConsolidatedTrialBalance converts every account into the reporting
// currency at the asOf date and builds one combined trial balance. A
// currency with no rate published for that exact date fails the whole
// report.
func (s *Service) ConsolidatedTrialBalance(ctx context.Context, asOf time.Time) (TrialBalance, error) {
	activity, err := s.repo.ActivityAsOf(ctx, asOf, "")
	if err != nil {
		return TrialBalance{}, err
	}
	converted, err := s.convertAll(ctx, activity, asOf)
	if err != nil {
		return TrialBalance{}, err
	}
	return BuildTrialBalance(s.converter.Reporting, converted), nil
}

// BalanceSheet builds the consolidated statement as of a date. The
// period profit or loss is folded into equity; if assets still differ
// from liabilities plus equity the ledger itself is corrupt and the
// report refuses to render.
func (s *Service) BalanceSheet(ctx context.Context, asOf time.Time) (BalanceSheet, error) {
	activity, err := s.repo.ActivityAsOf(ctx, asOf, "")
	if err != nil {
		return BalanceSheet{}, err
	}
	converted, err := s.convertAll(ctx, activity, asOf)
	if err != nil {
		return BalanceSheet{}, err
	}
	var profit float64
	for _, a := range converted {
		if accounts.DeriveReporting(a.Code) == accounts.ReportingProfitLoss {
			profit += a.Credit - a.Debit
		}
	}
	sheet := BuildBalanceSheet(converted, shared.Round2(profit))
	if !sheet.Balanced {
		return BalanceSheet{}, fmt.Errorf("%w: assets %.2f vs liabilities+equity %.2f",
			shared.ErrOutOfBalance, sheet.Assets.Total, sheet.TotalLiabilitiesAndEquity)
	}
	return sheet, nil
}

// IncomeStatement builds the period result in the reporting currency.
// Conversion uses the period end date for every account.
func (s *Service) IncomeStatement(ctx context.Context, from, to time.Time) (IncomeStatement, error) {
	activity, err := s.repo.ActivityBetween(ctx, from, to)
	if err != nil {
		return IncomeStatement{}, err
	}
	converted, err := s.convertAll(ctx, activity, to)
	if err != nil {
		return IncomeStatement{}, err
	}
	return BuildIncomeStatement(s.converter.Reporting, converted), nil
}

// convertAll translates each account's debit and credit sums into the
// reporting currency at one shared date.
func (s *Service) convertAll(ctx context.Context, activity []AccountActivity, asOf time.Time) ([]AccountActivity, error) {
	out := make([]AccountActivity, 0, len(activity))
	for _, a := range activity {
		dr, err := s.converter.ToReporting(ctx, a.Debit, a.Currency, asOf)
		if err != nil {
			return nil, err
		}
		cr, err := s.converter.ToReporting(ctx, a.Credit, a.Currency, asOf)
		if err != nil {
			return nil, err
		}
		a.Debit, a.Credit = dr, cr
		a.Currency = s.converter.Reporting
		out = append(out, a)
	}
	return out, nil
}

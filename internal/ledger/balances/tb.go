package balances

import (
	"sort"

	"github.com/venue-erp/venue-erp/internal/ledger/shared"
)

// TrialBalanceRow is one account's net position placed in the debit or
// credit column.
type TrialBalanceRow struct {
	Code   string
	Name   string
	Debit  float64
	Credit float64
}

// TrialBalance lists non-zero accounts with a grand total row. A
// ledger built from balanced bookings always reconciles; Reconciled
// false means corrupted data, not a report quirk.
type TrialBalance struct {
	Currency    string
	Rows        []TrialBalanceRow
	TotalDebit  float64
	TotalCredit float64
	Reconciled  bool
}

// BuildTrialBalance nets each account's activity into one column,
// drops settled accounts, and totals the columns.
func BuildTrialBalance(currency string, activity []AccountActivity) TrialBalance {
	tb := TrialBalance{Currency: currency}
	for _, a := range activity {
		net := a.Net()
		if shared.SameAmount(net, 0) {
			continue
		}
		row := TrialBalanceRow{Code: a.Code, Name: a.Name}
		if net > 0 {
			row.Debit = net
		} else {
			row.Credit = -net
		}
		tb.Rows = append(tb.Rows, row)
		tb.TotalDebit += row.Debit
		tb.TotalCredit += row.Credit
	}
	sort.Slice(tb.Rows, func(i, j int) bool { return tb.Rows[i].Code < tb.Rows[j].Code })
	tb.TotalDebit = shared.Round2(tb.TotalDebit)
	tb.TotalCredit = shared.Round2(tb.TotalCredit)
	tb.Reconciled = shared.SameAmount(tb.TotalDebit, tb.TotalCredit)
	return tb
}

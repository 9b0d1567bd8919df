package balances

import (
	"sort"

	"github.com/venue-erp/venue-erp/internal/ledger/shared"
)

// IncomeStatementRow is one income or expense account over the period.
type IncomeStatementRow struct {
	Code   string
	Name   string
	Amount float64
}

// IncomeStatement is the period result: income less cost of sales
// gives gross profit, less remaining expenses gives net profit.
type IncomeStatement struct {
	Currency      string
	Income        []IncomeStatementRow
	CostOfSales   []IncomeStatementRow
	Expenses      []IncomeStatementRow
	TotalIncome   float64
	TotalCost     float64
	TotalExpenses float64
	GrossProfit   float64
	NetProfit     float64
}

// BuildIncomeStatement classifies profit-and-loss activity by the code
// family: 4xxx income (credit-normal), 5xxx cost of sales and 6xxx
// operating expenses (debit-normal).
func BuildIncomeStatement(currency string, activity []AccountActivity) IncomeStatement {
	st := IncomeStatement{Currency: currency}
	for _, a := range activity {
		if a.Code == "" {
			continue
		}
		switch a.Code[0] {
		case '4':
			amount := shared.Round2(a.Credit - a.Debit)
			if shared.SameAmount(amount, 0) {
				continue
			}
			st.Income = append(st.Income, IncomeStatementRow{Code: a.Code, Name: a.Name, Amount: amount})
			st.TotalIncome = shared.Round2(st.TotalIncome + amount)
		case '5':
			amount := a.Net()
			if shared.SameAmount(amount, 0) {
				continue
			}
			st.CostOfSales = append(st.CostOfSales, IncomeStatementRow{Code: a.Code, Name: a.Name, Amount: amount})
			st.TotalCost = shared.Round2(st.TotalCost + amount)
		case '6':
			amount := a.Net()
			if shared.SameAmount(amount, 0) {
				continue
			}
			st.Expenses = append(st.Expenses, IncomeStatementRow{Code: a.Code, Name: a.Name, Amount: amount})
			st.TotalExpenses = shared.Round2(st.TotalExpenses + amount)
		}
	}
	for _, rows := range [][]IncomeStatementRow{st.Income, st.CostOfSales, st.Expenses} {
		sort.Slice(rows, func(i, j int) bool { return rows[i].Code < rows[j].Code })
	}
	st.GrossProfit = shared.Round2(st.TotalIncome - st.TotalCost)
	st.NetProfit = shared.Round2(st.GrossProfit - st.TotalExpenses)
	return st
}

package balances

import (
	"testing"

	"github.com/venue-erp/venue-erp/internal/ledger/shared"
)

func activity(code, name string, dr, cr float64) AccountActivity {
	return AccountActivity{Code: code, Name: name, SubHeaderCode: code[:2], SubHeaderName: name + " group", Debit: dr, Credit: cr}
}

func TestBuildTrialBalanceColumns(t *testing.T) {
	tb := BuildTrialBalance("USD", []AccountActivity{
		activity("1101", "Cash", 500, 200),
		activity("2301", "Payables", 50, 350),
		activity("4101", "Sales", 0, 0), // zero net, dropped
	})

	if len(tb.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(tb.Rows))
	}
	if tb.Rows[0].Debit != 300 || tb.Rows[0].Credit != 0 {
		t.Errorf("cash row = %+v, want debit 300", tb.Rows[0])
	}
	if tb.Rows[1].Credit != 300 || tb.Rows[1].Debit != 0 {
		t.Errorf("payables row = %+v, want credit 300", tb.Rows[1])
	}
	if !tb.Reconciled {
		t.Errorf("totals %.2f/%.2f did not reconcile", tb.TotalDebit, tb.TotalCredit)
	}
}

func TestBuildTrialBalanceReconciliation(t *testing.T) {
	// Balanced bookings always produce equal columns.
	tb := BuildTrialBalance("USD", []AccountActivity{
		activity("1101", "Cash", 100, 0),
		activity("1201", "Receivables", 60, 100),
		activity("4101", "Sales", 0, 60),
	})
	if !shared.SameAmount(tb.TotalDebit, tb.TotalCredit) {
		t.Fatalf("debit %.2f != credit %.2f", tb.TotalDebit, tb.TotalCredit)
	}
	if !tb.Reconciled {
		t.Error("Reconciled = false for balanced activity")
	}
}

func TestBuildBalanceSheetSections(t *testing.T) {
	// Cash 100 came from income 60 and equity 40.
	sheet := BuildBalanceSheet([]AccountActivity{
		activity("1101", "Cash", 100, 0),
		activity("3001", "Capital", 0, 40),
		activity("4101", "Sales", 0, 60), // PL account, excluded from sections
	}, 60)

	if sheet.Assets.Total != 100 {
		t.Errorf("assets = %.2f, want 100", sheet.Assets.Total)
	}
	if sheet.Equity.Total != 100 {
		t.Errorf("equity = %.2f, want 40 capital + 60 profit", sheet.Equity.Total)
	}
	if !sheet.Balanced {
		t.Error("sheet did not balance")
	}
}

func TestBuildBalanceSheetOmitsZero(t *testing.T) {
	sheet := BuildBalanceSheet([]AccountActivity{
		activity("1101", "Cash", 100, 100),
		activity("1201", "Receivables", 30, 0),
		activity("3001", "Capital", 0, 30),
	}, 0)

	if len(sheet.Assets.Groups) != 1 || len(sheet.Assets.Groups[0].Accounts) != 1 {
		t.Fatalf("assets groups = %+v, want single receivables row", sheet.Assets.Groups)
	}
	if sheet.Assets.Groups[0].Accounts[0].Code != "1201" {
		t.Errorf("kept account %s, want 1201", sheet.Assets.Groups[0].Accounts[0].Code)
	}
}

func TestBuildBalanceSheetDetectsCorruption(t *testing.T) {
	sheet := BuildBalanceSheet([]AccountActivity{
		activity("1101", "Cash", 100, 0),
		activity("3001", "Capital", 0, 30),
	}, 0)
	if sheet.Balanced {
		t.Error("unbalanced ledger reported as balanced")
	}
}

func TestBuildIncomeStatement(t *testing.T) {
	st := BuildIncomeStatement("USD", []AccountActivity{
		activity("4101", "Food Sales", 20, 520),
		activity("4201", "Hall Income", 0, 300),
		activity("5101", "Cost of Goods", 250, 0),
		activity("6101", "Wages", 180, 0),
		activity("1101", "Cash", 900, 200), // balance sheet account, ignored
	})

	if st.TotalIncome != 800 {
		t.Errorf("income = %.2f, want 800", st.TotalIncome)
	}
	if st.TotalCost != 250 {
		t.Errorf("cost = %.2f, want 250", st.TotalCost)
	}
	if st.GrossProfit != 550 {
		t.Errorf("gross profit = %.2f, want 550", st.GrossProfit)
	}
	if st.NetProfit != 370 {
		t.Errorf("net profit = %.2f, want 370", st.NetProfit)
	}
}

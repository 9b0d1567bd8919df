package balances

import (
	"sort"

	"github.com/venue-erp/venue-erp/internal/ledger/accounts"
	"github.com/venue-erp/venue-erp/internal/ledger/shared"
)

// BalanceSheetAccount is a leaf row with its balance as a positive
// magnitude on the section's natural side.
type BalanceSheetAccount struct {
	Code    string
	Name    string
	Balance float64
}

// BalanceSheetGroup is a sub-header bucket inside a section.
type BalanceSheetGroup struct {
	Code     string
	Name     string
	Accounts []BalanceSheetAccount
	Total    float64
}

// BalanceSheetSection is one of assets, liabilities, or equity.
type BalanceSheetSection struct {
	Label  string
	Groups []BalanceSheetGroup
	Total  float64
}

// BalanceSheet is the point-in-time statement. ProfitLoss is the
// period result folded into equity so the sheet closes.
type BalanceSheet struct {
	Assets                    BalanceSheetSection
	Liabilities               BalanceSheetSection
	Equity                    BalanceSheetSection
	ProfitLoss                float64
	TotalLiabilitiesAndEquity float64
	Balanced                  bool
}

// BuildBalanceSheet walks balance-sheet accounts into their
// header-derived sections, omitting zero balances, and folds the
// profit or loss into equity.
func BuildBalanceSheet(activity []AccountActivity, profitLoss float64) BalanceSheet {
	assets := BalanceSheetSection{Label: "Assets"}
	liabilities := BalanceSheetSection{Label: "Liabilities"}
	equity := BalanceSheetSection{Label: "Equity"}

	groups := map[string]*BalanceSheetGroup{}
	sections := map[string]*BalanceSheetSection{}

	for _, a := range activity {
		if accounts.DeriveReporting(a.Code) != accounts.ReportingBalanceSheet {
			continue
		}
		net := a.Net()
		if shared.SameAmount(net, 0) {
			continue
		}
		var section *BalanceSheetSection
		var balance float64
		switch a.Code[0] {
		case '1':
			section, balance = &assets, net
		case '2':
			section, balance = &liabilities, -net
		case '3':
			section, balance = &equity, -net
		}
		key := a.Code[:1] + "|" + a.SubHeaderCode
		grp, ok := groups[key]
		if !ok {
			grp = &BalanceSheetGroup{Code: a.SubHeaderCode, Name: a.SubHeaderName}
			groups[key] = grp
			sections[key] = section
		}
		grp.Accounts = append(grp.Accounts, BalanceSheetAccount{Code: a.Code, Name: a.Name, Balance: shared.Round2(balance)})
		grp.Total = shared.Round2(grp.Total + balance)
		section.Total = shared.Round2(section.Total + balance)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		grp := groups[k]
		sort.Slice(grp.Accounts, func(i, j int) bool { return grp.Accounts[i].Code < grp.Accounts[j].Code })
		sections[k].Groups = append(sections[k].Groups, *grp)
	}

	equity.Total = shared.Round2(equity.Total + profitLoss)
	sheet := BalanceSheet{
		Assets:      assets,
		Liabilities: liabilities,
		Equity:      equity,
		ProfitLoss:  shared.Round2(profitLoss),
	}
	sheet.TotalLiabilitiesAndEquity = shared.Round2(liabilities.Total + equity.Total)
	sheet.Balanced = shared.SameAmount(assets.Total, sheet.TotalLiabilitiesAndEquity)
	return sheet
}

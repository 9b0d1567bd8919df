package accounts

import "time"

// Sign is the normal balance side of an account.
type Sign string

const (
	SignDebit  Sign = "DR"
	SignCredit Sign = "CR"
)

// Reporting classifies an account into a financial statement.
type Reporting string

const (
	ReportingBalanceSheet Reporting = "BS"
	ReportingProfitLoss   Reporting = "PL"
)

// AccountType enumerates functional account categories.
type AccountType string

const (
	AccountTypeCash       AccountType = "cash"
	AccountTypeBank       AccountType = "bank_transfer"
	AccountTypeReceivable AccountType = "receivable"
	AccountTypePayable    AccountType = "payable"
	AccountTypeCOGS       AccountType = "cogs"
	AccountTypeKitchen    AccountType = "kitchen"
	AccountTypeEquity     AccountType = "owners_equity"
	AccountTypeIncome     AccountType = "income"
	AccountTypeExpense    AccountType = "expense"
)

// Header is a top-level chart-of-accounts grouping.
type Header struct {
	ID   int64
	Code string
	Name string
}

// SubHeader groups account leaves under a header. Its code must extend
// the header's code so balances roll up along the prefix.
type SubHeader struct {
	ID         int64
	Code       string
	Name       string
	HeaderID   int64
	HeaderCode string
	HeaderName string
	CreatedAt  time.Time
}

// Account models a chart-of-accounts leaf under a header/sub-header hierarchy.
// Sign and Reporting are derived from the code, never stored.
type Account struct {
	ID            int64
	Code          string
	Name          string
	Type          AccountType
	Currency      string
	SubHeaderCode string
	SubHeaderName string
	HeaderCode    string
	HeaderName    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Sign returns the normal balance side derived from the account code.
func (a Account) Sign() Sign {
	return DeriveSign(a.Code)
}

// Reporting returns the statement classification derived from the account code.
func (a Account) Reporting() Reporting {
	return DeriveReporting(a.Code)
}

// DeriveSign maps the first digit of a code to its normal balance side.
// Codes 1xxx, 5xxx, 6xxx and 8xxx are debit-normal; the rest are credit-normal.
func DeriveSign(code string) Sign {
	if code == "" {
		return ""
	}
	switch code[0] {
	case '1', '5', '6', '8':
		return SignDebit
	case '2', '3', '4', '7', '9':
		return SignCredit
	}
	return ""
}

// DeriveReporting maps the first digit of a code to a statement.
// Codes 1xxx-3xxx are balance sheet; 4xxx-9xxx are profit and loss.
func DeriveReporting(code string) Reporting {
	if code == "" {
		return ""
	}
	switch code[0] {
	case '1', '2', '3':
		return ReportingBalanceSheet
	case '4', '5', '6', '7', '8', '9':
		return ReportingProfitLoss
	}
	return ""
}

// Package balances derives balances and financial reports from booking
// lines. Builders are pure; repositories only aggregate.
package balances

import (
	"github.com/venue-erp/venue-erp/internal/ledger/accounts"
	"github.com/venue-erp/venue-erp/internal/ledger/shared"
)

// AccountActivity is one account's summed debit and credit line
// activity over a window, with enough chart metadata to classify it.
type AccountActivity struct {
	AccountID     int64
	Code          string
	Name          string
	Currency      string
	HeaderCode    string
	HeaderName    string
	SubHeaderCode string
	SubHeaderName string
	Debit         float64
	Credit        float64
}

// Net returns the signed balance, debits minus credits.
func (a AccountActivity) Net() float64 {
	return shared.Round2(a.Debit - a.Credit)
}

// Magnitude returns the balance as a positive number on the account's
// normal side, with the side it actually sits on.
func (a AccountActivity) Magnitude() (float64, accounts.Sign) {
	net := a.Net()
	if net >= 0 {
		return net, accounts.SignDebit
	}
	return -net, accounts.SignCredit
}

// Balance is the answer to "what does this account hold as of a date".
type Balance struct {
	AccountID int64
	Code      string
	Name      string
	Currency  string
	Signed    float64
	Amount    float64
	Side      accounts.Sign
}

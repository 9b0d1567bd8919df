package currency

import (
	"context"
	"fmt"
	"time"

	"github.com/venue-erp/venue-erp/internal/ledger/shared"
)

// RateSource is the read side the converter needs.
type RateSource interface {
	RateOn(ctx context.Context, currency string, date time.Time) (Rate, error)
}

// Converter translates amounts into the reporting currency using the
// rate for one specific date. Comparisons across currencies must use
// the same asOf for every leg.
type Converter struct {
	rates     RateSource
	Reporting string
}

func NewConverter(rates RateSource, reporting string) *Converter {
	return &Converter{rates: rates, Reporting: reporting}
}

// ToReporting converts amount from the given currency at the asOf date.
// Amounts already in the reporting currency pass through untouched.
func (c *Converter) ToReporting(ctx context.Context, amount float64, from string, asOf time.Time) (float64, error) {
	if from == c.Reporting || from == "" {
		return amount, nil
	}
	rate, err := c.rates.RateOn(ctx, from, asOf)
	if err != nil {
		return 0, fmt.Errorf("convert %s on %s: %w", from, asOf.Format("2006-01-02"), err)
	}
	return shared.Round2(amount * rate.Rate), nil
}

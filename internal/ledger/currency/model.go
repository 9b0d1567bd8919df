// Package currency holds exchange rates and conversion into the
// reporting currency. Lookups are exact-date: a missing rate for the
// requested day is a hard error, never a fallback to an older rate.
package currency

import "time"

// Rate is the published exchange rate for one currency on one date,
// expressed as units of the reporting currency per unit of Currency.
type Rate struct {
	ID        int64
	Currency  string
	RateDate  time.Time
	Rate      float64
	CreatedAt time.Time
}

package models

import "time"

// ExchangeRate is one observation of a currency's rate against the canonical
// currency. Rate is units of the foreign currency per 1 USD. Rows are
// append-only; the latest Date per currency is authoritative.
type ExchangeRate struct {
	Currency string
	Rate     float64
	Date     time.Time
}

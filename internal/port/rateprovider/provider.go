// Package rateprovider defines the port for the external forex data API.
package rateprovider

import (
	"context"
	"time"
)

// Quotes maps a currency pair key (e.g. "USDEUR") to its exchange rate.
type Quotes map[string]float64

// Conversion is the result of converting an amount between two currencies.
type Conversion struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
	Rate   float64 `json:"rate"`
	Result float64 `json:"result"`
}

// Provider is the port interface for live and historical exchange rates.
type Provider interface {
	// LiveRates returns current quotes for the given source currency.
	// An empty currencies list requests all supported targets.
	LiveRates(ctx context.Context, source string, currencies []string) (Quotes, error)

	// HistoricalRates returns quotes for a specific date.
	HistoricalRates(ctx context.Context, date time.Time, source string, currencies []string) (Quotes, error)

	// Convert converts amount from one currency to another at the live rate.
	Convert(ctx context.Context, from, to string, amount float64) (*Conversion, error)

	// Timeframe returns daily quotes between start and end, keyed by
	// date (YYYY-MM-DD).
	Timeframe(ctx context.Context, start, end time.Time, source string, currencies []string) (map[string]Quotes, error)
}

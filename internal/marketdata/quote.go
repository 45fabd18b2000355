package marketdata

//go:generate mockgen -package=marketdata_test -destination=mock_provider_test.go -source=quote.go Provider

import (
	"context"
	"strings"
	"time"
)

// Quote is the normalized shape returned regardless of which provider
// answered.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	ChangePercent float64   `json:"change_percent"`
	Provider      string    `json:"provider"`
	RetrievedAt   time.Time `json:"retrieved_at"`
}

// Provider fetches a quote for one symbol from a single upstream source.
// Implementations do not retry and do not rate-limit themselves; the
// gateway owns quota checks, per-call timeouts, and the fallback order.
type Provider interface {
	Name() string
	FetchQuote(ctx context.Context, symbol string) (*Quote, error)
}

// NormalizeSymbol canonicalizes a ticker symbol for upstream lookups.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finadvisor/internal/observ"
	"finadvisor/internal/quota"
)

// ErrEmptySymbol is a caller error: nothing was sent upstream.
var ErrEmptySymbol = errors.New("empty symbol")

// Gateway tries an ordered chain of quote providers, one shot each.
// A provider is skipped without an upstream call when its quota is
// exhausted; any other failure (timeout, error, malformed response)
// moves straight to the next provider rather than retrying. Quota
// consumption is never refunded: it models intent to call.
type Gateway struct {
	providers   []Provider
	tracker     *quota.Tracker
	callTimeout time.Duration
}

func NewGateway(providers []Provider, tracker *quota.Tracker, callTimeout time.Duration) *Gateway {
	return &Gateway{
		providers:   providers,
		tracker:     tracker,
		callTimeout: callTimeout,
	}
}

// GetQuote returns a normalized quote from the first provider in the chain
// that has quota capacity and answers with a valid response. When the whole
// chain is exhausted or erroring it fails with *QuoteUnavailableError.
func (g *Gateway) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, ErrEmptySymbol
	}

	attempts := make([]Attempt, 0, len(g.providers))
	for _, p := range g.providers {
		name := p.Name()

		if !g.tracker.TryConsume(name) {
			attempts = append(attempts, Attempt{Provider: name, Reason: ReasonQuotaExhausted})
			observ.IncCounter("quota_refusals_total", map[string]string{"provider": name})
			observ.Log("quote_provider_skipped", map[string]any{
				"provider": name,
				"symbol":   symbol,
				"reason":   ReasonQuotaExhausted,
			})
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, g.callTimeout)
		start := time.Now()
		q, err := p.FetchQuote(callCtx, symbol)
		cancel()
		observ.RecordDuration("provider_call", time.Since(start), map[string]string{"provider": name})
		observ.IncCounter("provider_requests_total", map[string]string{"provider": name})

		if err != nil {
			attempts = append(attempts, classifyAttempt(name, err))
			observ.IncCounter("provider_errors_total", map[string]string{"provider": name})
			observ.Log("quote_provider_failed", map[string]any{
				"provider": name,
				"symbol":   symbol,
				"error":    err.Error(),
			})
			continue
		}

		q.Provider = name
		return q, nil
	}

	return nil, &QuoteUnavailableError{Symbol: symbol, Attempts: attempts}
}

func classifyAttempt(provider string, err error) Attempt {
	// Context expiry can surface either as the raw context error or wrapped
	// inside the provider's transport error.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Attempt{Provider: provider, Reason: ReasonTimeout, Detail: err.Error()}
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return Attempt{Provider: provider, Reason: pe.Reason, Detail: pe.Message}
	}
	return Attempt{Provider: provider, Reason: ReasonProviderError, Detail: fmt.Sprintf("%v", err)}
}

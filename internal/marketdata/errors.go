package marketdata

import (
	"fmt"
	"strings"
)

// Failure reasons recorded per provider attempt.
const (
	ReasonQuotaExhausted = "quota_exhausted" // refused locally, never sent upstream
	ReasonTimeout        = "timeout"
	ReasonRateLimited    = "rate_limited" // upstream told us to back off
	ReasonProviderError  = "provider_error"
	ReasonBadResponse    = "bad_response"
)

// ProviderError is a typed failure from a single provider call.
type ProviderError struct {
	Provider string
	Symbol   string
	Reason   string
	Message  string
	Cause    error
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s for %s: %s (%v)", e.Provider, e.Reason, e.Symbol, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s for %s: %s", e.Provider, e.Reason, e.Symbol, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Cause }

func NewTimeoutError(provider, symbol string, cause error) *ProviderError {
	return &ProviderError{Provider: provider, Symbol: symbol, Reason: ReasonTimeout, Message: "call timed out", Cause: cause}
}

func NewRateLimitedError(provider, symbol, message string) *ProviderError {
	return &ProviderError{Provider: provider, Symbol: symbol, Reason: ReasonRateLimited, Message: message}
}

func NewProviderCallError(provider, symbol, message string, cause error) *ProviderError {
	return &ProviderError{Provider: provider, Symbol: symbol, Reason: ReasonProviderError, Message: message, Cause: cause}
}

func NewBadResponseError(provider, symbol, message string) *ProviderError {
	return &ProviderError{Provider: provider, Symbol: symbol, Reason: ReasonBadResponse, Message: message}
}

// Attempt records why one provider did not produce a quote.
type Attempt struct {
	Provider string `json:"provider"`
	Reason   string `json:"reason"`
	Detail   string `json:"detail,omitempty"`
}

// QuoteUnavailableError is returned when every provider in the chain was
// exhausted or failed. It carries which providers were attempted and why.
type QuoteUnavailableError struct {
	Symbol   string
	Attempts []Attempt
}

func (e *QuoteUnavailableError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %s", a.Provider, a.Reason))
	}
	return fmt.Sprintf("quote unavailable for %s (%s)", e.Symbol, strings.Join(parts, "; "))
}

package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ProviderFinnhub identifies the fallback quote source.
const ProviderFinnhub = "finnhub"

// FinnhubClient fetches quotes from the Finnhub /api/v1/quote endpoint.
// Serves as the fallback source when the primary is exhausted or failing.
type FinnhubClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewFinnhubClient(baseURL, apiKey string, timeout time.Duration) (*FinnhubClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("finnhub API key is required")
	}
	return &FinnhubClient{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

func (c *FinnhubClient) Name() string { return ProviderFinnhub }

func (c *FinnhubClient) FetchQuote(ctx context.Context, symbol string) (*Quote, error) {
	params := url.Values{
		"symbol": {symbol},
		"token":  {c.apiKey},
	}
	requestURL := c.baseURL + "/api/v1/quote?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, NewProviderCallError(ProviderFinnhub, symbol, "failed to create request", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, NewTimeoutError(ProviderFinnhub, symbol, err)
		}
		return nil, NewProviderCallError(ProviderFinnhub, symbol, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, NewRateLimitedError(ProviderFinnhub, symbol, "API rate limit exceeded")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, NewProviderCallError(ProviderFinnhub, symbol, fmt.Sprintf("HTTP %d", resp.StatusCode), nil)
	}

	var response struct {
		Current       float64 `json:"c"`
		ChangePercent float64 `json:"dp"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, NewBadResponseError(ProviderFinnhub, symbol, "failed to parse response")
	}

	// Finnhub returns zeros rather than an error for unknown symbols.
	if response.Current <= 0 {
		return nil, NewBadResponseError(ProviderFinnhub, symbol, "no quote data returned")
	}

	return &Quote{
		Symbol:        symbol,
		Price:         response.Current,
		ChangePercent: response.ChangePercent,
		Provider:      ProviderFinnhub,
		RetrievedAt:   time.Now().UTC(),
	}, nil
}

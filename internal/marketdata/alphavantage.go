package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ProviderAlphaVantage is the identifier used in quota keys, attempt
// records, and served quotes.
const ProviderAlphaVantage = "alphavantage"

// AlphaVantageClient fetches quotes from the Alpha Vantage GLOBAL_QUOTE
// endpoint. Free tier: 25 calls per day; the caller's quota tracker is
// what keeps us under it.
type AlphaVantageClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewAlphaVantageClient(baseURL, apiKey string, timeout time.Duration) (*AlphaVantageClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("alpha vantage API key is required")
	}
	return &AlphaVantageClient{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

func (c *AlphaVantageClient) Name() string { return ProviderAlphaVantage }

func (c *AlphaVantageClient) FetchQuote(ctx context.Context, symbol string) (*Quote, error) {
	params := url.Values{
		"function": {"GLOBAL_QUOTE"},
		"symbol":   {symbol},
		"apikey":   {c.apiKey},
	}
	requestURL := c.baseURL + "/query?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, NewProviderCallError(ProviderAlphaVantage, symbol, "failed to create request", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, NewTimeoutError(ProviderAlphaVantage, symbol, err)
		}
		return nil, NewProviderCallError(ProviderAlphaVantage, symbol, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, NewRateLimitedError(ProviderAlphaVantage, symbol, "API rate limit exceeded")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, NewProviderCallError(ProviderAlphaVantage, symbol, fmt.Sprintf("HTTP %d", resp.StatusCode), nil)
	}

	var response struct {
		GlobalQuote  map[string]string `json:"Global Quote"`
		ErrorMessage string            `json:"Error Message"`
		Note         string            `json:"Note"`
		Information  string            `json:"Information"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, NewBadResponseError(ProviderAlphaVantage, symbol, "failed to parse response")
	}

	if response.ErrorMessage != "" {
		return nil, NewProviderCallError(ProviderAlphaVantage, symbol, response.ErrorMessage, nil)
	}
	// "Note"/"Information" on a 200 is how Alpha Vantage reports call
	// frequency limits.
	if response.Note != "" {
		return nil, NewRateLimitedError(ProviderAlphaVantage, symbol, response.Note)
	}
	if response.Information != "" {
		return nil, NewRateLimitedError(ProviderAlphaVantage, symbol, response.Information)
	}
	if len(response.GlobalQuote) == 0 {
		return nil, NewBadResponseError(ProviderAlphaVantage, symbol, "no quote data returned")
	}

	// Alpha Vantage keys are numbered: "05. price", "10. change percent".
	price, err := strconv.ParseFloat(response.GlobalQuote["05. price"], 64)
	if err != nil || price <= 0 {
		return nil, NewBadResponseError(ProviderAlphaVantage, symbol, "missing or invalid price")
	}
	changePercent, err := strconv.ParseFloat(
		strings.TrimSuffix(response.GlobalQuote["10. change percent"], "%"), 64)
	if err != nil {
		return nil, NewBadResponseError(ProviderAlphaVantage, symbol, "missing or invalid change percent")
	}

	return &Quote{
		Symbol:        symbol,
		Price:         price,
		ChangePercent: changePercent,
		Provider:      ProviderAlphaVantage,
		RetrievedAt:   time.Now().UTC(),
	}, nil
}

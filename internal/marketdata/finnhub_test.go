package marketdata_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finadvisor/internal/marketdata"
)

func TestFinnhubClient_ParsesQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/quote", r.URL.Path)
		assert.Equal(t, "TSLA", r.URL.Query().Get("symbol"))
		assert.Equal(t, "test-token", r.URL.Query().Get("token"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"c": 250.45, "d": -5.3, "dp": -2.0723, "h": 258.1, "l": 249.0, "o": 256.2, "pc": 255.75}`))
	}))
	defer srv.Close()

	client, err := marketdata.NewFinnhubClient(srv.URL, "test-token", 5*time.Second)
	require.NoError(t, err)

	q, err := client.FetchQuote(context.Background(), "TSLA")
	require.NoError(t, err)
	assert.Equal(t, "TSLA", q.Symbol)
	assert.InDelta(t, 250.45, q.Price, 1e-9)
	assert.InDelta(t, -2.0723, q.ChangePercent, 1e-9)
	assert.Equal(t, "finnhub", q.Provider)
}

func TestFinnhubClient_ZeroPriceIsBadResponse(t *testing.T) {
	// Finnhub answers unknown symbols with all-zero fields and a 200.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"c": 0, "d": null, "dp": null, "h": 0, "l": 0, "o": 0, "pc": 0}`))
	}))
	defer srv.Close()

	client, err := marketdata.NewFinnhubClient(srv.URL, "test-token", 5*time.Second)
	require.NoError(t, err)

	_, err = client.FetchQuote(context.Background(), "ZZZZ")
	var pe *marketdata.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, marketdata.ReasonBadResponse, pe.Reason)
}

func TestFinnhubClient_TooManyRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := marketdata.NewFinnhubClient(srv.URL, "test-token", 5*time.Second)
	require.NoError(t, err)

	_, err = client.FetchQuote(context.Background(), "AAPL")
	var pe *marketdata.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, marketdata.ReasonRateLimited, pe.Reason)
}

func TestNewFinnhubClient_RequiresAPIKey(t *testing.T) {
	_, err := marketdata.NewFinnhubClient("https://example.com", "", time.Second)
	assert.Error(t, err)
}

package marketdata_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"finadvisor/internal/marketdata"
	"finadvisor/internal/quota"
)

func newTracker(primaryLimit, secondaryLimit int) *quota.Tracker {
	return quota.NewTracker(map[string]quota.Window{
		"primary":   {Kind: quota.WindowPerDay, Limit: primaryLimit},
		"secondary": {Kind: quota.WindowPerMinute, Limit: secondaryLimit},
	})
}

func TestGateway_PrimaryServesWithoutTouchingSecondary(t *testing.T) {
	ctrl := gomock.NewController(t)

	primary := NewMockProvider(ctrl)
	primary.EXPECT().Name().Return("primary").AnyTimes()
	primary.EXPECT().
		FetchQuote(gomock.Any(), "AAPL").
		Return(&marketdata.Quote{Symbol: "AAPL", Price: 195.3, ChangePercent: 1.2}, nil).
		Times(1)

	secondary := NewMockProvider(ctrl)
	secondary.EXPECT().Name().Return("secondary").AnyTimes()
	// No FetchQuote expectation: the secondary must never be called.

	gw := marketdata.NewGateway(
		[]marketdata.Provider{primary, secondary}, newTracker(5, 5), time.Second)

	q, err := gw.GetQuote(context.Background(), "aapl ")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, "primary", q.Provider)
}

func TestGateway_ExhaustedPrimarySkippedWithoutCall(t *testing.T) {
	ctrl := gomock.NewController(t)

	primary := NewMockProvider(ctrl)
	primary.EXPECT().Name().Return("primary").AnyTimes()
	// Zero quota for the primary: FetchQuote must never be invoked on it.

	secondary := NewMockProvider(ctrl)
	secondary.EXPECT().Name().Return("secondary").AnyTimes()
	secondary.EXPECT().
		FetchQuote(gomock.Any(), "TSLA").
		Return(&marketdata.Quote{Symbol: "TSLA", Price: 250.0, ChangePercent: -2.1}, nil).
		Times(1)

	gw := marketdata.NewGateway(
		[]marketdata.Provider{primary, secondary}, newTracker(0, 5), time.Second)

	q, err := gw.GetQuote(context.Background(), "TSLA")
	require.NoError(t, err)
	assert.Equal(t, "secondary", q.Provider)
}

func TestGateway_PrimaryFailureFallsBackOnce(t *testing.T) {
	ctrl := gomock.NewController(t)

	primary := NewMockProvider(ctrl)
	primary.EXPECT().Name().Return("primary").AnyTimes()
	primary.EXPECT().
		FetchQuote(gomock.Any(), "MSFT").
		Return(nil, marketdata.NewBadResponseError("primary", "MSFT", "no quote data returned")).
		Times(1) // exactly one shot, no retry

	secondary := NewMockProvider(ctrl)
	secondary.EXPECT().Name().Return("secondary").AnyTimes()
	secondary.EXPECT().
		FetchQuote(gomock.Any(), "MSFT").
		Return(&marketdata.Quote{Symbol: "MSFT", Price: 420.0, ChangePercent: 0.4}, nil).
		Times(1)

	gw := marketdata.NewGateway(
		[]marketdata.Provider{primary, secondary}, newTracker(5, 5), time.Second)

	q, err := gw.GetQuote(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Equal(t, "secondary", q.Provider)
}

func TestGateway_AllProvidersFailing_QuoteUnavailableCarriesReasons(t *testing.T) {
	ctrl := gomock.NewController(t)

	primary := NewMockProvider(ctrl)
	primary.EXPECT().Name().Return("primary").AnyTimes()
	primary.EXPECT().
		FetchQuote(gomock.Any(), "NVDA").
		Return(nil, marketdata.NewRateLimitedError("primary", "NVDA", "frequency exceeded")).
		Times(1)

	secondary := NewMockProvider(ctrl)
	secondary.EXPECT().Name().Return("secondary").AnyTimes()
	secondary.EXPECT().
		FetchQuote(gomock.Any(), "NVDA").
		Return(nil, marketdata.NewProviderCallError("secondary", "NVDA", "HTTP 500", nil)).
		Times(1)

	gw := marketdata.NewGateway(
		[]marketdata.Provider{primary, secondary}, newTracker(5, 5), time.Second)

	_, err := gw.GetQuote(context.Background(), "NVDA")
	var unavailable *marketdata.QuoteUnavailableError
	require.ErrorAs(t, err, &unavailable)
	require.Len(t, unavailable.Attempts, 2)
	assert.Equal(t, marketdata.Attempt{Provider: "primary", Reason: marketdata.ReasonRateLimited, Detail: "frequency exceeded"}, unavailable.Attempts[0])
	assert.Equal(t, "secondary", unavailable.Attempts[1].Provider)
	assert.Equal(t, marketdata.ReasonProviderError, unavailable.Attempts[1].Reason)
}

func TestGateway_TimeoutCountsAsProviderFailure(t *testing.T) {
	ctrl := gomock.NewController(t)

	primary := NewMockProvider(ctrl)
	primary.EXPECT().Name().Return("primary").AnyTimes()
	primary.EXPECT().
		FetchQuote(gomock.Any(), "AAPL").
		DoAndReturn(func(ctx context.Context, symbol string) (*marketdata.Quote, error) {
			<-ctx.Done()
			return nil, marketdata.NewTimeoutError("primary", symbol, ctx.Err())
		}).
		Times(1)

	secondary := NewMockProvider(ctrl)
	secondary.EXPECT().Name().Return("secondary").AnyTimes()
	secondary.EXPECT().
		FetchQuote(gomock.Any(), "AAPL").
		Return(&marketdata.Quote{Symbol: "AAPL", Price: 195.0, ChangePercent: 0.9}, nil).
		Times(1)

	tracker := newTracker(5, 5)
	gw := marketdata.NewGateway(
		[]marketdata.Provider{primary, secondary}, tracker, 20*time.Millisecond)

	q, err := gw.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "secondary", q.Provider)

	// Quota was consumed by the timed-out attempt and is not refunded.
	for _, s := range tracker.Status() {
		if s.Provider == "primary" {
			assert.Equal(t, 1, s.Used)
		}
	}
}

func TestGateway_EmptySymbolRejectedLocally(t *testing.T) {
	gw := marketdata.NewGateway(nil, newTracker(5, 5), time.Second)
	_, err := gw.GetQuote(context.Background(), "   ")
	assert.ErrorIs(t, err, marketdata.ErrEmptySymbol)
}

// Quota limit 1/day on the primary: first request is served by the primary,
// the second in the same window must go to the secondary, and with the
// secondary also exhausted the call fails with QuoteUnavailable.
func TestGateway_DailyQuotaEndToEnd(t *testing.T) {
	ctrl := gomock.NewController(t)

	primary := NewMockProvider(ctrl)
	primary.EXPECT().Name().Return("primary").AnyTimes()
	primary.EXPECT().
		FetchQuote(gomock.Any(), "AAPL").
		Return(&marketdata.Quote{Symbol: "AAPL", Price: 195.0, ChangePercent: 1.0}, nil).
		Times(1)

	secondary := NewMockProvider(ctrl)
	secondary.EXPECT().Name().Return("secondary").AnyTimes()
	secondary.EXPECT().
		FetchQuote(gomock.Any(), "AAPL").
		Return(&marketdata.Quote{Symbol: "AAPL", Price: 195.1, ChangePercent: 1.0}, nil).
		Times(1)

	gw := marketdata.NewGateway(
		[]marketdata.Provider{primary, secondary}, newTracker(1, 1), time.Second)

	q1, err := gw.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "primary", q1.Provider)

	q2, err := gw.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "secondary", q2.Provider)

	_, err = gw.GetQuote(context.Background(), "AAPL")
	var unavailable *marketdata.QuoteUnavailableError
	require.ErrorAs(t, err, &unavailable)
	require.Len(t, unavailable.Attempts, 2)
	for _, a := range unavailable.Attempts {
		assert.Equal(t, marketdata.ReasonQuotaExhausted, a.Reason)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_AppliesFreeTierLimits(t *testing.T) {
	c := Default()

	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, "google/flan-t5-large", c.Inference.Model)
	assert.Equal(t, "google/flan-t5-base", c.Inference.FallbackModel)
	assert.Equal(t, 25, c.Quotas.PrimaryDailyLimit)
	assert.Equal(t, 60, c.Quotas.SecondaryPerMinuteLimit)
	assert.InDelta(t, 0.75, c.Confidence.Base, 1e-9)
	assert.InDelta(t, 0.88, c.Confidence.Ceiling, 1e-9)
	assert.NotEmpty(t, c.Confidence.LowConfidenceMarkers)
}

func TestLoad_OverridesAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  addr: ":9090"
inference:
  model: "google/flan-t5-xl"
quotas:
  primary_daily_limit: 5
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", c.Server.Addr)
	assert.Equal(t, "google/flan-t5-xl", c.Inference.Model)
	assert.Equal(t, 5, c.Quotas.PrimaryDailyLimit)

	// Unset fields still fall back to defaults.
	assert.Equal(t, "google/flan-t5-base", c.Inference.FallbackModel)
	assert.Equal(t, 60, c.Quotas.SecondaryPerMinuteLimit)
	assert.Equal(t, "https://www.alphavantage.co", c.AlphaVantage.BaseURL)
}

func TestLoad_ResolvesSecretsFromEnv(t *testing.T) {
	t.Setenv("HUGGING_FACE_API_TOKEN", "hf_test_token")
	t.Setenv("ALPHA_VANTAGE_API_KEY", "av_test_key")
	t.Setenv("FINNHUB_API_KEY", "fh_test_key")

	c := Default()
	assert.Equal(t, "hf_test_token", c.Inference.Token)
	assert.Equal(t, "av_test_key", c.AlphaVantage.APIKey)
	assert.Equal(t, "fh_test_key", c.Finnhub.APIKey)
}

func TestLoad_MissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

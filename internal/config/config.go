package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Server struct {
	Addr                 string  `yaml:"addr"`
	ReadTimeoutSeconds   int     `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds  int     `yaml:"write_timeout_seconds"`
	RateLimitPerSecond   float64 `yaml:"rate_limit_per_second"`
	RateLimitBurst       int     `yaml:"rate_limit_burst"`
	ShutdownGraceSeconds int     `yaml:"shutdown_grace_seconds"`
}

type Inference struct {
	BaseURL        string `yaml:"base_url"`
	TokenEnv       string `yaml:"token_env"`
	Model          string `yaml:"model"`
	FallbackModel  string `yaml:"fallback_model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MinResponseLen int    `yaml:"min_response_len"`

	// Resolved from TokenEnv at load time; never serialized.
	Token string `yaml:"-"`
}

type Provider struct {
	BaseURL        string `yaml:"base_url"`
	APIKeyEnv      string `yaml:"api_key_env"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`

	APIKey string `yaml:"-"`
}

type Quotas struct {
	PrimaryDailyLimit       int `yaml:"primary_daily_limit"`
	SecondaryPerMinuteLimit int `yaml:"secondary_per_minute_limit"`
}

// Confidence holds the parameters of the deterministic confidence heuristic:
// score = clamp01(min(ceiling, base + len/length_divisor) - marker_penalty * markers_found).
type Confidence struct {
	Base                 float64  `yaml:"base"`
	LengthDivisor        float64  `yaml:"length_divisor"`
	Ceiling              float64  `yaml:"ceiling"`
	MarkerPenalty        float64  `yaml:"marker_penalty"`
	LowConfidenceMarkers []string `yaml:"low_confidence_markers"`
}

type Root struct {
	Server       Server     `yaml:"server"`
	Inference    Inference  `yaml:"inference"`
	AlphaVantage Provider   `yaml:"alphavantage"`
	Finnhub      Provider   `yaml:"finnhub"`
	Quotas       Quotas     `yaml:"quotas"`
	Confidence   Confidence `yaml:"confidence"`
}

// Load reads the yaml config, applies defaults, and resolves credentials
// from the environment. Configuration is read once at process start and
// treated as immutable afterwards.
func Load(path string) (Root, error) {
	var c Root
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("parse %s: %w", path, err)
	}
	c.applyDefaults()
	c.resolveSecrets()
	return c, nil
}

// Default returns a config with all defaults applied and secrets resolved,
// for running without a config file.
func Default() Root {
	var c Root
	c.applyDefaults()
	c.resolveSecrets()
	return c
}

func (c *Root) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = 15
	}
	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = 60
	}
	if c.Server.RateLimitPerSecond == 0 {
		c.Server.RateLimitPerSecond = 20
	}
	if c.Server.RateLimitBurst == 0 {
		c.Server.RateLimitBurst = 40
	}
	if c.Server.ShutdownGraceSeconds == 0 {
		c.Server.ShutdownGraceSeconds = 10
	}

	if c.Inference.BaseURL == "" {
		c.Inference.BaseURL = "https://api-inference.huggingface.co"
	}
	if c.Inference.TokenEnv == "" {
		c.Inference.TokenEnv = "HUGGING_FACE_API_TOKEN"
	}
	if c.Inference.Model == "" {
		c.Inference.Model = "google/flan-t5-large"
	}
	if c.Inference.FallbackModel == "" {
		c.Inference.FallbackModel = "google/flan-t5-base"
	}
	if c.Inference.TimeoutSeconds == 0 {
		c.Inference.TimeoutSeconds = 30
	}
	if c.Inference.MinResponseLen == 0 {
		c.Inference.MinResponseLen = 50
	}

	if c.AlphaVantage.BaseURL == "" {
		c.AlphaVantage.BaseURL = "https://www.alphavantage.co"
	}
	if c.AlphaVantage.APIKeyEnv == "" {
		c.AlphaVantage.APIKeyEnv = "ALPHA_VANTAGE_API_KEY"
	}
	if c.AlphaVantage.TimeoutSeconds == 0 {
		c.AlphaVantage.TimeoutSeconds = 10
	}

	if c.Finnhub.BaseURL == "" {
		c.Finnhub.BaseURL = "https://finnhub.io"
	}
	if c.Finnhub.APIKeyEnv == "" {
		c.Finnhub.APIKeyEnv = "FINNHUB_API_KEY"
	}
	if c.Finnhub.TimeoutSeconds == 0 {
		c.Finnhub.TimeoutSeconds = 10
	}

	if c.Quotas.PrimaryDailyLimit == 0 {
		c.Quotas.PrimaryDailyLimit = 25 // Alpha Vantage free tier
	}
	if c.Quotas.SecondaryPerMinuteLimit == 0 {
		c.Quotas.SecondaryPerMinuteLimit = 60 // Finnhub free tier
	}

	if c.Confidence.Base == 0 {
		c.Confidence.Base = 0.75
	}
	if c.Confidence.LengthDivisor == 0 {
		c.Confidence.LengthDivisor = 2000
	}
	if c.Confidence.Ceiling == 0 {
		c.Confidence.Ceiling = 0.88
	}
	if c.Confidence.MarkerPenalty == 0 {
		c.Confidence.MarkerPenalty = 0.10
	}
	if len(c.Confidence.LowConfidenceMarkers) == 0 {
		c.Confidence.LowConfidenceMarkers = []string{
			"i'm not sure",
			"i am not sure",
			"cannot answer",
			"don't know",
			"unclear",
		}
	}
}

func (c *Root) resolveSecrets() {
	c.Inference.Token = os.Getenv(c.Inference.TokenEnv)
	c.AlphaVantage.APIKey = os.Getenv(c.AlphaVantage.APIKeyEnv)
	c.Finnhub.APIKey = os.Getenv(c.Finnhub.APIKeyEnv)
}

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finadvisor/internal/analysis"
	"finadvisor/internal/config"
	"finadvisor/internal/inference"
	"finadvisor/internal/marketdata"
	"finadvisor/internal/observ"
	"finadvisor/internal/quota"
	"finadvisor/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (optional, defaults apply)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		observ.Log("dotenv_skipped", map[string]any{"reason": err.Error()})
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
	}

	tracker := quota.NewTracker(map[string]quota.Window{
		marketdata.ProviderAlphaVantage: {Kind: quota.WindowPerDay, Limit: cfg.Quotas.PrimaryDailyLimit},
		marketdata.ProviderFinnhub:      {Kind: quota.WindowPerMinute, Limit: cfg.Quotas.SecondaryPerMinuteLimit},
	})

	providers := buildProviders(cfg)
	if len(providers) == 0 {
		log.Fatal("no market data providers configured: set ALPHA_VANTAGE_API_KEY or FINNHUB_API_KEY")
	}
	providerNames := make([]string, 0, len(providers))
	for _, p := range providers {
		providerNames = append(providerNames, p.Name())
	}

	gateway := marketdata.NewGateway(providers, tracker, time.Duration(cfg.AlphaVantage.TimeoutSeconds)*time.Second)

	if cfg.Inference.Token == "" {
		observ.Log("inference_token_missing", map[string]any{"env": cfg.Inference.TokenEnv})
	}
	client := inference.NewClient(cfg.Inference.BaseURL, cfg.Inference.Token,
		time.Duration(cfg.Inference.TimeoutSeconds)*time.Second)

	orchestrator := analysis.NewOrchestrator(client,
		cfg.Inference.Model, cfg.Inference.FallbackModel,
		cfg.Inference.MinResponseLen,
		analysis.NewLengthHeuristicScorer(cfg.Confidence))

	srv := server.New(orchestrator, gateway, tracker, server.Info{
		Service:       "finadvisor",
		Model:         cfg.Inference.Model,
		FallbackModel: cfg.Inference.FallbackModel,
		Providers:     providerNames,
	}, cfg.Server.RateLimitPerSecond, cfg.Server.RateLimitBurst)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Router(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		observ.Log("server_started", map[string]any{
			"addr":      cfg.Server.Addr,
			"model":     cfg.Inference.Model,
			"providers": providerNames,
		})
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	observ.Log("server_stopping", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownGraceSeconds)*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	observ.Log("server_stopped", nil)
}

// buildProviders assembles the fallback chain in priority order. A provider
// with no API key is left out rather than failing startup, so the service
// can run on whichever keys are present.
func buildProviders(cfg config.Root) []marketdata.Provider {
	var providers []marketdata.Provider

	if av, err := marketdata.NewAlphaVantageClient(cfg.AlphaVantage.BaseURL, cfg.AlphaVantage.APIKey,
		time.Duration(cfg.AlphaVantage.TimeoutSeconds)*time.Second); err == nil {
		providers = append(providers, av)
	} else {
		observ.Log("provider_skipped", map[string]any{"provider": marketdata.ProviderAlphaVantage, "reason": err.Error()})
	}

	if fh, err := marketdata.NewFinnhubClient(cfg.Finnhub.BaseURL, cfg.Finnhub.APIKey,
		time.Duration(cfg.Finnhub.TimeoutSeconds)*time.Second); err == nil {
		providers = append(providers, fh)
	} else {
		observ.Log("provider_skipped", map[string]any{"provider": marketdata.ProviderFinnhub, "reason": err.Error()})
	}

	return providers
}

// Package server is the HTTP front door: routing, inbound rate limiting,
// and translation between wire requests and the analysis / market-data
// components.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"finadvisor/internal/analysis"
	"finadvisor/internal/marketdata"
	"finadvisor/internal/observ"
	"finadvisor/internal/quota"
)

// Analyzer is the orchestrator's contract with the front door.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error)
}

// QuoteFetcher is the market-data gateway's contract with the front door.
type QuoteFetcher interface {
	GetQuote(ctx context.Context, symbol string) (*marketdata.Quote, error)
}

// Info is static service metadata reported on the status endpoint.
type Info struct {
	Service       string
	Model         string
	FallbackModel string
	Providers     []string
}

type Server struct {
	analyzer Analyzer
	quotes   QuoteFetcher
	tracker  *quota.Tracker
	info     Info
	limiter  *rate.Limiter
}

func New(analyzer Analyzer, quotes QuoteFetcher, tracker *quota.Tracker, info Info, rps float64, burst int) *Server {
	return &Server{
		analyzer: analyzer,
		quotes:   quotes,
		tracker:  tracker,
		info:     info,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Router assembles the HTTP routes and middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(cors)
	r.Use(s.rateLimit)

	r.Post("/analyze", s.handleAnalyze)
	r.Get("/quote/{symbol}", s.handleQuote)
	r.Post("/snapshot", s.handleSnapshot)
	r.Get("/status", s.handleStatus)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", observ.Handler())

	return r
}

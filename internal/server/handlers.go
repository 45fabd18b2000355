package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"finadvisor/internal/analysis"
	"finadvisor/internal/marketdata"
	"finadvisor/internal/observ"
)

const snapshotMaxSymbols = 5

type errorResponse struct {
	Error     string               `json:"error"`
	Detail    string               `json:"detail,omitempty"`
	Attempts  []marketdata.Attempt `json:"attempts,omitempty"`
	RequestID string               `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, detail string, attempts []marketdata.Attempt) {
	writeJSON(w, status, errorResponse{
		Error:     code,
		Detail:    detail,
		Attempts:  attempts,
		RequestID: RequestID(r.Context()),
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analysis.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "malformed JSON body", nil)
		return
	}

	start := time.Now()
	res, err := s.analyzer.Analyze(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, analysis.ErrInvalidRequest):
			writeError(w, r, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		default:
			var failed *analysis.FailedError
			if errors.As(err, &failed) {
				writeError(w, r, http.StatusBadGateway, "analysis_failed", failed.Error(), nil)
			} else {
				writeError(w, r, http.StatusInternalServerError, "internal_error", err.Error(), nil)
			}
		}
		observ.Log("analyze_failed", map[string]any{
			"request_id": RequestID(r.Context()),
			"error":      err.Error(),
		})
		return
	}

	observ.Log("analyze_ok", map[string]any{
		"request_id":      RequestID(r.Context()),
		"model":           res.ModelUsed,
		"confidence":      res.ConfidenceScore,
		"processing_time": res.ProcessingTime,
		"total_ms":        time.Since(start).Milliseconds(),
	})
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	q, err := s.quotes.GetQuote(r.Context(), symbol)
	if err != nil {
		var unavailable *marketdata.QuoteUnavailableError
		switch {
		case errors.Is(err, marketdata.ErrEmptySymbol):
			writeError(w, r, http.StatusBadRequest, "invalid_request", "symbol must not be empty", nil)
		case errors.As(err, &unavailable):
			writeError(w, r, http.StatusServiceUnavailable, "quote_unavailable", "all providers exhausted or failing", unavailable.Attempts)
		default:
			writeError(w, r, http.StatusInternalServerError, "internal_error", err.Error(), nil)
		}
		return
	}

	writeJSON(w, http.StatusOK, q)
}

type snapshotRequest struct {
	Symbols []string `json:"symbols"`
}

type snapshotEntry struct {
	Quote    *marketdata.Quote    `json:"quote,omitempty"`
	Error    string               `json:"error,omitempty"`
	Attempts []marketdata.Attempt `json:"attempts,omitempty"`
}

type snapshotResponse struct {
	Quotes    map[string]snapshotEntry `json:"quotes"`
	Quotas    []quotaStatus            `json:"quotas"`
	Timestamp time.Time                `json:"timestamp"`
}

type quotaStatus struct {
	Provider  string    `json:"provider"`
	Window    string    `json:"window"`
	Limit     int       `json:"limit"`
	Used      int       `json:"used"`
	Remaining int       `json:"remaining"`
	ResetsAt  time.Time `json:"resets_at"`
}

// handleSnapshot serves the dashboard's multi-symbol view: quotes for up
// to five symbols plus current provider budgets. Per-symbol failures are
// reported inline rather than failing the whole snapshot.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	var req snapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "malformed JSON body", nil)
		return
	}
	if len(req.Symbols) == 0 {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "symbols must not be empty", nil)
		return
	}
	if len(req.Symbols) > snapshotMaxSymbols {
		req.Symbols = req.Symbols[:snapshotMaxSymbols]
	}

	out := snapshotResponse{
		Quotes:    make(map[string]snapshotEntry, len(req.Symbols)),
		Timestamp: time.Now().UTC(),
	}
	for _, raw := range req.Symbols {
		symbol := marketdata.NormalizeSymbol(raw)
		if symbol == "" {
			continue
		}
		q, err := s.quotes.GetQuote(r.Context(), symbol)
		if err != nil {
			var unavailable *marketdata.QuoteUnavailableError
			if errors.As(err, &unavailable) {
				out.Quotes[symbol] = snapshotEntry{Error: "quote_unavailable", Attempts: unavailable.Attempts}
			} else {
				out.Quotes[symbol] = snapshotEntry{Error: err.Error()}
			}
			continue
		}
		out.Quotes[symbol] = snapshotEntry{Quote: q}
	}
	out.Quotas = s.quotaStatuses()

	writeJSON(w, http.StatusOK, out)
}

type statusResponse struct {
	Service       string        `json:"service"`
	Status        string        `json:"status"`
	Model         string        `json:"model"`
	FallbackModel string        `json:"fallback_model,omitempty"`
	AnalysisTypes []string      `json:"analysis_types"`
	Providers     []string      `json:"providers"`
	Quotas        []quotaStatus `json:"quotas"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Service:       s.info.Service,
		Status:        "operational",
		Model:         s.info.Model,
		FallbackModel: s.info.FallbackModel,
		AnalysisTypes: analysis.AnalysisTypes(),
		Providers:     s.info.Providers,
		Quotas:        s.quotaStatuses(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) quotaStatuses() []quotaStatus {
	statuses := s.tracker.Status()
	out := make([]quotaStatus, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, quotaStatus{
			Provider:  st.Provider,
			Window:    string(st.Window),
			Limit:     st.Limit,
			Used:      st.Used,
			Remaining: st.Remaining,
			ResetsAt:  st.ResetsAt,
		})
	}
	return out
}

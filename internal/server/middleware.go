package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"finadvisor/internal/observ"
)

type ctxKey int

const requestIDKey ctxKey = 0

// RequestID returns the request's ID, if the middleware attached one.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// requestID tags each request with a uuid, echoes it in a response header,
// and logs request completion.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)

		observ.IncCounter("http_requests_total", map[string]string{"path": r.URL.Path})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// cors mirrors the permissive policy of the dashboard deployment: the
// client is a browser app served from a different origin.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimit sheds inbound load before any quota or upstream call happens.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			observ.IncCounter("http_rate_limited_total", nil)
			writeError(w, r, http.StatusTooManyRequests, "rate_limited", "too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

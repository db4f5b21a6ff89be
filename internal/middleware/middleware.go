// Package middleware provides the HTTP edge's cross-cutting concerns:
// request-id propagation, a bounded worker pool, body-size enforcement,
// and panic recovery.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey int

const requestIDKey contextKey = 0

// RequestIDHeader is the header clients may set to propagate their own
// request id; one is generated when absent.
const RequestIDHeader = "X-Request-Id"

// RequestID reads the id WithRequestID stored in ctx, returning "" if none.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithRequestID ensures every request carries a request id, read from the
// incoming header or generated, stashed in the request's context so every
// log call downstream (via a zap field-extraction helper) can correlate.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LimitConcurrency bounds the number of requests handled at once to n
// workers. A request arriving while every worker is busy waits for one to
// free up; a client that gives up while waiting has its cancellation
// honored instead of receiving a late response.
func LimitConcurrency(n int) func(http.Handler) http.Handler {
	sem := make(chan struct{}, n)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
				next.ServeHTTP(w, r)
			case <-r.Context().Done():
				http.Error(w, "cancelled while waiting for a worker", http.StatusServiceUnavailable)
			}
		})
	}
}

// MaxBodySize caps the request body at limitBytes using http.MaxBytesReader,
// rejecting oversize bodies before they reach the core.
func MaxBodySize(limitBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, limitBytes)
			next.ServeHTTP(w, r)
		})
	}
}

type errorEnvelope struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// Recover catches a panic escaping the handler chain, logs it with a stack
// trace and the request id, and returns a structured internal error
// instead of crashing the worker — the taxonomy's Internal category.
func Recover(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					id := RequestID(r.Context())
					log.Error("http: recovered panic",
						zap.Any("panic", rec),
						zap.String("request_id", id),
						zap.Stack("stack"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(errorEnvelope{Error: "internal error", RequestID: id})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

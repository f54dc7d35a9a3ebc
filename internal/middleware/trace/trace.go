// Package trace assigns request IDs and logs request start and completion.
package trace

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	applog "finbook/internal/log"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"

	// HeaderRequestID carries the request ID in and out.
	HeaderRequestID = "X-Request-ID"
)

// Observer receives one sample per completed request.
type Observer interface {
	ObserveHTTP(route, method string, status int, elapsed time.Duration)
}

// Middleware handles request tracing and logging
type Middleware struct {
	logger     *applog.Logger
	extractIP  func(*http.Request) string
	routeLabel func(*http.Request) string
	observer   Observer
}

// NewMiddleware creates a trace middleware. routeLabel maps a request to a
// bounded metric label; observer may be nil.
func NewMiddleware(logger *applog.Logger, extractIP, routeLabel func(*http.Request) string, observer Observer) *Middleware {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	if routeLabel == nil {
		routeLabel = func(r *http.Request) string { return r.URL.Path }
	}
	return &Middleware{
		logger:     logger.WithComponent(applog.ComponentHTTP),
		extractIP:  extractIP,
		routeLabel: routeLabel,
		observer:   observer,
	}
}

// Middleware returns HTTP middleware for request tracing
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		requestID := r.Header.Get(HeaderRequestID)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, requestID)

		logger := m.logger.With(applog.FieldRequestID, requestID)
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		ctx = applog.NewContext(ctx, logger)
		r = r.WithContext(ctx)

		logger.DebugContext(ctx, "HTTP request started",
			applog.NewFields().
				WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
				WithClientIP(clientIP).
				ToSlice()...)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		elapsed := time.Since(start)
		if m.observer != nil {
			m.observer.ObserveHTTP(m.routeLabel(r), r.Method, rw.statusCode, elapsed)
		}

		level := slog.LevelInfo
		if rw.statusCode >= 400 && rw.statusCode < 500 {
			level = slog.LevelWarn
		} else if rw.statusCode >= 500 {
			level = slog.LevelError
		}
		logger.Log(ctx, level, "HTTP request completed",
			applog.NewFields().
				WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "").
				WithHTTPResponse(rw.statusCode, elapsed.Milliseconds()).
				WithClientIP(clientIP).
				ToSlice()...)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

package httpapi

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/authcore/pkg/clientip"
	"github.com/dmitrymomot/authcore/pkg/logger"
	"github.com/dmitrymomot/authcore/pkg/metrics"
	"github.com/dmitrymomot/authcore/pkg/ratelimiter"
)

// statusRecorder remembers the first status written through it.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.status = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.status = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

func (sr *statusRecorder) Unwrap() http.ResponseWriter { return sr.ResponseWriter }

// accessLog logs one record per request, at warn for 4xx and error for 5xx,
// and counts responses by route pattern when c is set.
func accessLog(log *slog.Logger, c *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			if c != nil {
				c.RecordHTTPResponse(route, rec.status)
			}

			level := slog.LevelInfo
			switch {
			case rec.status >= http.StatusInternalServerError:
				level = slog.LevelError
			case rec.status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}
			log.LogAttrs(r.Context(), level, "http request",
				slog.String("method", r.Method),
				slog.String("route", route),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				logger.Duration(time.Since(start)),
			)
		})
	}
}

// recoverer turns a handler panic into a 500 response.
func recoverer(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rv := recover()
				if rv == nil {
					return
				}
				if rv == http.ErrAbortHandler {
					panic(rv)
				}
				log.ErrorContext(r.Context(), "panic recovered",
					slog.Any("panic", rv),
					slog.String("stack", string(debug.Stack())),
				)
				writeError(w, http.StatusInternalServerError, "internal", http.StatusText(http.StatusInternalServerError))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// throttle limits each client address per endpoint.
func (h *handler) throttle(l ratelimiter.Limiter) func(http.Handler) http.Handler {
	key := ratelimiter.Composite(
		func(r *http.Request) string { return clientip.FromContext(r.Context()) },
		func(r *http.Request) string { return r.URL.Path },
	)
	return ratelimiter.Middleware(l, key,
		ratelimiter.WithDeniedHandler(func(w http.ResponseWriter, r *http.Request, _ *ratelimiter.Result) {
			h.log.WarnContext(r.Context(), "request throttled", slog.String("path", r.URL.Path))
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
		}),
		ratelimiter.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			h.log.ErrorContext(r.Context(), "rate limiter failed", logger.Error(err))
			writeError(w, http.StatusServiceUnavailable, "unavailable", http.StatusText(http.StatusServiceUnavailable))
		}),
	)
}

package ratelimiter

import (
	"hash/fnv"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// maxKeyLength bounds stored keys; longer composites are hashed.
const maxKeyLength = 64

// KeyFunc extracts a rate limit key from the request.
type KeyFunc func(r *http.Request) string

// Composite joins the non-empty parts of several key functions.
func Composite(keyFuncs ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(keyFuncs))
		for _, fn := range keyFuncs {
			if key := fn(r); key != "" {
				parts = append(parts, key)
			}
		}
		combined := strings.Join(parts, ":")
		if len(combined) > maxKeyLength {
			h := fnv.New64a()
			_, _ = h.Write([]byte(combined))
			return strconv.FormatUint(h.Sum64(), 36)
		}
		return combined
	}
}

// DeniedFunc writes the response for a throttled request.
type DeniedFunc func(w http.ResponseWriter, r *http.Request, res *Result)

// ErrorFunc writes the response when the limiter itself fails.
type ErrorFunc func(w http.ResponseWriter, r *http.Request, err error)

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middleware)

type middleware struct {
	denied  DeniedFunc
	onError ErrorFunc
	now     func() time.Time
}

// WithDeniedHandler replaces the plain 429 response.
func WithDeniedHandler(fn DeniedFunc) MiddlewareOption {
	return func(m *middleware) {
		if fn != nil {
			m.denied = fn
		}
	}
}

// WithErrorHandler replaces the plain 500 response.
func WithErrorHandler(fn ErrorFunc) MiddlewareOption {
	return func(m *middleware) {
		if fn != nil {
			m.onError = fn
		}
	}
}

// Middleware throttles requests by key and sets the X-RateLimit headers.
// Requests with an empty key are not limited.
func Middleware(l Limiter, key KeyFunc, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	m := &middleware{
		denied: func(w http.ResponseWriter, _ *http.Request, _ *Result) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		},
		onError: func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			res, err := l.Allow(r.Context(), k)
			if err != nil {
				m.onError(w, r, err)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(max(0, res.Remaining)))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed() {
				secs := int(math.Ceil(res.RetryAfter(m.now()).Seconds()))
				h.Set("Retry-After", strconv.Itoa(max(secs, 1)))
				m.denied(w, r, res)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Package clientip resolves the caller address of an HTTP request from
// trusted proxy headers, falling back to the connection address.
package clientip

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/dmitrymomot/authcore/pkg/logger"
)

// Config lists the proxy headers to trust, in priority order. An empty list
// trusts none and uses RemoteAddr only.
type Config struct {
	TrustedHeaders []string `env:"HTTP_TRUSTED_IP_HEADERS" envSeparator:","`
}

// Resolver extracts client addresses.
type Resolver struct {
	headers []string
}

// New returns a Resolver trusting headers in the given order.
func New(headers ...string) *Resolver {
	r := &Resolver{}
	for _, h := range headers {
		if h = strings.TrimSpace(h); h != "" {
			r.headers = append(r.headers, textproto.CanonicalMIMEHeaderKey(h))
		}
	}
	return r
}

// NewFromConfig returns a Resolver for cfg.
func NewFromConfig(cfg Config) *Resolver {
	return New(cfg.TrustedHeaders...)
}

// IP returns the normalized client address of req, or "" if none parses.
// List headers such as X-Forwarded-For yield their first valid entry.
func (r *Resolver) IP(req *http.Request) string {
	for _, h := range r.headers {
		for v := range strings.SplitSeq(req.Header.Get(h), ",") {
			if ip := parseIP(v); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return parseIP(req.RemoteAddr)
	}
	return parseIP(host)
}

// Middleware stores the resolved address in the request context.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ctx := WithContext(req.Context(), r.IP(req))
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

type contextKey struct{}

// WithContext returns ctx carrying ip.
func WithContext(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, contextKey{}, ip)
}

// FromContext returns the address stored by Middleware, or "".
func FromContext(ctx context.Context) string {
	ip, _ := ctx.Value(contextKey{}).(string)
	return ip
}

// LogExtractor adds the client address to log records.
func LogExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if ip := FromContext(ctx); ip != "" {
			return logger.ClientIP(ip), true
		}
		return slog.Attr{}, false
	}
}

func parseIP(s string) string {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return ""
	}
	return ip.String()
}

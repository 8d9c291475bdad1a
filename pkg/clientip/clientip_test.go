package clientip_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/authcore/pkg/clientip"
)

func TestResolverIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		trusted []string
		headers map[string]string
		remote  string
		want    string
	}{
		{
			name:   "remote addr without trusted headers",
			remote: "203.0.113.7:5123",
			want:   "203.0.113.7",
		},
		{
			name:    "untrusted header is ignored",
			headers: map[string]string{"X-Forwarded-For": "198.51.100.1"},
			remote:  "203.0.113.7:5123",
			want:    "203.0.113.7",
		},
		{
			name:    "first valid forwarded entry",
			trusted: []string{"x-forwarded-for"},
			headers: map[string]string{"X-Forwarded-For": "garbage, 198.51.100.1, 10.0.0.1"},
			remote:  "203.0.113.7:5123",
			want:    "198.51.100.1",
		},
		{
			name:    "priority order",
			trusted: []string{"CF-Connecting-IP", "X-Real-IP"},
			headers: map[string]string{"X-Real-IP": "10.0.0.2", "CF-Connecting-IP": "2001:db8::1"},
			remote:  "203.0.113.7:5123",
			want:    "2001:db8::1",
		},
		{
			name:    "falls through invalid header",
			trusted: []string{"X-Real-IP"},
			headers: map[string]string{"X-Real-IP": "not-an-ip"},
			remote:  "[2001:db8::2]:443",
			want:    "2001:db8::2",
		},
		{
			name:   "bare remote ip",
			remote: "192.0.2.4",
			want:   "192.0.2.4",
		},
		{
			name:   "unparseable remote",
			remote: "pipe",
			want:   "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientip.New(tt.trusted...).IP(req))
		})
	}
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	r := clientip.NewFromConfig(clientip.Config{TrustedHeaders: []string{"X-Real-IP"}})

	var seen string
	h := r.Middleware(http.HandlerFunc(func(_ http.ResponseWriter, req *http.Request) {
		seen = clientip.FromContext(req.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", "198.51.100.9")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "198.51.100.9", seen)

	attr, ok := clientip.LogExtractor()(clientip.WithContext(req.Context(), seen))
	assert.True(t, ok)
	assert.Equal(t, "client_ip", attr.Key)

	_, ok = clientip.LogExtractor()(req.Context())
	assert.False(t, ok)
}

package jwt_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authcore/pkg/jwt"
)

func TestMiddleware(t *testing.T) {
	t.Parallel()
	iss := newIssuer(t, time.Now)

	tok, err := iss.Issue("acc-9", "m@x.io")
	require.NoError(t, err)

	var seen *jwt.Claims
	h := jwt.Middleware(iss)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := jwt.GetClaims(r.Context())
		require.True(t, ok)
		raw, ok := jwt.GetToken(r.Context())
		require.True(t, ok)
		assert.Equal(t, tok, raw)
		seen = claims
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("valid bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "acc-9", seen.AccountID())
	})

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestExtractors(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer abc")
	tok, err := jwt.BearerTokenExtractor(req)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic abc")
	_, err = jwt.BearerTokenExtractor(req)
	assert.ErrorIs(t, err, jwt.ErrMissingToken)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: "xyz"})
	tok, err = jwt.CookieTokenExtractor("access_token")(req)
	require.NoError(t, err)
	assert.Equal(t, "xyz", tok)
}

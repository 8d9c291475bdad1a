package httpapi

import (
	"net/http"
	"strings"
)

type wellKnown struct {
	keys      KeySet
	issuer    string
	publicURL string
}

type discoveryDocument struct {
	Issuer        string   `json:"issuer"`
	JWKSURI       string   `json:"jwks_uri"`
	SigningAlgs   []string `json:"id_token_signing_alg_values_supported"`
	SubjectTypes  []string `json:"subject_types_supported"`
	ResponseTypes []string `json:"response_types_supported"`
}

const jwksPath = "/.well-known/jwks.json"

// jwks serves the precomputed key set.
func (k *wellKnown) jwks(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(k.keys.JWKSJSON())
}

func (k *wellKnown) openIDConfiguration(w http.ResponseWriter, r *http.Request) {
	base := k.baseURL(r)
	issuer := k.issuer
	if issuer == "" {
		issuer = base
	}
	writeJSON(w, http.StatusOK, discoveryDocument{
		Issuer:        issuer,
		JWKSURI:       base + jwksPath,
		SigningAlgs:   []string{"RS256"},
		SubjectTypes:  []string{"public"},
		ResponseTypes: []string{"token"},
	})
}

func (k *wellKnown) baseURL(r *http.Request) string {
	if k.publicURL != "" {
		return strings.TrimRight(k.publicURL, "/")
	}
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

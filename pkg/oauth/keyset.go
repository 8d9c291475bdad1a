package oauth

import (
	"context"
	"crypto/rsa"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/authcore/pkg/jwt"
)

const (
	defaultKeyCacheTTL = time.Hour
	minKeyRefresh      = 10 * time.Second
)

// remoteKeySet caches RSA verification keys fetched from a JWKS endpoint.
type remoteKeySet struct {
	url    string
	client *http.Client
	ttl    time.Duration
	now    func() time.Time

	mu      sync.RWMutex
	keys    map[string]*rsa.PublicKey
	fetched time.Time
}

func newRemoteKeySet(url string, ttl time.Duration, o *gatewayOptions) *remoteKeySet {
	if ttl <= 0 {
		ttl = defaultKeyCacheTTL
	}
	return &remoteKeySet{url: url, client: o.client, ttl: ttl, now: o.now}
}

// key returns the key for kid, refreshing the set when it is stale or the
// kid is unknown.
func (s *remoteKeySet) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	s.mu.RLock()
	k, ok := s.keys[kid]
	fresh := s.now().Sub(s.fetched) < s.ttl
	s.mu.RUnlock()
	if ok && fresh {
		return k, nil
	}

	if err := s.refresh(ctx, !ok); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if k, ok := s.keys[kid]; ok {
		return k, nil
	}
	return nil, fmt.Errorf("%w: unknown signing key %q", ErrInvalidCredential, kid)
}

func (s *remoteKeySet) refresh(ctx context.Context, missing bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	age := s.now().Sub(s.fetched)
	if s.keys != nil && age < s.ttl && (!missing || age < minKeyRefresh) {
		return nil
	}

	var set jwt.JWKS
	if err := fetchJSON(ctx, s.client, s.url, "", &set); err != nil {
		return fmt.Errorf("fetch jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Use != "" && k.Use != "sig" {
			continue
		}
		pub, err := k.PublicKey()
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}
	s.keys = keys
	s.fetched = s.now()
	return nil
}

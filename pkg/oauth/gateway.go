package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	ProviderGitHub = "github"
	ProviderGoogle = "google"
)

const defaultHTTPTimeout = 10 * time.Second

// Identity is the provider-neutral profile extracted from a credential.
type Identity struct {
	ExternalID string
	Email      string
	FullName   string
}

// Gateway verifies a provider credential.
// Exchange must honour ctx cancellation.
type Gateway interface {
	Name() string
	Exchange(ctx context.Context, credential string) (Identity, error)
}

// Option configures a gateway.
type Option func(*gatewayOptions)

type gatewayOptions struct {
	client *http.Client
	now    func() time.Time
}

// WithHTTPClient sets the client used to reach the provider.
func WithHTTPClient(c *http.Client) Option {
	return func(o *gatewayOptions) {
		if c != nil {
			o.client = c
		}
	}
}

// WithClock overrides time.Now for token validation.
func WithClock(now func() time.Time) Option {
	return func(o *gatewayOptions) {
		if now != nil {
			o.now = now
		}
	}
}

func applyOptions(opts []Option) gatewayOptions {
	o := gatewayOptions{
		client: &http.Client{Timeout: defaultHTTPTimeout},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

const maxResponseBytes = 1 << 20

// fetchJSON GETs url with an optional bearer token and decodes the body into out.
func fetchJSON(ctx context.Context, client *http.Client, url, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return errors.Join(ErrProviderUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s returned status %d", ErrInvalidCredential, url, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: %s returned status %d", ErrProviderUnavailable, url, resp.StatusCode)
	}

	dec := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return errors.Join(ErrInvalidProfile, err)
	}
	return nil
}

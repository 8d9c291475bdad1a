package oauth

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Registry maps provider names to gateways. It is read-only after construction.
type Registry struct {
	gateways map[string]Gateway
}

// NewRegistry indexes gateways by folded name.
func NewRegistry(gateways ...Gateway) (*Registry, error) {
	r := &Registry{gateways: make(map[string]Gateway, len(gateways))}
	for _, gw := range gateways {
		if gw == nil {
			continue
		}
		key := Normalize(gw.Name())
		if key == "" {
			return nil, fmt.Errorf("%w: empty provider name", ErrMisconfigured)
		}
		if _, ok := r.gateways[key]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateProvider, key)
		}
		r.gateways[key] = gw
	}
	return r, nil
}

// Resolve returns the gateway registered under name, ignoring case.
func (r *Registry) Resolve(name string) (Gateway, error) {
	if gw, ok := r.gateways[Normalize(name)]; ok {
		return gw, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, name)
}

// Names lists the registered provider names in canonical form.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.gateways))
	for name := range r.gateways {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Normalize returns the canonical provider name: trimmed and case folded.
func Normalize(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

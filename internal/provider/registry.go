package provider

import "fmt"

// Registry holds the configured providers in failover order. It is built
// once at startup and read-only afterwards, so concurrent reads need no
// synchronization.
type Registry struct {
	ordered []Provider
	byName  map[string]Provider
}

// NewRegistry builds a registry from providers already sorted into the
// desired failover order. Duplicate names are rejected.
func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{
		ordered: make([]Provider, 0, len(providers)),
		byName:  make(map[string]Provider, len(providers)),
	}
	for _, p := range providers {
		name := p.Name()
		if _, exists := r.byName[name]; exists {
			return nil, fmt.Errorf("duplicate storage provider %q", name)
		}
		r.byName[name] = p
		r.ordered = append(r.ordered, p)
	}
	return r, nil
}

// Ordered returns the providers in failover order. Callers must not mutate
// the returned slice.
func (r *Registry) Ordered() []Provider {
	return r.ordered
}

// ByName resolves a provider by its stable name.
func (r *Registry) ByName(name string) (Provider, bool) {
	p, ok := r.byName[name]
	return p, ok
}

package site

import (
	"fmt"
	"sort"
	"sync"

	"cleanuri/pkg/errs"
)

// Capability is the name site providers are registered under.
const Capability = "cleanuri.site.Site"

// Provider creates one Site instance.
type Provider func() (Site, error)

// Lookup enumerates every available Site.
type Lookup func() ([]Site, error)

// Registry maps capability names to their providers, in registration order.
type Registry struct {
	mu        sync.RWMutex
	providers map[string][]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string][]Provider)}
}

// Register appends p to the providers of capability.
func (r *Registry) Register(capability string, p Provider) error {
	if capability == "" {
		return errs.InvalidArgument("capability name is empty")
	}
	if p == nil {
		return errs.InvalidArgument("provider for %q is nil", capability)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[capability] = append(r.providers[capability], p)
	return nil
}

// Providers returns a snapshot of the providers registered for capability.
func (r *Registry) Providers(capability string) []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, len(r.providers[capability]))
	copy(out, r.providers[capability])
	return out
}

// Capabilities returns the names that have at least one provider.
func (r *Registry) Capabilities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns a Lookup that instantiates every provider of capability in
// registration order. The first provider error aborts the enumeration.
func (r *Registry) Lookup(capability string) Lookup {
	return func() ([]Site, error) {
		providers := r.Providers(capability)
		sites := make([]Site, 0, len(providers))
		for i, p := range providers {
			s, err := p()
			if err != nil {
				return nil, fmt.Errorf("%s provider #%d: %w", capability, i, err)
			}
			if s == nil {
				return nil, fmt.Errorf("%s provider #%d: %w", capability, i, errs.MissingValue("provider returned no site"))
			}
			sites = append(sites, s)
		}
		return sites, nil
	}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry is the process-wide registry plugins register into.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds p to the default registry under Capability. It is meant to
// be called from a plugin's init function and panics if p is nil.
func Register(p Provider) {
	if err := defaultRegistry.Register(Capability, p); err != nil {
		panic("site: Register: " + err.Error())
	}
}

package site

import (
	"net/url"
	"slices"
	"sync"
)

// Reporter is told about every site found by a discovery pass.
type Reporter func(d Descriptor)

// Loader discovers the available sites once and caches them until
// ClearCache is called.
type Loader struct {
	mu        sync.Mutex
	lookup    Lookup
	reporter  Reporter
	sites     []Site
	populated bool
}

type LoaderOption func(*Loader)

// WithLookup replaces the discovery mechanism.
func WithLookup(lookup Lookup) LoaderOption {
	return func(l *Loader) {
		l.lookup = lookup
	}
}

// WithRegistry discovers the sites registered in r under Capability.
func WithRegistry(r *Registry) LoaderOption {
	return WithLookup(r.Lookup(Capability))
}

// WithReporter installs the callback invoked once per discovered site.
func WithReporter(reporter Reporter) LoaderOption {
	return func(l *Loader) {
		if reporter != nil {
			l.reporter = reporter
		}
	}
}

// NewLoader returns an unpopulated loader reading the default registry.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		lookup:   defaultRegistry.Lookup(Capability),
		reporter: func(Descriptor) {},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// FindSites returns the cached sites, running discovery first if the cache
// is empty. A failed discovery leaves the cache empty.
func (l *Loader) FindSites() ([]Site, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.populated {
		sites, err := l.lookup()
		if err != nil {
			return nil, err
		}
		for _, s := range sites {
			l.reporter(s.Descriptor())
		}
		l.sites = sites
		l.populated = true
	}
	return slices.Clone(l.sites), nil
}

// ClearCache forces the next FindSites call to discover again.
func (l *Loader) ClearCache() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sites = nil
	l.populated = false
}

// FindSite returns the first site that can process u.
func (l *Loader) FindSite(u *url.URL) (Site, bool, error) {
	sites, err := l.FindSites()
	if err != nil {
		return nil, false, err
	}
	for _, s := range sites {
		if s.CanProcessURI(u) {
			return s, true, nil
		}
	}
	return nil, false, nil
}

func (l *Loader) Descriptors() ([]Descriptor, error) {
	sites, err := l.FindSites()
	if err != nil {
		return nil, err
	}
	out := make([]Descriptor, len(sites))
	for i, s := range sites {
		out[i] = s.Descriptor()
	}
	return out, nil
}

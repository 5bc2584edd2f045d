// Package extract runs site plugins on behalf of the HTTP layer. It resolves
// URIs to sites, bounds how many extractions run at once and how often each
// site is hit, and caches the results.
package extract

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"cleanuri/pkg/config"
	"cleanuri/pkg/errs"
	"cleanuri/pkg/logger"
	"cleanuri/pkg/models"
	"cleanuri/pkg/site"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ResultCache stores products by site label and canonical URI.
type ResultCache interface {
	Get(ctx context.Context, site, canonicalURI string) (*models.Product, bool)
	Set(ctx context.Context, site, canonicalURI string, product *models.Product)
}

type Service struct {
	loader  *site.Loader
	cache   ResultCache
	logger  *zap.Logger
	sem     chan struct{}
	timeout time.Duration
	limit   rate.Limit
	burst   int
	enabled func(label string) bool
	now     func() time.Time

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

type Option func(*Service)

// WithCache enables result caching.
func WithCache(c ResultCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithSiteFilter hides sites for which enabled returns false.
func WithSiteFilter(enabled func(label string) bool) Option {
	return func(s *Service) {
		s.enabled = enabled
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

func NewService(loader *site.Loader, cfg config.ExtractConfig, opts ...Option) *Service {
	s := &Service{
		loader:   loader,
		logger:   zap.NewNop(),
		sem:      make(chan struct{}, max(cfg.MaxConcurrent, 1)),
		timeout:  cfg.Timeout,
		limit:    rate.Limit(cfg.RatePerSecond),
		burst:    max(cfg.Burst, 1),
		enabled:  func(string) bool { return true },
		now:      time.Now,
		limiters: make(map[string]*rate.Limiter),
	}
	if cfg.RatePerSecond <= 0 {
		s.limit = rate.Inf
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sites returns the descriptors of the enabled sites.
func (s *Service) Sites(ctx context.Context) ([]site.Descriptor, error) {
	sites, err := s.sites(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]site.Descriptor, len(sites))
	for i, st := range sites {
		out[i] = st.Descriptor()
	}
	return out, nil
}

func (s *Service) sites(ctx context.Context) ([]site.Site, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	all, err := s.loader.FindSites()
	if err != nil {
		return nil, fmt.Errorf("discover sites: %w", err)
	}
	enabled := all[:0]
	for _, st := range all {
		if s.enabled(st.Descriptor().Label()) {
			enabled = append(enabled, st)
		}
	}
	return enabled, nil
}

// Resolve parses raw and finds the first enabled site that can process it.
func (s *Service) Resolve(ctx context.Context, raw string) (*url.URL, site.Site, error) {
	u, err := site.ParseURI(raw)
	if err != nil {
		return nil, nil, err
	}

	sites, err := s.sites(ctx)
	if err != nil {
		return nil, nil, err
	}
	for _, st := range sites {
		if st.CanProcessURI(u) {
			return u, st, nil
		}
	}
	return nil, nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedSite, u.Host)
}

// Canonical is the outcome of canonicalizing one URI. Canonical is nil when
// the site has no canonical form for it.
type Canonical struct {
	URI       string  `json:"uri"`
	Site      string  `json:"site"`
	Canonical *string `json:"canonical"`
}

func (s *Service) Canonize(ctx context.Context, raw string) (*Canonical, error) {
	u, st, err := s.Resolve(ctx, raw)
	if err != nil {
		return nil, err
	}

	out := &Canonical{URI: u.String(), Site: st.Descriptor().Label()}
	canonical, err := s.canonize(st, u)
	if err != nil {
		return nil, err
	}
	if canonical != nil {
		c := canonical.String()
		out.Canonical = &c
	}
	return out, nil
}

func (s *Service) canonize(st site.Site, u *url.URL) (*url.URL, error) {
	c, ok := st.NewCanonizer(u)
	if !ok {
		return nil, nil
	}
	label := st.Descriptor().Label()
	return c.WithExceptionHandler(site.LogExceptions(s.logger, zap.String("site", label), zap.String("uri", u.String()))).Canonize()
}

// Extract returns the product behind raw, from the cache when a fresh entry
// exists for its canonical URI.
func (s *Service) Extract(ctx context.Context, raw string) (*models.Product, error) {
	u, st, err := s.Resolve(ctx, raw)
	if err != nil {
		return nil, err
	}
	label := st.Descriptor().Label()

	canonical, err := s.canonize(st, u)
	if err != nil {
		return nil, err
	}
	if canonical == nil {
		canonical = site.CleanURL(u)
	}
	key := canonical.String()

	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, label, key); ok {
			logger.Dedup("Cache hit for %s %s", label, key)
			cached.URI = u.String()
			return cached, nil
		}
	}

	ex, ok := st.NewExtractor(u)
	if !ok {
		return nil, fmt.Errorf("%w: site %s cannot extract %s", errs.ErrNotFound, label, key)
	}

	product, err := s.run(ctx, label, func() *models.Product {
		ex = ex.WithExceptionHandler(site.LogExceptions(s.logger, zap.String("site", label), zap.String("uri", key)))
		p := &models.Product{
			Site:         label,
			URI:          u.String(),
			CanonicalURI: key,
		}
		if title, ok := ex.ExtractDocumentTitle(); ok {
			p.Title = title
		}
		if desc, ok := ex.ExtractProductDescription(); ok {
			p.Description = desc
		}
		if pr, ok := ex.ExtractPricing(); ok {
			p.Pricing = pr
			p.PricingSane = pr.AreDiscountsSane()
		}
		return p
	})
	if err != nil {
		return nil, err
	}
	if product.Empty() {
		return nil, models.ErrProductNotFound
	}

	product.ExtractedAt = s.now()
	if s.cache != nil {
		s.cache.Set(ctx, label, key, product)
	}
	return product, nil
}

// run executes fn once a concurrency slot and the site's rate limiter allow
// it. The slot is held until fn returns, even if ctx expires first.
func (s *Service) run(ctx context.Context, label string, fn func() *models.Product) (*models.Product, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for extraction slot: %w", ctx.Err())
	}

	if err := s.limiter(label).Wait(ctx); err != nil {
		<-s.sem
		return nil, fmt.Errorf("wait for %s rate limit: %w", label, err)
	}

	done := make(chan *models.Product, 1)
	go func() {
		defer func() { <-s.sem }()
		done <- fn()
	}()

	select {
	case p := <-done:
		return p, nil
	case <-ctx.Done():
		s.logger.Warn("extraction timed out", zap.String("site", label), zap.Error(ctx.Err()))
		return nil, fmt.Errorf("extract from %s: %w", label, ctx.Err())
	}
}

func (s *Service) limiter(label string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(label)
	l, ok := s.limiters[key]
	if !ok {
		l = rate.NewLimiter(s.limit, s.burst)
		s.limiters[key] = l
	}
	return l
}

// BatchResult carries either the product or the error for one URI.
type BatchResult struct {
	URI     string          `json:"uri"`
	Product *models.Product `json:"product,omitempty"`
	Error   string          `json:"error,omitempty"`
	Code    string          `json:"code,omitempty"`
}

// ExtractBatch extracts every URI, preserving input order. Failures are
// reported per item.
func (s *Service) ExtractBatch(ctx context.Context, raws []string) []BatchResult {
	results := make([]BatchResult, len(raws))

	var wg sync.WaitGroup
	for i, raw := range raws {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i].URI = raw
			product, err := s.Extract(ctx, raw)
			if err != nil {
				results[i].Error = err.Error()
				results[i].Code = errs.Code(err)
				return
			}
			results[i].Product = product
		}()
	}
	wg.Wait()

	return results
}

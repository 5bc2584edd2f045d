package billa

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"cleanuri/pkg/errs"
	"cleanuri/pkg/models"
	"cleanuri/pkg/pricing"
	"cleanuri/pkg/scrapers"
	"cleanuri/pkg/scrapers/pricetext"
	"cleanuri/pkg/site"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap/zapcore"
)

const (
	Label    = "Billa"
	Host     = "shop.billa.at"
	BasePath = "/produkte/"
)

func init() {
	site.Register(func() (site.Site, error) { return New(), nil })
}

type Site struct {
	site.Base
	fetchBase *url.URL
	timeout   time.Duration
}

type Option func(*Site)

// WithFetchBase fetches pages from base instead of the shop.
func WithFetchBase(base *url.URL) Option {
	return func(s *Site) {
		s.fetchBase = base
	}
}

func New(opts ...Option) *Site {
	s := &Site{
		Base: site.NewBase(site.NewDescriptor(Label, site.DescriptorConfig{
			Description: "BILLA online shop product pages",
			Site:        &url.URL{Scheme: "https", Host: Host},
			Author:      "cleanuri",
		})),
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Site) CanProcessURI(u *url.URL) bool {
	return site.MatchDomain(u, "billa.at")
}

func (s *Site) NewCanonizer(u *url.URL) (site.Canonizer, bool) {
	return &canonizer{uri: u}, true
}

// NewExtractor is only offered for product pages.
func (s *Site) NewExtractor(u *url.URL) (site.Extractor, bool) {
	canonical, err := canonize(u)
	if err != nil || canonical == nil {
		return nil, false
	}
	return &extractor{site: s, uri: canonical}, true
}

type canonizer struct {
	site.ExceptionReporter
	uri *url.URL
}

func (c *canonizer) WithExceptionHandler(h site.ExceptionHandler) site.Canonizer {
	c.SetExceptionHandler(h)
	return c
}

func (c *canonizer) Canonize() (*url.URL, error) {
	return canonize(c.uri)
}

// canonize reduces product pages to https://shop.billa.at/produkte/<slug>.
func canonize(u *url.URL) (*url.URL, error) {
	if !site.MatchDomain(u, "billa.at") {
		return nil, errs.InvalidArgument("%s is not a BILLA page", u)
	}
	if !strings.HasPrefix(u.Path, BasePath) {
		return nil, nil
	}
	slug, _, _ := strings.Cut(strings.TrimPrefix(u.Path, BasePath), "/")
	if slug == "" {
		return nil, nil
	}
	return &url.URL{Scheme: "https", Host: Host, Path: BasePath + slug}, nil
}

type page struct {
	title     string
	name      string
	sku       string
	image     *url.URL
	unitPrice string
	tiers     []string
}

type extractor struct {
	site.ExceptionReporter
	site *Site
	uri  *url.URL

	once sync.Once
	page *page
}

func (e *extractor) WithExceptionHandler(h site.ExceptionHandler) site.Extractor {
	e.SetExceptionHandler(h)
	return e
}

func (e *extractor) load() *page {
	e.once.Do(func() {
		p, err := e.site.scrape(e.uri)
		if err != nil {
			e.Report(zapcore.ErrorLevel, fmt.Errorf("fetch %s: %w", e.uri, err))
			return
		}
		e.page = p
	})
	return e.page
}

func (s *Site) scrape(u *url.URL) (*page, error) {
	target := scrapers.FetchTarget(u, s.fetchBase)
	c := scrapers.NewCollector(target, s.timeout, Host)
	p := &page{}

	c.OnHTML("title", func(e *colly.HTMLElement) {
		p.title = strings.TrimSpace(e.Text)
	})
	c.OnHTML("h1", func(e *colly.HTMLElement) {
		if p.name == "" {
			p.name = strings.TrimSpace(e.Text)
		}
	})
	c.OnHTML(`meta[property="og:image"]`, func(e *colly.HTMLElement) {
		if img, err := url.Parse(e.Request.AbsoluteURL(e.Attr("content"))); err == nil && img.Host != "" {
			p.image = img
		}
	})
	c.OnHTML(`[itemprop="sku"]`, func(e *colly.HTMLElement) {
		p.sku = strings.TrimSpace(e.Attr("content"))
	})
	c.OnHTML(".ws-product-detail-main__price", func(e *colly.HTMLElement) {
		p.unitPrice = strings.TrimSpace(e.ChildText(".ws-product-price-type__value"))
		e.ForEach(".ws-product-price-quantity-discount", func(_ int, el *colly.HTMLElement) {
			p.tiers = append(p.tiers, strings.TrimSpace(el.Text))
		})
	})

	if err := c.Visit(target.String()); err != nil {
		return nil, err
	}
	return p, nil
}

func (e *extractor) ExtractDocumentTitle() (string, bool) {
	p := e.load()
	if p == nil || p.title == "" {
		return "", false
	}
	return p.title, true
}

func (e *extractor) ExtractProductDescription() (*models.ProductDescription, bool) {
	p := e.load()
	if p == nil {
		return nil, false
	}
	id := p.sku
	if id == "" {
		id = strings.TrimPrefix(e.uri.Path, BasePath)
	}
	return models.NewProductDescription(id, p.name, p.image)
}

func (e *extractor) ExtractPricing() (*pricing.Pricing, bool) {
	p := e.load()
	if p == nil {
		return nil, false
	}

	b := pricing.NewBuilder()
	if p.unitPrice != "" {
		price, err := pricetext.Parse(p.unitPrice)
		if err == nil {
			err = b.SetUnitPrice(price)
		}
		if err != nil {
			e.Report(zapcore.WarnLevel, fmt.Errorf("unit price: %w", err))
		}
	}
	for _, tier := range p.tiers {
		q, price, err := pricetext.ParseTier(tier)
		if err == nil {
			err = b.AddDiscount(q, price)
		}
		if err != nil {
			e.Report(zapcore.WarnLevel, fmt.Errorf("quantity discount: %w", err))
		}
	}
	return b.Build()
}

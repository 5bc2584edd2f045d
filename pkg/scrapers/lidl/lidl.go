package lidl

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"sync"
	"time"

	"cleanuri/pkg/errs"
	"cleanuri/pkg/models"
	"cleanuri/pkg/pricing"
	"cleanuri/pkg/scrapers"
	"cleanuri/pkg/scrapers/pricetext"
	"cleanuri/pkg/site"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap/zapcore"
)

const (
	Label = "Lidl"
	Host  = "www.lidl.at"
)

var productIDRE = regexp.MustCompile(`^p(\d+)$`)

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
			Description: "Lidl Österreich online shop product pages",
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
	return site.MatchDomain(u, "lidl.at")
}

func (s *Site) NewCanonizer(u *url.URL) (site.Canonizer, bool) {
	return &canonizer{uri: u}, true
}

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

// canonize maps /p/<slug>/p<id> to https://www.lidl.at/p/p<id>.
func canonize(u *url.URL) (*url.URL, error) {
	if !site.MatchDomain(u, "lidl.at") {
		return nil, errs.InvalidArgument("%s is not a Lidl page", u)
	}
	id, ok := productID(u)
	if !ok {
		return nil, nil
	}
	return &url.URL{Scheme: "https", Host: Host, Path: "/p/p" + id}, nil
}

func productID(u *url.URL) (string, bool) {
	if !strings.HasPrefix(u.Path, "/p/") {
		return "", false
	}
	m := productIDRE.FindStringSubmatch(path.Base(u.Path))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// dataLayer is the product object the shop assigns to
// unified_datalayer_product in an inline script.
type dataLayer struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
	Brand    string          `json:"brand"`
	Image    string          `json:"image"`
}

type page struct {
	title string
	data  *dataLayer
	tiers []string
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
		p, err := e.scrape()
		if err != nil {
			e.Report(zapcore.ErrorLevel, fmt.Errorf("fetch %s: %w", e.uri, err))
			return
		}
		e.page = p
	})
	return e.page
}

func (e *extractor) scrape() (*page, error) {
	target := scrapers.FetchTarget(e.uri, e.site.fetchBase)
	c := scrapers.NewCollector(target, e.site.timeout, Host)
	p := &page{}

	c.OnHTML("html", func(h *colly.HTMLElement) {
		p.title = strings.TrimSpace(h.DOM.Find("head > title").First().Text())

		h.DOM.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			raw, ok := dataLayerJSON(s.Text())
			if !ok {
				return true
			}
			var data dataLayer
			if err := json.Unmarshal([]byte(raw), &data); err != nil {
				e.Report(zapcore.WarnLevel, fmt.Errorf("product data layer: %w", err))
				return true
			}
			p.data = &data
			return false
		})

		h.DOM.Find(".ods-price__bulk").Each(func(_ int, s *goquery.Selection) {
			p.tiers = append(p.tiers, strings.TrimSpace(s.Text()))
		})
	})

	if err := c.Visit(target.String()); err != nil {
		return nil, err
	}
	return p, nil
}

// dataLayerJSON cuts the object literal assigned to
// unified_datalayer_product out of a script body.
func dataLayerJSON(script string) (string, bool) {
	loc := strings.Index(script, "unified_datalayer_product")
	if loc == -1 {
		return "", false
	}
	rest := script[loc:]
	eq := strings.Index(rest, "=")
	if eq == -1 {
		return "", false
	}
	rest = rest[eq+1:]
	start := strings.Index(rest, "{")
	end := strings.LastIndex(rest, "}")
	if start == -1 || end < start {
		return "", false
	}
	return rest[start : end+1], true
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
	if p == nil || p.data == nil {
		return nil, false
	}

	var image *url.URL
	if p.data.Image != "" {
		img, err := url.Parse(p.data.Image)
		if err != nil {
			e.Report(zapcore.DebugLevel, fmt.Errorf("product image: %w", err))
		} else {
			image = img
		}
	}
	id := p.data.ID
	if id == "" {
		id, _ = productID(e.uri)
	}
	return models.NewProductDescription(id, strings.TrimSpace(p.data.Name), image)
}

func (e *extractor) ExtractPricing() (*pricing.Pricing, bool) {
	p := e.load()
	if p == nil {
		return nil, false
	}

	b := pricing.NewBuilder()
	if p.data != nil && !p.data.Price.IsZero() {
		if p.data.Currency != "" && p.data.Currency != "EUR" {
			e.Report(zapcore.WarnLevel, fmt.Errorf("unexpected currency %q", p.data.Currency))
		} else if err := b.SetUnitPrice(p.data.Price); err != nil {
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

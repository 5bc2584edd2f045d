package hofer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"cleanuri/pkg/errs"
	"cleanuri/pkg/models"
	"cleanuri/pkg/pricing"
	"cleanuri/pkg/scrapers/browser"
	"cleanuri/pkg/scrapers/pricetext"
	"cleanuri/pkg/site"

	"github.com/chromedp/chromedp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap/zapcore"
)

const (
	Label = "Hofer"
	Host  = "www.hofer.at"
)

var productPathRE = regexp.MustCompile(`/p\.(\d+)\.html$`)

func init() {
	site.Register(func() (site.Site, error) { return New(), nil })
}

// Page is what the browser reads off a product page.
type Page struct {
	Title     string
	Heading   string
	JSONLD    string
	PriceText string
}

// Fetcher loads a product page.
type Fetcher func(ctx context.Context, u *url.URL) (*Page, error)

type Site struct {
	site.Base
	fetch   Fetcher
	timeout time.Duration
}

type Option func(*Site)

// WithFetcher replaces the headless browser.
func WithFetcher(f Fetcher) Option {
	return func(s *Site) {
		s.fetch = f
	}
}

func New(opts ...Option) *Site {
	s := &Site{
		Base: site.NewBase(site.NewDescriptor(Label, site.DescriptorConfig{
			Description: "HOFER (ALDI Süd Austria) product pages, rendered in headless Chrome",
			Site:        &url.URL{Scheme: "https", Host: Host},
			Author:      "cleanuri",
		})),
		timeout: 45 * time.Second,
	}
	s.fetch = s.fetchWithBrowser
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Site) CanProcessURI(u *url.URL) bool {
	return site.MatchDomain(u, "hofer.at")
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

// canonize maps any .../p.<id>.html path to https://www.hofer.at/de/p.<id>.html.
func canonize(u *url.URL) (*url.URL, error) {
	if !site.MatchDomain(u, "hofer.at") {
		return nil, errs.InvalidArgument("%s is not a HOFER page", u)
	}
	m := productPathRE.FindStringSubmatch(u.Path)
	if m == nil {
		return nil, nil
	}
	return &url.URL{Scheme: "https", Host: Host, Path: fmt.Sprintf("/de/p.%s.html", m[1])}, nil
}

func (s *Site) fetchWithBrowser(ctx context.Context, u *url.URL) (*Page, error) {
	var p Page
	err := browser.Run(ctx, s.timeout,
		chromedp.Navigate(u.String()),
		chromedp.WaitReady(`body`, chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
		chromedp.Title(&p.Title),
		chromedp.Evaluate(`
			(function() {
				const scripts = document.querySelectorAll('script[type="application/ld+json"]');
				for (const script of scripts) {
					if (script.innerText.includes('"@type": "Product"') || script.innerText.includes('"@type":"Product"')) {
						return script.innerText;
					}
				}
				return "";
			})()
		`, &p.JSONLD),
		chromedp.Evaluate(`document.querySelector("h1")?.innerText || ""`, &p.Heading),
		chromedp.Evaluate(`
			(function() {
				let el = document.querySelector(".pdp_price__now") || document.querySelector(".at-productprice_lbl");
				return el ? el.innerText : "";
			})()
		`, &p.PriceText),
	)
	if err != nil {
		return nil, fmt.Errorf("chromedp execution failed: %w", err)
	}
	return &p, nil
}

type productJSONLD struct {
	Type   string `json:"@type"`
	Name   string `json:"name"`
	Image  string `json:"image"`
	Sku    string `json:"sku"`
	Offers struct {
		Price         json.RawMessage `json:"price"` // string or number
		PriceCurrency string          `json:"priceCurrency"`
		Availability  string          `json:"availability"`
	} `json:"offers"`
}

func (ld *productJSONLD) price() (decimal.Decimal, bool, error) {
	raw := strings.TrimSpace(string(ld.Offers.Price))
	if raw == "" || raw == "null" || raw == `""` {
		return decimal.Decimal{}, false, nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(ld.Offers.Price); err != nil {
		return decimal.Decimal{}, false, err
	}
	return d, true, nil
}

type extractor struct {
	site.ExceptionReporter
	site *Site
	uri  *url.URL

	once sync.Once
	page *Page
	ld   *productJSONLD
}

func (e *extractor) WithExceptionHandler(h site.ExceptionHandler) site.Extractor {
	e.SetExceptionHandler(h)
	return e
}

func (e *extractor) load() *Page {
	e.once.Do(func() {
		p, err := e.site.fetch(context.Background(), e.uri)
		if err != nil {
			e.Report(zapcore.ErrorLevel, fmt.Errorf("fetch %s: %w", e.uri, err))
			return
		}
		e.page = p

		if p.JSONLD == "" {
			return
		}
		var ld productJSONLD
		if err := json.Unmarshal([]byte(p.JSONLD), &ld); err != nil {
			e.Report(zapcore.WarnLevel, fmt.Errorf("JSON-LD: %w", err))
			return
		}
		e.ld = &ld
	})
	return e.page
}

func (e *extractor) ExtractDocumentTitle() (string, bool) {
	p := e.load()
	if p == nil {
		return "", false
	}
	title := strings.TrimSpace(p.Title)
	return title, title != ""
}

func (e *extractor) ExtractProductDescription() (*models.ProductDescription, bool) {
	p := e.load()
	if p == nil {
		return nil, false
	}

	name := strings.TrimSpace(p.Heading)
	var id string
	var image *url.URL
	if e.ld != nil {
		if n := strings.TrimSpace(e.ld.Name); n != "" {
			name = n
		}
		id = e.ld.Sku
		if e.ld.Image != "" {
			if img, err := url.Parse(e.ld.Image); err == nil {
				image = img
			} else {
				e.Report(zapcore.DebugLevel, fmt.Errorf("product image: %w", err))
			}
		}
	}
	if id == "" {
		if m := productPathRE.FindStringSubmatch(e.uri.Path); m != nil {
			id = m[1]
		}
	}
	return models.NewProductDescription(id, name, image)
}

func (e *extractor) ExtractPricing() (*pricing.Pricing, bool) {
	p := e.load()
	if p == nil {
		return nil, false
	}

	b := pricing.NewBuilder()
	if e.ld != nil {
		price, ok, err := e.ld.price()
		switch {
		case err != nil:
			e.Report(zapcore.WarnLevel, fmt.Errorf("JSON-LD price: %w", err))
		case ok:
			if err := b.SetUnitPrice(price); err != nil {
				e.Report(zapcore.WarnLevel, fmt.Errorf("unit price: %w", err))
			}
		}
	}
	if b.Len() == 0 && p.PriceText != "" {
		price, err := pricetext.Parse(p.PriceText)
		if err == nil {
			err = b.SetUnitPrice(price)
		}
		if err != nil {
			e.Report(zapcore.WarnLevel, fmt.Errorf("price label: %w", err))
		}
	}
	return b.Build()
}

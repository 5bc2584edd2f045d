package spar

import (
	"context"
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
	"cleanuri/pkg/scrapers/browser"
	"cleanuri/pkg/scrapers/pricetext"
	"cleanuri/pkg/site"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap/zapcore"
)

const (
	Label = "SPAR"
	Host  = "www.spar.at"
)

// Product pages end in p<id>, either as their own segment or after a slug.
var productIDRE = regexp.MustCompile(`(?:^|-)p(\d+)$`)

func init() {
	site.Register(func() (site.Site, error) { return New(), nil })
}

type Page struct {
	Title         string
	Name          string
	Price         string
	ArticleNumber string
	Image         string
	Promotions    []string
}

type Fetcher func(ctx context.Context, u *url.URL) (*Page, error)

type Site struct {
	site.Base
	fetch   Fetcher
	timeout time.Duration
}

type Option func(*Site)

func WithFetcher(f Fetcher) Option {
	return func(s *Site) {
		s.fetch = f
	}
}

func New(opts ...Option) *Site {
	s := &Site{
		Base: site.NewBase(site.NewDescriptor(Label, site.DescriptorConfig{
			Description: "SPAR Produktwelt pages, rendered in headless Chrome",
			Site:        &url.URL{Scheme: "https", Host: Host, Path: "/produktwelt"},
			Author:      "cleanuri",
		})),
		timeout: 60 * time.Second,
	}
	s.fetch = s.fetchWithBrowser
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Site) CanProcessURI(u *url.URL) bool {
	return site.MatchDomain(u, "spar.at")
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

func canonize(u *url.URL) (*url.URL, error) {
	if !site.MatchDomain(u, "spar.at") {
		return nil, errs.InvalidArgument("%s is not a SPAR page", u)
	}
	id, ok := productID(u)
	if !ok {
		return nil, nil
	}
	return &url.URL{Scheme: "https", Host: Host, Path: "/produktwelt/p" + id}, nil
}

func productID(u *url.URL) (string, bool) {
	if !strings.HasPrefix(u.Path, "/produktwelt/") {
		return "", false
	}
	m := productIDRE.FindStringSubmatch(path.Base(u.Path))
	if m == nil {
		return "", false
	}
	return m[1], true
}

func (s *Site) fetchWithBrowser(ctx context.Context, u *url.URL) (*Page, error) {
	var p Page
	err := browser.Run(ctx, s.timeout,
		chromedp.Navigate(u.String()),
		chromedp.WaitReady(`h1.heading__title, h1[data-tosca='pdp-heading']`, chromedp.ByQuery),
		chromedp.Title(&p.Title),
		chromedp.Evaluate(`document.querySelector("h1[data-tosca='pdp-heading']")?.innerText || document.querySelector("h1.heading__title")?.innerText || ""`, &p.Name),
		chromedp.Evaluate(`document.querySelector(".product-price__price")?.innerText || ""`, &p.Price),
		chromedp.Evaluate(`document.querySelector("meta[property='og:image']")?.content || ""`, &p.Image),
		chromedp.Evaluate(`
			(function() {
				const el = document.querySelector(".pdp__meta-entry[data-tosca='pdp-article-number']");
				return el ? el.innerText : "";
			})()
		`, &p.ArticleNumber),
		chromedp.Evaluate(`Array.from(document.querySelectorAll(".product-price__promotion")).map(el => el.innerText)`, &p.Promotions),
	)
	if err != nil {
		return nil, fmt.Errorf("chromedp failed: %w", err)
	}
	return &p, nil
}

type extractor struct {
	site.ExceptionReporter
	site *Site
	uri  *url.URL

	once sync.Once
	page *Page
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

	name := strings.Join(strings.Fields(p.Name), " ")
	id, _ := productID(e.uri)
	// "Art.-Nr.: 5040291"
	if before, after, found := strings.Cut(p.ArticleNumber, ":"); found && strings.TrimSpace(before) != "" {
		if scraped := strings.TrimSpace(after); scraped != "" && scraped != id {
			e.Report(zapcore.InfoLevel, fmt.Errorf("article number %s does not match requested %s", scraped, id))
			id = scraped
		}
	}

	var image *url.URL
	if p.Image != "" {
		img, err := e.uri.Parse(p.Image)
		if err != nil {
			e.Report(zapcore.DebugLevel, fmt.Errorf("product image: %w", err))
		} else {
			image = img
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
	if strings.TrimSpace(p.Price) != "" {
		price, err := pricetext.Parse(p.Price)
		if err == nil {
			err = b.SetUnitPrice(price)
		}
		if err != nil {
			e.Report(zapcore.WarnLevel, fmt.Errorf("price: %w", err))
		}
	}
	for _, promo := range p.Promotions {
		q, price, err := pricetext.ParseTier(promo)
		if err != nil {
			// promotions also carry "-25%" and "1+1 gratis" labels
			e.Report(zapcore.DebugLevel, fmt.Errorf("promotion: %w", err))
			continue
		}
		if err := b.AddDiscount(q, price); err != nil {
			e.Report(zapcore.WarnLevel, fmt.Errorf("promotion: %w", err))
		}
	}
	return b.Build()
}

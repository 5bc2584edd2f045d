// Package site defines the contracts implemented by site plugins and the
// registry and loader used to discover them.
//
// A plugin registers a Provider from its init function:
//
//	func init() {
//		site.Register(func() (site.Site, error) { return New(), nil })
//	}
//
// and a binary activates it with a blank import.
package site

import (
	"net/url"

	"cleanuri/pkg/models"
	"cleanuri/pkg/pricing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Site recognizes the URIs of one web property and hands out canonizers and
// extractors for them.
type Site interface {
	Descriptor() Descriptor
	// CanProcessURI must not panic; unknown and nil URIs yield false.
	CanProcessURI(u *url.URL) bool
	NewCanonizer(u *url.URL) (Canonizer, bool)
	NewExtractor(u *url.URL) (Extractor, bool)
}

// ExceptionHandler receives failures a plugin recovered from.
type ExceptionHandler func(level zapcore.Level, err error)

// Canonizer reduces the URI it was created for to its canonical form.
type Canonizer interface {
	WithExceptionHandler(h ExceptionHandler) Canonizer
	// Canonize returns nil, nil when no canonical form applies, and an
	// errs.ErrInvalidArgument error when the URI cannot be processed at all.
	Canonize() (*url.URL, error)
}

// Extractor derives product facets from the page behind one URI. Each facet
// is independent of the others.
type Extractor interface {
	WithExceptionHandler(h ExceptionHandler) Extractor
	ExtractDocumentTitle() (string, bool)
	ExtractProductDescription() (*models.ProductDescription, bool)
	ExtractPricing() (*pricing.Pricing, bool)
}

// ExceptionReporter is embedded by canonizers and extractors to hold the
// installed handler. Reports without a handler are dropped.
type ExceptionReporter struct {
	handler ExceptionHandler
}

func (r *ExceptionReporter) SetExceptionHandler(h ExceptionHandler) {
	r.handler = h
}

func (r *ExceptionReporter) Report(level zapcore.Level, err error) {
	if r.handler == nil || err == nil {
		return
	}
	r.handler(level, err)
}

// LogExceptions returns a handler writing every report to l at its level.
func LogExceptions(l *zap.Logger, fields ...zap.Field) ExceptionHandler {
	return func(level zapcore.Level, err error) {
		l.Log(level, "site plugin reported a failure", append(fields[:len(fields):len(fields)], zap.Error(err))...)
	}
}

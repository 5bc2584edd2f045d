package spar

import (
	"context"
	"errors"
	"net/url"
	"slices"
	"testing"

	"cleanuri/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestCanonize(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://www.spar.at/produktwelt/p5040291", "https://www.spar.at/produktwelt/p5040291"},
		{"https://www.spar.at/produktwelt/lebensmittel/milch/spar-natur-pur-bio-vollmilch-p5040291?srsltid=abc", "https://www.spar.at/produktwelt/p5040291"},
		{"http://spar.at/produktwelt/p42/", "https://www.spar.at/produktwelt/p42"},
		{"https://www.spar.at/produktwelt/lebensmittel", ""},
		{"https://www.spar.at/angebote/p5040291", ""},
	}

	s := New()
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			c, ok := s.NewCanonizer(mustParse(t, tt.raw))
			require.True(t, ok)
			got, err := c.Canonize()
			require.NoError(t, err)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestCanonize_ForeignURI(t *testing.T) {
	c, _ := New().NewCanonizer(mustParse(t, "https://www.hofer.at/de/p.1.html"))
	_, err := c.Canonize()
	assert.True(t, errors.Is(err, errs.ErrInvalidArgument))
}

func TestExtract(t *testing.T) {
	var fetched []string
	s := New(WithFetcher(func(_ context.Context, u *url.URL) (*Page, error) {
		fetched = append(fetched, u.String())
		return &Page{
			Title:         "SPAR Natur*pur Bio-Vollmilch | SPAR",
			Name:          "SPAR Natur*pur\nBio-Vollmilch 3,5%",
			Price:         "1,79",
			ArticleNumber: "Art.-Nr.: 5040291",
			Image:         "/medias/vollmilch.jpg",
			Promotions:    []string{"-25%", "ab 2 Stk. je 1,59"},
		}, nil
	}))

	ex, ok := s.NewExtractor(mustParse(t, "https://www.spar.at/produktwelt/milch/spar-natur-pur-bio-vollmilch-p5040291"))
	require.True(t, ok)

	var levels []zapcore.Level
	ex = ex.WithExceptionHandler(func(level zapcore.Level, _ error) { levels = append(levels, level) })

	title, ok := ex.ExtractDocumentTitle()
	require.True(t, ok)
	assert.Equal(t, "SPAR Natur*pur Bio-Vollmilch | SPAR", title)

	desc, ok := ex.ExtractProductDescription()
	require.True(t, ok)
	assert.Equal(t, "5040291", desc.ID)
	assert.Equal(t, "SPAR Natur*pur Bio-Vollmilch 3,5%", desc.Name)
	assert.Equal(t, "https://www.spar.at/medias/vollmilch.jpg", desc.Image.String())

	p, ok := ex.ExtractPricing()
	require.True(t, ok)
	unit, _ := p.UnitPrice()
	assert.Equal(t, "1.79", unit.String())
	discounts := slices.Collect(p.Discounts())
	require.Len(t, discounts, 1)
	assert.Equal(t, 2, discounts[0].Quantity())
	assert.Equal(t, "1.59", discounts[0].UnitPrice().String())

	assert.Equal(t, []zapcore.Level{zapcore.DebugLevel}, levels, "unrelated promotion labels are only noted")
	assert.Equal(t, []string{"https://www.spar.at/produktwelt/p5040291"}, fetched)
}

func TestExtract_ArticleNumberMismatch(t *testing.T) {
	s := New(WithFetcher(func(context.Context, *url.URL) (*Page, error) {
		return &Page{Name: "Semmel", ArticleNumber: "Art.-Nr.: 999"}, nil
	}))
	ex, _ := s.NewExtractor(mustParse(t, "https://www.spar.at/produktwelt/p1"))

	var levels []zapcore.Level
	ex = ex.WithExceptionHandler(func(level zapcore.Level, _ error) { levels = append(levels, level) })

	desc, ok := ex.ExtractProductDescription()
	require.True(t, ok)
	assert.Equal(t, "999", desc.ID)
	assert.Equal(t, []zapcore.Level{zapcore.InfoLevel}, levels)

	_, ok = ex.ExtractPricing()
	assert.False(t, ok)
}

func TestExtract_FetchFailure(t *testing.T) {
	s := New(WithFetcher(func(context.Context, *url.URL) (*Page, error) {
		return nil, context.DeadlineExceeded
	}))
	ex, _ := s.NewExtractor(mustParse(t, "https://www.spar.at/produktwelt/p1"))

	var reports []error
	ex = ex.WithExceptionHandler(func(_ zapcore.Level, err error) { reports = append(reports, err) })

	_, ok := ex.ExtractProductDescription()
	assert.False(t, ok)
	_, ok = ex.ExtractPricing()
	assert.False(t, ok)
	require.Len(t, reports, 1)
	assert.ErrorIs(t, reports[0], context.DeadlineExceeded)
}

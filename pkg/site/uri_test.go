package site

import (
	"errors"
	"testing"

	"cleanuri/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURI(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
		err  error
	}{
		{"https", "https://shop.billa.at/produkte/milch", "https://shop.billa.at/produkte/milch", nil},
		{"trims whitespace", "  http://www.lidl.at/p/p1 ", "http://www.lidl.at/p/p1", nil},
		{"no scheme", "www.spar.at/produktwelt/p1", "https://www.spar.at/produktwelt/p1", nil},
		{"protocol relative", "//www.hofer.at/de/p.1.html", "https://www.hofer.at/de/p.1.html", nil},
		{"empty", "   ", "", errs.ErrMissingValue},
		{"other scheme", "ftp://example.com/file", "", errs.ErrInvalidArgument},
		{"no host", "https:///path", "", errs.ErrInvalidArgument},
		{"malformed", "https://[::1", "", errs.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := ParseURI(tt.raw)
			if tt.err != nil {
				assert.True(t, errors.Is(err, tt.err), "expected %v, got %v", tt.err, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, u.String())
		})
	}
}

func TestMatchDomain(t *testing.T) {
	tests := []struct {
		raw     string
		domains []string
		want    bool
	}{
		{"https://shop.billa.at/produkte/x", []string{"billa.at"}, true},
		{"https://SHOP.BILLA.AT/", []string{"billa.at"}, true},
		{"https://billa.at.evil.com/", []string{"billa.at"}, false},
		{"https://notbilla.at/", []string{"billa.at"}, false},
		{"https://www.hofer.at/", []string{"aldi.at", "hofer.at"}, true},
		{"https://www.example.co.uk/", []string{"example.co.uk"}, true},
		{"ftp://www.lidl.at/", []string{"lidl.at"}, false},
		{"https://127.0.0.1:8080/", []string{"127.0.0.1"}, true},
		{"https://localhost/", []string{"localhost"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchDomain(mustParse(t, tt.raw), tt.domains...))
		})
	}

	assert.False(t, MatchDomain(nil, "billa.at"))
}

func TestCleanURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://shop.billa.at/produkte/milch?utm_source=x#top", "https://shop.billa.at/produkte/milch"},
		{"HTTPS://User:pw@WWW.Lidl.AT:443/p/p1", "https://www.lidl.at/p/p1"},
		{"http://www.spar.at:80", "http://www.spar.at/"},
		{"http://localhost:8080/a", "http://localhost:8080/a"},
		{"http://[::1]/a", "http://[::1]/a"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanURL(mustParse(t, tt.raw)).String())
		})
	}

	assert.Nil(t, CleanURL(nil))
}

func TestCleanURL_DoesNotModifyInput(t *testing.T) {
	u := mustParse(t, "https://shop.billa.at/x?y=1")
	_ = CleanURL(u)
	assert.Equal(t, "y=1", u.RawQuery)
}

// Package scrapers holds what the bundled shop plugins share. The plugins
// themselves live in the subpackages and register on import; import
// cleanuri/pkg/scrapers/all to get every one of them.
package scrapers

import (
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
)

const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// FetchTarget maps a canonical shop URL onto base, keeping path and query.
// A nil base returns u unchanged. Tests use it to point a plugin at a local
// fixture server.
func FetchTarget(u, base *url.URL) *url.URL {
	if base == nil {
		return u
	}
	target := *u
	target.Scheme = base.Scheme
	target.Host = base.Host
	target.Path = strings.TrimSuffix(base.Path, "/") + u.Path
	return &target
}

// NewCollector returns a collector limited to domains plus the host of
// target, so fixture servers are reachable.
func NewCollector(target *url.URL, timeout time.Duration, domains ...string) *colly.Collector {
	allowed := append([]string{}, domains...)
	if target != nil {
		allowed = append(allowed, target.Hostname())
	}

	c := colly.NewCollector(
		colly.AllowedDomains(allowed...),
		colly.UserAgent(UserAgent),
	)
	c.SetRequestTimeout(timeout)
	return c
}

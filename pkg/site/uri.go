package site

import (
	"net"
	"net/url"
	"strings"

	"cleanuri/pkg/errs"

	"golang.org/x/net/publicsuffix"
)

// ParseURI parses user input into an absolute http(s) URL. Input without a
// scheme is read as https.
func ParseURI(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errs.MissingValue("uri")
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		if strings.Contains(raw, "://") {
			return nil, errs.InvalidArgument("unsupported scheme in %q", raw)
		}
		raw = "https://" + strings.TrimPrefix(raw, "//")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, errs.InvalidArgument("invalid uri: %v", err)
	}
	if u.Hostname() == "" {
		return nil, errs.InvalidArgument("uri %q has no host", raw)
	}
	return u, nil
}

// RegistrableDomain returns the eTLD+1 of u's host, or the bare host for IPs,
// localhost and hosts without a public suffix.
func RegistrableDomain(u *url.URL) string {
	if u == nil {
		return ""
	}
	host := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
	if host == "" || net.ParseIP(host) != nil {
		return host
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

// MatchDomain reports whether u is an http(s) URL whose registrable domain is
// one of domains.
func MatchDomain(u *url.URL, domains ...string) bool {
	if u == nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	got := RegistrableDomain(u)
	if got == "" {
		return false
	}
	for _, d := range domains {
		if strings.EqualFold(got, d) {
			return true
		}
	}
	return false
}

// CleanURL returns a copy of u without user info, query and fragment, with
// a lower-case scheme and host and without the scheme's default port.
func CleanURL(u *url.URL) *url.URL {
	if u == nil {
		return nil
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	return &url.URL{Scheme: scheme, Host: host, Path: path, RawPath: u.RawPath}
}

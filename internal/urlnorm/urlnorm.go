// Package urlnorm turns arbitrary user input into a stable URL and hostname.
package urlnorm

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// Target is a normalized evaluation target.
type Target struct {
	URL    string
	Domain string
}

const wwwPrefix = "www."

// Normalize never fails: input that does not parse as a URL is reduced to a
// literal hostname candidate.
func Normalize(raw string) Target {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Target{}
	}

	withScheme := s
	if !strings.Contains(s, "://") {
		withScheme = "https://" + s
	}

	u, err := url.Parse(withScheme)
	if err != nil || u.Hostname() == "" {
		host := literalHost(s)
		return Target{URL: "https://" + host, Domain: host}
	}

	host := cleanHost(u.Hostname())
	u.Host = host
	if port := u.Port(); port != "" {
		u.Host = net.JoinHostPort(host, port)
	}
	u.Fragment, u.RawFragment = "", ""

	return Target{URL: u.String(), Domain: host}
}

// Domain is shorthand for Normalize(raw).Domain.
func Domain(raw string) string {
	return Normalize(raw).Domain
}

func cleanHost(host string) string {
	h := strings.ToLower(strings.TrimSuffix(host, "."))
	h = strings.TrimPrefix(h, wwwPrefix)
	return h
}

func literalHost(s string) string {
	h := s
	if i := strings.Index(h, "://"); i >= 0 {
		h = h[i+3:]
	}
	if i := strings.IndexAny(h, "/?#"); i >= 0 {
		h = h[:i]
	}
	if i := strings.LastIndex(h, "@"); i >= 0 {
		h = h[i+1:]
	}
	if host, _, err := net.SplitHostPort(h); err == nil {
		h = host
	}
	return cleanHost(strings.TrimSpace(h))
}

// Split separates the registrable label from its public suffix:
// "shop.amazon.co.uk" gives ("amazon", "co.uk"). A domain with no dot, or one
// the suffix list cannot place, is returned whole as the label.
func Split(domain string) (label, suffix string) {
	d := strings.ToLower(strings.TrimSuffix(domain, "."))
	if !strings.Contains(d, ".") {
		return d, ""
	}

	registrable, err := publicsuffix.EffectiveTLDPlusOne(d)
	if err != nil {
		// d is itself a public suffix or malformed
		i := strings.LastIndex(d, ".")
		return d[:i], d[i+1:]
	}

	suffix, _ = publicsuffix.PublicSuffix(registrable)
	label = strings.TrimSuffix(registrable, "."+suffix)
	if label == "" {
		return d, ""
	}
	return label, suffix
}

// TLD returns the last dot-separated part of a domain.
func TLD(domain string) string {
	d := strings.TrimSuffix(domain, ".")
	i := strings.LastIndex(d, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(d[i+1:])
}

// Unicode decodes punycode labels for display; invalid input is returned unchanged.
func Unicode(domain string) string {
	if !strings.Contains(domain, "xn--") {
		return domain
	}
	u, err := idna.ToUnicode(domain)
	if err != nil {
		return domain
	}
	return u
}

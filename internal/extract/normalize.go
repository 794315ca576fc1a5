package extract

import (
	"net"
	"net/url"
	"strings"
)

// trackingParams are dropped from every candidate URL
var trackingParams = map[string]bool{
	"ref":      true,
	"referrer": true,
	"fbclid":   true,
	"gclid":    true,
	"msclkid":  true,
}

// socialHosts are never project websites
var socialHosts = []string{
	"twitter.com", "x.com", "t.co",
	"facebook.com", "fb.com", "fb.me",
	"linkedin.com", "lnkd.in",
	"instagram.com",
	"telegram.org", "telegram.me", "t.me",
	"discord.com", "discord.gg", "discordapp.com",
	"github.com",
	"medium.com",
}

// NormalizeURL returns the canonical candidate form of rawURL, or false if it is
// not an absolute http(s) URL. Normalizing an already-normalized URL is a no-op.
func NormalizeURL(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false
	}
	return normalizeParsed(u)
}

func normalizeParsed(u *url.URL) (string, bool) {
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", false
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimSuffix(host, ".")
	host = strings.TrimPrefix(host, "www.")
	if host == "" || strings.ContainsAny(host, " _") {
		return "", false
	}
	if port := u.Port(); port != "" && !isDefaultPort(scheme, port) {
		host = net.JoinHostPort(host, port)
	}

	out := url.URL{
		Scheme:   scheme,
		Host:     host,
		Path:     u.Path,
		RawPath:  u.RawPath,
		RawQuery: cleanQuery(u.RawQuery),
	}

	if out.Path == "" {
		out.Path = "/"
		out.RawPath = ""
	} else if len(out.Path) > 1 {
		out.Path = strings.TrimRight(out.Path, "/")
		out.RawPath = strings.TrimRight(out.RawPath, "/")
		if out.Path == "" {
			out.Path = "/"
			out.RawPath = ""
		}
	}

	return out.String(), true
}

func isDefaultPort(scheme, port string) bool {
	return (scheme == "http" && port == "80") || (scheme == "https" && port == "443")
}

// cleanQuery drops tracking parameters and sorts the rest
func cleanQuery(raw string) string {
	if raw == "" {
		return ""
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return ""
	}
	for key := range values {
		lower := strings.ToLower(key)
		if trackingParams[lower] || strings.HasPrefix(lower, "utm_") {
			values.Del(key)
		}
	}
	return values.Encode()
}

// IsSocialHost reports whether host (or any parent domain) is a social/media platform
func IsSocialHost(host string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	for _, social := range socialHosts {
		if host == social || strings.HasSuffix(host, "."+social) {
			return true
		}
	}
	return false
}

// HostOf returns the normalized host of a URL, or "" if unparsable
func HostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// ResolveHref resolves href against base and returns its normalized form.
// Anchors, mailto:, tel: and javascript: links are rejected.
func ResolveHref(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}

	lower := strings.ToLower(href)
	for _, prefix := range []string{"mailto:", "tel:", "javascript:", "data:", "sms:"} {
		if strings.HasPrefix(lower, prefix) {
			return "", false
		}
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	if !parsed.IsAbs() {
		if base == nil {
			return "", false
		}
		parsed = base.ResolveReference(parsed)
	}

	return normalizeParsed(parsed)
}

// Package adapters holds site-specific candidate extraction for known project
// listing and ranking sites, where generic anchor scraping yields mostly noise.
package adapters

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ppiankov/leadradar/internal/extract"
)

// SiteExtractor is one registry record: the hosts it serves and how to extract from them
type SiteExtractor struct {
	// Name identifies the site in logs
	Name string

	// HostPatterns are matched against the page hostname by suffix
	HostPatterns []string

	// DetailPaths match internal per-project detail pages
	DetailPaths []*regexp.Regexp

	// Extract overrides the default harvest. Nil means DefaultExtract.
	Extract func(doc *goquery.Document, page *url.URL, site SiteExtractor) Extraction
}

// Extraction is what a site extractor found on one page
type Extraction struct {
	DetailURLs   []string // Internal detail pages (one-hop follow targets)
	OutboundURLs []string // External project websites
}

// Result is returned by ExtractWithSiteSpecific
type Result struct {
	ProjectURLs  []string // DetailURLs followed by OutboundURLs, deduplicated
	DetailURLs   []string
	OutboundURLs []string
	Handled      bool   // False means the caller should fall back to the generic extractor
	Site         string // Matched site name, empty when unmatched
}

// MatchesHost reports whether host belongs to this site
func (s SiteExtractor) MatchesHost(host string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	for _, pattern := range s.HostPatterns {
		pattern = strings.ToLower(pattern)
		if host == pattern || strings.HasSuffix(host, "."+pattern) {
			return true
		}
	}
	return false
}

// IsDetailPath reports whether path is one of the site's project detail pages
func (s SiteExtractor) IsDetailPath(path string) bool {
	for _, re := range s.DetailPaths {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// Registry maps aggregator hostnames to their extractors
type Registry struct {
	sites []SiteExtractor
}

// NewRegistry creates a registry with the built-in aggregator sites
func NewRegistry() *Registry {
	r := &Registry{}
	for _, site := range builtinSites() {
		r.Register(site)
	}
	return r
}

// Register adds a site. Earlier registrations win on overlapping hosts.
func (r *Registry) Register(site SiteExtractor) {
	r.sites = append(r.sites, site)
}

// Find returns the extractor registered for the URL's host
func (r *Registry) Find(rawURL string) (SiteExtractor, bool) {
	host := extract.HostOf(rawURL)
	if host == "" {
		return SiteExtractor{}, false
	}
	for _, site := range r.sites {
		if site.MatchesHost(host) {
			return site, true
		}
	}
	return SiteExtractor{}, false
}

// IsAggregatorHost reports whether host belongs to any registered site
func (r *Registry) IsAggregatorHost(host string) bool {
	for _, site := range r.sites {
		if site.MatchesHost(host) {
			return true
		}
	}
	return false
}

// ExtractWithSiteSpecific runs the matching site extractor over the page.
// Handled is false when no site matches or the site rule found nothing.
func (r *Registry) ExtractWithSiteSpecific(htmlContent string, pageURL string) Result {
	site, ok := r.Find(pageURL)
	if !ok {
		return Result{}
	}

	page, err := url.Parse(pageURL)
	if err != nil {
		return Result{Site: site.Name}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return Result{Site: site.Name}
	}

	extractFn := site.Extract
	if extractFn == nil {
		extractFn = r.DefaultExtract
	}
	found := extractFn(doc, page, site)

	result := Result{
		DetailURLs:   dedupe(found.DetailURLs),
		OutboundURLs: dedupe(found.OutboundURLs),
		Site:         site.Name,
	}
	result.ProjectURLs = dedupe(append(append([]string{}, result.DetailURLs...), result.OutboundURLs...))
	result.Handled = len(result.ProjectURLs) > 0
	return result
}

// DefaultExtract collects detail-page links on the aggregator's own host and outbound
// project links that sit in a table/card, open in a new tab, or look like a project URL.
func (r *Registry) DefaultExtract(doc *goquery.Document, page *url.URL, site SiteExtractor) Extraction {
	var found Extraction

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		candidate, ok := extract.ResolveHref(page, href)
		if !ok {
			return
		}

		u, err := url.Parse(candidate)
		if err != nil {
			return
		}
		host := extract.HostOf(candidate)

		if site.MatchesHost(host) {
			if site.IsDetailPath(u.Path) {
				found.DetailURLs = append(found.DetailURLs, candidate)
			}
			return
		}

		if extract.IsSocialHost(host) || r.IsAggregatorHost(host) || isNoiseHost(host) {
			return
		}

		if inListingContainer(a) || strings.EqualFold(a.AttrOr("target", ""), "_blank") || IsLikelyProjectURL(candidate) {
			found.OutboundURLs = append(found.OutboundURLs, candidate)
		}
	})

	return found
}

// inListingContainer reports whether the anchor sits inside a table row or card
func inListingContainer(a *goquery.Selection) bool {
	return a.Closest("table, tr, td, [class*='card'], [class*='Card'], [class*='listing'], [role='row']").Length() > 0
}

func dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}

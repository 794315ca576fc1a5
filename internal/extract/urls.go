package extract

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var textURLPattern = regexp.MustCompile(`https?://[^\s<>"'\x60]+`)

// ExtractURLsFromText scans free text for http(s) URLs and returns their normalized,
// deduplicated forms in first-seen order. Social hosts are dropped.
func ExtractURLsFromText(text string) []string {
	matches := textURLPattern.FindAllString(text, -1)

	set := newURLSet()
	for _, match := range matches {
		match = strings.TrimRight(match, "),.;:!?]'\"")
		normalized, ok := NormalizeURL(match)
		if !ok || IsSocialHost(HostOf(normalized)) {
			continue
		}
		set.add(normalized)
	}
	return set.list()
}

// ExtractCandidateURLsFromHTML walks anchors, <link rel=canonical> and og:url meta
// tags, resolves them against baseURL and returns normalized external candidates.
// Malformed links are skipped silently.
func ExtractCandidateURLsFromHTML(htmlContent string, baseURL string) []string {
	if strings.TrimSpace(htmlContent) == "" {
		return []string{}
	}

	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return []string{}
	}

	base, err := url.Parse(baseURL)
	if err != nil || !base.IsAbs() {
		base = nil
	}

	self := ""
	baseHost := ""
	if base != nil {
		self, _ = normalizeParsed(base)
		baseHost = HostOf(self)
	}

	set := newURLSet()
	consider := func(href string) {
		candidate, ok := ResolveHref(base, href)
		if !ok {
			return
		}
		if candidate == self {
			return
		}
		host := HostOf(candidate)
		if IsSocialHost(host) {
			return
		}
		if host == baseHost && isRootURL(candidate) {
			return
		}
		set.add(candidate)
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a":
				consider(attr(n, "href"))
			case "link":
				if strings.EqualFold(attr(n, "rel"), "canonical") {
					consider(attr(n, "href"))
				}
			case "meta":
				if strings.EqualFold(attr(n, "property"), "og:url") {
					consider(attr(n, "content"))
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)

	return set.list()
}

// isRootURL reports whether a normalized URL points at a site root
func isRootURL(normalized string) bool {
	u, err := url.Parse(normalized)
	if err != nil {
		return false
	}
	return (u.Path == "" || u.Path == "/") && u.RawQuery == ""
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// urlSet keeps first-seen order
type urlSet struct {
	seen  map[string]bool
	items []string
}

func newURLSet() *urlSet {
	return &urlSet{seen: make(map[string]bool), items: []string{}}
}

func (s *urlSet) add(u string) {
	if s.seen[u] {
		return
	}
	s.seen[u] = true
	s.items = append(s.items, u)
}

func (s *urlSet) list() []string {
	return s.items
}

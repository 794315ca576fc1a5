package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// PageText is the readable content of a fetched page, used as analysis input
type PageText struct {
	Title       string
	Description string
	Body        string
}

// String joins title, description and body into a single analysis blob
func (p PageText) String() string {
	var parts []string
	for _, s := range []string{p.Title, p.Description, p.Body} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

// ExtractText returns the title, meta description and visible body text of an HTML page
func ExtractText(htmlContent string) PageText {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return PageText{Body: collapseSpace(htmlContent)}
	}

	var page PageText
	var body strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "svg", "template":
				return
			case "title":
				if page.Title == "" && n.FirstChild != nil {
					page.Title = collapseSpace(n.FirstChild.Data)
				}
				return
			case "meta":
				name := strings.ToLower(attr(n, "name"))
				prop := strings.ToLower(attr(n, "property"))
				if page.Description == "" && (name == "description" || prop == "og:description") {
					page.Description = collapseSpace(attr(n, "content"))
				}
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				body.WriteString(text)
				body.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	page.Body = collapseSpace(body.String())
	return page
}

// Truncate cuts s to at most max bytes without splitting a UTF-8 sequence
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

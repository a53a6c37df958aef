package adapters

import (
	"strings"

	"github.com/ppiankov/clausewise/internal/extract"
	"golang.org/x/net/html"
)

// LegalAdapter extracts the agreement from terms-of-service style pages,
// dropping site navigation, headers, footers and cookie banners
type LegalAdapter struct {
	BaseAdapter
	pathHints []string
	chrome    []string
}

// NewLegalAdapter creates a new legal page adapter
func NewLegalAdapter() *LegalAdapter {
	return &LegalAdapter{
		pathHints: []string{
			"/terms", "/tos", "/legal", "/eula", "/agreement", "/privacy",
			"/conditions", "/license", "/policies", "/policy",
		},
		chrome: []string{"cookie", "banner", "navbar", "sidebar", "breadcrumb", "skip-link"},
	}
}

// Name returns the adapter name
func (a *LegalAdapter) Name() string {
	return "legal"
}

// CanHandle checks if the URL looks like a legal agreement page
func (a *LegalAdapter) CanHandle(rawURL string, contentType string) bool {
	if contentType != "" && !strings.Contains(strings.ToLower(contentType), "html") {
		return false
	}

	lowerURL := strings.ToLower(rawURL)
	for _, hint := range a.pathHints {
		if strings.Contains(lowerURL, hint) {
			return true
		}
	}
	return false
}

// ExtractDocument extracts the main content region of the page
func (a *LegalAdapter) ExtractDocument(doc *html.Node, rawURL string) (Document, error) {
	title := a.Title(doc)

	// Focus on main content areas
	main := a.FindFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "main"
	})
	if main == nil {
		main = a.FindFirst(doc, func(n *html.Node) bool {
			return n.Type == html.ElementNode &&
				(n.Data == "article" || a.GetAttribute(n, "role") == "main")
		})
	}
	if main == nil {
		main = doc
	}

	a.Remove(main, a.isChrome)

	return Document{
		Title:   title,
		Text:    extract.Clean(extract.NodeText(main)),
		Adapter: a.Name(),
	}, nil
}

// isChrome reports page furniture that is never part of the agreement
func (a *LegalAdapter) isChrome(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.Data {
	case "nav", "header", "footer", "aside", "form", "button":
		return true
	}
	for _, class := range a.chrome {
		if a.HasClass(n, class) || strings.Contains(strings.ToLower(a.GetAttribute(n, "id")), class) {
			return true
		}
	}
	return false
}

package adapters

import (
	"github.com/ppiankov/clausewise/internal/extract"
	"golang.org/x/net/html"
)

// GenericAdapter is the fallback adapter: the whole visible body
type GenericAdapter struct {
	BaseAdapter
}

// NewGenericAdapter creates a new generic adapter
func NewGenericAdapter() *GenericAdapter {
	return &GenericAdapter{}
}

// Name returns the adapter name
func (a *GenericAdapter) Name() string {
	return "generic"
}

// CanHandle always returns true (fallback adapter)
func (a *GenericAdapter) CanHandle(url string, contentType string) bool {
	return true
}

// ExtractDocument returns the visible text of <body>, or of the whole
// document when there is no body
func (a *GenericAdapter) ExtractDocument(doc *html.Node, url string) (Document, error) {
	root := a.FindFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "body"
	})
	if root == nil {
		root = doc
	}

	return Document{
		Title:   a.Title(doc),
		Text:    extract.Clean(extract.NodeText(root)),
		Adapter: a.Name(),
	}, nil
}

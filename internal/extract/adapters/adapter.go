// Package adapters turns fetched HTML pages into contract text. Each adapter
// knows where the agreement lives on one kind of page; the generic adapter
// takes the whole visible body.
package adapters

import (
	"strings"

	"github.com/ppiankov/clausewise/internal/extract"
	"golang.org/x/net/html"
)

// Document is the contract text found on a page
type Document struct {
	Title   string
	Text    string
	Adapter string
}

// Adapter defines the interface for page-specific extractors
type Adapter interface {
	// Name returns the adapter name
	Name() string

	// CanHandle checks if this adapter can handle the given URL/content
	CanHandle(url string, contentType string) bool

	// ExtractDocument extracts the agreement text from the HTML document
	ExtractDocument(doc *html.Node, url string) (Document, error)
}

// Registry manages page adapters
type Registry struct {
	adapters []Adapter
	generic  Adapter
}

// NewRegistry creates a new adapter registry
func NewRegistry() *Registry {
	registry := &Registry{
		adapters: make([]Adapter, 0),
	}

	registry.Register(NewLegalAdapter())

	// Set generic adapter as fallback
	registry.generic = NewGenericAdapter()

	return registry
}

// Register registers a new adapter
func (r *Registry) Register(adapter Adapter) {
	r.adapters = append(r.adapters, adapter)
}

// FindAdapter finds the best adapter for the given URL and content type
func (r *Registry) FindAdapter(url string, contentType string) Adapter {
	for _, adapter := range r.adapters {
		if adapter.CanHandle(url, contentType) {
			return adapter
		}
	}
	return r.generic
}

// Extract parses htmlContent and runs the best adapter for url over it.
// When a specific adapter finds no text, the generic adapter is used.
func (r *Registry) Extract(htmlContent, url, contentType string) (Document, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return Document{}, err
	}

	adapter := r.FindAdapter(url, contentType)
	out, err := adapter.ExtractDocument(doc, url)
	if err != nil {
		return Document{}, err
	}
	if strings.TrimSpace(out.Text) == "" && adapter != r.generic {
		return r.generic.ExtractDocument(doc, url)
	}
	return out, nil
}

// BaseAdapter provides common functionality for adapters
type BaseAdapter struct{}

// Title returns the document title, or ""
func (b *BaseAdapter) Title(doc *html.Node) string {
	n := b.FindFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "title"
	})
	if n == nil {
		return ""
	}
	return strings.Join(strings.Fields(extract.NodeText(n)), " ")
}

// HasClass checks if a node has a specific CSS class
func (b *BaseAdapter) HasClass(n *html.Node, className string) bool {
	if n.Type != html.ElementNode {
		return false
	}

	for _, attr := range n.Attr {
		if attr.Key == "class" {
			for _, class := range strings.Fields(attr.Val) {
				if class == className {
					return true
				}
			}
		}
	}
	return false
}

// GetAttribute gets an attribute value from a node
func (b *BaseAdapter) GetAttribute(n *html.Node, attrKey string) string {
	for _, attr := range n.Attr {
		if attr.Key == attrKey {
			return attr.Val
		}
	}
	return ""
}

// FindFirst finds the first node matching a predicate (depth first)
func (b *BaseAdapter) FindFirst(n *html.Node, predicate func(*html.Node) bool) *html.Node {
	var result *html.Node

	var walk func(*html.Node) bool
	walk = func(node *html.Node) bool {
		if predicate(node) {
			result = node
			return true
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}

	walk(n)
	return result
}

// Remove detaches every node matching predicate from the tree below n
func (b *BaseAdapter) Remove(n *html.Node, predicate func(*html.Node) bool) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if predicate(c) {
			n.RemoveChild(c)
		} else {
			b.Remove(c, predicate)
		}
		c = next
	}
}

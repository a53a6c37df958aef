package extract

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"
)

// blockElements end a line of visible text
var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true, atom.Tr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Section: true, atom.Article: true, atom.Header: true, atom.Footer: true,
	atom.Table: true, atom.Ul: true, atom.Ol: true, atom.Blockquote: true,
	atom.Pre: true, atom.Title: true, atom.Main: true, atom.Dt: true, atom.Dd: true,
}

// skipElements hold no visible text
var skipElements = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Noscript: true,
	atom.Iframe: true, atom.Template: true, atom.Svg: true,
}

// StripMarkup removes tags from text, keeping visible text only. Block-level
// elements become line breaks so headings stay on their own line. Text
// without any '<' is returned unchanged.
func StripMarkup(text string) string {
	if !strings.ContainsRune(text, '<') {
		return text
	}

	var buf strings.Builder
	z := html.NewTokenizer(strings.NewReader(text))
	skipDepth := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or a tokenizer error; either way the text so far is kept
			return buf.String()

		case html.TextToken:
			if skipDepth == 0 {
				buf.Write(z.Text())
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if skipElements[a] && tt == html.StartTagToken {
				skipDepth++
				continue
			}
			if blockElements[a] {
				buf.WriteByte('\n')
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if skipElements[a] {
				if skipDepth > 0 {
					skipDepth--
				}
				continue
			}
			if blockElements[a] {
				buf.WriteByte('\n')
			}
		}
	}
}

// NodeText renders the visible text below n with the same block rules as
// StripMarkup. It is used by the HTML adapters on parsed documents.
func NodeText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if skipElements[n.DataAtom] {
				return
			}
		case html.TextNode:
			buf.WriteString(n.Data)
			return
		case html.CommentNode, html.DoctypeNode:
			return
		}

		block := n.Type == html.ElementNode && blockElements[n.DataAtom]
		if block {
			buf.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			buf.WriteByte('\n')
		}
	}

	walk(n)
	return buf.String()
}

// Clean strips markup, applies NFC normalization and normalizes whitespace.
// Line breaks are kept so line-based section detection still works; runs of
// spaces, tabs and control characters inside a line collapse to one space
// and blank lines are dropped.
func Clean(text string) string {
	text = norm.NFC.String(StripMarkup(text))
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.Map(func(r rune) rune {
			if unicode.IsControl(r) {
				return ' '
			}
			return r
		}, line)
		if fields := strings.Fields(line); len(fields) > 0 {
			lines = append(lines, strings.Join(fields, " "))
		}
	}
	return strings.Join(lines, "\n")
}

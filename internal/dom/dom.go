// Package dom is the document-query capability extractors run against.
// It hides the HTML engine behind a small Node interface so extractors
// can be exercised with fixture documents.
package dom

import (
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Node is one element (or the document root) that can be queried
type Node interface {
	// Find returns descendants matching selector in document order
	Find(selector string) []Node
	// FindOutermost is Find with matches nested inside another match dropped
	FindOutermost(selector string) []Node
	// First returns the first descendant matching selector
	First(selector string) (Node, bool)
	// Is reports whether the node itself matches selector
	Is(selector string) bool
	// Has reports whether any descendant matches selector
	Has(selector string) bool
	Attr(name string) (string, bool)
	Tag() string
	// Text returns the rendered text, with block elements on their own lines
	Text() string
}

// Selection is a Node backed by a goquery selection of exactly one node
type Selection struct {
	sel *goquery.Selection
}

// Document is a parsed HTML page
type Document struct {
	Selection
	doc *goquery.Document
}

// Parse parses an HTML document
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	return &Document{Selection: Selection{sel: doc.Selection}, doc: doc}, nil
}

// ParseString parses an HTML document held in memory
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Load parses the HTML file at path
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Title returns the document title
func (d *Document) Title() string {
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}

func wrap(s *goquery.Selection) []Node {
	nodes := make([]Node, 0, s.Length())
	s.Each(func(_ int, item *goquery.Selection) {
		nodes = append(nodes, &Selection{sel: item})
	})
	return nodes
}

func (s *Selection) Find(selector string) []Node {
	return wrap(s.sel.Find(selector))
}

func (s *Selection) FindOutermost(selector string) []Node {
	matches := s.sel.Find(selector)
	outer := matches.FilterFunction(func(_ int, item *goquery.Selection) bool {
		return item.ParentsUntilSelection(s.sel).Filter(selector).Length() == 0
	})
	return wrap(outer)
}

func (s *Selection) First(selector string) (Node, bool) {
	found := s.sel.Find(selector).First()
	if found.Length() == 0 {
		return nil, false
	}
	return &Selection{sel: found}, true
}

func (s *Selection) Is(selector string) bool {
	return s.sel.Is(selector)
}

func (s *Selection) Has(selector string) bool {
	return s.sel.Find(selector).Length() > 0
}

func (s *Selection) Attr(name string) (string, bool) {
	return s.sel.Attr(name)
}

func (s *Selection) Tag() string {
	return goquery.NodeName(s.sel)
}

func (s *Selection) Text() string {
	w := &textWriter{}
	for _, n := range s.sel.Nodes {
		w.node(n, false)
	}
	return w.String()
}

// blockTags start a new line when rendered as text
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true,
	"figcaption": true, "figure": true, "footer": true, "h1": true,
	"h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "table": true,
	"tr": true, "ul": true,
}

// skipTags never contribute visible text
var skipTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
}

// verbatimTags keep their whitespace as written
var verbatimTags = map[string]bool{
	"pre": true, "code": true, "textarea": true,
}

// textWriter renders nodes the way a browser lays out text: whitespace
// runs in normal text collapse to one space, verbatim elements keep
// theirs, and block elements are separated by one blank line.
type textWriter struct {
	b     strings.Builder
	space bool
}

func (w *textWriter) node(n *html.Node, verbatim bool) {
	switch n.Type {
	case html.TextNode:
		if verbatim {
			w.verbatim(n.Data)
		} else {
			w.collapsed(n.Data)
		}
		return
	case html.ElementNode:
		if skipTags[n.Data] {
			return
		}
		if n.Data == "br" {
			w.b.WriteByte('\n')
			w.space = false
			return
		}
		verbatim = verbatim || verbatimTags[n.Data]
	}

	block := n.Type == html.ElementNode && blockTags[n.Data]
	if block {
		w.blockBreak()
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.node(c, verbatim)
	}
	if block {
		w.blockBreak()
	}
}

func (w *textWriter) collapsed(s string) {
	for _, r := range s {
		if unicode.IsSpace(r) {
			w.space = true
			continue
		}
		w.flushSpace()
		w.b.WriteRune(r)
	}
}

func (w *textWriter) verbatim(s string) {
	if s == "" {
		return
	}
	w.flushSpace()
	w.b.WriteString(s)
}

// flushSpace writes a pending collapsed space unless a line just started
func (w *textWriter) flushSpace() {
	if w.space && !w.atLineStart() {
		w.b.WriteByte(' ')
	}
	w.space = false
}

func (w *textWriter) atLineStart() bool {
	out := w.b.String()
	return out == "" || strings.HasSuffix(out, "\n")
}

// blockBreak ends the current line, leaving at most one blank line
func (w *textWriter) blockBreak() {
	w.space = false
	out := w.b.String()
	if out == "" || strings.HasSuffix(out, "\n\n") {
		return
	}
	w.b.WriteByte('\n')
}

func (w *textWriter) String() string {
	out := strings.Trim(w.b.String(), "\n")
	if strings.TrimSpace(out) == "" {
		return ""
	}
	return strings.TrimRightFunc(out, unicode.IsSpace)
}

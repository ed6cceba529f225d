// Package dom wraps a parsed host page so UI code can mutate it the way a
// browser script mutates document: look elements up by id, replace inner
// HTML, toggle classes and set text. Missing elements are reported, never
// treated as errors.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ClassHidden is the utility class that hides signed-in chrome.
const ClassHidden = "hidden"

// ClassActive marks the nav item of the current page.
const ClassActive = "active"

// Page is a mutable host page.
type Page struct {
	doc *goquery.Document
}

// Parse reads an HTML document from r.
func Parse(r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}
	return &Page{doc: doc}, nil
}

// ParseString is Parse for an in-memory document.
func ParseString(s string) (*Page, error) {
	return Parse(strings.NewReader(s))
}

// Document exposes the underlying goquery document.
func (p *Page) Document() *goquery.Document {
	return p.doc
}

// ByID returns the element with the given id. The selection is empty when
// no such element exists.
func (p *Page) ByID(id string) *goquery.Selection {
	return p.doc.Find(`[id="` + id + `"]`).First()
}

// Has reports whether an element with the given id exists.
func (p *Page) Has(id string) bool {
	return p.ByID(id).Length() > 0
}

// SetInnerHTML replaces the children of element id with markup.
func (p *Page) SetInnerHTML(id, markup string) bool {
	sel := p.ByID(id)
	if sel.Length() == 0 {
		return false
	}
	sel.SetHtml(markup)
	return true
}

// InnerHTML returns the inner markup of element id.
func (p *Page) InnerHTML(id string) (string, bool) {
	sel := p.ByID(id)
	if sel.Length() == 0 {
		return "", false
	}
	markup, err := sel.Html()
	if err != nil {
		return "", false
	}
	return markup, true
}

// SetText replaces the children of element id with a single text node.
func (p *Page) SetText(id, text string) bool {
	sel := p.ByID(id)
	if sel.Length() == 0 {
		return false
	}
	sel.SetText(text)
	return true
}

// RemoveClass removes class from element id.
func (p *Page) RemoveClass(id, class string) bool {
	sel := p.ByID(id)
	if sel.Length() == 0 {
		return false
	}
	sel.RemoveClass(class)
	return true
}

// MarkActiveNav adds the active class to every .nav-item whose href equals
// path exactly and returns how many were marked.
func (p *Page) MarkActiveNav(path string) int {
	marked := 0
	p.doc.Find(".nav-item").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok && href == path {
			s.AddClass(ClassActive)
			marked++
		}
	})
	return marked
}

// Render writes the whole document to w.
func (p *Page) Render(w io.Writer) error {
	for _, n := range p.doc.Nodes {
		if err := html.Render(w, n); err != nil {
			return fmt.Errorf("rendering page: %w", err)
		}
	}
	return nil
}

// String renders the document, returning an empty string on failure.
func (p *Page) String() string {
	var buf bytes.Buffer
	if err := p.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// Escape neutralises markup-significant characters by serialising text as
// the content of a text node. Empty input yields an empty string.
func Escape(text string) string {
	if text == "" {
		return ""
	}
	var b strings.Builder
	if err := html.Render(&b, &html.Node{Type: html.TextNode, Data: text}); err != nil {
		return html.EscapeString(text)
	}
	return b.String()
}

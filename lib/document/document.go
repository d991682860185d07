// Package document wraps a parsed HTML tree together with the location
// it originally came from.
package document

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Context is an immutable parsed document plus its originating url.
// Source is "" for raw markup input and for sub-documents built from a
// single element.
type Context struct {
	doc    *goquery.Document
	source string
}

func Parse(raw string, source string) (Context, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return Context{}, err
	}
	return Context{doc: doc, source: source}, nil
}

func (c Context) Source() string {
	return c.source
}

// Find returns every node matching the css selector, in document order.
func (c Context) Find(selector string) *goquery.Selection {
	return c.doc.Find(selector)
}

// Outer serializes a single matched node's subtree back into markup so
// it can be re-parsed as an independent document.
func Outer(sel *goquery.Selection) (string, error) {
	return goquery.OuterHtml(sel)
}

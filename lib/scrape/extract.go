package scrape

import (
	"regexp"

	"webshape/lib/htmlutil"
	"webshape/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

// extractValue resolves a selection into a single raw string. Attribute
// names are tried in order against the first matched node, the first
// non-empty value wins, otherwise the node's text content is used.
// An empty selection yields "", absence is not an error.
func extractValue(sel *goquery.Selection, attrs []string) string {
	if sel.Length() == 0 {
		return ""
	}
	first := sel.First()

	for _, name := range attrs {
		val, ok := first.Attr(name)
		if !ok {
			continue
		}
		if cleaned := textutil.Clean(val); cleaned != "" {
			return cleaned
		}
	}

	text := htmlutil.GetText(first.Nodes[0])
	return textutil.Clean(textutil.RemoveNonPrintable(text))
}

// refine keeps only the first capture group of a matching pattern. A
// non-matching pattern discards the raw value entirely. Patterns
// without a capture group are rejected at schema construction.
func refine(pattern *regexp.Regexp, raw string) string {
	groups := pattern.FindStringSubmatch(raw)
	if len(groups) < 2 {
		return ""
	}
	return groups[1]
}

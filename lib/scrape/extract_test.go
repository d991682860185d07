package scrape

import (
	"regexp"
	"testing"
	"webshape/lib/document"

	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) document.Context {
	t.Helper()
	ctx, err := document.Parse(raw, "")
	if err != nil {
		t.Fatal(err)
	}
	return ctx
}

func TestExtractValueAttrFallback(t *testing.T) {
	dctx := mustParse(t, `<img class="pic" src="/small.jpg">`)

	// data-src is absent so src wins, text is never consulted
	val := extractValue(dctx.Find("img.pic"), []string{"data-src", "src"})
	require.Equal(t, "/small.jpg", val)
}

func TestExtractValueEmptyAttrFallsThroughToText(t *testing.T) {
	dctx := mustParse(t, `<a class="x" href="  ">click here</a>`)

	val := extractValue(dctx.Find("a.x"), []string{"href"})
	require.Equal(t, "click here", val)
}

func TestExtractValueFirstMatchOnly(t *testing.T) {
	dctx := mustParse(t, `<p class="v">first</p><p class="v">second</p>`)

	val := extractValue(dctx.Find("p.v"), nil)
	require.Equal(t, "first", val)
}

func TestExtractValueNoMatch(t *testing.T) {
	dctx := mustParse(t, `<p>content</p>`)
	require.Equal(t, "", extractValue(dctx.Find(".missing"), nil))
	require.Equal(t, "", extractValue(dctx.Find(".missing"), []string{"href"}))
}

func TestExtractValueWhitespace(t *testing.T) {
	dctx := mustParse(t, "<p class=\"v\">\n\twhite   space\t</p>")
	require.Equal(t, "white space", extractValue(dctx.Find("p.v"), nil))
}

func TestRefine(t *testing.T) {
	pattern := regexp.MustCompile(`Anteater:\s*(.*)`)
	require.Equal(t, "A fascinating creature", refine(pattern, "Anteater: A fascinating creature"))

	// no match discards the raw value instead of passing it through
	require.Equal(t, "", refine(pattern, "Aardvark: a different creature"))

	require.Equal(t, "42", refine(regexp.MustCompile(`(\d+) units`), "value 42 units"))
}

func TestExtractValueNonPrintable(t *testing.T) {
	dctx := mustParse(t, "<p class=\"v\">zero​width</p>")
	require.Equal(t, "zerowidth", extractValue(dctx.Find("p.v"), nil))
}

package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"webshape/lib/document"
	"webshape/lib/schema"

	"github.com/PuerkitoBio/goquery"
	"github.com/antzucaro/matchr"
)

type walker struct {
	warnings []Warning
}

func (w *walker) warn(ctx context.Context, field, message string) {
	slog.WarnContext(ctx, "field resolution degraded", "field", field, "reason", message)
	w.warnings = append(w.warnings, Warning{Field: field, Message: message})
}

func joinPath(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}

// sortedFields gives the walk a stable order so warnings are
// deterministic across runs.
func sortedFields(s schema.Schema) []string {
	fields := make([]string, 0, len(s))
	for f := range s {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

func (w *walker) object(ctx context.Context, s schema.Schema, dctx document.Context, path string) map[string]any {
	out := make(map[string]any, len(s))
	for _, field := range sortedFields(s) {
		w.field(ctx, joinPath(path, field), s[field], dctx, func(v any) {
			out[field] = v
		})
	}
	return out
}

// field resolves a single schema node, assigning its value on success.
// A failure here (including a panicking selector) drops the field and
// records a warning, it never aborts the walk.
func (w *walker) field(ctx context.Context, path string, node *schema.Node, dctx document.Context, assign func(any)) {
	defer func() {
		if r := recover(); r != nil {
			w.warn(ctx, path, fmt.Sprintf("resolution panicked: %v", r))
		}
	}()

	switch node.Kind() {
	case schema.KindMeta:
		assign(w.meta(ctx, node, dctx, path))
	case schema.KindArray:
		assign(w.array(ctx, node, dctx, path))
	case schema.KindPrimitive:
		assign(w.primitive(ctx, node, dctx, path))
	case schema.KindNested:
		assign(w.object(ctx, node.Fields, dctx, path))
	}
}

func (w *walker) meta(ctx context.Context, node *schema.Node, dctx document.Context, path string) string {
	switch node.Meta {
	case schema.MetaSourceURL:
		return dctx.Source()
	}
	w.warn(ctx, path, fmt.Sprintf("unknown meta kind %q%s", node.Meta, suggestMeta(node.Meta)))
	return ""
}

func suggestMeta(kind schema.MetaKind) string {
	mostSimilar := ""
	var similarity float64
	for _, known := range schema.MetaKinds {
		sim := matchr.JaroWinkler(string(kind), string(known), false)
		if sim > similarity {
			similarity = sim
			mostSimilar = string(known)
		}
	}
	if similarity < 0.7 {
		return ""
	}
	return fmt.Sprintf(" (did you mean %q?)", mostSimilar)
}

func (w *walker) primitive(ctx context.Context, node *schema.Node, dctx document.Context, path string) any {
	raw := extractValue(dctx.Find(node.Selector), node.Attrs)
	if node.Pattern != nil {
		raw = refine(node.Pattern, raw)
	}

	val := schema.Coerce(node.Type, raw)
	// the NaN sentinel is not representable in JSON and would fail the
	// entire result at the serialization boundary, so it degrades into
	// a null field here
	if f, ok := val.(float64); ok && math.IsNaN(f) {
		w.warn(ctx, path, fmt.Sprintf("unparsable numeric value %q", raw))
		return nil
	}
	return val
}

// array re-roots a fresh document at every matched element and runs the
// item schema against it, preserving document order. Nested selectors
// therefore resolve relative to the item, and the original source url
// is not carried into the sub-document.
func (w *walker) array(ctx context.Context, node *schema.Node, dctx document.Context, path string) []any {
	items := []any{}
	dctx.Find(node.Selector).Each(func(i int, sel *goquery.Selection) {
		itemPath := fmt.Sprintf("%s[%d]", path, i)

		raw, err := document.Outer(sel)
		if err != nil {
			w.warn(ctx, itemPath, fmt.Sprintf("serialize element: %s", err))
			return
		}
		sub, err := document.Parse(raw, "")
		if err != nil {
			w.warn(ctx, itemPath, fmt.Sprintf("reparse element: %s", err))
			return
		}

		items = append(items, w.object(ctx, node.Item, sub, itemPath))
	})
	return items
}

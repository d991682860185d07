// Package schema models declarative extraction schemas: a mapping from
// output field names to instructions describing where each value comes
// from in an HTML document.
package schema

import (
	"fmt"
	"regexp"

	"webshape/lib/configutil"
)

// Kind discriminates the four node variants. It is determined once at
// construction time, never re-inferred during a walk.
type Kind int

const (
	KindInvalid Kind = iota
	// KindMeta resolves to process-level context instead of document
	// content, e.g. the url the document was fetched from.
	KindMeta
	// KindArray matches every node for its selector and extracts one
	// object per match using its item schema.
	KindArray
	// KindPrimitive resolves a selector (plus optional attribute list
	// and refinement pattern) to a single scalar.
	KindPrimitive
	// KindNested resolves a sub-schema against the same document.
	KindNested
)

func (k Kind) String() string {
	switch k {
	case KindMeta:
		return "meta"
	case KindArray:
		return "array"
	case KindPrimitive:
		return "primitive"
	case KindNested:
		return "nested"
	}
	return "invalid"
}

// ValueType is the declared scalar type of a primitive field.
type ValueType string

const (
	TypeString  ValueType = "string"
	TypeNumber  ValueType = "number"
	TypeBoolean ValueType = "boolean"
)

// MetaKind names a non-document value injectable into results.
type MetaKind string

// MetaSourceURL resolves to the url the document was scraped from, or
// "" when the document came from raw markup.
const MetaSourceURL MetaKind = "url"

// MetaKinds lists every meta kind the walker understands.
var MetaKinds = []MetaKind{MetaSourceURL}

// Node is one extraction instruction. Exactly one variant's fields are
// populated, according to Kind().
type Node struct {
	kind Kind

	Meta     MetaKind
	Selector string
	Attrs    []string
	Pattern  *regexp.Regexp
	Type     ValueType
	Item     Schema
	Fields   Schema
}

func (n *Node) Kind() Kind {
	return n.kind
}

// Schema maps output field names to their nodes.
type Schema map[string]*Node

// Load reads a json5 schema file and parses it. A `<name>.local.json5`
// sibling may override parts of the declaration.
func Load(path string) (Schema, error) {
	raw, err := configutil.ReadConfig[map[string]any](path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse builds a validated Schema from its raw declarative form.
// Classification happens here: a node declaring `meta` is a meta node,
// otherwise one declaring `item` is an array node, otherwise one
// declaring `selector` is a primitive node, otherwise a plain mapping
// is a nested sub-schema. Anything else is a configuration error.
func Parse(raw map[string]any) (Schema, error) {
	return parseSchema(raw, "")
}

func parseSchema(raw map[string]any, path string) (Schema, error) {
	out := make(Schema, len(raw))
	for field, value := range raw {
		fieldPath := field
		if path != "" {
			fieldPath = path + "." + field
		}
		node, err := parseNode(value, fieldPath)
		if err != nil {
			return nil, err
		}
		out[field] = node
	}
	return out, nil
}

func parseNode(value any, path string) (*Node, error) {
	switch v := value.(type) {
	case string:
		// shorthand: a bare string is a text selector
		return &Node{kind: KindPrimitive, Selector: v, Type: TypeString}, nil
	case map[string]any:
		if meta, ok := v["meta"]; ok {
			return parseMetaNode(meta, path)
		}
		if item, ok := v["item"]; ok {
			return parseArrayNode(v, item, path)
		}
		if _, ok := v["selector"]; ok {
			return parsePrimitiveNode(v, path)
		}
		// a mapping with leftover scraping keys is a malformed
		// primitive, not a nested sub-schema
		for _, key := range []string{"attr", "pattern", "type"} {
			if _, ok := v[key]; ok {
				return nil, fmt.Errorf("field %q: node with %q requires a selector", path, key)
			}
		}
		fields, err := parseSchema(v, path)
		if err != nil {
			return nil, err
		}
		return &Node{kind: KindNested, Fields: fields}, nil
	}
	return nil, fmt.Errorf("field %q: cannot classify node of type %T", path, value)
}

func parseMetaNode(meta any, path string) (*Node, error) {
	kind, ok := meta.(string)
	if !ok {
		return nil, fmt.Errorf("field %q: meta kind must be a string, got %T", path, meta)
	}
	return &Node{kind: KindMeta, Meta: MetaKind(kind)}, nil
}

func parseArrayNode(v map[string]any, item any, path string) (*Node, error) {
	selector, err := stringKey(v, "selector", path)
	if err != nil {
		return nil, err
	}
	if selector == "" {
		return nil, fmt.Errorf("field %q: array node requires a selector", path)
	}

	rawItem, ok := item.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("field %q: item must be a mapping, got %T", path, item)
	}
	itemSchema, err := parseSchema(rawItem, path+"[]")
	if err != nil {
		return nil, err
	}

	return &Node{kind: KindArray, Selector: selector, Item: itemSchema}, nil
}

func parsePrimitiveNode(v map[string]any, path string) (*Node, error) {
	selector, err := stringKey(v, "selector", path)
	if err != nil {
		return nil, err
	}

	attrs, err := attrList(v, path)
	if err != nil {
		return nil, err
	}

	var pattern *regexp.Regexp
	rawPattern, err := stringKey(v, "pattern", path)
	if err != nil {
		return nil, err
	}
	if rawPattern != "" {
		pattern, err = regexp.Compile(rawPattern)
		if err != nil {
			return nil, fmt.Errorf("field %q: invalid pattern: %w", path, err)
		}
		if pattern.NumSubexp() == 0 {
			return nil, fmt.Errorf("field %q: pattern must contain a capture group", path)
		}
	}

	valueType, err := declaredType(v, path)
	if err != nil {
		return nil, err
	}

	return &Node{
		kind:     KindPrimitive,
		Selector: selector,
		Attrs:    attrs,
		Pattern:  pattern,
		Type:     valueType,
	}, nil
}

func stringKey(v map[string]any, key, path string) (string, error) {
	raw, ok := v[key]
	if !ok {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("field %q: %s must be a string, got %T", path, key, raw)
	}
	return s, nil
}

func attrList(v map[string]any, path string) ([]string, error) {
	raw, ok := v["attr"]
	if !ok {
		return nil, nil
	}
	switch a := raw.(type) {
	case string:
		return []string{a}, nil
	case []any:
		attrs := make([]string, len(a))
		for i, entry := range a {
			s, ok := entry.(string)
			if !ok {
				return nil, fmt.Errorf("field %q: attr list entries must be strings, got %T", path, entry)
			}
			attrs[i] = s
		}
		return attrs, nil
	}
	return nil, fmt.Errorf("field %q: attr must be a string or list of strings, got %T", path, raw)
}

func declaredType(v map[string]any, path string) (ValueType, error) {
	raw, err := stringKey(v, "type", path)
	if err != nil {
		return "", err
	}
	switch ValueType(raw) {
	case "":
		return TypeString, nil
	case TypeString, TypeNumber, TypeBoolean:
		return ValueType(raw), nil
	}
	return "", fmt.Errorf("field %q: unknown type %q", path, raw)
}

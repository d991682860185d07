// Package scrape walks a declarative schema against a parsed document
// and produces a populated result, one field at a time.
package scrape

import (
	"context"
	"encoding/json"
	"fmt"

	"webshape/lib/document"
	"webshape/lib/schema"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("webshape.lib.scrape")

var ErrBadInput = fmt.Errorf("exactly one of Url or Html must be supplied")

// Source resolves a url into raw markup. lib/fetch provides the HTTP
// implementation.
type Source interface {
	Get(ctx context.Context, url string) (string, error)
}

// Input supplies the document to scrape, either by location or as raw
// markup, never both.
type Input struct {
	Url  string
	Html string
}

// Warning records a field that was dropped from the result instead of
// failing the whole scrape.
type Warning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result holds the extracted data alongside any per-field degradation
// that happened while building it.
type Result struct {
	Data     map[string]any `json:"data"`
	Warnings []Warning      `json:"warnings,omitempty"`
}

// Decode materializes the result into a caller-defined struct through
// its json tags.
func (r Result) Decode(out any) error {
	raw, err := json.Marshal(r.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

type Interpreter struct {
	schema schema.Schema
	source Source
}

type Options struct {
	// Source is only required when scraping by url.
	Source Source
}

// New builds an interpreter around an already-validated schema. The
// schema is read-only from here on, so one interpreter may serve
// concurrent Scrape calls.
func New(s schema.Schema, opts Options) Interpreter {
	return Interpreter{schema: s, source: opts.Source}
}

// Scrape resolves the input into a document and walks the schema
// against it. Input and transport errors are fatal, anything that goes
// wrong while resolving a single field degrades into a warning.
func (it Interpreter) Scrape(ctx context.Context, input Input) (Result, error) {
	ctx, span := tracer.Start(ctx, "Scrape")
	defer span.End()

	if (input.Url == "") == (input.Html == "") {
		return Result{}, ErrBadInput
	}

	raw, source := input.Html, ""
	if input.Url != "" {
		if it.source == nil {
			return Result{}, fmt.Errorf("no source resolver configured for url input")
		}
		fetched, err := it.source.Get(ctx, input.Url)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "fetch failed")
			return Result{}, err
		}
		raw, source = fetched, input.Url
	}

	dctx, err := document.Parse(raw, source)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return Result{}, fmt.Errorf("parse document: %w", err)
	}

	w := &walker{}
	data := w.object(ctx, it.schema, dctx, "")
	return Result{Data: data, Warnings: w.warnings}, nil
}

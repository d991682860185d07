package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"webshape/lib/schema"
	"webshape/lib/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const anteaterPage = `
<html>
<body>
	<h1 class="title">  The   Giant Anteater </h1>
	<img class="portrait" data-src="/img/anteater.webp" src="/img/anteater.jpg">
	<p class="fact">Anteater: A fascinating creature</p>
	<p class="diet">eats 500 ants a day</p>
	<p class="nocturnal">TRUE</p>
	<div class="taxonomy">
		<span class="family">Myrmecophagidae</span>
		<a class="ref" href="/wiki/anteater">reference</a>
	</div>
	<ul>
		<li class="food-source">
			<span class="type">Ants</span>
			<span class="count">500</span>
		</li>
		<li class="food-source">
			<span class="type">Termites</span>
			<span class="count">200</span>
		</li>
	</ul>
</body>
</html>`

func anteaterSchema(t *testing.T) schema.Schema {
	t.Helper()
	s, err := schema.Parse(map[string]any{
		"page":  map[string]any{"meta": "url"},
		"title": "h1.title",
		"portrait": map[string]any{
			"selector": "img.portrait",
			"attr":     []any{"data-src", "src"},
		},
		"fact": map[string]any{
			"selector": "p.fact",
			"pattern":  `Anteater:\s*(.*)`,
		},
		"dailyAnts": map[string]any{
			"selector": "p.diet",
			"type":     "number",
		},
		"nocturnal": map[string]any{
			"selector": "p.nocturnal",
			"type":     "boolean",
		},
		"taxonomy": map[string]any{
			"family": ".taxonomy .family",
			"ref": map[string]any{
				"selector": ".taxonomy a.ref",
				"attr":     "href",
			},
		},
		"foodSources": map[string]any{
			"selector": ".food-source",
			"item": map[string]any{
				"type":  ".type",
				"count": map[string]any{"selector": ".count", "type": "number"},
				"page":  map[string]any{"meta": "url"},
			},
		},
		"missing": ".does-not-exist",
		"missingList": map[string]any{
			"selector": ".also-missing",
			"item":     map[string]any{"x": ".x"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestScrapeDocument(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scrape")
	defer cleanup()

	it := New(anteaterSchema(t), Options{})
	res, err := it.Scrape(context.Background(), Input{Html: anteaterPage})
	if err != nil {
		t.Fatal(err)
	}
	require.Empty(t, res.Warnings)

	require.Equal(t, "The Giant Anteater", res.Data["title"])
	require.Equal(t, "/img/anteater.webp", res.Data["portrait"])
	require.Equal(t, "A fascinating creature", res.Data["fact"])
	require.Equal(t, float64(500), res.Data["dailyAnts"])
	require.Equal(t, true, res.Data["nocturnal"])

	// raw markup input has no source location
	require.Equal(t, "", res.Data["page"])

	taxonomy := res.Data["taxonomy"].(map[string]any)
	require.Equal(t, "Myrmecophagidae", taxonomy["family"])
	require.Equal(t, "/wiki/anteater", taxonomy["ref"])

	foods := res.Data["foodSources"].([]any)
	require.Len(t, foods, 2)
	first := foods[0].(map[string]any)
	second := foods[1].(map[string]any)
	require.Equal(t, "Ants", first["type"])
	require.Equal(t, float64(500), first["count"])
	require.Equal(t, "Termites", second["type"])
	require.Equal(t, float64(200), second["count"])

	// item sub-documents are re-rooted without the original location
	require.Equal(t, "", first["page"])

	// absent elements degrade to zero values, not errors
	require.Equal(t, "", res.Data["missing"])
	require.Equal(t, []any{}, res.Data["missingList"])
}

type staticSource struct {
	html string
	err  error
}

func (s staticSource) Get(ctx context.Context, url string) (string, error) {
	return s.html, s.err
}

func TestScrapeUrl(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scrape")
	defer cleanup()

	it := New(anteaterSchema(t), Options{
		Source: staticSource{html: anteaterPage},
	})
	res, err := it.Scrape(context.Background(), Input{Url: "https://zoo.example.com/anteater"})
	if err != nil {
		t.Fatal(err)
	}

	require.Equal(t, "https://zoo.example.com/anteater", res.Data["page"])
	// the location still does not leak into array item sub-documents
	foods := res.Data["foodSources"].([]any)
	require.Equal(t, "", foods[0].(map[string]any)["page"])
}

func TestScrapeInputValidation(t *testing.T) {
	it := New(anteaterSchema(t), Options{Source: staticSource{html: anteaterPage}})

	_, err := it.Scrape(context.Background(), Input{})
	require.ErrorIs(t, err, ErrBadInput)

	_, err = it.Scrape(context.Background(), Input{
		Url:  "https://zoo.example.com",
		Html: anteaterPage,
	})
	require.ErrorIs(t, err, ErrBadInput)
}

func TestScrapeTransportError(t *testing.T) {
	fetchErr := fmt.Errorf("connection refused")
	it := New(anteaterSchema(t), Options{Source: staticSource{err: fetchErr}})

	_, err := it.Scrape(context.Background(), Input{Url: "https://zoo.example.com"})
	require.ErrorIs(t, err, fetchErr)

	noSource := New(anteaterSchema(t), Options{})
	_, err = noSource.Scrape(context.Background(), Input{Url: "https://zoo.example.com"})
	require.ErrorContains(t, err, "no source resolver")
}

func TestScrapeIdempotent(t *testing.T) {
	s, err := schema.Parse(map[string]any{
		"title": "h1.title",
		"foodSources": map[string]any{
			"selector": ".food-source",
			"item":     map[string]any{"type": ".type"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	it := New(s, Options{})

	a, err := it.Scrape(context.Background(), Input{Html: anteaterPage})
	if err != nil {
		t.Fatal(err)
	}
	b, err := it.Scrape(context.Background(), Input{Html: anteaterPage})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("repeated scrapes differ (-first +second):\n%s", diff)
	}
}

func TestUnknownMetaKind(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scrape")
	defer cleanup()

	s, err := schema.Parse(map[string]any{
		"page": map[string]any{"meta": "uri"},
	})
	if err != nil {
		t.Fatal(err)
	}

	res, err := New(s, Options{}).Scrape(context.Background(), Input{Html: anteaterPage})
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "", res.Data["page"])
	require.Len(t, res.Warnings, 1)
	require.Equal(t, "page", res.Warnings[0].Field)
	require.Contains(t, res.Warnings[0].Message, `did you mean "url"`)
}

// a numeric field whose text has no digits must degrade to null, not
// poison the whole result at json serialization time.
func TestScrapeUnparsableNumber(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scrape")
	defer cleanup()

	s, err := schema.Parse(map[string]any{
		"count": map[string]any{"selector": "p.v", "type": "number"},
	})
	if err != nil {
		t.Fatal(err)
	}

	res, err := New(s, Options{}).Scrape(context.Background(), Input{
		Html: `<p class="v">no digits at all</p>`,
	})
	if err != nil {
		t.Fatal(err)
	}

	require.Nil(t, res.Data["count"])
	require.Len(t, res.Warnings, 1)
	require.Equal(t, "count", res.Warnings[0].Field)
	require.Contains(t, res.Warnings[0].Message, "unparsable numeric value")

	_, err = json.Marshal(res.Data)
	require.NoError(t, err)

	var out struct {
		Count *float64 `json:"count"`
	}
	require.NoError(t, res.Decode(&out))
	require.Nil(t, out.Count)
}

func TestResultDecode(t *testing.T) {
	type foodSource struct {
		Type  string  `json:"type"`
		Count float64 `json:"count"`
	}
	type anteater struct {
		Title       string       `json:"title"`
		DailyAnts   float64      `json:"dailyAnts"`
		Nocturnal   bool         `json:"nocturnal"`
		FoodSources []foodSource `json:"foodSources"`
	}

	it := New(anteaterSchema(t), Options{})
	res, err := it.Scrape(context.Background(), Input{Html: anteaterPage})
	if err != nil {
		t.Fatal(err)
	}

	var out anteater
	err = res.Decode(&out)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "The Giant Anteater", out.Title)
	require.Equal(t, float64(500), out.DailyAnts)
	require.True(t, out.Nocturnal)
	require.Len(t, out.FoodSources, 2)
	require.Equal(t, "Termites", out.FoodSources[1].Type)
}

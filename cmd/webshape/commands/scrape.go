package commands

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
	"webshape/lib/fetch"
	"webshape/lib/resultstore"
	"webshape/lib/schema"
	"webshape/lib/scrape"
	"webshape/lib/serviceutil"
	"webshape/lib/sqliteutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	scrapeSchema *string
	scrapeUrl    *string
	scrapeFile   *string
	scrapeDb     *string
	scrapeBypass *bool
)

func init() {
	scrapeSchema = scrapeCmd.Flags().String("schema", "", "The json5 schema file describing what to extract.")
	scrapeUrl = scrapeCmd.Flags().String("url", "", "The page to scrape.")
	scrapeFile = scrapeCmd.Flags().String("file", "", "A local markup file to scrape instead of a url.")
	scrapeDb = scrapeCmd.Flags().String("db", "", "An sqlite database file (or libsql:// url) to record the run into.")
	scrapeBypass = scrapeCmd.Flags().Bool("bypass", false, "Wrap the fetch transport with bot-protection bypass.")
	scrapeCmd.MarkFlagRequired("schema")
	rootCmd.AddCommand(scrapeCmd)
}

func scrapeInput() (scrape.Input, error) {
	if *scrapeFile != "" {
		contents, err := os.ReadFile(*scrapeFile)
		if err != nil {
			return scrape.Input{}, err
		}
		return scrape.Input{Html: string(contents)}, nil
	}
	if *scrapeUrl != "" {
		return scrape.Input{Url: *scrapeUrl}, nil
	}
	return scrape.Input{}, fmt.Errorf("one of --url or --file is required")
}

func renderWarnings(warnings []scrape.Warning) {
	if len(warnings) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stderr)
	t.AppendHeader(table.Row{"Field", "Warning"})
	for _, w := range warnings {
		t.AppendRow(table.Row{w.Field, w.Message})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func recordRun(cmd *cobra.Command, input scrape.Input, res scrape.Result) {
	var db *sql.DB
	var err error
	if strings.HasPrefix(*scrapeDb, "libsql://") {
		db, err = sqliteutil.OpenLibsql(resultstore.Schema, *scrapeDb)
	} else {
		db, err = sqliteutil.OpenDB(resultstore.Schema, *scrapeDb)
	}
	if err != nil {
		serviceutil.Fatal("failed to open db", err)
	}
	defer db.Close()

	id, err := resultstore.NewStore(db).Push(cmd.Context(), resultstore.Run{
		Source:   input.Url,
		Time:     time.Now(),
		Data:     res.Data,
		Warnings: len(res.Warnings),
	})
	if err != nil {
		serviceutil.Fatal("failed to record run", err)
	}
	slog.Info("recorded run", "id", id, "db", *scrapeDb)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape --schema <shape.json5> [--url <url> | --file <page.html>] [--db <runs.db>]",
	Short: "Scrapes a page according to a schema and prints the result as JSON.",
	Run: func(cmd *cobra.Command, args []string) {
		sch, err := schema.Load(*scrapeSchema)
		if err != nil {
			serviceutil.Fatal("failed to load schema", err)
		}

		input, err := scrapeInput()
		if err != nil {
			serviceutil.Fatal("failed to resolve input", err)
		}

		source, err := fetch.NewClient(fetch.ClientOptions{
			BypassProtection: *scrapeBypass,
		})
		if err != nil {
			serviceutil.Fatal("failed to initialize fetch client", err)
		}

		it := scrape.New(sch, scrape.Options{Source: source})

		t1 := time.Now()
		res, err := it.Scrape(cmd.Context(), input)
		if err != nil {
			serviceutil.Fatal("scrape failed", err)
		}
		slog.Info("scraping time", "seconds", time.Since(t1).Seconds())

		out, err := json.MarshalIndent(res.Data, "", "  ")
		if err != nil {
			serviceutil.Fatal("failed to serialize result", err)
		}
		fmt.Println(string(out))
		renderWarnings(res.Warnings)

		if *scrapeDb != "" {
			recordRun(cmd, input, res)
		}
	},
}

package commands

import (
	"fmt"
	"os"
	"sort"
	"webshape/lib/schema"
	"webshape/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var checkSchema *string

func init() {
	checkSchema = checkCmd.Flags().String("schema", "", "The json5 schema file to validate.")
	checkCmd.MarkFlagRequired("schema")
	rootCmd.AddCommand(checkCmd)
}

func appendFields(t table.Writer, s schema.Schema, path string) {
	fields := make([]string, 0, len(s))
	for f := range s {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	for _, field := range fields {
		node := s[field]
		fieldPath := field
		if path != "" {
			fieldPath = path + "." + field
		}

		switch node.Kind() {
		case schema.KindMeta:
			t.AppendRow(table.Row{fieldPath, node.Kind(), "", string(node.Meta)})
		case schema.KindPrimitive:
			t.AppendRow(table.Row{fieldPath, node.Kind(), node.Type, node.Selector})
		case schema.KindArray:
			t.AppendRow(table.Row{fieldPath, node.Kind(), "", node.Selector})
			appendFields(t, node.Item, fieldPath+"[]")
		case schema.KindNested:
			t.AppendRow(table.Row{fieldPath, node.Kind(), "", ""})
			appendFields(t, node.Fields, fieldPath)
		}
	}
}

var checkCmd = &cobra.Command{
	Use:   "check --schema <shape.json5>",
	Short: "Validates a schema file and prints how each field was classified.",
	Run: func(cmd *cobra.Command, args []string) {
		sch, err := schema.Load(*checkSchema)
		if err != nil {
			serviceutil.Fatal("schema is invalid", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Field", "Kind", "Type", "Selector"})
		appendFields(t, sch, "")
		t.SetStyle(table.StyleRounded)
		t.Render()

		fmt.Println("schema ok")
	},
}

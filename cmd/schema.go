package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bpmforge/bpmgen/schema"
)

var schemaFile string

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Parse the schema document and show the extracted tables",
	Long: `Parse the schema document and print every extracted table with its
columns, declared types, enum constraints and foreign keys, plus any
column names that were sanitized during parsing.

Examples:
  bpmgen schema                     # Parse schema.md
  bpmgen schema --schema tables.md  # Parse a custom document
`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := showSchema(); err != nil {
			fmt.Printf("❌ Schema parsing failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	schemaCmd.Flags().StringVarP(&schemaFile, "schema", "s", "schema.md", "Schema document to parse")
}

func showSchema() error {
	model, err := loadSchemaModel(schemaFile)
	if err != nil {
		return err
	}

	fmt.Printf("📋 %d tables extracted from %s\n\n", len(model.Order), schemaFile)
	for _, name := range model.Order {
		table := model.Table(name)
		color.Cyan("▸ %s (%d columns)", table.Name, len(table.Columns))
		for _, col := range table.Columns {
			line := fmt.Sprintf("    %-24s %s", col.Name, col.Type)
			if allowed, ok := schema.AllowedValues(table.Name, col.Name); ok {
				line += fmt.Sprintf("  enum%v", allowed)
			}
			fmt.Println(line)
		}
		for _, fk := range table.ForeignKeys {
			fmt.Printf("    🔗 %s → %s\n", fk.Column, fk.ReferencesTable)
		}
		fmt.Println()
	}

	if len(model.Renames) > 0 {
		fmt.Printf("✏️  Sanitized names (%d):\n", len(model.Renames))
		for _, r := range model.Renames {
			fmt.Printf("  • %q → %q\n", r.Original, r.Sanitized)
		}
	}
	return nil
}

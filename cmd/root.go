package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bpmgen",
	Short: "LLM-driven BPMN process data generator with two-phase validation",
	Long: `bpmgen generates BPMN process data (processes, elements, flows,
resources, pools and lanes) from a product description using a generative
model, validates every batch structurally against the schema document and
validates the assembled process graph semantically before export.

Examples:

  bpmgen init
  bpmgen schema
  bpmgen generate --product "industrial coffee machine"
  bpmgen validate output/run_20250101_120000/complete_context.json
`,
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("❌", err)
		os.Exit(1)
	}
}

// Register subcommands
func init() {
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(initCmd)
}

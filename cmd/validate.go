package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bpmforge/bpmgen/llm"
	"github.com/bpmforge/bpmgen/validator"
)

var validateFormat string

var validateCmd = &cobra.Command{
	Use:   "validate <context.json>",
	Short: "Semantically validate an exported process graph",
	Long: `Semantically validate a previously exported run without calling the
generative service. The argument is a complete_context.json file (or any
JSON object mapping table names to row arrays); element and flow rows
are aggregated from it and checked against the process graph rules:
event cardinality, flow referential integrity, connectivity, gateway
branching and boundary-event attachment.

Examples:
  bpmgen validate output/run_20250101_120000/complete_context.json
  bpmgen validate context.json --format json
`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := validateContext(args[0]); err != nil {
			fmt.Printf("❌ Validation failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateFormat, "format", "f", "text", "Output format (text, json)")
}

func validateContext(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading context file: %v", err)
	}

	var tables map[string][]llm.Row
	if err := json.Unmarshal(data, &tables); err != nil {
		return fmt.Errorf("parsing context file: %v", err)
	}

	var elements []validator.Element
	var flows []validator.Flow
	for _, rows := range tables {
		for _, row := range rows {
			switch {
			case validator.IsFlowRow(row):
				flows = append(flows, validator.FlowFromRow(row))
			case validator.IsElementRow(row):
				elements = append(elements, validator.ElementFromRow(row))
			}
		}
	}

	result, semErr := validator.ValidateGraph(elements, flows)

	if validateFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			return err
		}
	} else {
		if result.Valid {
			color.Green("✅ Process graph valid (%d elements, %d flows)", len(elements), len(flows))
		} else {
			color.Red("❌ Process graph invalid!")
		}
		if len(result.Errors) > 0 {
			fmt.Printf("\n🔴 Errors (%d):\n", len(result.Errors))
			printFindings(result.Errors)
		}
		if len(result.Warnings) > 0 {
			fmt.Printf("\n🟡 Warnings (%d):\n", len(result.Warnings))
			printFindings(result.Warnings)
		}
	}

	if semErr != nil {
		os.Exit(1)
	}
	return nil
}

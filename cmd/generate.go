package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bpmforge/bpmgen/config"
	"github.com/bpmforge/bpmgen/exporter"
	"github.com/bpmforge/bpmgen/llm"
	"github.com/bpmforge/bpmgen/loader"
	"github.com/bpmforge/bpmgen/pipeline"
	"github.com/bpmforge/bpmgen/schema"
	"github.com/bpmforge/bpmgen/store"
	"github.com/bpmforge/bpmgen/utils"
	"github.com/bpmforge/bpmgen/validator"
)

var (
	generateConfigFile string
	generateSchemaFile string
	generateProduct    string
	generateModel      string
	generateOutputDir  string
	generateDebug      bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run the full generation pipeline",
	Long: `Run the full generation pipeline: process map, hierarchy levels,
sequence flows, resources, pools and lanes, then semantic validation and
export of the run into a timestamped output directory.

Requires OPENROUTER_API_KEY in the environment or a .env file.

Examples:
  bpmgen generate                                   # Use bpmgen.yaml defaults
  bpmgen generate --product "solar panel assembly"  # Override the product
  bpmgen generate --schema docs/tables.md --debug
`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runGenerate(); err != nil {
			fmt.Printf("❌ Generation failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	generateCmd.Flags().StringVarP(&generateConfigFile, "config", "c", "", "Config file (default bpmgen.yaml)")
	generateCmd.Flags().StringVarP(&generateSchemaFile, "schema", "s", "", "Schema document (.md or .yaml, overrides config)")
	generateCmd.Flags().StringVarP(&generateProduct, "product", "p", "", "Product/process description (overrides config)")
	generateCmd.Flags().StringVarP(&generateModel, "model", "m", "", "Model identifier (overrides config)")
	generateCmd.Flags().StringVarP(&generateOutputDir, "output", "o", "", "Output directory (overrides config)")
	generateCmd.Flags().BoolVar(&generateDebug, "debug", false, "Print raw model traffic and retry details")
}

func runGenerate() error {
	utils.LoadEnv()

	cfg, err := config.Load(generateConfigFile)
	if err != nil {
		return err
	}
	if generateProduct != "" {
		cfg.ProductDescription = generateProduct
	}
	if generateSchemaFile != "" {
		cfg.SchemaPath = generateSchemaFile
	}
	if generateModel != "" {
		cfg.Model = generateModel
	}
	if generateOutputDir != "" {
		cfg.OutputDir = generateOutputDir
	}
	if generateDebug {
		cfg.Debug = true
	}

	model, err := loadSchemaModel(cfg.SchemaPath)
	if err != nil {
		return fmt.Errorf("loading schema: %v", err)
	}

	apiKey, err := utils.GetAPIKey()
	if err != nil {
		return err
	}
	client := llm.NewClient(apiKey)

	st, err := buildStore(cfg)
	if err != nil {
		return err
	}

	p := pipeline.New(cfg, model, client, st, exporter.NewWriter(cfg.OutputDir))
	report, err := p.Run(context.Background())
	if err != nil {
		var exhausted *pipeline.RetryExhaustedError
		if errors.As(err, &exhausted) && exhausted.LastRaw != "" && cfg.Debug {
			fmt.Printf("Last raw model output:\n%s\n", exhausted.LastRaw)
		}
		if report != nil {
			printSummary(report)
		}
		return err
	}

	printSummary(report)
	return nil
}

func loadSchemaModel(path string) (*schema.Model, error) {
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		return loader.LoadYAML(path)
	}
	return loader.LoadDocument(path)
}

func buildStore(cfg *config.Config) (store.TableStore, error) {
	if cfg.Store.Backend == "postgres" {
		st, err := store.NewPostgresStore(context.Background(), cfg.Store.URLEnv)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres store: %v", err)
		}
		return st, nil
	}
	return store.NewMemoryStore(), nil
}

func printSummary(report *pipeline.Report) {
	s := report.Summary
	if s.Success {
		color.Green("✅ Generation complete!")
	} else {
		color.Red("❌ Generation finished with errors!")
	}

	fmt.Printf("\n📊 Summary:\n")
	for table, n := range s.RowCounts {
		fmt.Printf("  • %s: %d rows\n", table, n)
	}
	fmt.Printf("  • Warnings: %d\n", len(s.Warnings))
	fmt.Printf("  • Errors: %d\n", len(s.Errors))
	fmt.Printf("  • Runtime: %s\n", s.Runtime)

	if len(s.Warnings) > 0 {
		fmt.Printf("\n🟡 Warnings (%d):\n", len(s.Warnings))
		printFindings(s.Warnings)
	}
	if len(s.Errors) > 0 {
		fmt.Printf("\n🔴 Errors (%d):\n", len(s.Errors))
		printFindings(s.Errors)
	}
	fmt.Printf("\n📦 Exported to: %s\n", report.Dir)
}

func printFindings(findings []validator.Finding) {
	for i, f := range findings {
		fmt.Printf("  %d. ", i+1)
		if f.Table != "" {
			fmt.Printf("[%s]", f.Table)
		}
		if f.Column != "" {
			fmt.Printf(".%s", f.Column)
		}
		if f.Element != "" {
			fmt.Printf(" (%s)", f.Element)
		}
		fmt.Printf(": %s\n", f.Message)
	}
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new bpmgen project",
	Long: `Initialize a new bpmgen project in the current directory: a starter
bpmgen.yaml configuration and a schema.md document describing the BPMN
tables.

Examples:
  bpmgen init
`,
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := os.Stat("bpmgen.yaml"); err == nil {
			fmt.Println("❌ bpmgen.yaml already exists!")
			return
		}

		configContent := `# bpmgen run configuration
product_description: "industrial coffee machine"
schema_path: schema.md
model: microsoft/mai-ds-r1:free
temperature: 0.7
max_tokens: 1024
retry_budget: 1
output_dir: output
debug: false

store:
  backend: memory       # memory or postgres
  url_env: DATABASE_URL

batch_sizes:
  phases: 5
  processes: 1
  elements: 10
  flows: 15
  resources: 5
  pools: 2
  lanes_per_pool: 3

levels:
  - name: process_definitions
    table: process_definitions
    required: true
  - name: modules
  - name: parts
  - name: subparts
`
		if err := os.WriteFile("bpmgen.yaml", []byte(configContent), 0644); err != nil {
			fmt.Println("❌ Error creating bpmgen.yaml:", err)
			return
		}

		if _, err := os.Stat("schema.md"); err == nil {
			fmt.Println("✅ Created bpmgen.yaml (schema.md already exists, left untouched)")
			return
		}

		schemaContent := `# Process Data Schema

1. process_definitions

| Column | Type | Description |
|--------|------|-------------|
| process_id | text | Unique identifier of the process |
| process_name | text | Human-readable process name |
| description | text | What the process produces or operates |

2. process_phases

| Column | Type | Description |
|--------|------|-------------|
| phase_id | text | Unique identifier of the phase |
| phase_name | text | Name of the phase |
| description | text | Purpose of the phase |
| parent_id | text | Optional parent element, references table bpmn_elements |

3. bpmn_elements

| Column | Type | Description |
|--------|------|-------------|
| element_id | text | Unique identifier of the element |
| element_name | text | Name of the element |
| element_type | text | task, event, gateway, subProcess, callActivity, transaction or adHocSubProcess |
| element_subtype | text | Specific subtype, e.g. startEvent or exclusiveGateway |
| process_id | text | Owning process, references table process_definitions |
| description | text | Purpose of the element |

4. sequence_flows

| Column | Type | Description |
|--------|------|-------------|
| flow_id | text | Unique identifier of the flow |
| source_ref | text | Source element, references table bpmn_elements |
| target_ref | text | Target element, references table bpmn_elements |
| process_id | text | Owning process, references table process_definitions |
| condition_expr | text | Optional condition expression |

5. resources

| Column | Type | Description |
|--------|------|-------------|
| resource_id | text | Unique identifier of the resource |
| resource_name | text | Name of the resource |
| resource_type | text | human, system or equipment |
| element_id | text | Assigned element, references table bpmn_elements |
| process_id | text | Owning process, references table process_definitions |

## Examples

The sections below this marker are documentation samples and are not
parsed as tables.
`
		if err := os.WriteFile("schema.md", []byte(schemaContent), 0644); err != nil {
			fmt.Println("❌ Error creating schema.md:", err)
			return
		}

		fmt.Println("✅ Created bpmgen.yaml and schema.md starter files.")
		fmt.Println("📝 Edit bpmgen.yaml to describe your product and levels")
		fmt.Println("🚀 Run 'bpmgen generate' to start a generation run")
	},
}

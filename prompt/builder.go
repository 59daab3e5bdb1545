package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bpmforge/bpmgen/llm"
	"github.com/bpmforge/bpmgen/schema"
)

// FormatInstructions is appended to every prompt so the model answers
// with bare JSON instead of prose or fenced blocks.
const FormatInstructions = "\n\nIMPORTANT: Respond exclusively with a valid JSON array or object. " +
	"Do not use code blocks with ```json or ```. " +
	"Start your answer directly with [ or { and do not add any additional text."

// ProcessMap asks for the high-level phases of a process. When the
// phases table is declared in the schema its full field list is
// embedded, so the model produces every required column.
func ProcessMap(table *schema.Table, productDescription string, batchSize int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "As a BPMN expert, define the main phases for a process to manufacture/operate: %q.\n\n", productDescription)
	if table != nil && len(table.Columns) > 0 {
		fmt.Fprintf(&b, "Each phase must be an object with exactly these fields:\n%s\n\n", fieldList(table))
		b.WriteString("Fields without a meaningful value at this stage (such as a parent reference) must be present with a null value.\n")
	} else {
		b.WriteString("Each phase must be an object with fields 'phase_id', 'phase_name' and 'description'.\n")
	}
	b.WriteString("The phases should represent a logical sequence from the first to the last phase of the process.\n")
	fmt.Fprintf(&b, "Limit yourself to %d main phases. Return the data as a JSON array.", batchSize)
	b.WriteString(FormatInstructions)
	return b.String()
}

// Entity builds a generic generation prompt for one table: schema field
// listing, context JSON and requested batch size.
func Entity(table *schema.Table, productDescription string, context map[string]any, batchSize int) string {
	friendly := friendlyName(table.Name)

	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d %s entries for: %q.\n\n", batchSize, friendly, productDescription)
	if len(context) > 0 {
		fmt.Fprintf(&b, "Current generation context:\n%s\n\n", toJSON(context))
	}
	fmt.Fprintf(&b, "Schema definition for %s:\n%s\n\n", table.Name, fieldList(table))
	b.WriteString("The data should be realistic and detailed.\n")
	b.WriteString("Return the data as a JSON array, where each element is an object conforming to the schema definition.")
	b.WriteString(FormatInstructions)
	return b.String()
}

// Elements builds the structured prompt for BPMN element generation,
// asking for a complete flow skeleton (start events, tasks, gateways,
// end events).
func Elements(processID, processName string, phases []llm.Row, existing []llm.Row, batchSize int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a complete set of %d BPMN elements for process: %q.\n\n", batchSize, processName)
	fmt.Fprintf(&b, "Process ID: %s\n\n", processID)
	if len(phases) > 0 {
		fmt.Fprintf(&b, "Process phases:\n%s\n\n", toJSON(phases))
	}
	if len(existing) > 0 {
		fmt.Fprintf(&b, "Elements generated so far (do not repeat their IDs):\n%s\n\n", toJSON(existing))
	}
	b.WriteString(`Include the following types of elements to create a complete process flow:

1. Start Events: at least one, subtype "startEvent"
2. Tasks: user tasks, service tasks etc. with descriptive names
3. Gateways: exclusive gateways (XOR) for decisions, parallel gateways (AND) for concurrency
4. End Events: at least one, subtype "endEvent"

Each element must have these fields:
- element_id: a unique ID (e.g. "START_001", "TASK_001", "GATE_001", "END_001")
- element_name: descriptive name
- element_type: one of "task", "event", "gateway", "subProcess", "callActivity", "transaction", "adHocSubProcess"
- element_subtype: specific type (e.g. "startEvent", "userTask", "exclusiveGateway")
`)
	fmt.Fprintf(&b, "- process_id: the ID of the process (%s)\n", processID)
	b.WriteString("- description: brief description of the element's purpose\n\n")
	b.WriteString("Return the data as a JSON array, with elements in logical process order (start to end).")
	b.WriteString(FormatInstructions)
	return b.String()
}

// PhaseEntities asks for finer-grained child entities scoped to the
// parent element IDs created for a hierarchical level. The phases
// table's schema is embedded when declared, like Entity does.
func PhaseEntities(table *schema.Table, level string, parentIDs []string, batchSize int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d phase entries for the level %s.\n\n", batchSize, friendlyName(level))
	fmt.Fprintf(&b, "These entries must relate to the following parent element IDs:\n%s\n\n", toJSON(parentIDs))
	if table != nil && len(table.Columns) > 0 {
		fmt.Fprintf(&b, "Each entry must be an object with exactly these fields:\n%s\n\n", fieldList(table))
	} else {
		b.WriteString(`Each entry must have the following fields:
- phase_id: a unique ID (string)
- phase_name: descriptive name (string)
- description: brief description of its function (string)

`)
	}
	b.WriteString("Set the parent reference field (parent_id) to one of the parent element IDs listed above.\n")
	b.WriteString("Return the data as a JSON array.")
	b.WriteString(FormatInstructions)
	return b.String()
}

// Flows asks for sequence flows connecting the generated elements.
func Flows(elements []llm.Row, processID string) string {
	var b strings.Builder
	b.WriteString("Based on the following BPMN elements, generate the necessary sequence flows to connect them into a complete BPMN process.\n\n")
	fmt.Fprintf(&b, "Available elements:\n%s\n", elementSummary(elements))
	fmt.Fprintf(&b, `
Generate sequence flows with the following fields:
- flow_id: a unique ID (e.g. "FLOW_001", "FLOW_002")
- source_ref: the ID of the source element
- target_ref: the ID of the target element
- process_id: the process these flows belong to (%s)
- condition_expr: optional condition expression for conditional flows (especially for exclusive gateways)

Follow these rules:
1. Each element except start and end events needs at least one incoming and one outgoing flow
2. Start events have only outgoing flows
3. End events have only incoming flows
4. Exclusive gateways should have conditional outgoing flows
5. Parallel gateways must not have conditions

Return the data as a JSON array of well-formed sequence flows.`, processID)
	b.WriteString(FormatInstructions)
	return b.String()
}

// Resources asks for resource assignments for the generated tasks.
func Resources(table *schema.Table, elements []llm.Row, processID string, batchSize int) string {
	var tasks []llm.Row
	for _, el := range elements {
		if strings.EqualFold(el.String("element_type"), "task") {
			tasks = append(tasks, el)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d resources (people, roles, systems or equipment) for the BPMN tasks.\n\n", batchSize)
	if len(tasks) > 0 {
		fmt.Fprintf(&b, "Available tasks for resource assignment:\n%s\n", elementSummary(tasks))
	} else {
		b.WriteString("No tasks found.\n")
	}
	if table != nil {
		fmt.Fprintf(&b, "\nSchema definition for resources:\n%s\n", fieldList(table))
	}
	fmt.Fprintf(&b, `
Each resource must include:
- resource_id: a unique ID (e.g. "RES_001")
- resource_name: name of the resource
- resource_type: one of "human", "system", "equipment"
- element_id: ID of the element this resource is assigned to
- process_id: %s

Consider the type of the task when assigning resources.
Return the data as a JSON array.`, processID)
	b.WriteString(FormatInstructions)
	return b.String()
}

// Pools asks for participant pools for the diagram.
func Pools(processID, processName string, batchSize int) string {
	return fmt.Sprintf(`As a BPMN expert with organizational design experience, generate %d pools for this BPMN diagram.

Process: %s
Process ID: %s

Pools represent participants in a process, such as organizations, departments or systems.

For each pool generate:
- pool_id: a unique identifier (format "POOL_001", "POOL_002", ...)
- pool_name: descriptive participant name
- process_id: %s
- description: the pool's purpose in the process
- participant_type: one of "organization", "department", "system", "role"

Return the data as a JSON array with %d pools.`,
		batchSize, processName, processID, processID, batchSize) + FormatInstructions
}

// Lanes asks for lanes subdividing one pool.
func Lanes(pool llm.Row, batchSize int) string {
	return fmt.Sprintf(`As a BPMN expert, generate up to %d lanes for the following pool:

Pool ID: %s
Pool Name: %s
Process ID: %s

Lanes subdivide pools and represent roles, departments or systems within an organization.

For each lane generate:
- lane_id: a unique identifier (format "LANE_001", "LANE_002", ...)
- lane_name: descriptive role or department name
- pool_id: %s
- process_id: %s
- description: the lane's purpose and responsibilities
- role: the functional role represented by this lane

Return the data as a JSON array.`,
		batchSize,
		pool.String("pool_id"), pool.String("pool_name"), pool.String("process_id"),
		pool.String("pool_id"), pool.String("process_id")) + FormatInstructions
}

// ProductSpecifications asks for a technical specification record for
// the product, exported alongside the process data.
func ProductSpecifications(productDescription, processName string) string {
	return fmt.Sprintf(`As a product engineer, create a technical specification record for: %q.

The specification belongs to the process %q.

Return a single JSON object with the following fields:
- spec_id: a unique identifier (format "SPEC_001")
- product_name: the product's name
- category: product category
- key_features: array of the most important features
- technical_data: object mapping technical properties to values (dimensions, capacity, power, materials)
- quality_standards: array of applicable standards or certifications

The data should be realistic and consistent with the process phases.`,
		productDescription, processName) + FormatInstructions
}

// FixIt embeds the original prompt, the malformed output and the error,
// instructing the model to return corrected, parseable JSON with no
// prose.
func FixIt(original, raw string, parseErr error) string {
	return fmt.Sprintf(`Your previous answer to the prompt below could not be parsed.

Original prompt:
%s

Your previous answer:
%s

Problem: %v

Return a corrected version of your answer as valid, parseable JSON.
Respond with the JSON only: no explanation, no prose, no code fences.`, original, raw, parseErr)
}

func friendlyName(table string) string {
	words := strings.Split(table, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func fieldList(table *schema.Table) string {
	var lines []string
	for _, col := range table.Columns {
		line := fmt.Sprintf("- %s: %s", col.Name, col.Type)
		if col.Description != "" {
			line += " — " + col.Description
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func elementSummary(elements []llm.Row) string {
	var lines []string
	for _, el := range elements {
		lines = append(lines, fmt.Sprintf("- ID: %s, Name: %s, Type: %s/%s",
			el.String("element_id"), el.String("element_name"),
			el.String("element_type"), el.String("element_subtype")))
	}
	return strings.Join(lines, "\n")
}

func toJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(b)
}

package pipeline

import "github.com/bpmforge/bpmgen/validator"

// Aggregate flattens every recorded batch into the element and flow
// views the semantic validator works on. A row counts as an element when
// it carries an element_id and as a flow when it carries flow_id,
// source_ref and target_ref; optional fields are normalized to
// present-but-empty by the projection.
func Aggregate(ctx *Context) ([]validator.Element, []validator.Flow) {
	var elements []validator.Element
	var flows []validator.Flow

	for _, key := range ctx.Keys() {
		for _, row := range ctx.Rows(key) {
			switch {
			case validator.IsFlowRow(row):
				flows = append(flows, validator.FlowFromRow(row))
			case validator.IsElementRow(row):
				elements = append(elements, validator.ElementFromRow(row))
			}
		}
	}
	return elements, flows
}

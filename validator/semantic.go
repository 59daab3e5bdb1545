package validator

import (
	"fmt"
	"strings"

	"github.com/bpmforge/bpmgen/llm"
)

// Element is the graph view of a generated row carrying an element_id.
// It is recomputed from raw rows and never persisted separately.
type Element struct {
	ID              string `json:"element_id"`
	Type            string `json:"element_type"`
	Subtype         string `json:"element_subtype"`
	ParentProcessID string `json:"process_id"`
	AttachedToRef   string `json:"attached_to_ref"`
}

// Flow is the graph view of a generated row carrying flow_id,
// source_ref and target_ref.
type Flow struct {
	ID              string `json:"flow_id"`
	SourceRef       string `json:"source_ref"`
	TargetRef       string `json:"target_ref"`
	ParentProcessID string `json:"process_id"`
	HasCondition    bool   `json:"has_condition"`
}

// ElementFromRow projects a raw row into an Element, normalizing optional
// fields to present-but-empty so downstream code never branches on
// absence.
func ElementFromRow(r llm.Row) Element {
	return Element{
		ID:              r.String("element_id"),
		Type:            r.String("element_type"),
		Subtype:         r.String("element_subtype"),
		ParentProcessID: r.String("process_id"),
		AttachedToRef:   r.String("attached_to_ref"),
	}
}

// FlowFromRow projects a raw row into a Flow. A flow has a condition when
// its condition_expr is non-empty.
func FlowFromRow(r llm.Row) Flow {
	return Flow{
		ID:              r.String("flow_id"),
		SourceRef:       r.String("source_ref"),
		TargetRef:       r.String("target_ref"),
		ParentProcessID: r.String("process_id"),
		HasCondition:    !r.IsEmpty("condition_expr"),
	}
}

// IsElementRow reports whether a row batch entry looks like a process
// element. element_id alone is not enough: resource rows carry one as an
// assignment reference, so element_type is required as well.
func IsElementRow(r llm.Row) bool {
	return r.Has("element_id") && r.Has("element_type")
}

// IsFlowRow reports whether a row looks like a sequence flow.
func IsFlowRow(r llm.Row) bool {
	return r.Has("flow_id") && r.Has("source_ref") && r.Has("target_ref")
}

// SemanticError is a hard graph violation. It is raised only after all
// soft issues were collected, so the caller sees the full warning list
// alongside it.
type SemanticError struct {
	Finding  Finding
	Warnings []Finding
}

func (e *SemanticError) Error() string {
	return fmt.Sprintf("semantic validation failed: %s", e.Finding.String())
}

// Group key used for elements whose parent process is unknown.
const unknownProcess = "(unknown)"

// Activity types a boundary event may attach to.
var attachableTypes = map[string]bool{
	"task":         true,
	"subprocess":   true,
	"callactivity": true,
}

// ValidateGraph checks the aggregated process graph: event cardinality
// per process group, flow referential integrity, node connectivity,
// gateway branching rules and boundary-event attachment.
//
// Pure function over its inputs. Soft issues become warnings; the first
// hard violation is returned as *SemanticError after the full pass.
func ValidateGraph(elements []Element, flows []Flow) (*ValidationResult, error) {
	result := NewResult()
	var hard *Finding
	record := func(f Finding) {
		result.addError(f)
		if hard == nil {
			hard = &f
		}
	}

	byID := make(map[string]Element, len(elements))
	for _, el := range elements {
		if _, dup := byID[el.ID]; dup {
			record(Finding{
				Kind:    DuplicateElement,
				Element: el.ID,
				Message: fmt.Sprintf("element id '%s' is not unique", el.ID),
			})
			continue
		}
		byID[el.ID] = el
	}

	checkEventCardinality(elements, result, record)

	incoming := map[string]int{}
	outgoing := map[string]int{}
	outgoingFlows := map[string][]Flow{}
	for _, fl := range flows {
		if _, ok := byID[fl.SourceRef]; !ok {
			record(Finding{
				Kind:    FlowReference,
				Element: fl.ID,
				Message: fmt.Sprintf("flow '%s' source_ref '%s' does not resolve to a known element", fl.ID, fl.SourceRef),
			})
		}
		if _, ok := byID[fl.TargetRef]; !ok {
			record(Finding{
				Kind:    FlowReference,
				Element: fl.ID,
				Message: fmt.Sprintf("flow '%s' target_ref '%s' does not resolve to a known element", fl.ID, fl.TargetRef),
			})
		}
		outgoing[fl.SourceRef]++
		incoming[fl.TargetRef]++
		outgoingFlows[fl.SourceRef] = append(outgoingFlows[fl.SourceRef], fl)
	}

	checkConnectivity(elements, incoming, outgoing, result)

	for _, el := range elements {
		if isGateway(el) {
			checkGateway(el, incoming[el.ID], outgoingFlows[el.ID], byID, result, record)
		}
	}

	checkBoundaryAttachment(elements, byID, record)

	if hard != nil {
		return result, &SemanticError{Finding: *hard, Warnings: result.Warnings}
	}
	return result, nil
}

// checkEventCardinality groups elements by parent process. Zero start
// events in a group is a warning; more than one is a hard error because
// the entry point becomes ambiguous. Zero end events is a warning.
func checkEventCardinality(elements []Element, result *ValidationResult, record func(Finding)) {
	starts := map[string][]string{}
	ends := map[string]int{}
	groups := map[string]bool{}

	for _, el := range elements {
		group := el.ParentProcessID
		if group == "" {
			group = unknownProcess
		}
		groups[group] = true
		switch {
		case isStartEvent(el):
			starts[group] = append(starts[group], el.ID)
		case isEndEvent(el):
			ends[group]++
		}
	}

	for group := range groups {
		switch n := len(starts[group]); {
		case n == 0:
			result.addWarning(Finding{
				Kind:    StartEventCount,
				Message: fmt.Sprintf("process group '%s' has no start event", group),
			})
		case n > 1:
			record(Finding{
				Kind: StartEventCount,
				Message: fmt.Sprintf("process group '%s' has %d start events (%s), entry point is ambiguous",
					group, n, strings.Join(starts[group], ", ")),
			})
		}
		if ends[group] == 0 {
			result.addWarning(Finding{
				Kind:    EndEventCount,
				Message: fmt.Sprintf("process group '%s' has no end event", group),
			})
		}
	}
}

// checkConnectivity warns about elements missing incoming or outgoing
// flows. Start events need no incoming flow, end events no outgoing one,
// and boundary events are attached rather than wired in.
func checkConnectivity(elements []Element, incoming, outgoing map[string]int, result *ValidationResult) {
	for _, el := range elements {
		if isBoundary(el) {
			continue
		}
		if !isStartEvent(el) && incoming[el.ID] == 0 {
			result.addWarning(Finding{
				Kind:    Connectivity,
				Element: el.ID,
				Message: fmt.Sprintf("element '%s' has no incoming flow", el.ID),
			})
		}
		if !isEndEvent(el) && outgoing[el.ID] == 0 {
			result.addWarning(Finding{
				Kind:    Connectivity,
				Element: el.ID,
				Message: fmt.Sprintf("element '%s' has no outgoing flow", el.ID),
			})
		}
	}
}

// checkGateway dispatches branching rules by gateway subtype.
func checkGateway(el Element, in int, out []Flow, byID map[string]Element, result *ValidationResult, record func(Finding)) {
	subtype := strings.ToLower(el.Subtype)

	switch {
	case strings.Contains(subtype, "exclusive"), strings.Contains(subtype, "inclusive"):
		// Whether a default flow overrides the missing conditions
		// cannot be confirmed without gateway-table context, so this
		// stays a warning.
		if len(out) > 1 && !anyConditioned(out) {
			result.addWarning(Finding{
				Kind:    GatewayBranching,
				Element: el.ID,
				Message: fmt.Sprintf("gateway '%s' has %d outgoing flows but none carries a condition", el.ID, len(out)),
			})
		}
		if strings.Contains(subtype, "exclusive") {
			if in == 1 && len(out) == 1 {
				result.addWarning(Finding{
					Kind:    GatewayBranching,
					Element: el.ID,
					Message: fmt.Sprintf("gateway '%s' has exactly one incoming and one outgoing flow and is redundant", el.ID),
				})
			}
			if in == 0 && len(out) == 0 {
				result.addWarning(Finding{
					Kind:    GatewayBranching,
					Element: el.ID,
					Message: fmt.Sprintf("gateway '%s' is disconnected", el.ID),
				})
			}
		}

	case strings.Contains(subtype, "parallel"):
		if in < 2 && len(out) < 2 {
			result.addWarning(Finding{
				Kind:    GatewayBranching,
				Element: el.ID,
				Message: fmt.Sprintf("parallel gateway '%s' neither splits nor joins", el.ID),
			})
		}
		for _, fl := range out {
			if fl.HasCondition {
				record(Finding{
					Kind:    GatewayBranching,
					Element: el.ID,
					Message: fmt.Sprintf("parallel gateway '%s' outgoing flow '%s' carries a condition; parallel branches must be unconditional", el.ID, fl.ID),
				})
			}
		}

	case strings.Contains(subtype, "event"):
		for _, fl := range out {
			target, ok := byID[fl.TargetRef]
			if ok && isEventBasedTarget(target) {
				continue
			}
			record(Finding{
				Kind:    GatewayBranching,
				Element: el.ID,
				Message: fmt.Sprintf("event-based gateway '%s' outgoing flow '%s' targets '%s', which is not an intermediate catching event or receive task", el.ID, fl.ID, fl.TargetRef),
			})
		}
	}
}

// checkBoundaryAttachment requires every attachedToRef to resolve to an
// existing activity (task, subProcess or callActivity).
func checkBoundaryAttachment(elements []Element, byID map[string]Element, record func(Finding)) {
	for _, el := range elements {
		if !isBoundary(el) {
			continue
		}
		host, ok := byID[el.AttachedToRef]
		if !ok {
			record(Finding{
				Kind:    BoundaryAttachment,
				Element: el.ID,
				Message: fmt.Sprintf("boundary event '%s' is attached to missing element '%s'", el.ID, el.AttachedToRef),
			})
			continue
		}
		if !attachableTypes[strings.ToLower(host.Type)] {
			record(Finding{
				Kind:    BoundaryAttachment,
				Element: el.ID,
				Message: fmt.Sprintf("boundary event '%s' is attached to '%s' of type '%s'; only activities can host boundary events", el.ID, host.ID, host.Type),
			})
		}
	}
}

func anyConditioned(flows []Flow) bool {
	for _, fl := range flows {
		if fl.HasCondition {
			return true
		}
	}
	return false
}

func isStartEvent(el Element) bool {
	return strings.EqualFold(el.Subtype, "startEvent")
}

func isEndEvent(el Element) bool {
	return strings.EqualFold(el.Subtype, "endEvent")
}

func isBoundary(el Element) bool {
	return el.AttachedToRef != ""
}

func isGateway(el Element) bool {
	return strings.EqualFold(el.Type, "gateway")
}

func isEventBasedTarget(el Element) bool {
	subtype := strings.ToLower(el.Subtype)
	if strings.EqualFold(el.Type, "event") && strings.Contains(subtype, "catch") {
		return true
	}
	return subtype == "receivetask"
}

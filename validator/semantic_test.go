package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpmforge/bpmgen/llm"
	"github.com/bpmforge/bpmgen/validator"
)

func element(id, typ, subtype string) validator.Element {
	return validator.Element{ID: id, Type: typ, Subtype: subtype, ParentProcessID: "PROC_001"}
}

func flow(id, source, target string) validator.Flow {
	return validator.Flow{ID: id, SourceRef: source, TargetRef: target, ParentProcessID: "PROC_001"}
}

// linearGraph is the minimal clean process: start → task → end.
func linearGraph() ([]validator.Element, []validator.Flow) {
	elements := []validator.Element{
		element("START_001", "event", "startEvent"),
		element("TASK_001", "task", "userTask"),
		element("END_001", "event", "endEvent"),
	}
	flows := []validator.Flow{
		flow("FLOW_001", "START_001", "TASK_001"),
		flow("FLOW_002", "TASK_001", "END_001"),
	}
	return elements, flows
}

func TestValidateGraphClean(t *testing.T) {
	elements, flows := linearGraph()
	result, err := validator.ValidateGraph(elements, flows)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Warnings)
}

func TestStartEventCardinality(t *testing.T) {
	t.Run("two start events is a hard error", func(t *testing.T) {
		elements, flows := linearGraph()
		elements = append(elements, element("START_002", "event", "startEvent"))
		flows = append(flows, flow("FLOW_003", "START_002", "TASK_001"))

		_, err := validator.ValidateGraph(elements, flows)
		var semErr *validator.SemanticError
		require.ErrorAs(t, err, &semErr)
		assert.Equal(t, validator.StartEventCount, semErr.Finding.Kind)
	})

	t.Run("no start event is only a warning", func(t *testing.T) {
		elements := []validator.Element{
			element("TASK_001", "task", "userTask"),
			element("END_001", "event", "endEvent"),
		}
		flows := []validator.Flow{flow("FLOW_001", "TASK_001", "END_001")}

		result, err := validator.ValidateGraph(elements, flows)
		require.NoError(t, err)
		kinds := findingKinds(result.Warnings)
		assert.Contains(t, kinds, validator.StartEventCount)
	})

	t.Run("no end event is only a warning", func(t *testing.T) {
		elements := []validator.Element{
			element("START_001", "event", "startEvent"),
			element("TASK_001", "task", "userTask"),
		}
		flows := []validator.Flow{flow("FLOW_001", "START_001", "TASK_001")}

		result, err := validator.ValidateGraph(elements, flows)
		require.NoError(t, err)
		kinds := findingKinds(result.Warnings)
		assert.Contains(t, kinds, validator.EndEventCount)
	})
}

func TestDuplicateElementID(t *testing.T) {
	elements, flows := linearGraph()
	elements = append(elements, element("TASK_001", "task", "serviceTask"))

	_, err := validator.ValidateGraph(elements, flows)
	var semErr *validator.SemanticError
	require.ErrorAs(t, err, &semErr)
	assert.Equal(t, validator.DuplicateElement, semErr.Finding.Kind)
}

func TestFlowReferentialIntegrity(t *testing.T) {
	elements, flows := linearGraph()
	flows = append(flows, flow("FLOW_003", "TASK_001", "GHOST_001"))

	_, err := validator.ValidateGraph(elements, flows)
	var semErr *validator.SemanticError
	require.ErrorAs(t, err, &semErr)
	assert.Equal(t, validator.FlowReference, semErr.Finding.Kind)
}

func TestConnectivityWarnings(t *testing.T) {
	elements, flows := linearGraph()
	elements = append(elements, element("TASK_ORPHAN", "task", "userTask"))

	result, err := validator.ValidateGraph(elements, flows)
	require.NoError(t, err)

	var orphanWarnings int
	for _, w := range result.Warnings {
		if w.Kind == validator.Connectivity && w.Element == "TASK_ORPHAN" {
			orphanWarnings++
		}
	}
	// Missing incoming and missing outgoing are reported separately.
	assert.Equal(t, 2, orphanWarnings)
}

func TestExclusiveGatewayWarnings(t *testing.T) {
	t.Run("branching without conditions", func(t *testing.T) {
		elements := []validator.Element{
			element("START_001", "event", "startEvent"),
			element("GATE_001", "gateway", "exclusiveGateway"),
			element("TASK_A", "task", "userTask"),
			element("TASK_B", "task", "userTask"),
			element("END_001", "event", "endEvent"),
		}
		flows := []validator.Flow{
			flow("F1", "START_001", "GATE_001"),
			flow("F2", "GATE_001", "TASK_A"),
			flow("F3", "GATE_001", "TASK_B"),
			flow("F4", "TASK_A", "END_001"),
			flow("F5", "TASK_B", "END_001"),
		}

		result, err := validator.ValidateGraph(elements, flows)
		require.NoError(t, err)
		assert.Contains(t, findingKinds(result.Warnings), validator.GatewayBranching)
	})

	t.Run("conditioned branches produce no warning", func(t *testing.T) {
		elements := []validator.Element{
			element("START_001", "event", "startEvent"),
			element("GATE_001", "gateway", "exclusiveGateway"),
			element("TASK_A", "task", "userTask"),
			element("TASK_B", "task", "userTask"),
			element("END_001", "event", "endEvent"),
		}
		conditioned := flow("F2", "GATE_001", "TASK_A")
		conditioned.HasCondition = true
		flows := []validator.Flow{
			flow("F1", "START_001", "GATE_001"),
			conditioned,
			flow("F3", "GATE_001", "TASK_B"),
			flow("F4", "TASK_A", "END_001"),
			flow("F5", "TASK_B", "END_001"),
		}

		result, err := validator.ValidateGraph(elements, flows)
		require.NoError(t, err)
		assert.NotContains(t, findingKinds(result.Warnings), validator.GatewayBranching)
	})

	t.Run("redundant pass-through gateway", func(t *testing.T) {
		elements := []validator.Element{
			element("START_001", "event", "startEvent"),
			element("GATE_001", "gateway", "exclusiveGateway"),
			element("END_001", "event", "endEvent"),
		}
		flows := []validator.Flow{
			flow("F1", "START_001", "GATE_001"),
			flow("F2", "GATE_001", "END_001"),
		}

		result, err := validator.ValidateGraph(elements, flows)
		require.NoError(t, err)
		assert.Contains(t, findingKinds(result.Warnings), validator.GatewayBranching)
	})
}

func TestParallelGatewayConditionIsHard(t *testing.T) {
	elements := []validator.Element{
		element("START_001", "event", "startEvent"),
		element("GATE_001", "gateway", "parallelGateway"),
		element("TASK_A", "task", "userTask"),
		element("TASK_B", "task", "userTask"),
		element("END_001", "event", "endEvent"),
	}
	conditioned := flow("F2", "GATE_001", "TASK_A")
	conditioned.HasCondition = true
	flows := []validator.Flow{
		flow("F1", "START_001", "GATE_001"),
		conditioned,
		flow("F3", "GATE_001", "TASK_B"),
		flow("F4", "TASK_A", "END_001"),
		flow("F5", "TASK_B", "END_001"),
	}

	_, err := validator.ValidateGraph(elements, flows)
	var semErr *validator.SemanticError
	require.ErrorAs(t, err, &semErr)
	assert.Equal(t, validator.GatewayBranching, semErr.Finding.Kind)
	assert.Equal(t, "GATE_001", semErr.Finding.Element)
}

func TestEventBasedGatewayTargets(t *testing.T) {
	elements := []validator.Element{
		element("START_001", "event", "startEvent"),
		element("GATE_001", "gateway", "eventBasedGateway"),
		element("CATCH_001", "event", "intermediateCatchEvent"),
		element("TASK_001", "task", "userTask"),
		element("END_001", "event", "endEvent"),
	}
	flows := []validator.Flow{
		flow("F1", "START_001", "GATE_001"),
		flow("F2", "GATE_001", "CATCH_001"),
		flow("F3", "GATE_001", "TASK_001"), // plain user task, not allowed
		flow("F4", "CATCH_001", "END_001"),
		flow("F5", "TASK_001", "END_001"),
	}

	_, err := validator.ValidateGraph(elements, flows)
	var semErr *validator.SemanticError
	require.ErrorAs(t, err, &semErr)
	assert.Equal(t, validator.GatewayBranching, semErr.Finding.Kind)

	// A receive task target is fine.
	elements[3].Subtype = "receiveTask"
	result, err := validator.ValidateGraph(elements, flows)
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestBoundaryAttachment(t *testing.T) {
	elements, flows := linearGraph()
	boundary := validator.Element{
		ID: "BOUND_001", Type: "event", Subtype: "boundaryEvent",
		ParentProcessID: "PROC_001", AttachedToRef: "TASK_001",
	}

	t.Run("attached to a task is valid", func(t *testing.T) {
		result, err := validator.ValidateGraph(append(elements, boundary), flows)
		require.NoError(t, err)
		assert.True(t, result.Valid)
	})

	t.Run("attached to a missing element is hard", func(t *testing.T) {
		bad := boundary
		bad.AttachedToRef = "GHOST_001"
		_, err := validator.ValidateGraph(append(elements, bad), flows)
		var semErr *validator.SemanticError
		require.ErrorAs(t, err, &semErr)
		assert.Equal(t, validator.BoundaryAttachment, semErr.Finding.Kind)
	})

	t.Run("attached to a non-activity is hard", func(t *testing.T) {
		withGate := append(elements, element("GATE_001", "gateway", "exclusiveGateway"))
		gateFlows := append(flows,
			flow("F6", "TASK_001", "GATE_001"),
			flow("F7", "GATE_001", "END_001"),
		)
		bad := boundary
		bad.AttachedToRef = "GATE_001"
		_, err := validator.ValidateGraph(append(withGate, bad), gateFlows)
		var semErr *validator.SemanticError
		require.ErrorAs(t, err, &semErr)
		assert.Equal(t, validator.BoundaryAttachment, semErr.Finding.Kind)
	})
}

func TestSemanticErrorCarriesWarnings(t *testing.T) {
	// Orphan task (warnings) plus a dangling flow (hard): the error must
	// still expose the collected warnings.
	elements, flows := linearGraph()
	elements = append(elements, element("TASK_ORPHAN", "task", "userTask"))
	flows = append(flows, flow("FLOW_BAD", "TASK_001", "GHOST_001"))

	_, err := validator.ValidateGraph(elements, flows)
	var semErr *validator.SemanticError
	require.ErrorAs(t, err, &semErr)
	assert.NotEmpty(t, semErr.Warnings)
}

func TestRowProjections(t *testing.T) {
	el := validator.ElementFromRow(llm.Row{
		"element_id":   "TASK_001",
		"element_type": "task",
	})
	assert.Equal(t, "TASK_001", el.ID)
	assert.Equal(t, "", el.Subtype, "absent fields normalize to empty")
	assert.Equal(t, "", el.AttachedToRef)

	fl := validator.FlowFromRow(llm.Row{
		"flow_id":        "F1",
		"source_ref":     "A",
		"target_ref":     "B",
		"condition_expr": "x > 1",
	})
	assert.True(t, fl.HasCondition)

	assert.True(t, validator.IsFlowRow(llm.Row{"flow_id": "F1", "source_ref": "A", "target_ref": "B"}))
	assert.False(t, validator.IsElementRow(llm.Row{"element_id": "T", "resource_id": "R"}),
		"resource assignments reference an element but are not elements")
	assert.True(t, validator.IsElementRow(llm.Row{"element_id": "T", "element_type": "task"}))
}

func findingKinds(findings []validator.Finding) []validator.FindingKind {
	kinds := make([]validator.FindingKind, 0, len(findings))
	for _, f := range findings {
		kinds = append(kinds, f.Kind)
	}
	return kinds
}

package validator

import "fmt"

// FindingKind labels what a validation finding is about.
type FindingKind string

const (
	// Structural kinds.
	MissingColumn       FindingKind = "missing_column"
	TypeMismatch        FindingKind = "type_mismatch"
	EnumViolation       FindingKind = "enum"
	ForeignKeyViolation FindingKind = "foreign_key"
	UnknownTable        FindingKind = "unknown_table"
	UncheckedReference  FindingKind = "unchecked_reference"

	// Semantic kinds.
	DuplicateElement   FindingKind = "duplicate_element"
	StartEventCount    FindingKind = "start_event_count"
	EndEventCount      FindingKind = "end_event_count"
	FlowReference      FindingKind = "flow_reference"
	Connectivity       FindingKind = "connectivity"
	GatewayBranching   FindingKind = "gateway_branching"
	BoundaryAttachment FindingKind = "boundary_attachment"

	// Pipeline-level kind.
	LevelSkipped FindingKind = "level_skipped"
)

// Finding is a single validation finding with details.
type Finding struct {
	Kind     FindingKind `json:"kind"`
	Table    string      `json:"table,omitempty"`
	Column   string      `json:"column,omitempty"`
	Row      int         `json:"row,omitempty"`
	Element  string      `json:"element,omitempty"`
	Message  string      `json:"message"`
	Severity string      `json:"severity"` // "error" or "warning"
}

func (f Finding) String() string {
	loc := ""
	if f.Table != "" {
		loc = "[" + f.Table + "]"
	}
	if f.Column != "" {
		loc += "." + f.Column
	}
	if f.Element != "" {
		loc += " (" + f.Element + ")"
	}
	if loc != "" {
		loc += ": "
	}
	return fmt.Sprintf("%s%s", loc, f.Message)
}

// ValidationResult collects findings instead of failing on the first one;
// the pipeline decides whether to escalate, separating detection from
// reaction.
type ValidationResult struct {
	Valid    bool      `json:"valid"`
	Errors   []Finding `json:"errors"`
	Warnings []Finding `json:"warnings"`
}

func NewResult() *ValidationResult {
	return &ValidationResult{
		Valid:    true,
		Errors:   []Finding{},
		Warnings: []Finding{},
	}
}

func (r *ValidationResult) addError(f Finding) {
	f.Severity = "error"
	r.Errors = append(r.Errors, f)
	r.Valid = false
}

func (r *ValidationResult) addWarning(f Finding) {
	f.Severity = "warning"
	r.Warnings = append(r.Warnings, f)
}

// Merge folds another result into this one.
func (r *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.Valid = r.Valid && other.Valid
}

// Err returns the first error finding as a Go error, or nil when the
// result is valid.
func (r *ValidationResult) Err() error {
	if r.Valid || len(r.Errors) == 0 {
		return nil
	}
	return fmt.Errorf("%s: %s", r.Errors[0].Kind, r.Errors[0].String())
}

package validator

import (
	"fmt"
	"strings"
	"time"

	"github.com/bpmforge/bpmgen/llm"
	"github.com/bpmforge/bpmgen/schema"
)

// IDContext supplies the IDs recorded so far for each table, used to
// check foreign-key conformance against previously generated data.
type IDContext interface {
	IDs(table string) ([]string, bool)
}

// ValidateRows checks a batch of generated rows against the schema entry
// for one table: column presence, type conformance, enum membership and
// foreign-key existence.
//
// Unknown tables (no schema entry, or an entry without columns) are
// tolerated with a warning, not rejected: the pipeline may generate
// auxiliary tables that were never pre-declared.
func ValidateRows(tableName string, rows []llm.Row, model *schema.Model, refs IDContext) *ValidationResult {
	result := NewResult()

	table := model.Table(tableName)
	if table == nil || len(table.Columns) == 0 {
		result.addWarning(Finding{
			Kind:    UnknownTable,
			Table:   tableName,
			Message: fmt.Sprintf("no schema for table '%s', skipping structural validation", tableName),
		})
		return result
	}

	for idx, row := range rows {
		for _, col := range table.Columns {
			if !row.Has(col.Name) {
				result.addError(Finding{
					Kind:    MissingColumn,
					Table:   tableName,
					Column:  col.Name,
					Row:     idx,
					Message: fmt.Sprintf("row %d is missing required column '%s'", idx, col.Name),
				})
				continue
			}
			if ok, got := conforms(row[col.Name], col.Type); !ok {
				result.addError(Finding{
					Kind:   TypeMismatch,
					Table:  tableName,
					Column: col.Name,
					Row:    idx,
					Message: fmt.Sprintf("row %d column '%s' expects %s, got %s",
						idx, col.Name, col.Type, got),
				})
			}
		}

		for _, col := range table.Columns {
			allowed, checked := schema.AllowedValues(tableName, col.Name)
			if !checked || !row.Has(col.Name) {
				continue
			}
			value := row.String(col.Name)
			if !contains(allowed, value) {
				result.addError(Finding{
					Kind:   EnumViolation,
					Table:  tableName,
					Column: col.Name,
					Row:    idx,
					Message: fmt.Sprintf("row %d column '%s' value '%s' not in allowed set %v",
						idx, col.Name, value, allowed),
				})
			}
		}
	}

	validateForeignKeys(tableName, rows, table, refs, result)
	return result
}

func validateForeignKeys(tableName string, rows []llm.Row, table *schema.Table, refs IDContext, result *ValidationResult) {
	for _, fk := range table.ForeignKeys {
		var known []string
		ok := false
		if refs != nil {
			known, ok = refs.IDs(fk.ReferencesTable)
		}
		if !ok {
			// The referenced table has produced no IDs yet, so the
			// reference cannot be checked; degrade to a warning
			// rather than block the run.
			result.addWarning(Finding{
				Kind:   UncheckedReference,
				Table:  tableName,
				Column: fk.Column,
				Message: fmt.Sprintf("no recorded IDs for referenced table '%s', skipping foreign-key check",
					fk.ReferencesTable),
			})
			continue
		}

		set := make(map[string]bool, len(known))
		for _, id := range known {
			set[id] = true
		}
		for idx, row := range rows {
			value := row.String(fk.Column)
			if value == "" {
				// Optional parent references stay null/empty on
				// top-level rows; only populated values are checked.
				continue
			}
			if !set[value] {
				result.addError(Finding{
					Kind:   ForeignKeyViolation,
					Table:  tableName,
					Column: fk.Column,
					Row:    idx,
					Message: fmt.Sprintf("row %d column '%s' value '%s' not found among IDs of table '%s'",
						idx, fk.Column, value, fk.ReferencesTable),
				})
			}
		}
	}
}

// conforms checks a dynamically-typed value against a declared column
// type. Boolean columns also accept the literals 0 and 1; timestamp
// columns accept a string or a structured time value.
func conforms(value any, t schema.ColumnType) (bool, string) {
	if value == nil {
		// Null is tolerated for every type; required-ness is a
		// presence concern, not a type concern.
		return true, "null"
	}
	switch t {
	case schema.Text:
		_, ok := value.(string)
		return ok, typeName(value)
	case schema.Number:
		switch value.(type) {
		case float64, int, int64:
			return true, ""
		}
		return false, typeName(value)
	case schema.Boolean:
		switch v := value.(type) {
		case bool:
			return true, ""
		case float64:
			return v == 0 || v == 1, typeName(value)
		}
		return false, typeName(value)
	case schema.Timestamp:
		switch value.(type) {
		case string, time.Time:
			return true, ""
		}
		return false, typeName(value)
	}
	return true, ""
}

func typeName(value any) string {
	switch value.(type) {
	case string:
		return "string"
	case float64, int, int64:
		return "number"
	case bool:
		return "boolean"
	case time.Time:
		return "timestamp"
	default:
		return fmt.Sprintf("%T", value)
	}
}

func contains(set []string, value string) bool {
	for _, s := range set {
		if strings.EqualFold(s, value) {
			return true
		}
	}
	return false
}

package schema

import (
	"fmt"
	"strings"
)

// ColumnType is the declared type of a schema column.
type ColumnType string

const (
	Text      ColumnType = "text"
	Number    ColumnType = "number"
	Boolean   ColumnType = "boolean"
	Timestamp ColumnType = "timestamp"
)

// ParseColumnType maps the type names found in schema documents onto the
// four declared types. Unknown names fall back to Text.
func ParseColumnType(s string) ColumnType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "number", "numeric", "float", "double", "int", "integer":
		return Number
	case "boolean", "bool":
		return Boolean
	case "timestamp", "datetime", "date-time", "date":
		return Timestamp
	default:
		return Text
	}
}

type Column struct {
	Name        string
	Type        ColumnType
	Description string
}

// ForeignKey declares that a column's value must exist among the IDs
// already generated for another table.
type ForeignKey struct {
	Column          string
	ReferencesTable string
}

type Table struct {
	Name        string
	Columns     []Column
	ForeignKeys []ForeignKey
}

// HasColumn reports whether the table declares a column with the given name.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Rename records a table name that was changed during sanitization,
// kept so diagnostics can refer to the original document.
type Rename struct {
	Original  string
	Sanitized string
}

// Model is the in-memory schema: table definitions plus the sanitization
// record. Loaded once per run and read-only afterwards.
type Model struct {
	Tables  map[string]*Table
	Order   []string // table names in document order
	Renames []Rename
}

func NewModel() *Model {
	return &Model{Tables: map[string]*Table{}}
}

// AddTable registers a table, rejecting duplicate table or column names.
func (m *Model) AddTable(t *Table) error {
	if _, exists := m.Tables[t.Name]; exists {
		return fmt.Errorf("duplicate table %q in schema source", t.Name)
	}
	seen := map[string]bool{}
	for _, c := range t.Columns {
		if seen[c.Name] {
			return fmt.Errorf("duplicate column %q in table %q", c.Name, t.Name)
		}
		seen[c.Name] = true
	}
	m.Tables[t.Name] = t
	m.Order = append(m.Order, t.Name)
	return nil
}

// Table returns the schema for a table, or nil if it was never declared.
// Unknown tables are tolerated by the validator, so nil is not an error here.
func (m *Model) Table(name string) *Table {
	return m.Tables[name]
}

func (m *Model) HasTable(name string) bool {
	_, ok := m.Tables[name]
	return ok
}

// SanitizeName converts a raw table heading into a safe identifier:
// lowercase, runs of non [a-z0-9_] collapsed to single underscores.
func SanitizeName(raw string) string {
	raw = strings.TrimSpace(strings.ToLower(raw))
	var b strings.Builder
	lastUnderscore := false
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}

// Enums is the fixed table→column→allowed-values map consulted during
// structural validation. Only columns listed here are enum-checked.
var Enums = map[string]map[string][]string{
	"bpmn_elements": {
		"element_type": {
			"task", "event", "gateway", "subProcess",
			"callActivity", "transaction", "adHocSubProcess",
		},
	},
	"resources": {
		"resource_type": {"human", "system", "equipment"},
	},
}

// AllowedValues returns the enum set for a column, if one is declared.
func AllowedValues(table, column string) ([]string, bool) {
	cols, ok := Enums[table]
	if !ok {
		return nil, false
	}
	vals, ok := cols[column]
	return vals, ok
}

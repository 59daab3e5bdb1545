package store

import (
	"context"

	"github.com/bpmforge/bpmgen/llm"
)

// TableStore persists validated row batches and hands them back for
// export. The store owns ID assignment: InsertRows returns the IDs under
// which the rows were stored, in input order.
type TableStore interface {
	InsertRows(ctx context.Context, table string, rows []llm.Row) ([]string, error)
	FetchAll(ctx context.Context, tables []string) (map[string][]llm.Row, error)
}

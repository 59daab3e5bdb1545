package store

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/bpmforge/bpmgen/llm"
)

// MemoryStore keeps row batches in a map keyed by table name. It is the
// default backend: one run fits comfortably in memory and the export
// step reads everything back anyway.
type MemoryStore struct {
	tables map[string][]llm.Row
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: map[string][]llm.Row{}}
}

// InsertRows appends the batch and returns one ID per row: the row's own
// identifier column when it has one, a fresh uuid otherwise.
func (s *MemoryStore) InsertRows(_ context.Context, table string, rows []llm.Row) ([]string, error) {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, rowID(table, row))
	}
	s.tables[table] = append(s.tables[table], rows...)
	return ids, nil
}

// FetchAll returns the stored rows for the requested tables; tables with
// no rows are omitted. An empty request returns every stored table.
func (s *MemoryStore) FetchAll(_ context.Context, tables []string) (map[string][]llm.Row, error) {
	out := map[string][]llm.Row{}
	if len(tables) == 0 {
		for name, rows := range s.tables {
			out[name] = rows
		}
		return out, nil
	}
	for _, name := range tables {
		if rows, ok := s.tables[name]; ok {
			out[name] = rows
		}
	}
	return out, nil
}

// rowID picks the identifier the generated data already carries:
// the column named after the table's singular form, then any *_id column
// whose stem matches the end of the table name (element_id for
// bpmn_elements), then the first *_id column in key order, then a fresh
// uuid. Key order is sorted so the pick is deterministic.
func rowID(table string, row llm.Row) string {
	singular := strings.TrimSuffix(table, "s")
	preferred := singular + "_id"
	if !row.IsEmpty(preferred) {
		return row.String(preferred)
	}

	var idKeys []string
	for key := range row {
		if strings.HasSuffix(key, "_id") && !row.IsEmpty(key) {
			idKeys = append(idKeys, key)
		}
	}
	sort.Strings(idKeys)

	for _, key := range idKeys {
		stem := strings.TrimSuffix(key, "_id")
		if strings.HasSuffix(singular, stem) {
			return row.String(key)
		}
	}
	if len(idKeys) > 0 {
		return row.String(idKeys[0])
	}
	return uuid.New().String()
}

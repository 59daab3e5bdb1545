package pipeline

import "github.com/bpmforge/bpmgen/llm"

// Context carries the state of one generation run: the row batches and
// assigned IDs recorded per level key. It is owned by a single Pipeline
// and never shared across runs, so no locking is needed.
type Context struct {
	rows map[string][]llm.Row
	ids  map[string][]string

	order []string
	seen  map[string]bool
}

func NewContext() *Context {
	return &Context{
		rows: map[string][]llm.Row{},
		ids:  map[string][]string{},
		seen: map[string]bool{},
	}
}

func (c *Context) touch(key string) {
	if !c.seen[key] {
		c.seen[key] = true
		c.order = append(c.order, key)
	}
}

// RecordRows stores a validated row batch under a level key, appending
// when the key already has rows.
func (c *Context) RecordRows(key string, rows []llm.Row) {
	c.touch(key)
	c.rows[key] = append(c.rows[key], rows...)
}

// RecordIDs stores the IDs assigned for a level key.
func (c *Context) RecordIDs(key string, ids []string) {
	c.touch(key)
	c.ids[key] = append(c.ids[key], ids...)
}

// Rows returns the batch recorded under a key, or nil.
func (c *Context) Rows(key string) []llm.Row {
	return c.rows[key]
}

// IDs returns the recorded IDs for a key. The boolean reports whether
// the key has any, which is what foreign-key checking branches on.
func (c *Context) IDs(key string) ([]string, bool) {
	ids, ok := c.ids[key]
	if !ok || len(ids) == 0 {
		return nil, false
	}
	return ids, true
}

// HasIDs reports whether any IDs were recorded under a key.
func (c *Context) HasIDs(key string) bool {
	_, ok := c.IDs(key)
	return ok
}

// Keys returns the recorded keys in first-recorded order.
func (c *Context) Keys() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// IDSnapshot returns the recorded IDs per key, used to embed the current
// generation state into prompts.
func (c *Context) IDSnapshot() map[string]any {
	snap := make(map[string]any, len(c.ids))
	for key, ids := range c.ids {
		snap[key] = ids
	}
	return snap
}

// AllRows returns every recorded batch keyed by level, for export.
func (c *Context) AllRows() map[string][]llm.Row {
	out := make(map[string][]llm.Row, len(c.rows))
	for key, rows := range c.rows {
		out[key] = rows
	}
	return out
}

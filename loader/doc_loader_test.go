package loader_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpmforge/bpmgen/loader"
	"github.com/bpmforge/bpmgen/schema"
)

const sampleDoc = `# Process Data Schema

1. process_definitions

| Column | Type | Description |
|--------|------|-------------|
| process_id | text | Unique identifier |
| process_name | text | Name of the process |

2. BPMN Elements

| Column | Type | Description |
|--------|------|-------------|
| element_id | text | Unique identifier |
| element_count | number | How many instances |
| active | boolean | Whether in use |
| created_at | datetime | Creation time |
| process_id | text | References table process_definitions |
`

func TestParseDocumentSections(t *testing.T) {
	model, err := loader.ParseDocument(sampleDoc)
	require.NoError(t, err)

	assert.Equal(t, []string{"process_definitions", "bpmn_elements"}, model.Order)

	table := model.Table("bpmn_elements")
	require.NotNil(t, table)
	require.Len(t, table.Columns, 5)
	assert.Equal(t, schema.Number, table.Columns[1].Type)
	assert.Equal(t, schema.Boolean, table.Columns[2].Type)
	assert.Equal(t, schema.Timestamp, table.Columns[3].Type)
	assert.Equal(t, schema.Text, table.Columns[4].Type)
}

func TestParseDocumentRecordsRenames(t *testing.T) {
	model, err := loader.ParseDocument(sampleDoc)
	require.NoError(t, err)

	// "BPMN Elements" was sanitized; the original heading stays on record.
	require.Len(t, model.Renames, 1)
	assert.Equal(t, "BPMN Elements", model.Renames[0].Original)
	assert.Equal(t, "bpmn_elements", model.Renames[0].Sanitized)
}

func TestParseDocumentForeignKeyHeuristic(t *testing.T) {
	model, err := loader.ParseDocument(sampleDoc)
	require.NoError(t, err)

	table := model.Table("bpmn_elements")
	require.Len(t, table.ForeignKeys, 1)
	assert.Equal(t, "process_id", table.ForeignKeys[0].Column)
	assert.Equal(t, "process_definitions", table.ForeignKeys[0].ReferencesTable)
}

func TestParseDocumentExplicitExampleMarker(t *testing.T) {
	doc := sampleDoc + `
## Examples

3. sample_table

| Column | Type | Description |
|--------|------|-------------|
| sample_id | text | Should never be parsed |
`
	model, err := loader.ParseDocument(doc)
	require.NoError(t, err)
	assert.False(t, model.HasTable("sample_table"))
	assert.Len(t, model.Order, 2)
}

func TestParseDocumentLegacyExampleHeuristics(t *testing.T) {
	t.Run("trailing colon marks a worked example", func(t *testing.T) {
		doc := sampleDoc + `
3. Example usage:

| Column | Type |
|--------|------|
| ignored | text |
`
		model, err := loader.ParseDocument(doc)
		require.NoError(t, err)
		assert.Len(t, model.Order, 2)
	})

	t.Run("non-consecutive numbering marks a worked example", func(t *testing.T) {
		doc := sampleDoc + `
1. repeated_section

| Column | Type |
|--------|------|
| ignored | text |
`
		model, err := loader.ParseDocument(doc)
		require.NoError(t, err)
		assert.False(t, model.HasTable("repeated_section"))
	})
}

func TestParseDocumentDuplicateTable(t *testing.T) {
	doc := `1. parts

| Column | Type |
|--------|------|
| part_id | text |

2. parts

| Column | Type |
|--------|------|
| part_id | text |
`
	_, err := loader.ParseDocument(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate table")
}

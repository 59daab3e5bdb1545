package loader

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/bpmforge/bpmgen/schema"
)

// The schema source is a plain-text document of numbered table sections,
// each followed by a pipe table of (column, type, description) rows:
//
//	3. BPMN Elements
//	| Column       | Type   | Description                       |
//	|--------------|--------|-----------------------------------|
//	| element_id   | string | Unique element identifier         |
//	| process_id   | string | References table process_definitions |
//
// Sections after an explicit "## Examples" marker are never parsed.
// Without the marker, two legacy heuristics skip worked-example sections:
// a heading with a trailing colon, and a section number that does not
// continue the numbering of the previous real section.

// Pre-compiled at package initialization; parsing runs once per pipeline
// run but the loader is also hit by every test.
var (
	sectionRegex   = regexp.MustCompile(`^\s*(\d+)\.\s+(.+?)\s*$`)
	separatorRegex = regexp.MustCompile(`^\s*\|[\s:|-]+\|\s*$`)
	exampleMarker  = regexp.MustCompile(`(?i)^#{1,6}\s*examples?\s*:?\s*$`)
	referencesRegex = regexp.MustCompile("(?i)references\\s+(?:the\\s+)?table\\s+`?([A-Za-z0-9_][A-Za-z0-9_ -]*[A-Za-z0-9_]|[A-Za-z0-9_])`?")
)

// LoadDocument reads and parses a schema document from disk.
func LoadDocument(path string) (*schema.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema document: %w", err)
	}
	return ParseDocument(string(data))
}

// ParseDocument parses the schema document source into a Model.
func ParseDocument(src string) (*schema.Model, error) {
	model := schema.NewModel()

	var (
		current    *schema.Table
		currentRaw string
		skipping   bool
		headerSeen bool
		lastNumber int
	)

	flush := func() error {
		if current == nil {
			return nil
		}
		if err := model.AddTable(current); err != nil {
			return err
		}
		if raw := strings.TrimSpace(currentRaw); raw != current.Name {
			// Sanitization changed the name: keep the original on record
			// instead of silently losing it.
			model.Renames = append(model.Renames, schema.Rename{
				Original:  raw,
				Sanitized: current.Name,
			})
		}
		current = nil
		return nil
	}

	for _, line := range strings.Split(src, "\n") {
		if exampleMarker.MatchString(line) {
			// Explicit boundary: everything below is worked examples.
			break
		}

		if m := sectionRegex.FindStringSubmatch(line); m != nil {
			if err := flush(); err != nil {
				return nil, err
			}
			number, _ := strconv.Atoi(m[1])
			title := m[2]

			// Legacy example-section heuristics.
			if strings.HasSuffix(title, ":") || (lastNumber > 0 && number != lastNumber+1) {
				skipping = true
				continue
			}
			lastNumber = number
			skipping = false
			headerSeen = false
			currentRaw = title
			current = &schema.Table{Name: schema.SanitizeName(title)}
			continue
		}

		if skipping || current == nil {
			continue
		}

		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "|") {
			continue
		}
		if separatorRegex.MatchString(trimmed) {
			continue
		}
		if !headerSeen {
			// First pipe row of a section is the column header.
			headerSeen = true
			continue
		}

		cells := splitRow(trimmed)
		if len(cells) < 2 {
			continue
		}
		col := schema.Column{
			Name: schema.SanitizeName(cells[0]),
			Type: schema.ParseColumnType(cells[1]),
		}
		if len(cells) > 2 {
			col.Description = cells[2]
		}
		if col.Name == "" {
			continue
		}
		current.Columns = append(current.Columns, col)

		if ref := referencedTable(col.Description); ref != "" {
			current.ForeignKeys = append(current.ForeignKeys, schema.ForeignKey{
				Column:          col.Name,
				ReferencesTable: ref,
			})
		}
	}

	if err := flush(); err != nil {
		return nil, err
	}
	return model, nil
}

// referencedTable extracts the "references table <X>" target from a column
// description, sanitized the same way table headings are.
func referencedTable(description string) string {
	m := referencesRegex.FindStringSubmatch(description)
	if m == nil {
		return ""
	}
	return schema.SanitizeName(m[1])
}

func splitRow(line string) []string {
	line = strings.Trim(line, "|")
	parts := strings.Split(line, "|")
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		cells = append(cells, strings.TrimSpace(p))
	}
	// Drop trailing empty cells left by ragged rows.
	for len(cells) > 0 && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	return cells
}

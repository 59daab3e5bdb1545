package loader

import (
	"fmt"
	"os"

	"github.com/bpmforge/bpmgen/schema"
	"gopkg.in/yaml.v3"
)

type yamlFile struct {
	Tables []yamlTable `yaml:"tables"`
}

type yamlTable struct {
	Name    string       `yaml:"name"`
	Columns []yamlColumn `yaml:"columns"`
}

type yamlColumn struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
	References  string `yaml:"references"`
}

// LoadYAML loads the schema from a YAML source instead of the numbered
// text document. Foreign keys can be declared explicitly via `references`
// or extracted from the description like the document loader does.
func LoadYAML(path string) (*schema.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}

	var yf yamlFile
	if err := yaml.Unmarshal(data, &yf); err != nil {
		return nil, fmt.Errorf("unmarshalling YAML: %w", err)
	}

	model := schema.NewModel()
	for _, t := range yf.Tables {
		table := &schema.Table{Name: schema.SanitizeName(t.Name)}
		if raw := t.Name; raw != table.Name {
			model.Renames = append(model.Renames, schema.Rename{Original: raw, Sanitized: table.Name})
		}
		for _, c := range t.Columns {
			col := schema.Column{
				Name:        schema.SanitizeName(c.Name),
				Type:        schema.ParseColumnType(c.Type),
				Description: c.Description,
			}
			table.Columns = append(table.Columns, col)

			ref := schema.SanitizeName(c.References)
			if ref == "" {
				ref = referencedTable(c.Description)
			}
			if ref != "" {
				table.ForeignKeys = append(table.ForeignKeys, schema.ForeignKey{
					Column:          col.Name,
					ReferencesTable: ref,
				})
			}
		}
		if err := model.AddTable(table); err != nil {
			return nil, err
		}
	}
	return model, nil
}

// Package template defines the two extraction schema variants a client can
// request. Each template controls which sections the LLM is asked for and how
// the rendered workbook lays them out.
package template

import (
	"embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ShreedharDynamicCraft/financeautomation/internal/common"
)

//go:embed templates/*.yaml
var templateFS embed.FS

// Sheet describes one workbook sheet produced for a template. A sheet with no
// Columns is a key/value sheet whose rows carry the template's label and value
// keys; a sheet with Columns is tabular.
type Sheet struct {
	Name    string   `yaml:"name"`
	Columns []string `yaml:"columns"`
}

// Template is a named schema variant.
type Template struct {
	Name     string  `yaml:"name"`
	LabelKey string  `yaml:"label_key"`
	ValueKey string  `yaml:"value_key"`
	Sheets   []Sheet `yaml:"sheets"`
}

// Tabular reports whether the named sheet is tabular under this template.
func (t *Template) Tabular(sheetName string) bool {
	for _, s := range t.Sheets {
		if s.Name == sheetName {
			return len(s.Columns) > 0
		}
	}
	return false
}

// SheetNames returns the sheet names in template order.
func (t *Template) SheetNames() []string {
	names := make([]string, 0, len(t.Sheets))
	for _, s := range t.Sheets {
		names = append(names, s.Name)
	}
	return names
}

var registry = mustLoad()

func mustLoad() map[string]*Template {
	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		panic(fmt.Sprintf("read embedded templates: %v", err))
	}
	out := make(map[string]*Template, len(entries))
	for _, e := range entries {
		b, err := templateFS.ReadFile("templates/" + e.Name())
		if err != nil {
			panic(fmt.Sprintf("read template %s: %v", e.Name(), err))
		}
		var t Template
		if err := yaml.Unmarshal(b, &t); err != nil {
			panic(fmt.Sprintf("parse template %s: %v", e.Name(), err))
		}
		if t.Name == "" || t.LabelKey == "" || t.ValueKey == "" || len(t.Sheets) == 0 {
			panic(fmt.Sprintf("template %s is incomplete", e.Name()))
		}
		out[t.Name] = &t
	}
	return out
}

// Lookup resolves a template by its client-facing name.
func Lookup(name string) (*Template, error) {
	t, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown template %q: %w", name, common.ErrInvalidInput)
	}
	return t, nil
}

// Names returns the known template names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

package llm

import "github.com/ShreedharDynamicCraft/financeautomation/internal/template"

// BuildSectionsSchema returns a JSON-Schema (draft 2020-12 subset) as a generic
// map for the given template. Every declared sheet must be present as an array
// of row objects; extra sheets the model volunteers are tolerated and rendered
// after the declared ones.
func BuildSectionsSchema(tmpl *template.Template) map[string]any {
	props := map[string]any{}
	required := make([]string, 0, len(tmpl.Sheets))
	for _, s := range tmpl.Sheets {
		props[s.Name] = map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "object"},
		}
		required = append(required, s.Name)
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

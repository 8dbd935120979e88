package llm

import (
	"context"

	"github.com/ShreedharDynamicCraft/financeautomation/internal/template"
)

// Sections is the structured payload returned by the model: one entry per
// workbook sheet, each holding its rows.
type Sections map[string][]map[string]any

// StructuredExtractor is Stage 2: extracted text -> named data sections.
// The raw model output is also returned for diagnostics on failure.
type StructuredExtractor interface {
	ExtractSections(ctx context.Context, text string, tmpl *template.Template) (Sections, []byte, error)
}

// Empty reports whether no section carries any rows.
func (s Sections) Empty() bool {
	for _, rows := range s {
		if len(rows) > 0 {
			return false
		}
	}
	return true
}

// Package workbook turns extracted data sections into a formatted XLSX file.
package workbook

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ShreedharDynamicCraft/financeautomation/internal/llm"
	"github.com/ShreedharDynamicCraft/financeautomation/internal/template"
)

// Renderer is Stage 3: data sections -> workbook bytes.
type Renderer interface {
	Render(sections llm.Sections, tmpl *template.Template) ([]byte, error)
}

// XLSXRenderer renders one styled sheet per section plus a summary sheet.
type XLSXRenderer struct {
	logger *slog.Logger
}

func NewXLSXRenderer(logger *slog.Logger) *XLSXRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXRenderer{logger: logger}
}

const (
	headerFillColor = "366092"
	maxColWidth     = 50.0
	summarySheet    = "Summary"
)

func (r *XLSXRenderer) Render(sections llm.Sections, tmpl *template.Template) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{headerFillColor}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	written := 0
	for _, name := range orderedSections(sections, tmpl) {
		rows := sections[name]
		if len(rows) == 0 {
			r.logger.Warn("skipping empty section", "sheet", name)
			continue
		}
		if err := r.writeSheet(f, tmpl, name, rows, headerStyle); err != nil {
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}
		written++
	}
	if written == 0 {
		return nil, fmt.Errorf("no sections to render")
	}

	if err := r.writeSummary(f, tmpl, written, headerStyle); err != nil {
		return nil, fmt.Errorf("summary sheet: %w", err)
	}

	// Drop excelize's default sheet and activate the first real one.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		r.logger.Warn("could not delete default sheet", "error", err)
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	r.logger.Info("workbook.render.ok",
		"template", tmpl.Name,
		"sheets", written,
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// orderedSections returns template sheets first, in template order, then any
// extra sections the model produced, sorted for determinism.
func orderedSections(sections llm.Sections, tmpl *template.Template) []string {
	seen := make(map[string]bool, len(sections))
	var out []string
	for _, name := range tmpl.SheetNames() {
		if _, ok := sections[name]; ok {
			out = append(out, name)
			seen[name] = true
		}
	}
	var extra []string
	for name := range sections {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

func (r *XLSXRenderer) writeSheet(f *excelize.File, tmpl *template.Template, name string, rows []map[string]any, headerStyle int) error {
	sheet := sanitizeSheetName(name)
	if sheet == summarySheet {
		// Keep a model-volunteered "Summary" section from clobbering ours.
		sheet = summarySheet + " (data)"
	}
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	cols := columnOrder(tmpl, name, rows)
	widths := make([]int, len(cols))

	for i, col := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
		widths[i] = len(col)
	}

	for rowIdx, row := range rows {
		for colIdx, col := range cols {
			v, ok := row[col]
			if !ok || v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
			if n := len(fmt.Sprintf("%v", v)); n > widths[colIdx] {
				widths[colIdx] = n
			}
		}
	}

	// Header row styling and frozen pane.
	lastHeader, _ := excelize.CoordinatesToCellName(len(cols), 1)
	if err := f.SetCellStyle(sheet, "A1", lastHeader, headerStyle); err != nil {
		return err
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return err
	}

	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		width := float64(w) + 2
		if width > maxColWidth {
			width = maxColWidth
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

func (r *XLSXRenderer) writeSummary(f *excelize.File, tmpl *template.Template, sheetCount int, headerStyle int) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	rows := [][]any{
		{"Metric", "Value"},
		{"Template Used", tmpl.Name},
		{"Total Sheets", sheetCount},
		{"Processing Date", time.Now().UTC().Format("2006-01-02 15:04:05")},
		{"File Version", "1.0"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", "B1", headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 20); err != nil {
		return err
	}
	return f.SetColWidth(summarySheet, "B", "B", 28)
}

// columnOrder picks the header order for a sheet: declared template columns
// first, key/value label-value pairs for plain sheets, any remaining keys
// sorted at the end.
func columnOrder(tmpl *template.Template, name string, rows []map[string]any) []string {
	var cols []string
	if tmpl.Tabular(name) {
		for _, s := range tmpl.Sheets {
			if s.Name == name {
				cols = append(cols, s.Columns...)
			}
		}
	} else {
		cols = []string{tmpl.LabelKey, tmpl.ValueKey}
	}

	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		seen[c] = true
	}
	var extra []string
	for _, row := range rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				extra = append(extra, k)
			}
		}
	}
	sort.Strings(extra)
	return append(cols, extra...)
}

// sanitizeSheetName strips characters Excel rejects and caps the length at
// 31 characters (Excel counts characters, not bytes).
func sanitizeSheetName(name string) string {
	s := strings.NewReplacer("/", "_", "\\", "_", "?", "_", "*", "_", "[", "(", "]", ")", ":", "_").Replace(name)
	if runes := []rune(s); len(runes) > 31 {
		s = string(runes[:31])
	}
	return s
}

package workbook

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ShreedharDynamicCraft/financeautomation/internal/llm"
	"github.com/ShreedharDynamicCraft/financeautomation/internal/template"
)

func mustTemplate(t *testing.T, name string) *template.Template {
	t.Helper()
	tmpl, err := template.Lookup(name)
	require.NoError(t, err)
	return tmpl
}

func openWorkbook(t *testing.T, b []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestRenderTemplateOne(t *testing.T) {
	tmpl := mustTemplate(t, "Extraction Template 1")
	sections := llm.Sections{
		"Fund Data": {
			{"Data Point": "Fund Name", "Value - Current Period": "Alpha Growth Fund II"},
			{"Data Point": "Vintage Year", "Value - Current Period": 2021},
		},
		"Company Investment Positions": {
			{"Company Name": "Acme Robotics", "Invested Capital [B]": 1500000, "Status": "Active"},
		},
	}

	b, err := NewXLSXRenderer(nil).Render(sections, tmpl)
	require.NoError(t, err)

	f := openWorkbook(t, b)
	list := f.GetSheetList()
	assert.Contains(t, list, "Fund Data")
	assert.Contains(t, list, "Company Investment Positions")
	assert.Contains(t, list, "Summary")
	assert.NotContains(t, list, "Sheet1")
	assert.NotContains(t, list, "Fund Manager", "empty sections are skipped")

	// Template sheets keep template order.
	fd, err := f.GetSheetIndex("Fund Data")
	require.NoError(t, err)
	cip, err := f.GetSheetIndex("Company Investment Positions")
	require.NoError(t, err)
	assert.Less(t, fd, cip)

	// Key/value sheet: header is the declared label/value pair.
	v, err := f.GetCellValue("Fund Data", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Data Point", v)
	v, err = f.GetCellValue("Fund Data", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Alpha Growth Fund II", v)

	// Tabular sheet: first declared column and a data cell under it.
	v, err = f.GetCellValue("Company Investment Positions", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Company Name", v)
	v, err = f.GetCellValue("Company Investment Positions", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Acme Robotics", v)

	// Summary carries the template name.
	v, err = f.GetCellValue("Summary", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Extraction Template 1", v)
	v, err = f.GetCellValue("Summary", "B3")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}

func TestRenderExtraSectionAndColumns(t *testing.T) {
	tmpl := mustTemplate(t, "Extraction Template 2")
	sections := llm.Sections{
		"Portfolio Summary": {
			{"Data Points": "NAV", "Value - Current Period": "100M", "Footnote": "unaudited"},
		},
		"Analyst Notes": {
			{"Data Points": "Outlook", "Value - Current Period": "Positive"},
		},
	}

	b, err := NewXLSXRenderer(nil).Render(sections, tmpl)
	require.NoError(t, err)

	f := openWorkbook(t, b)
	list := f.GetSheetList()
	assert.Contains(t, list, "Analyst Notes", "sections outside the template are kept")
	ps, err := f.GetSheetIndex("Portfolio Summary")
	require.NoError(t, err)
	an, err := f.GetSheetIndex("Analyst Notes")
	require.NoError(t, err)
	assert.Less(t, ps, an)

	// Unknown column lands after the declared pair.
	v, err := f.GetCellValue("Portfolio Summary", "C1")
	require.NoError(t, err)
	assert.Equal(t, "Footnote", v)
	v, err = f.GetCellValue("Portfolio Summary", "C2")
	require.NoError(t, err)
	assert.Equal(t, "unaudited", v)
}

func TestRenderNothing(t *testing.T) {
	tmpl := mustTemplate(t, "Extraction Template 1")

	_, err := NewXLSXRenderer(nil).Render(llm.Sections{}, tmpl)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no sections to render")

	// All-empty sections are as bad as none.
	_, err = NewXLSXRenderer(nil).Render(llm.Sections{"Fund Data": {}}, tmpl)
	require.Error(t, err)
}

func TestSanitizeSheetName(t *testing.T) {
	assert.Equal(t, "P_L (Q1)", sanitizeSheetName(`P/L [Q1]`))
	assert.Equal(t, "a_b", sanitizeSheetName(`a:b`))
	long := sanitizeSheetName("Schedule of Investments and Other Long Things")
	assert.Equal(t, 31, len([]rune(long)))

	// Truncation counts characters, never splits a multi-byte rune.
	accented := sanitizeSheetName(strings.Repeat("é", 40))
	assert.Equal(t, strings.Repeat("é", 31), accented)
}

func TestRenderSummaryNameCollision(t *testing.T) {
	tmpl := mustTemplate(t, "Extraction Template 1")
	sections := llm.Sections{
		"Fund Data": {
			{"Data Point": "Fund Name", "Value - Current Period": "Alpha Growth Fund II"},
		},
		"Summary": {
			{"Data Point": "Highlight", "Value - Current Period": "Record quarter"},
		},
	}

	b, err := NewXLSXRenderer(nil).Render(sections, tmpl)
	require.NoError(t, err)

	f := openWorkbook(t, b)
	assert.Contains(t, f.GetSheetList(), "Summary (data)")

	// The section's rows landed on the renamed sheet.
	v, err := f.GetCellValue("Summary (data)", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Record quarter", v)

	// Our summary sheet is intact.
	v, err = f.GetCellValue("Summary", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Metric", v)
	v, err = f.GetCellValue("Summary", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Extraction Template 1", v)
}

package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShreedharDynamicCraft/financeautomation/internal/common"
)

func TestLookupTemplate1(t *testing.T) {
	tmpl, err := Lookup("Extraction Template 1")
	require.NoError(t, err)

	assert.Equal(t, "Data Point", tmpl.LabelKey)
	assert.Equal(t, "Value - Current Period", tmpl.ValueKey)
	assert.Equal(t, []string{
		"Fund Data",
		"Fund Manager",
		"Company Investment Positions",
		"Financial Summary",
	}, tmpl.SheetNames())

	assert.True(t, tmpl.Tabular("Company Investment Positions"))
	assert.False(t, tmpl.Tabular("Fund Data"))
	assert.False(t, tmpl.Tabular("Nonexistent Sheet"))
}

func TestLookupTemplate2(t *testing.T) {
	tmpl, err := Lookup("Extraction Template 2")
	require.NoError(t, err)

	assert.Equal(t, "Data Points", tmpl.LabelKey)
	assert.Equal(t, []string{
		"Portfolio Summary",
		"Schedule of Investments",
		"Performance Metrics",
	}, tmpl.SheetNames())
	assert.True(t, tmpl.Tabular("Schedule of Investments"))

	for _, s := range tmpl.Sheets {
		if s.Name == "Schedule of Investments" {
			assert.Contains(t, s.Columns, "Company")
			assert.Contains(t, s.Columns, "Ownership %")
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("Extraction Template 3")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"Extraction Template 1", "Extraction Template 2"}, Names())
}

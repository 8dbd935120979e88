package llm

import (
	"fmt"

	"github.com/ShreedharDynamicCraft/financeautomation/internal/common"
	"github.com/ShreedharDynamicCraft/financeautomation/internal/template"
)

// BuildMasterPrompt selects the master prompt for the given template and
// appends the extracted report text. Prompts are static: the schema each one
// embeds must stay in sync with the template definitions.
func BuildMasterPrompt(text string, tmpl *template.Template) (string, error) {
	var head string
	switch tmpl.Name {
	case "Extraction Template 1":
		head = template1Prompt
	case "Extraction Template 2":
		head = template2Prompt
	default:
		return "", fmt.Errorf("no prompt for template %q: %w", tmpl.Name, common.ErrInvalidInput)
	}
	return head + "\n**Input Text from PDF:**\n" + text, nil
}

const template1Prompt = `
**Role:** You are a meticulous financial data analyst. Your task is to perform a deep extraction of data from a private equity fund report and structure it into a highly detailed JSON format corresponding to 'Extraction Template 1'.

**Core Instructions:**
1. Analyze the complete text provided from the financial report.
2. Populate the JSON schema below. Each main key in the JSON corresponds to a specific tab in the Excel template.
3. For sheets like 'Fund Data', the JSON object for each row should have a "Data Point" key and a "Value - Current Period" key.
4. Convert all monetary values to base units (e.g., '$12.5 million' should become 12500000). If a value is not found, use null.
5. Extract ALL companies mentioned in investment positions, even if some data is incomplete.
6. For dates, use ISO format (YYYY-MM-DD) where possible.
7. Your final output MUST be a single, valid JSON object and nothing else.

**JSON Output Schema for Template 1:**
{
  "Fund Data": [
    {"Data Point": "Fund Name", "Value - Current Period": "..."},
    {"Data Point": "Fund Currency", "Value - Current Period": "..."},
    {"Data Point": "Fund Vintage Year", "Value - Current Period": "..."},
    {"Data Point": "Fund Size", "Value - Current Period": 0},
    {"Data Point": "Management Fee", "Value - Current Period": "..."},
    {"Data Point": "Carried Interest", "Value - Current Period": "..."},
    {"Data Point": "Fund Status", "Value - Current Period": "..."},
    {"Data Point": "Investment Period End", "Value - Current Period": "..."},
    {"Data Point": "Fund Term", "Value - Current Period": "..."},
    {"Data Point": "NAV Date", "Value - Current Period": "..."}
  ],
  "Fund Manager": [
    {"Data Point": "Management Company", "Value - Current Period": "..."},
    {"Data Point": "General Partner", "Value - Current Period": "..."},
    {"Data Point": "Contact Person", "Value - Current Period": "..."},
    {"Data Point": "Address", "Value - Current Period": "..."},
    {"Data Point": "Phone", "Value - Current Period": "..."},
    {"Data Point": "Email", "Value - Current Period": "..."},
    {"Data Point": "Investment Strategy", "Value - Current Period": "..."}
  ],
  "Company Investment Positions": [
    {
      "Company": "...",
      "Industry": "...",
      "Country": "...",
      "Investment Date": "...",
      "Instrument Type": "...",
      "Ownership Percentage": 0,
      "Number of Shares": 0,
      "Invested Capital [B]": 0,
      "Additional Investments [C]": 0,
      "Total Invested [D=B+C]": 0,
      "Unrealized Value [E]": 0,
      "Realized Value [F]": 0,
      "Total Value [G=E+F]": 0,
      "Multiple [H=G/D]": 0,
      "IRR": 0,
      "Status": "..."
    }
  ],
  "Financial Summary": [
    {"Data Point": "Total Committed Capital", "Value - Current Period": 0},
    {"Data Point": "Total Called Capital", "Value - Current Period": 0},
    {"Data Point": "Total Invested Capital", "Value - Current Period": 0},
    {"Data Point": "Total Unrealized Value", "Value - Current Period": 0},
    {"Data Point": "Total Realized Value", "Value - Current Period": 0},
    {"Data Point": "Total Portfolio Value", "Value - Current Period": 0},
    {"Data Point": "Cash and Cash Equivalents", "Value - Current Period": 0},
    {"Data Point": "Net Asset Value", "Value - Current Period": 0},
    {"Data Point": "Gross IRR", "Value - Current Period": 0},
    {"Data Point": "Net IRR", "Value - Current Period": 0},
    {"Data Point": "Gross Multiple", "Value - Current Period": 0},
    {"Data Point": "Net Multiple", "Value - Current Period": 0}
  ]
}
`

const template2Prompt = `
**Role:** You are an expert financial analyst. Your task is to extract key summary information from a fund's report and structure it into a specific JSON format corresponding to 'Extraction Template 2'.

**Core Instructions:**
1. Analyze the complete text provided from the financial report.
2. Extract the data required to populate the JSON schema below.
3. For the 'Portfolio Summary' sheet, the JSON object for each row should have a "Data Points" key and a "Value - Current Period" key.
4. For tabular sheets like 'Schedule of Investments', the value for each key should be an array of objects, where each object represents a row.
5. Convert all monetary values to base units (e.g., '$265 million' should become 265000000). If a value is not found, use null.
6. Extract ALL investments mentioned, even if some data is incomplete.
7. For dates, use ISO format (YYYY-MM-DD) where possible.
8. Your final output MUST be a single, valid JSON object and nothing else.

**JSON Output Schema for Template 2:**
{
  "Portfolio Summary": [
    {"Data Points": "Fund Name", "Value - Current Period": "..."},
    {"Data Points": "General Partner", "Value - Current Period": "..."},
    {"Data Points": "Assets Under Management", "Value - Current Period": 0},
    {"Data Points": "Portfolio Companies", "Value - Current Period": 0},
    {"Data Points": "Investment Period", "Value - Current Period": "..."},
    {"Data Points": "Vintage Year", "Value - Current Period": "..."},
    {"Data Points": "Fund Size", "Value - Current Period": 0},
    {"Data Points": "Called Capital", "Value - Current Period": 0},
    {"Data Points": "Remaining Commitments", "Value - Current Period": 0},
    {"Data Points": "Net Asset Value", "Value - Current Period": 0},
    {"Data Points": "Gross IRR", "Value - Current Period": 0},
    {"Data Points": "Net IRR", "Value - Current Period": 0},
    {"Data Points": "Total Value Multiple", "Value - Current Period": 0},
    {"Data Points": "Reporting Date", "Value - Current Period": "..."}
  ],
  "Schedule of Investments": [
    {
      "Company": "...",
      "Fund": "...",
      "Industry": "...",
      "Location": "...",
      "Investment Date": "...",
      "Reported Date": "...",
      "Investment Type": "...",
      "Total Invested (A)": 0,
      "Realized Value (B)": 0,
      "Reported Value (C)": 0,
      "Total Value (D = B + C)": 0,
      "Multiple (E = D / A)": 0,
      "Ownership %": 0,
      "Status": "..."
    }
  ],
  "Performance Metrics": [
    {"Data Points": "Since Inception IRR", "Value - Current Period": 0},
    {"Data Points": "3-Year IRR", "Value - Current Period": 0},
    {"Data Points": "1-Year IRR", "Value - Current Period": 0},
    {"Data Points": "Total Value Multiple", "Value - Current Period": 0},
    {"Data Points": "Realized Multiple", "Value - Current Period": 0},
    {"Data Points": "Unrealized Multiple", "Value - Current Period": 0},
    {"Data Points": "Cash Flow Multiple", "Value - Current Period": 0},
    {"Data Points": "Portfolio Beta", "Value - Current Period": 0},
    {"Data Points": "Sharpe Ratio", "Value - Current Period": 0},
    {"Data Points": "Maximum Drawdown", "Value - Current Period": 0}
  ]
}
`

package extract

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"deal_diligence/pkg/models"
)

const (
	LocalCompanyName = "Unknown Company (Local Extracted)"
	LocalPeriod      = "FY (Local)"
	LocalNote        = "Data extracted via local fallback due to AI service unavailability."
)

// LocalExtractor finds the first amount following a known label. It never
// fails and always returns a fully shaped statement.
type LocalExtractor struct{}

var _ Extractor = LocalExtractor{}

type labelPattern struct {
	section string
	field   string
	re      *regexp.Regexp
}

func label(section, field, keywords string) labelPattern {
	return labelPattern{
		section: section,
		field:   field,
		re:      regexp.MustCompile(`(?:` + keywords + `)[^\d\n]{0,30}([\$€£]?\s*[\d,]+\.?\d*)`),
	}
}

// Earlier alternatives do not take precedence; the leftmost match in the
// text wins.
var localLabels = []labelPattern{
	label("income_statement", "revenue", `revenue|sales|net sales`),
	label("income_statement", "cogs", `cost of goods sold|cogs|cost of revenue|cost of sales`),
	label("income_statement", "gross_profit", `gross profit|gross margin`),
	label("income_statement", "operating_expenses", `operating expenses|opex`),
	label("income_statement", "ebitda", `ebitda`),
	label("income_statement", "depreciation", `depreciation|amortization`),
	label("income_statement", "interest", `interest expense|interest`),
	label("income_statement", "tax", `tax|income tax`),
	label("income_statement", "net_income", `net income|net loss|net profit`),

	label("balance_sheet", "cash", `cash and cash equivalents|cash`),
	label("balance_sheet", "accounts_receivable", `accounts receivable|receivables`),
	label("balance_sheet", "inventory", `inventory|inventories`),
	label("balance_sheet", "total_current_assets", `total current assets`),
	label("balance_sheet", "ppe", `property, plant and equipment|ppe`),
	label("balance_sheet", "total_assets", `total assets`),
	label("balance_sheet", "accounts_payable", `accounts payable|payables`),
	label("balance_sheet", "short_term_debt", `short term debt|short-term debt`),
	label("balance_sheet", "total_current_liabilities", `total current liabilities`),
	label("balance_sheet", "long_term_debt", `long term debt|long-term debt`),
	label("balance_sheet", "total_liabilities", `total liabilities`),
	label("balance_sheet", "total_equity", `total equity|stockholders' equity|shareholders' equity`),

	label("cash_flow", "operating_cf", `net cash provided by operating activities|operating cash flow`),
	label("cash_flow", "investing_cf", `net cash used in investing activities|investing cash flow`),
	label("cash_flow", "financing_cf", `net cash used in financing activities|financing cash flow`),
	label("cash_flow", "net_cf", `net change in cash`),
	label("cash_flow", "capex", `capital expenditures|capex`),
	label("cash_flow", "fcf", `free cash flow|fcf`),
}

var nonNumeric = regexp.MustCompile(`[^\d.]`)

func (LocalExtractor) Extract(_ context.Context, text, _ string) (*models.Statement, error) {
	return ExtractLocal(text), nil
}

// ExtractLocal runs the keyword scan over text.
func ExtractLocal(text string) *models.Statement {
	lower := strings.ToLower(text)

	stmt := models.NewStatement()
	stmt.CompanyName = LocalCompanyName
	stmt.Period = LocalPeriod
	stmt.Notes = []string{LocalNote}

	for _, l := range localLabels {
		if ref := fieldRef(stmt, l.section, l.field); ref != nil {
			*ref = firstAmount(l.re, lower)
		}
	}
	return stmt
}

func firstAmount(re *regexp.Regexp, text string) float64 {
	m := re.FindStringSubmatch(text)
	if m == nil || m[1] == "" {
		return 0
	}
	v, err := strconv.ParseFloat(nonNumeric.ReplaceAllString(m[1], ""), 64)
	if err != nil {
		return 0
	}
	return v
}

func fieldRef(s *models.Statement, section, name string) *float64 {
	switch section {
	case "income_statement":
		return lookup(&s.IncomeStatement, models.IncomeFields, name)
	case "balance_sheet":
		return lookup(&s.BalanceSheet, models.BalanceFields, name)
	case "cash_flow":
		return lookup(&s.CashFlow, models.CashFlowFields, name)
	}
	return nil
}

func lookup[T any](section *T, fields []models.Field[T], name string) *float64 {
	for _, f := range fields {
		if f.Name == name {
			return f.Ref(section)
		}
	}
	return nil
}

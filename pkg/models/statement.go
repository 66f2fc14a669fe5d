// Package models defines the canonical financial statement and the deal,
// document and analysis records shared by the extraction, calculation and
// storage layers.
package models

// =============================================================================
// CANONICAL STATEMENT
// =============================================================================

// DefaultCurrency is used when no document states a currency.
const DefaultCurrency = "USD"

// IncomeStatement holds the P&L line items. Zero means "not reported".
type IncomeStatement struct {
	Revenue           float64 `json:"revenue"`
	COGS              float64 `json:"cogs"`
	GrossProfit       float64 `json:"gross_profit"`
	OperatingExpenses float64 `json:"operating_expenses"`
	EBITDA            float64 `json:"ebitda"`
	Depreciation      float64 `json:"depreciation"`
	Interest          float64 `json:"interest"`
	Tax               float64 `json:"tax"`
	NetIncome         float64 `json:"net_income"`
}

// BalanceSheet holds point-in-time balances.
type BalanceSheet struct {
	Cash                    float64 `json:"cash"`
	AccountsReceivable      float64 `json:"accounts_receivable"`
	Inventory               float64 `json:"inventory"`
	TotalCurrentAssets      float64 `json:"total_current_assets"`
	PPE                     float64 `json:"ppe"`
	TotalAssets             float64 `json:"total_assets"`
	AccountsPayable         float64 `json:"accounts_payable"`
	ShortTermDebt           float64 `json:"short_term_debt"`
	TotalCurrentLiabilities float64 `json:"total_current_liabilities"`
	LongTermDebt            float64 `json:"long_term_debt"`
	TotalLiabilities        float64 `json:"total_liabilities"`
	TotalEquity             float64 `json:"total_equity"`
}

// TotalDebt is short-term plus long-term borrowings.
func (b BalanceSheet) TotalDebt() float64 {
	return b.ShortTermDebt + b.LongTermDebt
}

// CashFlow holds the cash flow statement totals. Capex is usually negative.
type CashFlow struct {
	OperatingCF float64 `json:"operating_cf"`
	InvestingCF float64 `json:"investing_cf"`
	FinancingCF float64 `json:"financing_cf"`
	NetCF       float64 `json:"net_cf"`
	Capex       float64 `json:"capex"`
	FCF         float64 `json:"fcf"`
}

// Statement is the canonical record produced by extraction and consumed by
// every calculation engine.
type Statement struct {
	CompanyName     string          `json:"company_name"`
	Period          string          `json:"period"`
	Currency        string          `json:"currency"`
	IncomeStatement IncomeStatement `json:"income_statement"`
	BalanceSheet    BalanceSheet    `json:"balance_sheet"`
	CashFlow        CashFlow        `json:"cash_flow"`
	Adjustments     []Adjustment    `json:"adjustments"`
	Notes           []string        `json:"notes"`
}

// NewStatement returns an empty, fully shaped statement.
func NewStatement() *Statement {
	return &Statement{
		Currency:    DefaultCurrency,
		Adjustments: []Adjustment{},
		Notes:       []string{},
	}
}

// Clone returns a deep copy so callers can never mutate shared adjustments.
func (s *Statement) Clone() *Statement {
	if s == nil {
		return nil
	}
	c := *s
	c.Adjustments = append([]Adjustment{}, s.Adjustments...)
	c.Notes = append([]string{}, s.Notes...)
	return &c
}

// HasIncomeData reports whether any income statement field is non-zero.
func (s *Statement) HasIncomeData() bool {
	if s == nil {
		return false
	}
	for _, f := range IncomeFields {
		if *f.Ref(&s.IncomeStatement) != 0 {
			return true
		}
	}
	return false
}

// ZeroCoverage returns the names of zero-valued income statement and balance
// sheet fields (prefixed by section) together with the number of fields checked.
func (s *Statement) ZeroCoverage() (missing []string, total int) {
	for _, f := range IncomeFields {
		total++
		if *f.Ref(&s.IncomeStatement) == 0 {
			missing = append(missing, "income_statement."+f.Name)
		}
	}
	for _, f := range BalanceFields {
		total++
		if *f.Ref(&s.BalanceSheet) == 0 {
			missing = append(missing, "balance_sheet."+f.Name)
		}
	}
	return missing, total
}

// =============================================================================
// FIELD TABLES
// =============================================================================

// Field names one numeric line item of a statement section and gives
// addressable access to it.
type Field[T any] struct {
	Name string
	Ref  func(*T) *float64
}

// IncomeFields enumerates IncomeStatement in canonical order.
var IncomeFields = []Field[IncomeStatement]{
	{"revenue", func(s *IncomeStatement) *float64 { return &s.Revenue }},
	{"cogs", func(s *IncomeStatement) *float64 { return &s.COGS }},
	{"gross_profit", func(s *IncomeStatement) *float64 { return &s.GrossProfit }},
	{"operating_expenses", func(s *IncomeStatement) *float64 { return &s.OperatingExpenses }},
	{"ebitda", func(s *IncomeStatement) *float64 { return &s.EBITDA }},
	{"depreciation", func(s *IncomeStatement) *float64 { return &s.Depreciation }},
	{"interest", func(s *IncomeStatement) *float64 { return &s.Interest }},
	{"tax", func(s *IncomeStatement) *float64 { return &s.Tax }},
	{"net_income", func(s *IncomeStatement) *float64 { return &s.NetIncome }},
}

// BalanceFields enumerates BalanceSheet in canonical order.
var BalanceFields = []Field[BalanceSheet]{
	{"cash", func(s *BalanceSheet) *float64 { return &s.Cash }},
	{"accounts_receivable", func(s *BalanceSheet) *float64 { return &s.AccountsReceivable }},
	{"inventory", func(s *BalanceSheet) *float64 { return &s.Inventory }},
	{"total_current_assets", func(s *BalanceSheet) *float64 { return &s.TotalCurrentAssets }},
	{"ppe", func(s *BalanceSheet) *float64 { return &s.PPE }},
	{"total_assets", func(s *BalanceSheet) *float64 { return &s.TotalAssets }},
	{"accounts_payable", func(s *BalanceSheet) *float64 { return &s.AccountsPayable }},
	{"short_term_debt", func(s *BalanceSheet) *float64 { return &s.ShortTermDebt }},
	{"total_current_liabilities", func(s *BalanceSheet) *float64 { return &s.TotalCurrentLiabilities }},
	{"long_term_debt", func(s *BalanceSheet) *float64 { return &s.LongTermDebt }},
	{"total_liabilities", func(s *BalanceSheet) *float64 { return &s.TotalLiabilities }},
	{"total_equity", func(s *BalanceSheet) *float64 { return &s.TotalEquity }},
}

// CashFlowFields enumerates CashFlow in canonical order.
var CashFlowFields = []Field[CashFlow]{
	{"operating_cf", func(s *CashFlow) *float64 { return &s.OperatingCF }},
	{"investing_cf", func(s *CashFlow) *float64 { return &s.InvestingCF }},
	{"financing_cf", func(s *CashFlow) *float64 { return &s.FinancingCF }},
	{"net_cf", func(s *CashFlow) *float64 { return &s.NetCF }},
	{"capex", func(s *CashFlow) *float64 { return &s.Capex }},
	{"fcf", func(s *CashFlow) *float64 { return &s.FCF }},
}

// =============================================================================
// ADJUSTMENTS
// =============================================================================

// AdjustmentCategory classifies a normalization adjustment.
type AdjustmentCategory string

const (
	CategoryNonRecurring      AdjustmentCategory = "non_recurring"
	CategoryOwnerCompensation AdjustmentCategory = "owner_compensation"
	CategoryRelatedParty      AdjustmentCategory = "related_party"
	CategoryOther             AdjustmentCategory = "other"
)

// NormalizeCategory maps free text onto a known category; anything
// unrecognized becomes CategoryOther.
func NormalizeCategory(raw string) AdjustmentCategory {
	switch c := AdjustmentCategory(raw); c {
	case CategoryNonRecurring, CategoryOwnerCompensation, CategoryRelatedParty, CategoryOther:
		return c
	}
	return CategoryOther
}

// Impact is the direction of an adjustment relative to reported EBITDA.
type Impact string

const (
	ImpactAddBack   Impact = "add_back"
	ImpactDeduction Impact = "deduction"
)

// Adjustment is a proposed normalization to reported EBITDA.
// Positive amounts are add-backs.
type Adjustment struct {
	Description string             `json:"description"`
	Amount      float64            `json:"amount"`
	Category    AdjustmentCategory `json:"category"`
}

// Impact derives the direction from the sign of Amount.
func (a Adjustment) Impact() Impact {
	if a.Amount > 0 {
		return ImpactAddBack
	}
	return ImpactDeduction
}

package valuation

import (
	"errors"
	"fmt"
	"math"

	"deal_diligence/pkg/core/utils"
	"deal_diligence/pkg/models"
)

var (
	// ErrInvalidDiscountSpread means WACC does not exceed terminal growth, so
	// the Gordon growth terminal value is undefined.
	ErrInvalidDiscountSpread = errors.New("wacc must exceed terminal growth rate")
	// ErrInvalidProjection means the projection horizon is empty.
	ErrInvalidProjection = errors.New("projection years must be at least 1")
)

// minGrowthRate floors the declining growth path.
const minGrowthRate = 0.02

// Assumptions drive the projection. Rates are decimals (0.10 = 10%).
type Assumptions struct {
	ProjectionYears      int     `json:"projection_years"`
	RevenueGrowthRate    float64 `json:"revenue_growth_rate"`
	GrowthDeclinePerYear float64 `json:"growth_decline_per_year"`
	CapexPctRevenue      float64 `json:"capex_pct_revenue"`
	TaxRate              float64 `json:"tax_rate"`
	WACC                 float64 `json:"wacc"`
	TerminalGrowthRate   float64 `json:"terminal_growth_rate"`
}

// DefaultAssumptions returns the standard mid-market case.
func DefaultAssumptions() Assumptions {
	return Assumptions{
		ProjectionYears:      5,
		RevenueGrowthRate:    0.10,
		GrowthDeclinePerYear: 0.01,
		CapexPctRevenue:      0.05,
		TaxRate:              0.25,
		WACC:                 0.12,
		TerminalGrowthRate:   0.03,
	}
}

// Overrides replaces individual assumptions; nil fields keep the default.
type Overrides struct {
	ProjectionYears      *int     `json:"projection_years,omitempty" yaml:"projection_years,omitempty"`
	RevenueGrowthRate    *float64 `json:"revenue_growth_rate,omitempty" yaml:"revenue_growth_rate,omitempty"`
	GrowthDeclinePerYear *float64 `json:"growth_decline_per_year,omitempty" yaml:"growth_decline_per_year,omitempty"`
	CapexPctRevenue      *float64 `json:"capex_pct_revenue,omitempty" yaml:"capex_pct_revenue,omitempty"`
	TaxRate              *float64 `json:"tax_rate,omitempty" yaml:"tax_rate,omitempty"`
	WACC                 *float64 `json:"wacc,omitempty" yaml:"wacc,omitempty"`
	TerminalGrowthRate   *float64 `json:"terminal_growth_rate,omitempty" yaml:"terminal_growth_rate,omitempty"`
}

// With applies o on top of a.
func (a Assumptions) With(o Overrides) Assumptions {
	if o.ProjectionYears != nil {
		a.ProjectionYears = *o.ProjectionYears
	}
	if o.RevenueGrowthRate != nil {
		a.RevenueGrowthRate = *o.RevenueGrowthRate
	}
	if o.GrowthDeclinePerYear != nil {
		a.GrowthDeclinePerYear = *o.GrowthDeclinePerYear
	}
	if o.CapexPctRevenue != nil {
		a.CapexPctRevenue = *o.CapexPctRevenue
	}
	if o.TaxRate != nil {
		a.TaxRate = *o.TaxRate
	}
	if o.WACC != nil {
		a.WACC = *o.WACC
	}
	if o.TerminalGrowthRate != nil {
		a.TerminalGrowthRate = *o.TerminalGrowthRate
	}
	return a
}

// Validate checks the assumptions can produce a finite valuation.
func (a Assumptions) Validate() error {
	if a.ProjectionYears < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidProjection, a.ProjectionYears)
	}
	if a.WACC <= a.TerminalGrowthRate {
		return fmt.Errorf("%w: wacc %.4f, terminal growth %.4f", ErrInvalidDiscountSpread, a.WACC, a.TerminalGrowthRate)
	}
	return nil
}

// ProjectedYear is one explicit forecast year. Amounts are whole currency
// units; GrowthRate is a percentage.
type ProjectedYear struct {
	Year           int     `json:"year"`
	Revenue        float64 `json:"revenue"`
	EBITDA         float64 `json:"ebitda"`
	FCF            float64 `json:"fcf"`
	DiscountFactor float64 `json:"discount_factor"`
	PVFCF          float64 `json:"pv_fcf"`
	GrowthRate     float64 `json:"growth_rate"`
}

// DCFResult holds the valuation outputs.
type DCFResult struct {
	Assumptions         Assumptions     `json:"assumptions"`
	ProjectedYears      []ProjectedYear `json:"projected_years"`
	TerminalValue       float64         `json:"terminal_value"`
	PVTerminalValue     float64         `json:"pv_terminal_value"`
	SumPVFCF            float64         `json:"sum_pv_fcf"`
	EnterpriseValue     float64         `json:"enterprise_value"`
	EquityValue         float64         `json:"equity_value"`
	EVToRevenue         float64         `json:"ev_to_revenue"`
	EVToEBITDA          float64         `json:"ev_to_ebitda"`
	CurrentEBITDAMargin float64         `json:"current_ebitda_margin"`
}

func (DCFResult) Kind() models.AnalysisType { return models.AnalysisDCF }

// CalculateDCF runs a two-stage DCF: explicit years with a declining growth
// path held at the current EBITDA margin, then a Gordon growth terminal value
// on the final year's FCF.
//
// Per year y (1-based):
//
//	growth  = max(2%, g - (y-1)*decline)
//	revenue = revenue_{y-1} * (1 + growth)
//	FCF     = EBITDA - tax - capex
//	DF      = 1 / (1 + WACC)^y
func CalculateDCF(stmt *models.Statement, a Assumptions) (DCFResult, error) {
	if err := a.Validate(); err != nil {
		return DCFResult{}, err
	}
	if stmt == nil {
		stmt = models.NewStatement()
	}

	baseRevenue := stmt.IncomeStatement.Revenue
	ebitda := stmt.IncomeStatement.EBITDA
	margin := utils.SafeDiv(ebitda, baseRevenue)

	years := make([]ProjectedYear, 0, a.ProjectionYears)
	revenue := baseRevenue
	var sumPV float64
	for y := 1; y <= a.ProjectionYears; y++ {
		growth := math.Max(minGrowthRate, a.RevenueGrowthRate-float64(y-1)*a.GrowthDeclinePerYear)
		revenue *= 1 + growth
		yearEBITDA := revenue * margin
		tax := yearEBITDA * a.TaxRate
		capex := revenue * a.CapexPctRevenue
		fcf := yearEBITDA - tax - capex
		df := 1 / math.Pow(1+a.WACC, float64(y))

		py := ProjectedYear{
			Year:           y,
			Revenue:        utils.Round(revenue, 0),
			EBITDA:         utils.Round(yearEBITDA, 0),
			FCF:            utils.Round(fcf, 0),
			DiscountFactor: utils.Round(df, 4),
			PVFCF:          utils.Round(fcf*df, 0),
			GrowthRate:     utils.Round(growth*100, 1),
		}
		sumPV += py.PVFCF
		years = append(years, py)
	}

	// Terminal value capitalizes the published (rounded) final-year FCF.
	finalFCF := years[len(years)-1].FCF
	tv := finalFCF * (1 + a.TerminalGrowthRate) / (a.WACC - a.TerminalGrowthRate)
	pvTV := tv / math.Pow(1+a.WACC, float64(a.ProjectionYears))

	ev := sumPV + pvTV
	equity := ev + stmt.BalanceSheet.Cash - stmt.BalanceSheet.TotalDebt()

	return DCFResult{
		Assumptions:         a,
		ProjectedYears:      years,
		TerminalValue:       utils.Round(tv, 0),
		PVTerminalValue:     utils.Round(pvTV, 0),
		SumPVFCF:            utils.Round(sumPV, 0),
		EnterpriseValue:     utils.Round(ev, 0),
		EquityValue:         utils.Round(equity, 0),
		EVToRevenue:         utils.Round(utils.SafeDiv(ev, baseRevenue), 2),
		EVToEBITDA:          utils.Round(utils.SafeDiv(ev, ebitda), 2),
		CurrentEBITDAMargin: utils.Round(margin*100, 1),
	}, nil
}

package calc

import (
	"math"
	"testing"

	"deal_diligence/pkg/core/seed"
	"deal_diligence/pkg/models"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestAnalyzeQoE_DemoDeal(t *testing.T) {
	stmt := seed.DemoStatement()
	res := AnalyzeQoE(stmt)

	if res.ReportedEBITDA != 3360000 {
		t.Errorf("reported EBITDA = %v, want 3360000", res.ReportedEBITDA)
	}
	if res.TotalAdjustments != 1090000 {
		t.Errorf("total adjustments = %v, want 1090000", res.TotalAdjustments)
	}
	if res.AdjustedEBITDA != 4450000 {
		t.Errorf("adjusted EBITDA = %v, want 4450000", res.AdjustedEBITDA)
	}
	// 80 - 30 (magnitude 0.32) - 10 - 5 - 8 - 10
	if res.QualityScore != 17 {
		t.Errorf("quality score = %d, want 17", res.QualityScore)
	}
	if res.EarningsSustainability != SustainabilityLow {
		t.Errorf("sustainability = %s, want low", res.EarningsSustainability)
	}
	if res.EBITDAMargin != 15.0 || res.AdjustedEBITDAMargin != 19.9 {
		t.Errorf("margins = %v / %v", res.EBITDAMargin, res.AdjustedEBITDAMargin)
	}
	if len(res.Adjustments) != 4 || res.Adjustments[2].Impact != models.ImpactDeduction || res.Adjustments[0].Impact != models.ImpactAddBack {
		t.Errorf("adjustment tagging wrong: %+v", res.Adjustments)
	}
}

func TestAnalyzeQoE_DoesNotMutateInput(t *testing.T) {
	stmt := seed.DemoStatement()
	before := stmt.Clone()
	_ = AnalyzeQoE(stmt)
	for i := range stmt.Adjustments {
		if stmt.Adjustments[i] != before.Adjustments[i] {
			t.Fatalf("adjustment %d mutated", i)
		}
	}
}

func TestAnalyzeQoE_ScoreBounds(t *testing.T) {
	tests := []struct {
		name  string
		build func() *models.Statement
		want  int
	}{
		{
			name:  "empty statement keeps base score",
			build: models.NewStatement,
			want:  80,
		},
		{
			name: "many adjustments clamp at zero",
			build: func() *models.Statement {
				s := seed.DemoStatement()
				base := s.Adjustments
				for i := 0; i < 9; i++ {
					s.Adjustments = append(s.Adjustments, base...)
				}
				return s
			},
			want: 0,
		},
		{
			name: "small adjustment within 5-10% tier",
			build: func() *models.Statement {
				s := models.NewStatement()
				s.IncomeStatement.NetIncome = 1000
				s.Adjustments = []models.Adjustment{{Amount: 60, Category: models.CategoryOther}}
				return s
			},
			want: 75,
		},
		{
			name: "exact tier boundary is exclusive",
			build: func() *models.Statement {
				s := models.NewStatement()
				s.IncomeStatement.NetIncome = 1000
				s.Adjustments = []models.Adjustment{{Amount: 100, Category: models.CategoryOther}}
				return s
			},
			want: 75,
		},
		{
			name: "opex above revenue",
			build: func() *models.Statement {
				s := models.NewStatement()
				s.IncomeStatement.Revenue = 100
				s.IncomeStatement.OperatingExpenses = 150
				return s
			},
			want: 65,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := AnalyzeQoE(tt.build())
			if res.QualityScore != tt.want {
				t.Errorf("score = %d, want %d", res.QualityScore, tt.want)
			}
			if res.QualityScore < 0 || res.QualityScore > 100 {
				t.Errorf("score out of range: %d", res.QualityScore)
			}
		})
	}
}

func TestAnalyzeWorkingCapital_DemoDeal(t *testing.T) {
	res := AnalyzeWorkingCapital(seed.DemoStatement())

	checks := []struct {
		name      string
		got, want float64
	}{
		{"nwc", res.NetWorkingCapital, 4330000},
		{"dso", res.DSO, 78.2},
		{"dio", res.DIO, 15.2},
		{"dpo", res.DPO, 105.9},
		{"ccc", res.CashConversionCycle, -12.5},
		{"current ratio", res.CurrentRatio, 2.0},
		{"nwc pct", res.NWCAsPctRevenue, 19.3},
	}
	for _, c := range checks {
		if !approx(c.got, c.want) {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if res.Assessment == "" || res.Assessment[:9] != "Excellent" {
		t.Errorf("assessment = %q", res.Assessment)
	}
}

func TestAnalyzeWorkingCapital_ZeroDenominators(t *testing.T) {
	s := models.NewStatement()
	s.BalanceSheet.AccountsReceivable = 100
	s.BalanceSheet.Inventory = 50
	res := AnalyzeWorkingCapital(s)
	if res.DSO != 0 || res.DIO != 0 || res.DPO != 0 || res.CurrentRatio != 0 {
		t.Errorf("zero denominators should yield zeros: %+v", res)
	}
}

func TestAssessCashCycle(t *testing.T) {
	tests := []struct {
		ccc    float64
		prefix string
	}{
		{29.9, "Excellent"},
		{30, "Healthy"},
		{59, "Healthy"},
		{60, "Moderate"},
		{90, "Poor"},
	}
	for _, tt := range tests {
		got := assessCashCycle(tt.ccc)
		if len(got) < len(tt.prefix) || got[:len(tt.prefix)] != tt.prefix {
			t.Errorf("assessCashCycle(%v) = %q, want prefix %q", tt.ccc, got, tt.prefix)
		}
	}
}

func TestCalculateRatios_DemoDeal(t *testing.T) {
	r := CalculateRatios(seed.DemoStatement())

	checks := []struct {
		name      string
		got, want float64
	}{
		{"current", r.Liquidity.CurrentRatio, 2.0},
		{"quick", r.Liquidity.QuickRatio, 1.93},
		{"cash", r.Liquidity.CashRatio, 0.74},
		{"gross margin", r.Profitability.GrossMargin, 70.0},
		{"ebitda margin", r.Profitability.EBITDAMargin, 15.0},
		{"net margin", r.Profitability.NetMargin, 6.9},
		{"roe", r.Profitability.ROE, 25.4},
		{"d/e", r.Leverage.DebtToEquity, 1.35},
		{"interest coverage", r.Leverage.InterestCoverage, 8.0},
		{"debt/ebitda", r.Leverage.DebtToEBITDA, 1.49},
		{"asset turnover", r.Efficiency.AssetTurnover, 1.58},
		{"ocf/ni", r.CashFlow.OCFToNetIncome, 1.85},
		{"fcf margin", r.CashFlow.FCFMargin, 7.4},
	}
	for _, c := range checks {
		if !approx(c.got, c.want) {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if r.OverallHealthScore != 81 || r.HealthRating != RatingExcellent {
		t.Errorf("health = %d %s, want 81 Excellent", r.OverallHealthScore, r.HealthRating)
	}
}

func TestCalculateRatios_GrossProfitFallback(t *testing.T) {
	s := models.NewStatement()
	s.IncomeStatement.Revenue = 200
	s.IncomeStatement.COGS = 50
	r := CalculateRatios(s)
	if r.Profitability.GrossMargin != 75 {
		t.Errorf("gross margin = %v, want 75", r.Profitability.GrossMargin)
	}
}

func TestCalculateRatios_EmptyIsCriticalButBounded(t *testing.T) {
	r := CalculateRatios(models.NewStatement())
	// Only the leverage sub-score contributes: (4-0)/3 clamps to 100, weighted 20.
	if r.OverallHealthScore != 20 {
		t.Errorf("health = %d, want 20", r.OverallHealthScore)
	}
	if r.HealthRating != RatingCritical {
		t.Errorf("rating = %s", r.HealthRating)
	}
}

func TestHealthScore_NegativeTurnoverClamped(t *testing.T) {
	r := RatioResult{
		Liquidity:     LiquidityRatios{CurrentRatio: 2},
		Profitability: ProfitabilityRatios{NetMargin: 20},
		Leverage:      LeverageRatios{DebtToEquity: 1},
		Efficiency:    EfficiencyRatios{AssetTurnover: -5},
		CashFlow:      CashFlowRatios{OCFToNetIncome: 1.5},
	}
	if got := healthScore(r); got != 85 {
		t.Errorf("healthScore = %d, want 85", got)
	}
}

func TestRatingFor(t *testing.T) {
	tests := map[int]HealthRating{
		100: RatingExcellent, 80: RatingExcellent, 79: RatingGood, 65: RatingGood,
		64: RatingFair, 45: RatingFair, 44: RatingConcerning, 25: RatingConcerning, 24: RatingCritical, 0: RatingCritical,
	}
	for score, want := range tests {
		if got := ratingFor(score); got != want {
			t.Errorf("ratingFor(%d) = %s, want %s", score, got, want)
		}
	}
}

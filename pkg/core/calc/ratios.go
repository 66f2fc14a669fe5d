package calc

import (
	"deal_diligence/pkg/core/utils"
	"deal_diligence/pkg/models"
)

// =============================================================================
// RATIO ANALYSIS
// =============================================================================

// HealthRating is the banded overall health score.
type HealthRating string

const (
	RatingExcellent  HealthRating = "Excellent"
	RatingGood       HealthRating = "Good"
	RatingFair       HealthRating = "Fair"
	RatingConcerning HealthRating = "Concerning"
	RatingCritical   HealthRating = "Critical"
)

type LiquidityRatios struct {
	CurrentRatio float64 `json:"current_ratio"`
	QuickRatio   float64 `json:"quick_ratio"`
	CashRatio    float64 `json:"cash_ratio"`
}

// ProfitabilityRatios are percentages of revenue (or equity/assets for ROE/ROA).
type ProfitabilityRatios struct {
	GrossMargin     float64 `json:"gross_margin"`
	EBITDAMargin    float64 `json:"ebitda_margin"`
	OperatingMargin float64 `json:"operating_margin"`
	NetMargin       float64 `json:"net_margin"`
	ROE             float64 `json:"roe"`
	ROA             float64 `json:"roa"`
}

type LeverageRatios struct {
	DebtToEquity     float64 `json:"debt_to_equity"`
	DebtToAssets     float64 `json:"debt_to_assets"`
	InterestCoverage float64 `json:"interest_coverage"`
	DebtToEBITDA     float64 `json:"debt_to_ebitda"`
}

type EfficiencyRatios struct {
	AssetTurnover       float64 `json:"asset_turnover"`
	InventoryTurnover   float64 `json:"inventory_turnover"`
	ReceivablesTurnover float64 `json:"receivables_turnover"`
}

type CashFlowRatios struct {
	OCFToNetIncome float64 `json:"ocf_to_net_income"`
	FCFMargin      float64 `json:"fcf_margin"`
}

// RatioResult groups the ratio families with a weighted 0-100 health score.
type RatioResult struct {
	Liquidity          LiquidityRatios     `json:"liquidity"`
	Profitability      ProfitabilityRatios `json:"profitability"`
	Leverage           LeverageRatios      `json:"leverage"`
	Efficiency         EfficiencyRatios    `json:"efficiency"`
	CashFlow           CashFlowRatios      `json:"cash_flow"`
	OverallHealthScore int                 `json:"overall_health_score"`
	HealthRating       HealthRating        `json:"health_rating"`
}

func (RatioResult) Kind() models.AnalysisType { return models.AnalysisRatios }

// CalculateRatios derives liquidity, profitability, leverage, efficiency and
// cash-flow ratios. Operating margin uses EBITDA as its proxy; leverage ratios
// use total liabilities as the debt measure except debt/EBITDA, which uses
// interest-bearing debt.
func CalculateRatios(stmt *models.Statement) RatioResult {
	if stmt == nil {
		stmt = models.NewStatement()
	}
	is := stmt.IncomeStatement
	bs := stmt.BalanceSheet
	cf := stmt.CashFlow

	grossProfit := is.GrossProfit
	if grossProfit == 0 {
		grossProfit = is.Revenue - is.COGS
	}

	pct := func(n, d float64) float64 { return utils.Round(utils.SafeDiv(n, d)*100, 1) }
	x := func(n, d float64) float64 { return utils.Round(utils.SafeDiv(n, d), 2) }

	r := RatioResult{
		Liquidity: LiquidityRatios{
			CurrentRatio: x(bs.TotalCurrentAssets, bs.TotalCurrentLiabilities),
			QuickRatio:   x(bs.TotalCurrentAssets-bs.Inventory, bs.TotalCurrentLiabilities),
			CashRatio:    x(bs.Cash, bs.TotalCurrentLiabilities),
		},
		Profitability: ProfitabilityRatios{
			GrossMargin:     pct(grossProfit, is.Revenue),
			EBITDAMargin:    pct(is.EBITDA, is.Revenue),
			OperatingMargin: pct(is.EBITDA, is.Revenue),
			NetMargin:       pct(is.NetIncome, is.Revenue),
			ROE:             pct(is.NetIncome, bs.TotalEquity),
			ROA:             pct(is.NetIncome, bs.TotalAssets),
		},
		Leverage: LeverageRatios{
			DebtToEquity:     x(bs.TotalLiabilities, bs.TotalEquity),
			DebtToAssets:     x(bs.TotalLiabilities, bs.TotalAssets),
			InterestCoverage: x(is.EBITDA, is.Interest),
			DebtToEBITDA:     x(bs.TotalDebt(), is.EBITDA),
		},
		Efficiency: EfficiencyRatios{
			AssetTurnover:       x(is.Revenue, bs.TotalAssets),
			InventoryTurnover:   x(is.COGS, bs.Inventory),
			ReceivablesTurnover: x(is.Revenue, bs.AccountsReceivable),
		},
		CashFlow: CashFlowRatios{
			OCFToNetIncome: x(cf.OperatingCF, is.NetIncome),
			FCFMargin:      pct(cf.FCF, is.Revenue),
		},
	}

	r.OverallHealthScore = healthScore(r)
	r.HealthRating = ratingFor(r.OverallHealthScore)
	return r
}

// Sub-score weights; they sum to 1.
const (
	weightLiquidity     = 0.20
	weightProfitability = 0.25
	weightLeverage      = 0.20
	weightEfficiency    = 0.15
	weightCashFlow      = 0.20
)

// healthScore works off the rounded ratios so the score is reproducible from
// the published figures.
func healthScore(r RatioResult) int {
	sub := func(v float64) float64 { return utils.Clamp(v*100, 0, 100) }

	liq := sub(r.Liquidity.CurrentRatio / 2.0)
	prof := sub(r.Profitability.NetMargin / 20.0)
	lev := sub((4.0 - r.Leverage.DebtToEquity) / 3.0)
	eff := sub(r.Efficiency.AssetTurnover / 1.0)
	cf := sub(r.CashFlow.OCFToNetIncome / 1.5)

	weighted := liq*weightLiquidity + prof*weightProfitability + lev*weightLeverage +
		eff*weightEfficiency + cf*weightCashFlow

	return utils.ClampInt(int(weighted), 0, 100)
}

func ratingFor(score int) HealthRating {
	switch {
	case score >= 80:
		return RatingExcellent
	case score >= 65:
		return RatingGood
	case score >= 45:
		return RatingFair
	case score >= 25:
		return RatingConcerning
	default:
		return RatingCritical
	}
}

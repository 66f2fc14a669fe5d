package calc

import (
	"deal_diligence/pkg/core/utils"
	"deal_diligence/pkg/models"
)

// =============================================================================
// WORKING CAPITAL
// =============================================================================

const daysPerYear = 365

// WorkingCapitalResult is the working-capital analysis of one statement.
// Day counts are rounded to one decimal, amounts to two.
type WorkingCapitalResult struct {
	CurrentAssets       float64 `json:"current_assets"`
	CurrentLiabilities  float64 `json:"current_liabilities"`
	NetWorkingCapital   float64 `json:"net_working_capital"`
	CurrentRatio        float64 `json:"current_ratio"`
	DSO                 float64 `json:"dso"`
	DIO                 float64 `json:"dio"`
	DPO                 float64 `json:"dpo"`
	CashConversionCycle float64 `json:"cash_conversion_cycle"`
	NWCAsPctRevenue     float64 `json:"nwc_as_pct_revenue"`
	Assessment          string  `json:"assessment"`
}

func (WorkingCapitalResult) Kind() models.AnalysisType { return models.AnalysisWorkingCapital }

// AnalyzeWorkingCapital computes NWC and the cash conversion cycle
// (DSO + DIO - DPO).
func AnalyzeWorkingCapital(stmt *models.Statement) WorkingCapitalResult {
	if stmt == nil {
		stmt = models.NewStatement()
	}
	bs := stmt.BalanceSheet
	is := stmt.IncomeStatement

	nwc := bs.TotalCurrentAssets - bs.TotalCurrentLiabilities
	dso := utils.SafeDiv(bs.AccountsReceivable, is.Revenue) * daysPerYear
	dio := utils.SafeDiv(bs.Inventory, is.COGS) * daysPerYear
	dpo := utils.SafeDiv(bs.AccountsPayable, is.COGS) * daysPerYear
	ccc := dso + dio - dpo

	return WorkingCapitalResult{
		CurrentAssets:       utils.Round(bs.TotalCurrentAssets, 2),
		CurrentLiabilities:  utils.Round(bs.TotalCurrentLiabilities, 2),
		NetWorkingCapital:   utils.Round(nwc, 2),
		CurrentRatio:        utils.Round(utils.SafeDiv(bs.TotalCurrentAssets, bs.TotalCurrentLiabilities), 2),
		DSO:                 utils.Round(dso, 1),
		DIO:                 utils.Round(dio, 1),
		DPO:                 utils.Round(dpo, 1),
		CashConversionCycle: utils.Round(ccc, 1),
		NWCAsPctRevenue:     utils.Round(utils.SafeDiv(nwc, is.Revenue)*100, 1),
		Assessment:          assessCashCycle(ccc),
	}
}

func assessCashCycle(ccc float64) string {
	switch {
	case ccc < 30:
		return "Excellent cash conversion: the business collects fast and pays strategically."
	case ccc < 60:
		return "Healthy working capital cycle within normal operating range."
	case ccc < 90:
		return "Moderate efficiency: cash is tied up for a notable period. Investigate AR aging."
	default:
		return "Poor cash conversion: significant capital locked in working capital. Immediate attention needed."
	}
}

// Package validate runs accounting integrity checks on a canonical statement.
// Checks never change the data; the pipeline logs them next to the merge
// audit so reviewers can see which source figures do not tie out.
package validate

import (
	"math"

	"deal_diligence/pkg/models"
)

// Config defines tolerances in percent of the reported figure.
type Config struct {
	EnableStrictValidation bool    // report mismatches as critical instead of warning
	BalanceSheetTolerance  float64 // A = L + E
	IncomeTolerance        float64 // gross profit and EBITDA build
	CashFlowTolerance      float64 // section sum and free cash flow
}

func DefaultConfig() Config {
	return Config{
		BalanceSheetTolerance: 1.0,
		IncomeTolerance:       1.0,
		CashFlowTolerance:     1.0,
	}
}

// Check is the outcome of one tie-out.
type Check struct {
	Label       string  `json:"label"`
	Computed    float64 `json:"computed"`
	Reported    float64 `json:"reported"`
	Difference  float64 `json:"difference"`
	DiffPercent float64 `json:"diff_percent"`
	Tolerance   float64 `json:"tolerance"`
	Passed      bool    `json:"passed"`
}

// =============================================================================
// STATEMENT CHECKS
// =============================================================================

// CheckStatement runs every tie-out whose reported side is present. A
// statement with nothing reported yields no checks.
func CheckStatement(s *models.Statement, cfg Config) []Check {
	if s == nil {
		return nil
	}
	is, bs, cf := s.IncomeStatement, s.BalanceSheet, s.CashFlow
	var out []Check

	// --- A. Balance Sheet (Assets = Liabilities + Equity) ---
	if bs.TotalAssets != 0 && (bs.TotalLiabilities != 0 || bs.TotalEquity != 0) {
		out = append(out, tieOut("Balance Sheet Equation", bs.TotalLiabilities+bs.TotalEquity, bs.TotalAssets, cfg.BalanceSheetTolerance))
	}

	// --- B. Income Statement (flow-through) ---
	if is.GrossProfit != 0 && is.Revenue != 0 {
		out = append(out, tieOut("Gross Profit", is.Revenue-is.COGS, is.GrossProfit, cfg.IncomeTolerance))
	}
	if is.EBITDA != 0 && is.NetIncome != 0 {
		out = append(out, tieOut("EBITDA Build", is.NetIncome+is.Interest+is.Tax+is.Depreciation, is.EBITDA, cfg.IncomeTolerance))
	}

	// --- C. Cash Flow (section totals) ---
	if cf.NetCF != 0 {
		out = append(out, tieOut("CF Net Change", cf.OperatingCF+cf.InvestingCF+cf.FinancingCF, cf.NetCF, cfg.CashFlowTolerance))
	}
	// Capex sign varies between sources.
	if cf.FCF != 0 && cf.OperatingCF != 0 {
		out = append(out, tieOut("Free Cash Flow", cf.OperatingCF-math.Abs(cf.Capex), cf.FCF, cfg.CashFlowTolerance))
	}
	return out
}

// Failed filters the checks that missed their tolerance.
func Failed(checks []Check) []Check {
	var out []Check
	for _, c := range checks {
		if !c.Passed {
			out = append(out, c)
		}
	}
	return out
}

func tieOut(label string, computed, reported, tolerance float64) Check {
	diff := computed - reported
	var pct float64
	if reported != 0 {
		pct = math.Abs(diff) / math.Abs(reported) * 100
	}
	return Check{
		Label:       label,
		Computed:    computed,
		Reported:    reported,
		Difference:  diff,
		DiffPercent: pct,
		Tolerance:   tolerance,
		Passed:      pct <= tolerance,
	}
}

package validate

import (
	"testing"

	"deal_diligence/pkg/core/seed"
	"deal_diligence/pkg/models"
)

func TestCheckStatement_SeedTiesOut(t *testing.T) {
	checks := CheckStatement(seed.DemoStatement(), DefaultConfig())
	if len(checks) != 5 {
		t.Fatalf("expected 5 checks, got %d: %+v", len(checks), checks)
	}
	if failed := Failed(checks); len(failed) != 0 {
		t.Errorf("seed statement should tie out, failed: %+v", failed)
	}
}

func TestCheckStatement_Mismatches(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *models.Statement)
		label  string
	}{
		{"balance sheet", func(s *models.Statement) { s.BalanceSheet.TotalEquity -= 1_000_000 }, "Balance Sheet Equation"},
		{"gross profit", func(s *models.Statement) { s.IncomeStatement.GrossProfit = 10_000_000 }, "Gross Profit"},
		{"ebitda", func(s *models.Statement) { s.IncomeStatement.EBITDA = 5_000_000 }, "EBITDA Build"},
		{"cash flow", func(s *models.Statement) { s.CashFlow.NetCF = 900_000 }, "CF Net Change"},
		{"fcf", func(s *models.Statement) { s.CashFlow.FCF = 2_850_000 }, "Free Cash Flow"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := seed.DemoStatement()
			tt.mutate(s)
			failed := Failed(CheckStatement(s, DefaultConfig()))
			if len(failed) != 1 || failed[0].Label != tt.label {
				t.Errorf("failed = %+v, want only %q", failed, tt.label)
			}
		})
	}
}

func TestCheckStatement_SkipsAbsentFigures(t *testing.T) {
	s := models.NewStatement()
	s.IncomeStatement.Revenue = 100
	if got := CheckStatement(s, DefaultConfig()); len(got) != 0 {
		t.Errorf("expected no checks, got %+v", got)
	}
	if CheckStatement(nil, DefaultConfig()) != nil {
		t.Error("nil statement should yield nil")
	}
}

func TestTieOut_Percent(t *testing.T) {
	c := tieOut("x", 101, 100, 1.0)
	if !c.Passed || c.Difference != 1 || c.DiffPercent != 1 {
		t.Errorf("check = %+v", c)
	}
	c = tieOut("x", 102, 100, 1.0)
	if c.Passed {
		t.Errorf("2%% off should fail at 1%% tolerance: %+v", c)
	}
}

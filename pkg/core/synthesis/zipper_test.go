package synthesis

import (
	"testing"

	"deal_diligence/pkg/core/seed"
	"deal_diligence/pkg/models"
)

// =============================================================================
// HELPER FUNCTIONS FOR TEST DATA CREATION
// =============================================================================

func makeStatement(company string, revenue, netIncome float64) *models.Statement {
	s := models.NewStatement()
	s.Currency = ""
	s.CompanyName = company
	s.IncomeStatement.Revenue = revenue
	s.IncomeStatement.NetIncome = netIncome
	return s
}

// =============================================================================
// TESTS
// =============================================================================

func TestStitch_SingleStatementIsIdentity(t *testing.T) {
	s := seed.DemoStatement()
	res := NewZipperEngine().Stitch([]*models.Statement{s})
	if res.Statement != s {
		t.Error("single statement should be returned unchanged (same pointer)")
	}
	if len(res.Conflicts) != 0 {
		t.Errorf("unexpected conflicts: %+v", res.Conflicts)
	}

	// Not normalized: an empty currency stays empty.
	bare := makeStatement("", 1, 0)
	if got := Merge([]*models.Statement{bare}); got != bare || got.Currency != "" {
		t.Errorf("single statement was normalized: %+v", got)
	}
}

func TestStitch_Empty(t *testing.T) {
	got := Merge(nil)
	if got == nil {
		t.Fatal("expected empty statement, got nil")
	}
	if got.HasIncomeData() || len(got.Adjustments) != 0 || len(got.Notes) != 0 {
		t.Errorf("expected empty statement, got %+v", got)
	}
	if got.Currency != models.DefaultCurrency {
		t.Errorf("currency = %q, want default", got.Currency)
	}
}

func TestStitch_FirstNonZeroWins(t *testing.T) {
	tests := []struct {
		name  string
		first float64
		later float64
		want  float64
	}{
		{"zero then value", 0, 100, 100},
		{"value then value", 50, 100, 50},
		{"value then zero", 75, 0, 75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := makeStatement("A", tt.first, 0)
			b := makeStatement("B", tt.later, 0)
			got := Merge([]*models.Statement{a, b})
			if got.IncomeStatement.Revenue != tt.want {
				t.Errorf("revenue = %v, want %v", got.IncomeStatement.Revenue, tt.want)
			}
		})
	}
}

func TestStitch_HeadersListsAndCurrency(t *testing.T) {
	a := makeStatement("", 10, 0)
	a.Notes = []string{"n1"}
	a.Adjustments = []models.Adjustment{{Description: "a1", Amount: 1}}

	b := makeStatement("Beta Inc", 0, 5)
	b.Period = "FY 2024"
	b.Currency = "EUR"
	b.Notes = []string{"n1", "n2"}
	b.Adjustments = []models.Adjustment{{Description: "b1", Amount: -2}}

	got := Merge([]*models.Statement{a, nil, b})

	if got.CompanyName != "Beta Inc" || got.Period != "FY 2024" || got.Currency != "EUR" {
		t.Errorf("headers = %q %q %q", got.CompanyName, got.Period, got.Currency)
	}
	if got.IncomeStatement.Revenue != 10 || got.IncomeStatement.NetIncome != 5 {
		t.Errorf("fields = %+v", got.IncomeStatement)
	}
	if len(got.Notes) != 3 {
		t.Errorf("notes should be concatenated without dedup: %v", got.Notes)
	}
	if len(got.Adjustments) != 2 || got.Adjustments[1].Description != "b1" {
		t.Errorf("adjustments = %+v", got.Adjustments)
	}
}

func TestStitch_DoesNotAliasInputs(t *testing.T) {
	a := makeStatement("A", 10, 0)
	a.Adjustments = []models.Adjustment{{Description: "x", Amount: 1}}
	b := makeStatement("B", 0, 0)

	got := Merge([]*models.Statement{a, b})
	got.Adjustments[0].Amount = 999
	if a.Adjustments[0].Amount != 1 {
		t.Error("merged adjustments alias the input slice")
	}
}

func TestStitch_ConflictAudit(t *testing.T) {
	a := makeStatement("A", 1000, 0)
	b := makeStatement("B", 1200, 0)
	c := makeStatement("C", 1002, 0) // within tolerance

	res := NewZipperEngine().Stitch([]*models.Statement{a, b, c})
	if res.Statement.IncomeStatement.Revenue != 1000 {
		t.Fatalf("audit changed the result: %v", res.Statement.IncomeStatement.Revenue)
	}
	if len(res.Conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %+v", res.Conflicts)
	}
	c0 := res.Conflicts[0]
	if c0.Field != "revenue" || c0.KeptValue != 1000 || c0.Discarded != 1200 || c0.DiscardedSrc != 1 || c0.KeptSource != 0 {
		t.Errorf("conflict = %+v", c0)
	}
	if c0.DeltaPercent != 20 {
		t.Errorf("delta = %v, want 20", c0.DeltaPercent)
	}
}

func TestCompleteness(t *testing.T) {
	if Completeness(models.NewStatement()) != 0 {
		t.Error("empty statement should be 0% complete")
	}
	if got := Completeness(seed.DemoStatement()); got != 1 {
		t.Errorf("demo statement completeness = %v, want 1", got)
	}
}

package valuation

import (
	"errors"
	"math"
	"testing"

	"deal_diligence/pkg/core/seed"
	"deal_diligence/pkg/models"
)

func ptrF(v float64) *float64 { return &v }
func ptrI(v int) *int         { return &v }

func TestCalculateDCF_GrowthFloor(t *testing.T) {
	a := DefaultAssumptions().With(Overrides{GrowthDeclinePerYear: ptrF(0.05)})

	res, err := CalculateDCF(seed.DemoStatement(), a)
	if err != nil {
		t.Fatalf("CalculateDCF failed: %v", err)
	}

	want := []float64{10, 5, 2, 2, 2}
	if len(res.ProjectedYears) != len(want) {
		t.Fatalf("got %d years, want %d", len(res.ProjectedYears), len(want))
	}
	for i, y := range res.ProjectedYears {
		if y.GrowthRate != want[i] {
			t.Errorf("year %d growth = %v, want %v", y.Year, y.GrowthRate, want[i])
		}
		if y.GrowthRate < 2 {
			t.Errorf("year %d growth below floor: %v", y.Year, y.GrowthRate)
		}
	}
}

func TestCalculateDCF_DemoDeal(t *testing.T) {
	stmt := seed.DemoStatement()
	res, err := CalculateDCF(stmt, DefaultAssumptions())
	if err != nil {
		t.Fatalf("CalculateDCF failed: %v", err)
	}

	y1 := res.ProjectedYears[0]
	// 22.4M * 1.10, 15% margin, 25% tax, 5% capex
	if y1.Revenue != 24640000 || y1.EBITDA != 3696000 || y1.FCF != 1540000 {
		t.Errorf("year 1 = %+v", y1)
	}
	if y1.DiscountFactor != 0.8929 {
		t.Errorf("year 1 discount factor = %v", y1.DiscountFactor)
	}
	if res.CurrentEBITDAMargin != 15 {
		t.Errorf("current margin = %v", res.CurrentEBITDAMargin)
	}

	var sum float64
	for _, y := range res.ProjectedYears {
		sum += y.PVFCF
		if y.FCF <= 0 {
			t.Errorf("year %d FCF should be positive, got %v", y.Year, y.FCF)
		}
	}
	if math.Abs(sum-res.SumPVFCF) > 1 {
		t.Errorf("sum of PV %v != SumPVFCF %v", sum, res.SumPVFCF)
	}
	if math.Abs(res.EnterpriseValue-(res.SumPVFCF+res.PVTerminalValue)) > 1 {
		t.Errorf("EV %v != sum PV %v + PV TV %v", res.EnterpriseValue, res.SumPVFCF, res.PVTerminalValue)
	}
	// cash 3.2M, debt 5.0M
	if math.Abs(res.EquityValue-(res.EnterpriseValue-1800000)) > 1 {
		t.Errorf("equity %v inconsistent with EV %v", res.EquityValue, res.EnterpriseValue)
	}
	if res.Assumptions != DefaultAssumptions() {
		t.Errorf("assumptions not echoed: %+v", res.Assumptions)
	}
}

func TestCalculateDCF_InvalidAssumptions(t *testing.T) {
	tests := []struct {
		name    string
		o       Overrides
		wantErr error
	}{
		{"wacc equals terminal growth", Overrides{WACC: ptrF(0.03)}, ErrInvalidDiscountSpread},
		{"wacc below terminal growth", Overrides{WACC: ptrF(0.02)}, ErrInvalidDiscountSpread},
		{"no projection years", Overrides{ProjectionYears: ptrI(0)}, ErrInvalidProjection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CalculateDCF(seed.DemoStatement(), DefaultAssumptions().With(tt.o))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCalculateDCF_ZeroRevenue(t *testing.T) {
	res, err := CalculateDCF(models.NewStatement(), DefaultAssumptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.EnterpriseValue != 0 || res.EVToRevenue != 0 || res.EVToEBITDA != 0 {
		t.Errorf("zero statement should value at zero: %+v", res)
	}
}

func TestAssumptionsWith_KeepsUnsetDefaults(t *testing.T) {
	a := DefaultAssumptions().With(Overrides{TaxRate: ptrF(0.21)})
	if a.TaxRate != 0.21 {
		t.Errorf("tax rate = %v", a.TaxRate)
	}
	if a.WACC != 0.12 || a.ProjectionYears != 5 {
		t.Errorf("defaults lost: %+v", a)
	}
}

package risk

import (
	"fmt"
	"math"

	"deal_diligence/pkg/core/utils"
)

// =============================================================================
// LAYER 2: MULTIVARIATE PROFILE
// =============================================================================
//
// Each benchmark is modelled as uniform on [Low, High] (variance range^2/12),
// independent of the others. The squared standardized distance of the
// company's profile from the benchmark centroid is then approximately
// chi-square with one degree of freedom per benchmark.

const (
	// chi-square(8) upper quantiles
	profileThreshold99  = 20.090
	profileThreshold999 = 26.125
)

// ProfileDistance returns the squared standardized distance of features from
// the benchmark centroid.
func ProfileDistance(features map[string]float64) float64 {
	var d2 float64
	for _, b := range Benchmarks {
		width := b.High - b.Low
		if width <= 0 {
			continue
		}
		variance := width * width / 12
		diff := features[b.Metric] - b.midpoint()
		d2 += diff * diff / variance
	}
	return d2
}

func profileAnomaly(features map[string]float64) (Anomaly, bool) {
	allZero := true
	for _, v := range features {
		if v != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return Anomaly{}, false
	}

	d2 := ProfileDistance(features)
	if math.IsNaN(d2) || d2 <= profileThreshold99 {
		return Anomaly{}, false
	}

	severity := SeverityMedium
	if d2 > profileThreshold999 {
		severity = SeverityHigh
	}
	return Anomaly{
		Anomaly:  "Multivariate Financial Profile Anomaly",
		Severity: severity,
		Category: CategoryStatistical,
		Description: fmt.Sprintf("The combination of financial metrics is statistically unusual compared to "+
			"typical mid-market companies (profile distance: %.2f). This may indicate unique business "+
			"characteristics or data quality issues.", d2),
		Metric:        "multivariate_profile",
		Value:         utils.Round(d2, 3),
		ExpectedRange: fmt.Sprintf("<= %.2f (normal)", profileThreshold99),
	}, true
}

package risk

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"deal_diligence/pkg/core/calc"
	"deal_diligence/pkg/core/utils"
	"deal_diligence/pkg/models"
)

const (
	CategoryStatistical = "statistical"
	CategoryRuleBased   = "rule_based"
)

// Anomaly is a metric that looks implausible for a mid-market company.
type Anomaly struct {
	Anomaly       string   `json:"anomaly"`
	Severity      Severity `json:"severity"`
	Category      string   `json:"category"`
	Description   string   `json:"description"`
	Metric        string   `json:"metric"`
	Value         float64  `json:"value"`
	ExpectedRange string   `json:"expected_range"`
}

// Anomalies is the persisted anomalies result.
type Anomalies []Anomaly

func (Anomalies) Kind() models.AnalysisType { return models.AnalysisAnomalies }

// Benchmark is the typical [Low, High] band of a ratio for mid-market companies.
type Benchmark struct {
	Metric string
	Low    float64
	High   float64
}

// Benchmarks are evaluated in this order.
var Benchmarks = []Benchmark{
	{"gross_margin", 20, 80},
	{"net_margin", -5, 25},
	{"current_ratio", 0.8, 3.0},
	{"debt_to_equity", 0.2, 3.5},
	{"asset_turnover", 0.3, 2.5},
	{"ocf_to_net_income", 0.5, 2.5},
	{"interest_coverage", 1.5, 30},
	{"ebitda_margin", 5, 40},
}

func (b Benchmark) midpoint() float64 { return (b.Low + b.High) / 2 }
func (b Benchmark) halfRange() float64 { return (b.High - b.Low) / 2 }

// AnomalyDetector runs the benchmark range checks, the optional multivariate
// profile check and the hard accounting checks.
type AnomalyDetector struct {
	multivariate bool
}

// NewAnomalyDetector creates a detector; multivariate enables the joint
// profile distance layer.
func NewAnomalyDetector(multivariate bool) *AnomalyDetector {
	return &AnomalyDetector{multivariate: multivariate}
}

// Detect returns all anomalies found. ratios may be nil, in which case every
// ratio reads as zero.
func (d *AnomalyDetector) Detect(stmt *models.Statement, ratios *calc.RatioResult) Anomalies {
	if stmt == nil {
		stmt = models.NewStatement()
	}
	if ratios == nil {
		ratios = &calc.RatioResult{}
	}
	features := featureValues(ratios)

	out := Anomalies{}
	out = append(out, rangeAnomalies(features)...)
	if d.multivariate {
		if a, ok := profileAnomaly(features); ok {
			out = append(out, a)
		}
	}
	out = append(out, ruleAnomalies(stmt, features)...)
	return out
}

func featureValues(r *calc.RatioResult) map[string]float64 {
	return map[string]float64{
		"gross_margin":      r.Profitability.GrossMargin,
		"net_margin":        r.Profitability.NetMargin,
		"ebitda_margin":     r.Profitability.EBITDAMargin,
		"current_ratio":     r.Liquidity.CurrentRatio,
		"debt_to_equity":    r.Leverage.DebtToEquity,
		"asset_turnover":    r.Efficiency.AssetTurnover,
		"ocf_to_net_income": r.CashFlow.OCFToNetIncome,
		"interest_coverage": r.Leverage.InterestCoverage,
	}
}

// =============================================================================
// LAYER 1: BENCHMARK RANGES
// =============================================================================

func rangeAnomalies(features map[string]float64) Anomalies {
	var out Anomalies
	for _, b := range Benchmarks {
		half := b.halfRange()
		if half <= 0 {
			continue
		}
		v := features[b.Metric]
		if v >= b.Low && v <= b.High {
			continue
		}

		z := math.Abs(v-b.midpoint()) / half
		direction := "above"
		if v < b.Low {
			direction = "below"
		}
		label := titleMetric(b.Metric)

		out = append(out, Anomaly{
			Anomaly:       "Unusual " + label,
			Severity:      severityForZ(z),
			Category:      CategoryStatistical,
			Description:   fmt.Sprintf("%s of %.1f is %s the typical range (%s-%s). Z-score: %.1f.", label, v, direction, fmtBound(b.Low), fmtBound(b.High), z),
			Metric:        b.Metric,
			Value:         utils.Round(v, 2),
			ExpectedRange: fmt.Sprintf("%s - %s", fmtBound(b.Low), fmtBound(b.High)),
		})
	}
	return out
}

func severityForZ(z float64) Severity {
	switch {
	case z > 3:
		return SeverityCritical
	case z > 2:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

func titleMetric(metric string) string {
	words := strings.Split(metric, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func fmtBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// =============================================================================
// LAYER 3: ACCOUNTING RULES
// =============================================================================

func ruleAnomalies(stmt *models.Statement, features map[string]float64) Anomalies {
	var out Anomalies
	is := stmt.IncomeStatement
	bs := stmt.BalanceSheet

	if gm := features["gross_margin"]; gm > 95 {
		out = append(out, Anomaly{
			Anomaly:       "Suspiciously High Gross Margin",
			Severity:      SeverityHigh,
			Category:      CategoryRuleBased,
			Description:   fmt.Sprintf("Gross margin of %.1f%% is extremely unusual. Verify COGS classification.", gm),
			Metric:        "gross_margin",
			Value:         gm,
			ExpectedRange: "20-80%",
		})
	}

	if is.Revenue > 0 && is.EBITDA > is.Revenue {
		out = append(out, Anomaly{
			Anomaly:       "EBITDA Exceeds Revenue",
			Severity:      SeverityCritical,
			Category:      CategoryRuleBased,
			Description:   "EBITDA greater than revenue is mathematically impossible. Data error likely.",
			Metric:        "ebitda_vs_revenue",
			Value:         is.EBITDA,
			ExpectedRange: "< " + fmtBound(is.Revenue),
		})
	}

	if bs.TotalAssets > 0 {
		le := bs.TotalLiabilities + bs.TotalEquity
		gap := bs.TotalAssets - le
		if math.Abs(gap) > bs.TotalAssets*0.01 {
			out = append(out, Anomaly{
				Anomaly:  "Balance Sheet Imbalance",
				Severity: SeverityHigh,
				Category: CategoryRuleBased,
				Description: fmt.Sprintf("Assets (%.0f) do not equal Liabilities + Equity (%.0f). Off by %.0f.",
					bs.TotalAssets, le, math.Abs(gap)),
				Metric:        "bs_balance",
				Value:         utils.Round(gap, 0),
				ExpectedRange: "0 (balanced)",
			})
		}
	}

	ocf := stmt.CashFlow.OperatingCF
	if is.NetIncome > 0 && ocf > 0 {
		if ratio := utils.SafeDiv(ocf, is.NetIncome); ratio < 0.3 {
			out = append(out, Anomaly{
				Anomaly:  "Low Cash Conversion",
				Severity: SeverityHigh,
				Category: CategoryRuleBased,
				Description: fmt.Sprintf("OCF/Net Income of %.2f: earnings not converting to cash. "+
					"Possible aggressive revenue recognition or accrual issues.", ratio),
				Metric:        "ocf_to_net_income",
				Value:         utils.Round(ratio, 2),
				ExpectedRange: "0.8 - 1.5",
			})
		}
	}

	return out
}

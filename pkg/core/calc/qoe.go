// Package calc provides the deterministic diligence calculations run on a
// merged statement: quality of earnings, working capital and ratio analysis.
// Every function is pure and safe on zero or missing inputs.
package calc

import (
	"math"

	"deal_diligence/pkg/core/utils"
	"deal_diligence/pkg/models"
)

// =============================================================================
// QUALITY OF EARNINGS
// =============================================================================

// Sustainability buckets the quality score.
type Sustainability string

const (
	SustainabilityHigh   Sustainability = "high"
	SustainabilityMedium Sustainability = "medium"
	SustainabilityLow    Sustainability = "low"
)

const (
	qoeBaseScore          = 80
	qoeUnprofitableOpex   = 15
	qoeHighSustainScore   = 70
	qoeMediumSustainScore = 40
)

// Magnitude tiers are checked top-down; bounds are exclusive.
var qoeMagnitudeTiers = []struct {
	above   float64
	penalty int
}{
	{0.25, 30},
	{0.10, 15},
	{0.05, 5},
}

var qoeCategoryPenalty = map[models.AdjustmentCategory]int{
	models.CategoryNonRecurring:      10,
	models.CategoryRelatedParty:      8,
	models.CategoryOwnerCompensation: 5,
}

// TaggedAdjustment is an adjustment annotated with its EBITDA impact.
type TaggedAdjustment struct {
	Description string                    `json:"description"`
	Amount      float64                   `json:"amount"`
	Category    models.AdjustmentCategory `json:"category"`
	Impact      models.Impact             `json:"impact"`
}

// QoEResult is the quality-of-earnings analysis of one statement.
type QoEResult struct {
	ReportedEBITDA         float64            `json:"reported_ebitda"`
	AdjustedEBITDA         float64            `json:"adjusted_ebitda"`
	TotalAdjustments       float64            `json:"total_adjustments"`
	Adjustments            []TaggedAdjustment `json:"adjustments"`
	QualityScore           int                `json:"quality_score"`
	EarningsSustainability Sustainability     `json:"earnings_sustainability"`
	EBITDAMargin           float64            `json:"ebitda_margin"`
	AdjustedEBITDAMargin   float64            `json:"adjusted_ebitda_margin"`
}

func (QoEResult) Kind() models.AnalysisType { return models.AnalysisQoE }

// AnalyzeQoE rebuilds EBITDA bottom-up (net income + interest + tax +
// depreciation), applies the proposed adjustments and scores how much the
// normalized figure leans on them. The statement is never mutated.
func AnalyzeQoE(stmt *models.Statement) QoEResult {
	if stmt == nil {
		stmt = models.NewStatement()
	}
	is := stmt.IncomeStatement

	reported := is.NetIncome + is.Interest + is.Tax + is.Depreciation

	tagged := make([]TaggedAdjustment, 0, len(stmt.Adjustments))
	var total float64
	for _, adj := range stmt.Adjustments {
		total += adj.Amount
		tagged = append(tagged, TaggedAdjustment{
			Description: adj.Description,
			Amount:      adj.Amount,
			Category:    adj.Category,
			Impact:      adj.Impact(),
		})
	}
	adjusted := reported + total

	score := qualityScore(stmt, reported, total)

	return QoEResult{
		ReportedEBITDA:         utils.Round(reported, 2),
		AdjustedEBITDA:         utils.Round(adjusted, 2),
		TotalAdjustments:       utils.Round(total, 2),
		Adjustments:            tagged,
		QualityScore:           score,
		EarningsSustainability: sustainabilityFor(score),
		EBITDAMargin:           utils.Round(utils.SafeDiv(reported, is.Revenue)*100, 1),
		AdjustedEBITDAMargin:   utils.Round(utils.SafeDiv(adjusted, is.Revenue)*100, 1),
	}
}

func qualityScore(stmt *models.Statement, reported, totalAdj float64) int {
	score := qoeBaseScore

	magnitude := utils.SafeDiv(math.Abs(totalAdj), math.Max(math.Abs(reported), 1))
	for _, tier := range qoeMagnitudeTiers {
		if magnitude > tier.above {
			score -= tier.penalty
			break
		}
	}

	for _, adj := range stmt.Adjustments {
		score -= qoeCategoryPenalty[adj.Category]
	}

	rev := stmt.IncomeStatement.Revenue
	if rev > 0 && rev < stmt.IncomeStatement.OperatingExpenses {
		score -= qoeUnprofitableOpex
	}

	return utils.ClampInt(score, 0, 100)
}

func sustainabilityFor(score int) Sustainability {
	switch {
	case score >= qoeHighSustainScore:
		return SustainabilityHigh
	case score >= qoeMediumSustainScore:
		return SustainabilityMedium
	default:
		return SustainabilityLow
	}
}

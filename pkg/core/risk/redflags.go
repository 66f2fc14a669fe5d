// Package risk turns the merged statement and the calculation results into
// diligence findings: threshold red flags and benchmark anomalies.
package risk

import (
	"fmt"

	"deal_diligence/pkg/core/calc"
	"deal_diligence/pkg/core/utils"
	"deal_diligence/pkg/models"
)

// Severity ranks a finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// RedFlag is a single triggered threshold rule.
type RedFlag struct {
	Flag        string   `json:"flag"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Metric      string   `json:"metric"`
	Value       float64  `json:"value"`
	Threshold   float64  `json:"threshold"`
}

// RedFlags is the persisted red_flags result.
type RedFlags []RedFlag

func (RedFlags) Kind() models.AnalysisType { return models.AnalysisRedFlags }

// flagInputs are the metrics the rules read. Missing upstream results leave
// neutral values that can never trigger a rule.
type flagInputs struct {
	currentRatio     float64
	quickRatio       float64
	debtToEquity     float64
	interestCoverage float64
	grossMargin      float64
	netMargin        float64
	debtToEBITDA     float64
	dso              float64
	ccc              float64
	qualityScore     float64
	revenue          float64
	operatingCF      float64
}

func gatherInputs(stmt *models.Statement, ratios *calc.RatioResult, wc *calc.WorkingCapitalResult, qoe *calc.QoEResult) flagInputs {
	in := flagInputs{
		currentRatio:     99,
		quickRatio:       99,
		interestCoverage: 99,
		grossMargin:      100,
		qualityScore:     100,
	}
	if ratios != nil {
		in.currentRatio = ratios.Liquidity.CurrentRatio
		in.quickRatio = ratios.Liquidity.QuickRatio
		in.debtToEquity = ratios.Leverage.DebtToEquity
		in.interestCoverage = ratios.Leverage.InterestCoverage
		in.grossMargin = ratios.Profitability.GrossMargin
		in.netMargin = ratios.Profitability.NetMargin
		in.debtToEBITDA = ratios.Leverage.DebtToEBITDA
	}
	if wc != nil {
		in.dso = wc.DSO
		in.ccc = wc.CashConversionCycle
	}
	if qoe != nil {
		in.qualityScore = float64(qoe.QualityScore)
	}
	if stmt != nil {
		in.revenue = stmt.IncomeStatement.Revenue
		in.operatingCF = stmt.CashFlow.OperatingCF
	}
	return in
}

type flagRule struct {
	flag      string
	severity  Severity
	metric    string
	threshold float64
	value     func(flagInputs) float64
	triggered func(flagInputs) bool
	describe  func(flagInputs) string
}

// Rules are independent; every triggered rule is reported, in this order.
var flagRules = []flagRule{
	{
		flag: "Low Liquidity", severity: SeverityHigh, metric: "current_ratio", threshold: 1.0,
		value:     func(in flagInputs) float64 { return in.currentRatio },
		triggered: func(in flagInputs) bool { return in.currentRatio < 1.0 },
		describe: func(in flagInputs) string {
			return fmt.Sprintf("Current ratio of %v: liabilities exceed current assets.", in.currentRatio)
		},
	},
	{
		flag: "Excessive Leverage", severity: SeverityHigh, metric: "debt_to_equity", threshold: 3.0,
		value:     func(in flagInputs) float64 { return in.debtToEquity },
		triggered: func(in flagInputs) bool { return in.debtToEquity > 3.0 },
		describe: func(in flagInputs) string {
			return fmt.Sprintf("Debt-to-equity of %v: heavily debt-financed.", in.debtToEquity)
		},
	},
	{
		flag: "Cannot Cover Interest", severity: SeverityHigh, metric: "interest_coverage", threshold: 1.5,
		value:     func(in flagInputs) float64 { return in.interestCoverage },
		triggered: func(in flagInputs) bool { return in.interestCoverage > 0 && in.interestCoverage < 1.5 },
		describe: func(in flagInputs) string {
			return fmt.Sprintf("Interest coverage of %vx: earnings barely cover interest.", in.interestCoverage)
		},
	},
	{
		flag: "Negative Operating Cash Flow", severity: SeverityHigh, metric: "operating_cf", threshold: 0,
		value:     func(in flagInputs) float64 { return in.operatingCF },
		triggered: func(in flagInputs) bool { return in.operatingCF < 0 },
		describe:  func(flagInputs) string { return "Core operations are cash-negative." },
	},
	{
		flag: "Severe Earnings Quality Issues", severity: SeverityHigh, metric: "quality_score", threshold: 30,
		value:     func(in flagInputs) float64 { return in.qualityScore },
		triggered: func(in flagInputs) bool { return in.qualityScore < 30 },
		describe: func(in flagInputs) string {
			return fmt.Sprintf("QoE score %v/100: earnings are unreliable.", in.qualityScore)
		},
	},
	{
		flag: "Slow Collections", severity: SeverityMedium, metric: "dso", threshold: 60,
		value:     func(in flagInputs) float64 { return in.dso },
		triggered: func(in flagInputs) bool { return in.dso > 60 },
		describe: func(in flagInputs) string {
			return fmt.Sprintf("DSO of %.0f days: over 2 months to collect.", in.dso)
		},
	},
	{
		flag: "Long Cash Cycle", severity: SeverityMedium, metric: "cash_conversion_cycle", threshold: 90,
		value:     func(in flagInputs) float64 { return in.ccc },
		triggered: func(in flagInputs) bool { return in.ccc > 90 },
		describe: func(in flagInputs) string {
			return fmt.Sprintf("CCC of %.0f days: significant working capital drag.", in.ccc)
		},
	},
	{
		flag: "Low Gross Margin", severity: SeverityMedium, metric: "gross_margin", threshold: 20,
		value:     func(in flagInputs) float64 { return in.grossMargin },
		triggered: func(in flagInputs) bool { return in.grossMargin < 20 },
		describe: func(in flagInputs) string {
			return fmt.Sprintf("Gross margin of %v%%: thin margins.", in.grossMargin)
		},
	},
	{
		flag: "Net Loss", severity: SeverityMedium, metric: "net_margin", threshold: 0,
		value:     func(in flagInputs) float64 { return in.netMargin },
		triggered: func(in flagInputs) bool { return in.netMargin < 0 },
		describe: func(in flagInputs) string {
			return fmt.Sprintf("Net margin of %v%%: company is unprofitable.", in.netMargin)
		},
	},
	{
		flag: "Earnings Quality Concern", severity: SeverityMedium, metric: "ocf_vs_revenue", threshold: 0,
		value:     func(in flagInputs) float64 { return in.operatingCF },
		triggered: func(in flagInputs) bool { return in.revenue > 0 && in.operatingCF < 0 },
		describe: func(flagInputs) string {
			return "Revenue positive but OCF negative: earnings not converting to cash."
		},
	},
	{
		flag: "High Debt Load", severity: SeverityMedium, metric: "debt_to_ebitda", threshold: 4.0,
		value:     func(in flagInputs) float64 { return in.debtToEBITDA },
		triggered: func(in flagInputs) bool { return in.debtToEBITDA > 4.0 },
		describe: func(in flagInputs) string {
			return fmt.Sprintf("Debt/EBITDA of %vx: would take %.1f years to repay.", in.debtToEBITDA, in.debtToEBITDA)
		},
	},
	{
		flag: "Low Quick Ratio", severity: SeverityLow, metric: "quick_ratio", threshold: 0.5,
		value:     func(in flagInputs) float64 { return in.quickRatio },
		triggered: func(in flagInputs) bool { return in.quickRatio < 0.5 },
		describe: func(in flagInputs) string {
			return fmt.Sprintf("Quick ratio of %v: limited liquid assets.", in.quickRatio)
		},
	},
}

// DetectRedFlags evaluates every threshold rule. Any of ratios, wc or qoe
// may be nil when the corresponding stage failed.
func DetectRedFlags(stmt *models.Statement, ratios *calc.RatioResult, wc *calc.WorkingCapitalResult, qoe *calc.QoEResult) RedFlags {
	in := gatherInputs(stmt, ratios, wc, qoe)

	flags := RedFlags{}
	for _, rule := range flagRules {
		if !rule.triggered(in) {
			continue
		}
		flags = append(flags, RedFlag{
			Flag:        rule.flag,
			Severity:    rule.severity,
			Description: rule.describe(in),
			Metric:      rule.metric,
			Value:       utils.Round(rule.value(in), 2),
			Threshold:   rule.threshold,
		})
	}
	return flags
}

// Package seed holds the demo deal used for local runs, the seed command and
// engine tests.
package seed

import (
	"encoding/json"

	"deal_diligence/pkg/models"
)

// DemoDeal returns the Apex Cloud Solutions acquisition with one document
// whose financial data is already extracted.
func DemoDeal() *models.Deal {
	return &models.Deal{
		Name:          "Apex Cloud Solutions Acquisition",
		TargetCompany: "Apex Cloud Solutions",
		Industry:      "SaaS",
		DealSize:      45000000,
		Status:        models.DealPending,
		Documents: []models.Document{
			{
				Filename:          "apex_financials_fy2025.pdf",
				FilePath:          "seed_data",
				FileType:          "pdf",
				FileSize:          2145000,
				ExtractedText:     "[Seed data: financial statements for Apex Cloud Solutions FY2025]",
				DocType:           "income_statement",
				DocTypeConfidence: 0.94,
				FinancialData:     DemoStatement(),
			},
		},
	}
}

// DemoStatement returns a fresh copy of the Apex FY2025 statement.
func DemoStatement() *models.Statement {
	return &models.Statement{
		CompanyName: "Apex Cloud Solutions",
		Period:      "FY 2025",
		Currency:    "USD",
		IncomeStatement: models.IncomeStatement{
			Revenue:           22400000,
			COGS:              6720000,
			GrossProfit:       15680000,
			OperatingExpenses: 12320000,
			EBITDA:            3360000,
			Depreciation:      890000,
			Interest:          420000,
			Tax:               512000,
			NetIncome:         1538000,
		},
		BalanceSheet: models.BalanceSheet{
			Cash:                    3200000,
			AccountsReceivable:      4800000,
			Inventory:               280000,
			TotalCurrentAssets:      8680000,
			PPE:                     2100000,
			TotalAssets:             14200000,
			AccountsPayable:         1950000,
			ShortTermDebt:           1200000,
			TotalCurrentLiabilities: 4350000,
			LongTermDebt:            3800000,
			TotalLiabilities:        8150000,
			TotalEquity:             6050000,
		},
		CashFlow: models.CashFlow{
			OperatingCF: 2850000,
			InvestingCF: -1400000,
			FinancingCF: -980000,
			NetCF:       470000,
			Capex:       -1200000,
			FCF:         1650000,
		},
		Adjustments: []models.Adjustment{
			{Description: "One-time litigation settlement", Amount: 750000, Category: models.CategoryNonRecurring},
			{Description: "Former CEO consulting fees (above market)", Amount: 320000, Category: models.CategoryOwnerCompensation},
			{Description: "Related party lease above market rate", Amount: -180000, Category: models.CategoryRelatedParty},
			{Description: "COVID-era PPP loan forgiveness", Amount: 200000, Category: models.CategoryNonRecurring},
		},
		Notes: []string{
			"Revenue grew 28% YoY from $17.5M",
			"Top customer represents ~18% of revenue",
			"Company transitioned from perpetual licenses to SaaS in 2023",
		},
	}
}

// DemoInsights is the canned partner memo stored with the demo deal so the
// demo works without any model credentials.
var DemoInsights = json.RawMessage(`{
  "executive_summary": "Apex Cloud Solutions demonstrates strong revenue growth (28% YoY) with healthy SaaS unit economics. Gross margins of 70% are typical for B2B SaaS. However, elevated DSO of 78 days and significant QoE adjustments ($1.09M, 32% of reported EBITDA) warrant attention. The business is fundamentally sound but requires careful examination of customer concentration and working capital management.",
  "key_findings": [
    {"finding": "EBITDA adjustments total $1.09M (32% of reported EBITDA)", "impact": "high", "recommendation": "Negotiate based on adjusted EBITDA of $4.45M. Verify each adjustment independently."},
    {"finding": "DSO of 78 days indicates slow collections", "impact": "medium", "recommendation": "Request AR aging schedule. Investigate enterprise payment terms vs collection issues."},
    {"finding": "Strong operating cash flow of $2.85M with positive FCF", "impact": "low", "recommendation": "Cash generation is healthy. FCF margin of 7.4% should expand as growth moderates."},
    {"finding": "Debt-to-equity of 1.35 is moderate", "impact": "low", "recommendation": "Leverage is manageable. Interest coverage of 8x provides comfortable headroom."},
    {"finding": "Related party lease arrangement flagged", "impact": "medium", "recommendation": "Obtain independent appraisal of lease terms vs market rates."}
  ],
  "risk_assessment": {
    "overall_risk": "medium",
    "financial_risk": "Moderate. Strong growth and margins offset by elevated working capital and QoE adjustments.",
    "operational_risk": "Low to moderate. SaaS transition largely complete, but customer concentration (~18%) should be monitored.",
    "deal_recommendation": "proceed_with_caution"
  },
  "valuation_opinion": "DCF suggests enterprise value of ~$35-40M (EV/Revenue ~1.6-1.8x, EV/EBITDA ~10-12x adjusted). At $45M deal price, the buyer pays a modest premium justified by growth trajectory. Consider earnout structure.",
  "questions_for_management": [
    "Provide the AR aging schedule broken down by customer. What drives the 78-day DSO?",
    "What percentage of revenue is annual vs monthly contracts? What is net revenue retention?",
    "Detail the related party lease. Who is the counterparty and what are comparable market rates?",
    "What is customer churn rate and logo retention over the past 3 years?",
    "Are there pending or threatened litigation matters beyond the settled case?",
    "What capex is maintenance vs discretionary?",
    "Walk us through the SaaS transition. What percentage of revenue is now recurring?"
  ]
}`)

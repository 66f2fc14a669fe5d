// Package classify labels uploaded documents by statement kind using keyword
// frequency in the text plus hints from the filename.
package classify

import (
	"strings"

	"deal_diligence/pkg/core/utils"
)

// DocTypeOther is returned when nothing matches.
const DocTypeOther = "other"

const (
	scanChars        = 5000
	keywordScore     = 2
	typeWordBonus    = 8
	filenameBonus    = 5
	maxConfidence    = 0.95
	confidenceOffset = 0.1
	otherConfidence  = 0.3
)

type docType struct {
	name     string
	keywords []string
	// filename fragments worth an extra bonus for this type
	fileHints []string
}

// Ties go to the earlier entry.
var docTypes = []docType{
	{"income_statement", []string{"revenue", "sales", "cost of goods", "gross profit",
		"operating income", "net income", "ebitda", "expenses",
		"cost of revenue", "operating expenses"}, []string{"income", "p&l", "pnl", "profit"}},
	{"balance_sheet", []string{"assets", "liabilities", "equity", "current assets",
		"accounts receivable", "accounts payable", "retained earnings",
		"stockholders equity", "total assets"}, []string{"balance"}},
	{"cash_flow_statement", []string{"cash flow", "operating activities", "investing activities",
		"financing activities", "net cash", "capital expenditure",
		"cash provided", "cash used"}, []string{"cash"}},
	{"audit_report", []string{"audit", "auditor", "opinion", "material misstatement",
		"reasonable assurance", "going concern", "independent auditor"}, nil},
	{"tax_return", []string{"taxable income", "tax liability", "deduction", "form 1120",
		"schedule", "irs", "tax return"}, nil},
	{"bank_statement", []string{"beginning balance", "ending balance", "deposits",
		"withdrawals", "transaction", "bank statement"}, nil},
	{"accounts_receivable_aging", []string{"aging", "0-30 days", "31-60", "61-90",
		"90+", "receivable", "outstanding", "past due"}, nil},
	{"accounts_payable_aging", []string{"payable aging", "vendor", "due date",
		"invoice", "payable", "supplier"}, nil},
	{"debt_schedule", []string{"principal", "interest rate", "maturity", "loan",
		"credit facility", "amortization", "debt schedule"}, nil},
	{"management_report", []string{"management discussion", "md&a", "outlook",
		"key performance", "kpi", "business review"}, nil},
}

// Classifier assigns a document type and a confidence in [0, 1].
type Classifier interface {
	Classify(text, filename string) (string, float64)
}

// KeywordClassifier is the heuristic Classifier.
type KeywordClassifier struct{}

var _ Classifier = KeywordClassifier{}

// Classify scores every known type and returns the best one. Confidence is
// the winner's share of all points plus a small offset, capped at 0.95.
func (KeywordClassifier) Classify(text, filename string) (string, float64) {
	sample := strings.ToLower(text)
	if len(sample) > scanChars {
		sample = sample[:scanChars]
	}
	name := strings.ToLower(filename)

	best, bestScore, total := DocTypeOther, 0, 0
	for _, dt := range docTypes {
		score := 0
		for _, kw := range dt.keywords {
			if strings.Contains(sample, kw) {
				score += keywordScore
			}
		}
		if containsAny(name, strings.Split(dt.name, "_")) {
			score += typeWordBonus
		}
		if containsAny(name, dt.fileHints) {
			score += filenameBonus
		}

		total += score
		if score > bestScore {
			best, bestScore = dt.name, score
		}
	}

	if bestScore == 0 {
		return DocTypeOther, otherConfidence
	}
	confidence := utils.Round(float64(bestScore)/float64(total)+confidenceOffset, 2)
	if confidence > maxConfidence {
		confidence = maxConfidence
	}
	return best, confidence
}

func containsAny(s string, parts []string) bool {
	for _, p := range parts {
		if p != "" && strings.Contains(s, p) {
			return true
		}
	}
	return false
}

package classify

import (
	"strings"
	"testing"
)

func TestKeywordClassifier_Classify(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		filename string
		wantType string
		wantConf float64
	}{
		{"nothing matches", "lorem ipsum", "scan.pdf", DocTypeOther, 0.3},
		{"filename only, capped", "", "Balance_Sheet_2024.xlsx", "balance_sheet", 0.95},
		{"keyword share", "Revenue and net income grew. The auditor issued an opinion.", "q4.txt", "audit_report", 0.7},
		{"tie keeps earlier type", "", "report.pdf", "audit_report", 0.6},
		{"pnl filename hint", "", "pnl.csv", "income_statement", 0.95},
		{"only first 5000 chars scanned", strings.Repeat("x", 5000) + "revenue", "", DocTypeOther, 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, gotConf := KeywordClassifier{}.Classify(tt.text, tt.filename)
			if gotType != tt.wantType || gotConf != tt.wantConf {
				t.Errorf("Classify() = (%q, %v), want (%q, %v)", gotType, gotConf, tt.wantType, tt.wantConf)
			}
		})
	}
}

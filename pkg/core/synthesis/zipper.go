// Package synthesis implements the "Zipper" merge of per-document statements
// into the single canonical statement a deal is analyzed on.
//
// Core Philosophy: Decoupled from Extraction.
//   - Extraction produces one immutable statement per uploaded document.
//   - Synthesis (this package) is a recomputed view over those statements.
//
// The Zipper rules, applied in document order:
//  1. First Non-Empty Wins: company name, period and currency come from the
//     first document that states them.
//  2. First Non-Zero Wins: each numeric line item takes the first non-zero
//     value; zero means "not reported".
//  3. Append-Only Lists: adjustments and notes are concatenated, no dedup.
//  4. Conflict Detection: a later non-zero value that disagrees with the kept
//     one is logged for audit but never changes the result.
package synthesis

import (
	"math"

	"deal_diligence/pkg/models"
)

// =============================================================================
// CORE DATA STRUCTURES
// =============================================================================

// Conflict records a value discarded because an earlier document already
// supplied the field.
type Conflict struct {
	Section      string  `json:"section"` // e.g. "income_statement"
	Field        string  `json:"field"`   // e.g. "revenue"
	KeptValue    float64 `json:"kept_value"`
	Discarded    float64 `json:"discarded_value"`
	DeltaPercent float64 `json:"delta_percent"`
	KeptSource   int     `json:"kept_source"`   // index of the winning document
	DiscardedSrc int     `json:"discarded_src"` // index of the losing document
}

// MergeResult is the output of the Zipper.
type MergeResult struct {
	Statement    *models.Statement `json:"statement"`
	Conflicts    []Conflict        `json:"conflicts"`
	Completeness float64           `json:"completeness"` // 0-1 share of non-zero line items
}

// =============================================================================
// ZIPPER ENGINE
// =============================================================================

// ZipperEngine is the main synthesizer.
type ZipperEngine struct {
	// Relative difference under which two values are treated as the same
	// figure (rounding between documents), e.g. 0.005 = 0.5%.
	ConflictTolerance float64
}

// NewZipperEngine creates a new ZipperEngine with default settings.
func NewZipperEngine() *ZipperEngine {
	return &ZipperEngine{
		ConflictTolerance: 0.005,
	}
}

// Merge is the package-level shortcut used by callers that do not need the
// audit trail.
func Merge(statements []*models.Statement) *models.Statement {
	return NewZipperEngine().Stitch(statements).Statement
}

// Stitch merges statements in the given order. A single statement is returned
// as-is (same pointer); an empty input yields an empty statement.
func (z *ZipperEngine) Stitch(statements []*models.Statement) *MergeResult {
	if len(statements) == 1 && statements[0] != nil {
		return &MergeResult{
			Statement:    statements[0],
			Conflicts:    []Conflict{},
			Completeness: Completeness(statements[0]),
		}
	}

	merged := &models.Statement{
		Adjustments: []models.Adjustment{},
		Notes:       []string{},
	}
	result := &MergeResult{Statement: merged, Conflicts: []Conflict{}}

	// Which document supplied each field, for conflict provenance.
	owners := make(map[string]int)

	for idx, s := range statements {
		if s == nil {
			continue
		}
		if merged.CompanyName == "" {
			merged.CompanyName = s.CompanyName
		}
		if merged.Period == "" {
			merged.Period = s.Period
		}
		if merged.Currency == "" {
			merged.Currency = s.Currency
		}

		zipSection(z, result, owners, idx, "income_statement", &merged.IncomeStatement, &s.IncomeStatement, models.IncomeFields)
		zipSection(z, result, owners, idx, "balance_sheet", &merged.BalanceSheet, &s.BalanceSheet, models.BalanceFields)
		zipSection(z, result, owners, idx, "cash_flow", &merged.CashFlow, &s.CashFlow, models.CashFlowFields)

		merged.Adjustments = append(merged.Adjustments, s.Adjustments...)
		merged.Notes = append(merged.Notes, s.Notes...)
	}

	if merged.Currency == "" {
		merged.Currency = models.DefaultCurrency
	}
	result.Completeness = Completeness(merged)
	return result
}

// zipSection is generic over the section type so one loop serves all three
// statement sections.
func zipSection[T any](z *ZipperEngine, result *MergeResult, owners map[string]int, idx int, section string, dst, src *T, fields []models.Field[T]) {
	for _, f := range fields {
		incoming := *f.Ref(src)
		if incoming == 0 {
			continue
		}
		key := section + "." + f.Name
		kept := f.Ref(dst)
		if *kept == 0 {
			*kept = incoming
			owners[key] = idx
			continue
		}
		if z.differs(*kept, incoming) {
			result.Conflicts = append(result.Conflicts, Conflict{
				Section:      section,
				Field:        f.Name,
				KeptValue:    *kept,
				Discarded:    incoming,
				DeltaPercent: deltaPercent(*kept, incoming),
				KeptSource:   owners[key],
				DiscardedSrc: idx,
			})
		}
	}
}

func (z *ZipperEngine) differs(kept, incoming float64) bool {
	if kept == incoming {
		return false
	}
	return math.Abs(incoming-kept) > z.ConflictTolerance*math.Abs(kept)
}

func deltaPercent(kept, incoming float64) float64 {
	if kept == 0 {
		return 0
	}
	return math.Round((incoming-kept)/math.Abs(kept)*10000) / 100
}

// Completeness returns the share of non-zero numeric line items.
func Completeness(s *models.Statement) float64 {
	if s == nil {
		return 0
	}
	var filled, total int
	for _, f := range models.IncomeFields {
		total++
		if *f.Ref(&s.IncomeStatement) != 0 {
			filled++
		}
	}
	for _, f := range models.BalanceFields {
		total++
		if *f.Ref(&s.BalanceSheet) != 0 {
			filled++
		}
	}
	for _, f := range models.CashFlowFields {
		total++
		if *f.Ref(&s.CashFlow) != 0 {
			filled++
		}
	}
	return float64(filled) / float64(total)
}

package models

import (
	"encoding/json"
	"time"
)

// DealStatus tracks a deal through the analysis pipeline.
type DealStatus string

const (
	DealPending   DealStatus = "pending"
	DealAnalyzing DealStatus = "analyzing"
	DealCompleted DealStatus = "completed"
	DealFailed    DealStatus = "failed"
)

// Deal is an acquisition target under diligence.
type Deal struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	TargetCompany string     `json:"target_company"`
	Industry      string     `json:"industry"`
	DealSize      float64    `json:"deal_size"`
	Status        DealStatus `json:"status"`
	Documents     []Document `json:"documents"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Document is an uploaded source file attached to a deal.
// FinancialData is written once, the first time extraction succeeds.
type Document struct {
	ID                int64      `json:"id"`
	DealID            int64      `json:"deal_id"`
	Filename          string     `json:"filename"`
	FilePath          string     `json:"file_path"`
	FileType          string     `json:"file_type"`
	FileSize          int64      `json:"file_size"`
	ExtractedText     string     `json:"extracted_text,omitempty"`
	DocType           string     `json:"doc_type,omitempty"`
	DocTypeConfidence float64    `json:"doc_type_confidence,omitempty"`
	FinancialData     *Statement `json:"financial_data,omitempty"`
}

// =============================================================================
// ANALYSIS RECORDS
// =============================================================================

// AnalysisType names one persisted analysis result of a deal.
type AnalysisType string

const (
	AnalysisQoE            AnalysisType = "qoe"
	AnalysisWorkingCapital AnalysisType = "working_capital"
	AnalysisRatios         AnalysisType = "ratios"
	AnalysisDCF            AnalysisType = "dcf"
	AnalysisRedFlags       AnalysisType = "red_flags"
	AnalysisAnomalies      AnalysisType = "anomalies"
	AnalysisAIInsights     AnalysisType = "ai_insights"
)

// AnalysisTypes lists every type in pipeline order.
var AnalysisTypes = []AnalysisType{
	AnalysisQoE,
	AnalysisWorkingCapital,
	AnalysisRatios,
	AnalysisDCF,
	AnalysisRedFlags,
	AnalysisAnomalies,
	AnalysisAIInsights,
}

// ParseAnalysisType validates a type name from an external caller.
func ParseAnalysisType(s string) (AnalysisType, bool) {
	for _, t := range AnalysisTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// AnalysisStatus is the lifecycle of a single AnalysisRecord.
type AnalysisStatus string

const (
	AnalysisPending   AnalysisStatus = "pending"
	AnalysisRunning   AnalysisStatus = "running"
	AnalysisCompleted AnalysisStatus = "completed"
	AnalysisFailed    AnalysisStatus = "failed"
)

// Result is implemented by every engine output that can be persisted.
type Result interface {
	Kind() AnalysisType
}

// AnalysisRecord is unique per (DealID, Type); saving again overwrites it.
// A nil Result means the stage produced nothing (e.g. insights timed out).
type AnalysisRecord struct {
	ID           int64           `json:"id"`
	DealID       int64           `json:"deal_id"`
	Type         AnalysisType    `json:"analysis_type"`
	Status       AnalysisStatus  `json:"status"`
	Result       json.RawMessage `json:"results"`
	ErrorMessage string          `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

// EncodeResult marshals an engine output for storage. A nil result encodes
// to nil so the stored value is SQL NULL / JSON null.
func EncodeResult(r Result) (json.RawMessage, error) {
	if r == nil {
		return nil, nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return nil, nil
	}
	return b, nil
}

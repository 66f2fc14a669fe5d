// Package insights produces the partner-style narrative for a deal from the
// computed analyses. It is the only pipeline stage that depends on an
// external model at analysis time.
package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"deal_diligence/pkg/core/calc"
	"deal_diligence/pkg/core/llm"
	"deal_diligence/pkg/core/logger"
	"deal_diligence/pkg/core/prompt"
	"deal_diligence/pkg/core/risk"
	"deal_diligence/pkg/core/utils"
	"deal_diligence/pkg/core/valuation"
	"deal_diligence/pkg/models"
)

// =============================================================================
// RESULT
// =============================================================================

type KeyFinding struct {
	Finding        string `json:"finding"`
	Impact         string `json:"impact"`
	Recommendation string `json:"recommendation"`
}

type RiskAssessment struct {
	OverallRisk        string `json:"overall_risk"` // low | medium | high
	FinancialRisk      string `json:"financial_risk"`
	OperationalRisk    string `json:"operational_risk"`
	DealRecommendation string `json:"deal_recommendation"` // proceed | proceed_with_caution | significant_concerns
}

// Insights is the ai_insights analysis result.
type Insights struct {
	ExecutiveSummary       string         `json:"executive_summary"`
	KeyFindings            []KeyFinding   `json:"key_findings"`
	RiskAssessment         RiskAssessment `json:"risk_assessment"`
	ValuationOpinion       string         `json:"valuation_opinion"`
	QuestionsForManagement []string       `json:"questions_for_management"`
	// SummaryHTML is the executive summary rendered for report views.
	SummaryHTML string `json:"summary_html,omitempty"`
}

func (Insights) Kind() models.AnalysisType { return models.AnalysisAIInsights }

var (
	validRisk           = map[string]bool{"low": true, "medium": true, "high": true}
	validRecommendation = map[string]bool{"proceed": true, "proceed_with_caution": true, "significant_concerns": true}
)

// ErrEmptyInsights is returned when the reply decodes but says nothing.
var ErrEmptyInsights = errors.New("insights: reply has no executive summary")

// =============================================================================
// GENERATOR
// =============================================================================

// MaxContextChars bounds the analysis context sent to the model.
const MaxContextChars = 10000

// Input gathers whatever the earlier stages produced. Nil fields are sent
// as null.
type Input struct {
	Statement *models.Statement
	QoE       *calc.QoEResult
	Ratios    *calc.RatioResult
	DCF       *valuation.DCFResult
	RedFlags  risk.RedFlags
	Anomalies risk.Anomalies
}

// Generator asks the injected provider for the memo.
type Generator struct {
	Provider llm.Provider
}

func NewGenerator(provider llm.Provider) *Generator {
	return &Generator{Provider: provider}
}

// Generate performs one model call. It has no deadline of its own; callers
// bound it.
func (g *Generator) Generate(ctx context.Context, in Input) (*Insights, error) {
	payload, err := buildContext(in)
	if err != nil {
		return nil, err
	}

	system, user, err := prompt.Get().Render(prompt.InsightsMemo, prompt.Vars{"Payload": payload})
	if err != nil {
		return nil, err
	}

	reply, err := g.Provider.GenerateResponse(ctx, user, g.Provider.AdaptInstructions(system), map[string]interface{}{
		llm.OptJSON:        true,
		llm.OptMaxTokens:   3000,
		llm.OptTemperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("insight generation failed: %w", err)
	}

	var out Insights
	if _, err := utils.SmartParse(reply, &out); err != nil {
		return nil, fmt.Errorf("insight reply unparseable: %w", err)
	}
	if strings.TrimSpace(out.ExecutiveSummary) == "" {
		return nil, ErrEmptyInsights
	}
	normalize(&out)

	if html, err := utils.RenderMarkdown(out.ExecutiveSummary); err == nil {
		out.SummaryHTML = html
	} else {
		logger.Log.WithError(err).Debug("executive summary render failed")
	}
	return &out, nil
}

func buildContext(in Input) (string, error) {
	body, err := json.MarshalIndent(map[string]interface{}{
		"financial_data":      in.Statement,
		"ratios":              in.Ratios,
		"red_flags":           in.RedFlags,
		"anomalies":           in.Anomalies,
		"quality_of_earnings": in.QoE,
		"dcf_valuation":       in.DCF,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode analysis context: %w", err)
	}
	s := string(body)
	if len(s) > MaxContextChars {
		s = s[:MaxContextChars]
	}
	return s, nil
}

// normalize lowercases the enumerated fields and drops values outside them.
func normalize(in *Insights) {
	ra := &in.RiskAssessment
	ra.OverallRisk = strings.ToLower(strings.TrimSpace(ra.OverallRisk))
	if !validRisk[ra.OverallRisk] {
		ra.OverallRisk = ""
	}
	ra.DealRecommendation = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(ra.DealRecommendation), " ", "_"))
	if !validRecommendation[ra.DealRecommendation] {
		ra.DealRecommendation = ""
	}
	if in.KeyFindings == nil {
		in.KeyFindings = []KeyFinding{}
	}
	if in.QuestionsForManagement == nil {
		in.QuestionsForManagement = []string{}
	}
}

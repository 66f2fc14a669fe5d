package insights

import (
	"context"
	"errors"
	"strings"
	"testing"

	"deal_diligence/pkg/core/calc"
	"deal_diligence/pkg/core/seed"
	"deal_diligence/pkg/models"
)

type MockProvider struct {
	GenerateFunc func(ctx context.Context, prompt, systemPrompt string) (string, error)
}

func (m *MockProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	return m.GenerateFunc(ctx, prompt, systemPrompt)
}

func (m *MockProvider) AdaptInstructions(raw string) string { return raw }

func demoInput() Input {
	stmt := seed.DemoStatement()
	qoe := calc.AnalyzeQoE(stmt)
	ratios := calc.CalculateRatios(stmt)
	return Input{Statement: stmt, QoE: &qoe, Ratios: &ratios}
}

func TestGenerate_DecodesMemo(t *testing.T) {
	var prompt string
	p := &MockProvider{GenerateFunc: func(ctx context.Context, pr, sys string) (string, error) {
		prompt = pr
		if !strings.Contains(sys, "questions_for_management") {
			t.Error("system prompt should list the expected keys")
		}
		return string(seed.DemoInsights), nil
	}}

	got, err := NewGenerator(p).Generate(context.Background(), demoInput())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if got.Kind() != models.AnalysisAIInsights {
		t.Errorf("kind = %s", got.Kind())
	}
	if got.RiskAssessment.DealRecommendation != "proceed_with_caution" || got.RiskAssessment.OverallRisk != "medium" {
		t.Errorf("risk assessment = %+v", got.RiskAssessment)
	}
	if len(got.KeyFindings) != 5 || len(got.QuestionsForManagement) != 7 {
		t.Errorf("findings=%d questions=%d", len(got.KeyFindings), len(got.QuestionsForManagement))
	}
	if !strings.HasPrefix(got.SummaryHTML, "<p>Apex Cloud Solutions") {
		t.Errorf("summary html = %q", got.SummaryHTML)
	}
	if !strings.HasPrefix(prompt, "Full analysis data:\n{") || !strings.Contains(prompt, `"quality_of_earnings"`) {
		t.Errorf("prompt = %.80q", prompt)
	}
	if len(prompt) > len("Full analysis data:\n")+MaxContextChars {
		t.Errorf("context not truncated: %d chars", len(prompt))
	}
}

func TestGenerate_NormalizesEnums(t *testing.T) {
	p := &MockProvider{GenerateFunc: func(ctx context.Context, pr, sys string) (string, error) {
		return "```json\n{\"executive_summary\": \"Solid.\", \"risk_assessment\": {\"overall_risk\": \"HIGH\", \"deal_recommendation\": \"walk away\"}}\n```", nil
	}}
	got, err := NewGenerator(p).Generate(context.Background(), Input{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if got.RiskAssessment.OverallRisk != "high" {
		t.Errorf("overall risk = %q", got.RiskAssessment.OverallRisk)
	}
	if got.RiskAssessment.DealRecommendation != "" {
		t.Errorf("unknown recommendation kept: %q", got.RiskAssessment.DealRecommendation)
	}
	if got.KeyFindings == nil || got.QuestionsForManagement == nil {
		t.Error("lists should be empty, not nil")
	}
}

func TestGenerate_Errors(t *testing.T) {
	boom := errors.New("upstream down")
	tests := []struct {
		name  string
		reply string
		err   error
		want  error
	}{
		{"provider error", "", boom, boom},
		{"empty memo", `{"executive_summary": "  "}`, nil, ErrEmptyInsights},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &MockProvider{GenerateFunc: func(ctx context.Context, pr, sys string) (string, error) {
				return tt.reply, tt.err
			}}
			_, err := NewGenerator(p).Generate(context.Background(), Input{})
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

package app

import (
	"context"
	"testing"

	"deal_diligence/pkg/core/config"
	"deal_diligence/pkg/core/insights"
	"deal_diligence/pkg/core/store"
	"deal_diligence/pkg/models"
)

func TestResolveCapabilities(t *testing.T) {
	all := config.Default().Pipeline

	tests := []struct {
		name        string
		p           config.PipelineConfig
		hasProvider bool
		wantAI      bool
		wantMulti   bool
	}{
		{"all on with provider", all, true, true, true},
		{"no provider disables ai stages", all, false, false, true},
		{"multivariate needs anomaly detection", config.PipelineConfig{Multivariate: true, AIExtraction: true}, true, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ResolveCapabilities(tt.p, tt.hasProvider)
			if c.HasAIExtraction != tt.wantAI || c.HasInsights != (tt.p.Insights && tt.wantAI) || c.HasMultivariate != tt.wantMulti {
				t.Errorf("caps = %+v", c)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	db := config.DatabaseConfig{Driver: "sqlite", Path: "x.db", URL: "postgres://h/db"}
	if DSN(db) != "x.db" {
		t.Errorf("sqlite dsn = %q", DSN(db))
	}
	db.Driver = "postgres"
	if DSN(db) != "postgres://h/db" {
		t.Errorf("postgres dsn = %q", DSN(db))
	}
}

func TestBootstrap_MemoryWithoutKeys(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	cfg := config.Default()
	cfg.Database.Driver = "memory"

	a, err := Bootstrap(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	if a.Capabilities.HasAIExtraction || a.Capabilities.HasInsights {
		t.Errorf("ai stages need a provider: %+v", a.Capabilities)
	}
	if !a.Capabilities.HasClassifier || !a.Capabilities.HasAnomalyDetector {
		t.Errorf("local stages should stay on: %+v", a.Capabilities)
	}
}

func TestSeedDemo(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryStore()

	id, err := SeedDemo(ctx, repo)
	if err != nil {
		t.Fatal(err)
	}
	sess, _ := repo.Open(ctx)
	deal, _ := sess.LoadDeal(ctx, id)
	if deal.Status != models.DealCompleted {
		t.Errorf("status = %s", deal.Status)
	}
	rec, err := sess.GetAnalysis(ctx, id, models.AnalysisAIInsights)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Result == nil {
		t.Fatal("demo insights missing")
	}
	list, _ := sess.ListAnalyses(ctx, id)
	if len(list) != len(models.AnalysisTypes) {
		t.Errorf("analyses = %d", len(list))
	}

	memo, err := cannedInsights{}.Generate(ctx, insights.Input{})
	if err != nil || memo.RiskAssessment.DealRecommendation != "proceed_with_caution" {
		t.Errorf("memo = %+v, %v", memo, err)
	}
}

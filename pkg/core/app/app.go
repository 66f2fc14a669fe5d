// Package app wires configuration into the running service: store, model
// routing, extraction chain and orchestrator. Both binaries bootstrap
// through it.
package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"deal_diligence/pkg/core/agent"
	"deal_diligence/pkg/core/classify"
	"deal_diligence/pkg/core/config"
	"deal_diligence/pkg/core/extract"
	"deal_diligence/pkg/core/ingest"
	"deal_diligence/pkg/core/insights"
	"deal_diligence/pkg/core/logger"
	"deal_diligence/pkg/core/pipeline"
	"deal_diligence/pkg/core/prompt"
	"deal_diligence/pkg/core/store"
	"deal_diligence/pkg/core/valuation"
)

type App struct {
	Config       config.Config
	Store        store.Repository
	Agents       *agent.Manager
	Capabilities pipeline.Capabilities
	Orchestrator *pipeline.Orchestrator
}

// Bootstrap builds every long-lived component from cfg. The caller owns
// Close.
func Bootstrap(ctx context.Context, cfg config.Config) (*App, error) {
	if err := logger.Init(cfg.Log.Level, cfg.Log.File); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	if cfg.LLM.PromptDir != "" {
		if err := prompt.LoadFromDirectory(cfg.LLM.PromptDir); err != nil {
			return nil, err
		}
	}

	repo, err := store.New(ctx, cfg.Database.Driver, DSN(cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Database.Driver, err)
	}

	mgr := agent.NewManager(ctx, cfg.LLM.Config)
	caps := ResolveCapabilities(cfg.Pipeline, len(mgr.Available()) > 0)

	var primary extract.Extractor
	if caps.HasAIExtraction {
		ai := extract.NewAIExtractor(mgr.For(agent.RoleExtraction), cfg.LLM.RPM)
		ai.CallTimeout = cfg.LLM.CallDeadline()
		primary = ai
	}
	var gen pipeline.InsightGenerator
	if caps.HasInsights {
		gen = insights.NewGenerator(mgr.For(agent.RoleInsights))
	}

	orch := pipeline.NewOrchestrator(pipeline.Deps{
		Store:          repo,
		Parser:         ingest.NewParser(),
		Extractor:      extract.NewChain(primary, extract.LocalExtractor{}, cfg.LLM.CacheDuration()),
		Classifier:     classify.KeywordClassifier{},
		Insights:       gen,
		Capabilities:   caps,
		Assumptions:    valuation.DefaultAssumptions().With(cfg.DCF),
		InsightTimeout: cfg.Pipeline.InsightDeadline(),
	})

	logger.Log.WithFields(logrus.Fields{
		"store":          cfg.Database.Driver,
		"providers":      mgr.Available(),
		"classifier":     caps.HasClassifier,
		"ai_extraction":  caps.HasAIExtraction,
		"anomalies":      caps.HasAnomalyDetector,
		"multivariate":   caps.HasMultivariate,
		"insights":       caps.HasInsights,
		"insight_budget": cfg.Pipeline.InsightDeadline(),
	}).Info("service bootstrapped")

	return &App{
		Config:       cfg,
		Store:        repo,
		Agents:       mgr,
		Capabilities: caps,
		Orchestrator: orch,
	}, nil
}

func (a *App) Close() {
	a.Store.Close()
}

// ResolveCapabilities applies the configured switches. AI-backed stages
// additionally need at least one provider with credentials.
func ResolveCapabilities(p config.PipelineConfig, hasProvider bool) pipeline.Capabilities {
	return pipeline.Capabilities{
		HasClassifier:      p.Classifier,
		HasAIExtraction:    p.AIExtraction && hasProvider,
		HasAnomalyDetector: p.AnomalyDetect,
		HasMultivariate:    p.AnomalyDetect && p.Multivariate,
		HasInsights:        p.Insights && hasProvider,
	}
}

// DSN picks the connection string for the configured driver.
func DSN(db config.DatabaseConfig) string {
	switch db.Driver {
	case "postgres":
		return db.URL
	case "sqlite":
		return db.Path
	default:
		return ""
	}
}

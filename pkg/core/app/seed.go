package app

import (
	"context"
	"encoding/json"
	"fmt"

	"deal_diligence/pkg/core/insights"
	"deal_diligence/pkg/core/pipeline"
	"deal_diligence/pkg/core/seed"
	"deal_diligence/pkg/core/store"
)

// cannedInsights replays the stored demo memo instead of calling a model.
type cannedInsights struct{}

func (cannedInsights) Generate(context.Context, insights.Input) (*insights.Insights, error) {
	var memo insights.Insights
	if err := json.Unmarshal(seed.DemoInsights, &memo); err != nil {
		return nil, err
	}
	return &memo, nil
}

// SeedDemo stores the demo deal and computes all of its analyses offline,
// so the deal is complete without model credentials.
func SeedDemo(ctx context.Context, repo store.Repository) (int64, error) {
	sess, err := repo.Open(ctx)
	if err != nil {
		return 0, err
	}
	id, err := sess.CreateDeal(ctx, seed.DemoDeal())
	sess.Close()
	if err != nil {
		return 0, err
	}

	orch := pipeline.NewOrchestrator(pipeline.Deps{
		Store:    repo,
		Insights: cannedInsights{},
		Capabilities: pipeline.Capabilities{
			HasAnomalyDetector: true,
			HasMultivariate:    true,
			HasInsights:        true,
		},
	})
	if err := orch.Run(ctx, id); err != nil {
		return id, fmt.Errorf("failed to compute demo analyses: %w", err)
	}
	return id, nil
}

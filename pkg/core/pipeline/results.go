package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"deal_diligence/pkg/models"
)

// DealResults maps every analysis type to its stored result. Types that were
// not produced, failed or carry no result map to JSON null.
type DealResults map[models.AnalysisType]json.RawMessage

// Results collects the latest result of each analysis type for a deal.
func (o *Orchestrator) Results(ctx context.Context, dealID int64) (DealResults, error) {
	sess, err := o.repo.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open store session: %w", err)
	}
	defer sess.Close()

	if _, err := sess.LoadDeal(ctx, dealID); err != nil {
		return nil, err
	}
	records, err := sess.ListAnalyses(ctx, dealID)
	if err != nil {
		return nil, err
	}

	out := make(DealResults, len(models.AnalysisTypes))
	for _, t := range models.AnalysisTypes {
		out[t] = nil
	}
	for _, rec := range records {
		if rec.Status == models.AnalysisCompleted && len(rec.Result) > 0 {
			out[rec.Type] = rec.Result
		}
	}
	return out, nil
}

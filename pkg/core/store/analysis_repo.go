package store

import (
	"context"
	"fmt"

	"deal_diligence/pkg/models"
)

// UpsertAnalysis writes one analysis record. It uses an upsert strategy
// keyed by (deal_id, analysis_type), so the last writer wins.
func (s *sqlSession) UpsertAnalysis(ctx context.Context, rec *models.AnalysisRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now()
	}
	var completed any
	if rec.CompletedAt != nil {
		completed = s.q.timeArg(rec.CompletedAt.UTC())
	}

	query := `
		INSERT INTO analyses (deal_id, analysis_type, status, results, error_message, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (deal_id, analysis_type)
		DO UPDATE SET
			status = EXCLUDED.status,
			results = EXCLUDED.results,
			error_message = EXCLUDED.error_message,
			completed_at = EXCLUDED.completed_at
		RETURNING id`

	err := s.q.queryRow(ctx, query, rec.DealID, string(rec.Type), string(rec.Status), jsonArg(rec.Result),
		nullString(rec.ErrorMessage), s.q.timeArg(rec.CreatedAt), completed).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to save %s analysis for deal %d: %w", rec.Type, rec.DealID, err)
	}
	return nil
}

const analysisColumns = `id, deal_id, analysis_type, status, results, COALESCE(error_message, ''), created_at, completed_at`

func (s *sqlSession) ListAnalyses(ctx context.Context, dealID int64) ([]models.AnalysisRecord, error) {
	rows, err := s.q.query(ctx, `SELECT `+analysisColumns+` FROM analyses WHERE deal_id = $1 ORDER BY id`, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses for deal %d: %w", dealID, err)
	}
	defer rows.Close()

	out := []models.AnalysisRecord{}
	for rows.Next() {
		rec, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (s *sqlSession) GetAnalysis(ctx context.Context, dealID int64, typ models.AnalysisType) (*models.AnalysisRecord, error) {
	row := s.q.queryRow(ctx, `SELECT `+analysisColumns+` FROM analyses WHERE deal_id = $1 AND analysis_type = $2`,
		dealID, string(typ))
	rec, err := scanAnalysis(row)
	if err != nil {
		if s.q.isNoRows(err) {
			return nil, fmt.Errorf("%s analysis for deal %d: %w", typ, dealID, ErrNotFound)
		}
		return nil, err
	}
	return rec, nil
}

func scanAnalysis(row rowScanner) (*models.AnalysisRecord, error) {
	var (
		rec       models.AnalysisRecord
		results   []byte
		created   timeScan
		completed timeScan
	)
	if err := row.Scan(&rec.ID, &rec.DealID, &rec.Type, &rec.Status, &results, &rec.ErrorMessage, &created, &completed); err != nil {
		return nil, err
	}
	if len(results) > 0 {
		rec.Result = append([]byte(nil), results...)
	}
	rec.CreatedAt = created.t
	rec.CompletedAt = completed.ptr()
	return &rec, nil
}

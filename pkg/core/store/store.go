// Package store persists deals, documents and analysis records.
//
// A Repository is opened once per process; each pipeline job opens its own
// Session and closes it when the job ends. Every write commits on its own,
// so a job that stops midway leaves the stages it finished in place.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"deal_diligence/pkg/models"
)

// ErrNotFound is returned when a deal, document or analysis does not exist.
var ErrNotFound = errors.New("store: not found")

type Repository interface {
	Open(ctx context.Context) (Session, error)
	Close()
}

// Session is the per-job persistence handle used by the pipeline and the API.
type Session interface {
	// LoadDeal returns the deal with its documents in upload order.
	LoadDeal(ctx context.Context, dealID int64) (*models.Deal, error)
	CreateDeal(ctx context.Context, deal *models.Deal) (int64, error)
	SetDealStatus(ctx context.Context, dealID int64, status models.DealStatus) error
	// FindStaleDeals lists deals stuck in status since before cutoff.
	FindStaleDeals(ctx context.Context, status models.DealStatus, cutoff time.Time) ([]int64, error)

	SaveDocumentText(ctx context.Context, docID int64, text string) error
	SaveDocumentClassification(ctx context.Context, docID int64, docType string, confidence float64) error
	// SaveDocumentExtraction stores the statement only if none is stored yet.
	SaveDocumentExtraction(ctx context.Context, docID int64, stmt *models.Statement) error

	// UpsertAnalysis replaces the record with the same (DealID, Type).
	UpsertAnalysis(ctx context.Context, rec *models.AnalysisRecord) error
	ListAnalyses(ctx context.Context, dealID int64) ([]models.AnalysisRecord, error)
	GetAnalysis(ctx context.Context, dealID int64, typ models.AnalysisType) (*models.AnalysisRecord, error)

	Close() error
}

// New opens the repository for driver: postgres (dsn is a URL), sqlite (dsn
// is a file path) or memory.
func New(ctx context.Context, driver, dsn string) (Repository, error) {
	switch driver {
	case "postgres":
		return NewPostgresStore(ctx, dsn)
	case "sqlite":
		return NewSQLiteStore(ctx, dsn)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"deal_diligence/pkg/models"
)

// MemoryStore keeps everything in process. Values are copied in and out so
// callers never share state with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	nextID   int64
	deals    map[int64]*models.Deal
	docs     map[int64]*models.Document
	analyses map[int64]map[models.AnalysisType]*models.AnalysisRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		deals:    make(map[int64]*models.Deal),
		docs:     make(map[int64]*models.Document),
		analyses: make(map[int64]map[models.AnalysisType]*models.AnalysisRecord),
	}
}

func (m *MemoryStore) Open(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return memorySession{m}, nil
}

func (m *MemoryStore) Close() {}

// Backdate moves a deal's updated_at; tests use it to fake a stuck job.
func (m *MemoryStore) Backdate(dealID int64, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.deals[dealID]; ok {
		d.UpdatedAt = at.UTC()
	}
}

func (m *MemoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

type memorySession struct {
	m *MemoryStore
}

func (s memorySession) Close() error { return nil }

func (s memorySession) LoadDeal(ctx context.Context, dealID int64) (*models.Deal, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	d, ok := s.m.deals[dealID]
	if !ok {
		return nil, fmt.Errorf("deal %d: %w", dealID, ErrNotFound)
	}
	out := *d
	out.Documents = []models.Document{}
	for _, doc := range s.m.docs {
		if doc.DealID == dealID {
			out.Documents = append(out.Documents, copyDocument(doc))
		}
	}
	sort.Slice(out.Documents, func(i, j int) bool { return out.Documents[i].ID < out.Documents[j].ID })
	return &out, nil
}

func (s memorySession) CreateDeal(ctx context.Context, deal *models.Deal) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	ts := now()
	if deal.Status == "" {
		deal.Status = models.DealPending
	}
	deal.ID = s.m.id()
	deal.CreatedAt, deal.UpdatedAt = ts, ts

	stored := *deal
	stored.Documents = nil
	s.m.deals[deal.ID] = &stored

	for i := range deal.Documents {
		doc := &deal.Documents[i]
		doc.ID = s.m.id()
		doc.DealID = deal.ID
		c := copyDocument(doc)
		s.m.docs[doc.ID] = &c
	}
	return deal.ID, nil
}

func (s memorySession) SetDealStatus(ctx context.Context, dealID int64, status models.DealStatus) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	d, ok := s.m.deals[dealID]
	if !ok {
		return fmt.Errorf("deal %d: %w", dealID, ErrNotFound)
	}
	d.Status = status
	d.UpdatedAt = now()
	return nil
}

func (s memorySession) FindStaleDeals(ctx context.Context, status models.DealStatus, cutoff time.Time) ([]int64, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	var ids []int64
	for id, d := range s.m.deals {
		if d.Status == status && d.UpdatedAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s memorySession) SaveDocumentText(ctx context.Context, docID int64, text string) error {
	return s.withDocument(docID, func(d *models.Document) { d.ExtractedText = text })
}

func (s memorySession) SaveDocumentClassification(ctx context.Context, docID int64, docType string, confidence float64) error {
	return s.withDocument(docID, func(d *models.Document) {
		d.DocType = docType
		d.DocTypeConfidence = confidence
	})
}

func (s memorySession) SaveDocumentExtraction(ctx context.Context, docID int64, stmt *models.Statement) error {
	return s.withDocument(docID, func(d *models.Document) {
		if d.FinancialData == nil && stmt != nil {
			d.FinancialData = stmt.Clone()
		}
	})
}

func (s memorySession) withDocument(docID int64, fn func(*models.Document)) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	d, ok := s.m.docs[docID]
	if !ok {
		return fmt.Errorf("document %d: %w", docID, ErrNotFound)
	}
	fn(d)
	return nil
}

func (s memorySession) UpsertAnalysis(ctx context.Context, rec *models.AnalysisRecord) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if _, ok := s.m.deals[rec.DealID]; !ok {
		return fmt.Errorf("deal %d: %w", rec.DealID, ErrNotFound)
	}
	byType := s.m.analyses[rec.DealID]
	if byType == nil {
		byType = make(map[models.AnalysisType]*models.AnalysisRecord)
		s.m.analyses[rec.DealID] = byType
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now()
	}
	if prev, ok := byType[rec.Type]; ok {
		rec.ID = prev.ID
		rec.CreatedAt = prev.CreatedAt
	} else {
		rec.ID = s.m.id()
	}
	c := copyRecord(rec)
	byType[rec.Type] = &c
	return nil
}

func (s memorySession) ListAnalyses(ctx context.Context, dealID int64) ([]models.AnalysisRecord, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	out := []models.AnalysisRecord{}
	for _, rec := range s.m.analyses[dealID] {
		out = append(out, copyRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s memorySession) GetAnalysis(ctx context.Context, dealID int64, typ models.AnalysisType) (*models.AnalysisRecord, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	rec, ok := s.m.analyses[dealID][typ]
	if !ok {
		return nil, fmt.Errorf("%s analysis for deal %d: %w", typ, dealID, ErrNotFound)
	}
	c := copyRecord(rec)
	return &c, nil
}

func copyDocument(d *models.Document) models.Document {
	c := *d
	if d.FinancialData != nil {
		c.FinancialData = d.FinancialData.Clone()
	}
	return c
}

func copyRecord(r *models.AnalysisRecord) models.AnalysisRecord {
	c := *r
	if r.Result != nil {
		c.Result = append([]byte(nil), r.Result...)
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		c.CompletedAt = &t
	}
	return c
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"deal_diligence/pkg/models"
)

// =============================================================================
// DIALECT PLUMBING
// =============================================================================

// rowScanner is satisfied by both pgx.Row and *sql.Row.
type rowScanner interface {
	Scan(dest ...any) error
}

// rowsIter is satisfied by pgx.Rows and by sqlRows.
type rowsIter interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// querier hides the driver behind the three calls the queries need. Queries
// are written with $n placeholders.
type querier interface {
	exec(ctx context.Context, q string, args ...any) (int64, error)
	queryRow(ctx context.Context, q string, args ...any) rowScanner
	query(ctx context.Context, q string, args ...any) (rowsIter, error)
	isNoRows(err error) bool
	// timeArg converts a timestamp parameter for the driver.
	timeArg(t time.Time) any
	release() error
}

// sqlSession implements Session for both SQL backends.
type sqlSession struct {
	q querier
}

var _ Session = (*sqlSession)(nil)

func (s *sqlSession) Close() error { return s.q.release() }

// =============================================================================
// DEALS & DOCUMENTS
// =============================================================================

func (s *sqlSession) LoadDeal(ctx context.Context, dealID int64) (*models.Deal, error) {
	d := models.Deal{ID: dealID}
	var created, updated timeScan
	err := s.q.queryRow(ctx, `
		SELECT name, target_company, industry, deal_size, status, created_at, updated_at
		FROM deals WHERE id = $1`, dealID).
		Scan(&d.Name, &d.TargetCompany, &d.Industry, &d.DealSize, &d.Status, &created, &updated)
	if err != nil {
		if s.q.isNoRows(err) {
			return nil, fmt.Errorf("deal %d: %w", dealID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load deal %d: %w", dealID, err)
	}
	d.CreatedAt, d.UpdatedAt = created.t, updated.t

	rows, err := s.q.query(ctx, `
		SELECT id, filename, file_path, file_type, file_size,
		       COALESCE(extracted_text, ''), COALESCE(doc_type, ''), COALESCE(doc_type_confidence, 0),
		       financial_data
		FROM documents WHERE deal_id = $1 ORDER BY id`, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to load documents of deal %d: %w", dealID, err)
	}
	defer rows.Close()

	d.Documents = []models.Document{}
	for rows.Next() {
		doc := models.Document{DealID: dealID}
		var data []byte
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.FilePath, &doc.FileType, &doc.FileSize,
			&doc.ExtractedText, &doc.DocType, &doc.DocTypeConfidence, &data); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		if len(data) > 0 {
			stmt, err := models.ParseStatement(data)
			if err != nil {
				return nil, fmt.Errorf("document %d has corrupt financial data: %w", doc.ID, err)
			}
			doc.FinancialData = stmt
		}
		d.Documents = append(d.Documents, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *sqlSession) CreateDeal(ctx context.Context, deal *models.Deal) (int64, error) {
	ts := now()
	if deal.Status == "" {
		deal.Status = models.DealPending
	}
	var id int64
	err := s.q.queryRow(ctx, `
		INSERT INTO deals (name, target_company, industry, deal_size, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6) RETURNING id`,
		deal.Name, deal.TargetCompany, deal.Industry, deal.DealSize, string(deal.Status), s.q.timeArg(ts)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create deal: %w", err)
	}
	deal.ID, deal.CreatedAt, deal.UpdatedAt = id, ts, ts

	for i := range deal.Documents {
		doc := &deal.Documents[i]
		data, err := encodeStatement(doc.FinancialData)
		if err != nil {
			return 0, err
		}
		err = s.q.queryRow(ctx, `
			INSERT INTO documents (deal_id, filename, file_path, file_type, file_size,
			                       extracted_text, doc_type, doc_type_confidence, financial_data)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
			id, doc.Filename, doc.FilePath, doc.FileType, doc.FileSize,
			nullString(doc.ExtractedText), nullString(doc.DocType), doc.DocTypeConfidence, data).Scan(&doc.ID)
		if err != nil {
			return 0, fmt.Errorf("failed to create document %s: %w", doc.Filename, err)
		}
		doc.DealID = id
	}
	return id, nil
}

func (s *sqlSession) SetDealStatus(ctx context.Context, dealID int64, status models.DealStatus) error {
	n, err := s.q.exec(ctx, `UPDATE deals SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), s.q.timeArg(now()), dealID)
	if err != nil {
		return fmt.Errorf("failed to set deal %d status: %w", dealID, err)
	}
	if n == 0 {
		return fmt.Errorf("deal %d: %w", dealID, ErrNotFound)
	}
	return nil
}

func (s *sqlSession) FindStaleDeals(ctx context.Context, status models.DealStatus, cutoff time.Time) ([]int64, error) {
	rows, err := s.q.query(ctx, `SELECT id FROM deals WHERE status = $1 AND updated_at < $2 ORDER BY id`,
		string(status), s.q.timeArg(cutoff.UTC()))
	if err != nil {
		return nil, fmt.Errorf("failed to query stale deals: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *sqlSession) SaveDocumentText(ctx context.Context, docID int64, text string) error {
	return s.updateDocument(ctx, docID, `UPDATE documents SET extracted_text = $1 WHERE id = $2`, text, docID)
}

func (s *sqlSession) SaveDocumentClassification(ctx context.Context, docID int64, docType string, confidence float64) error {
	return s.updateDocument(ctx, docID, `UPDATE documents SET doc_type = $1, doc_type_confidence = $2 WHERE id = $3`,
		docType, confidence, docID)
}

func (s *sqlSession) SaveDocumentExtraction(ctx context.Context, docID int64, stmt *models.Statement) error {
	data, err := encodeStatement(stmt)
	if err != nil {
		return err
	}
	_, err = s.q.exec(ctx, `UPDATE documents SET financial_data = $1 WHERE id = $2 AND financial_data IS NULL`, data, docID)
	if err != nil {
		return fmt.Errorf("failed to save extraction for document %d: %w", docID, err)
	}
	return nil
}

func (s *sqlSession) updateDocument(ctx context.Context, docID int64, q string, args ...any) error {
	n, err := s.q.exec(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("failed to update document %d: %w", docID, err)
	}
	if n == 0 {
		return fmt.Errorf("document %d: %w", docID, ErrNotFound)
	}
	return nil
}

// =============================================================================
// VALUE HELPERS
// =============================================================================

func encodeStatement(stmt *models.Statement) (any, error) {
	if stmt == nil {
		return nil, nil
	}
	b, err := json.Marshal(stmt)
	if err != nil {
		return nil, fmt.Errorf("failed to encode statement: %w", err)
	}
	return string(b), nil
}

func jsonArg(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// timeScan accepts the timestamp shapes both drivers hand back: time.Time,
// or text for SQLite columns it did not convert.
type timeScan struct {
	t     time.Time
	valid bool
}

var timeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (ts *timeScan) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*ts = timeScan{}
		return nil
	case time.Time:
		*ts = timeScan{t: v.UTC(), valid: true}
		return nil
	case int64:
		*ts = timeScan{t: time.Unix(v, 0).UTC(), valid: true}
		return nil
	case []byte:
		return ts.parse(string(v))
	case string:
		return ts.parse(v)
	}
	return fmt.Errorf("unsupported timestamp type %T", src)
}

func (ts *timeScan) parse(s string) error {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*ts = timeScan{t: t.UTC(), valid: true}
			return nil
		}
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		*ts = timeScan{t: time.Unix(sec, 0).UTC(), valid: true}
		return nil
	}
	return fmt.Errorf("unparseable timestamp %q", s)
}

func (ts timeScan) ptr() *time.Time {
	if !ts.valid {
		return nil
	}
	t := ts.t
	return &t
}

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the production Repository backed by its own pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore initializes the pool and applies the schema.
func NewPostgresStore(ctx context.Context, dbURL string) (*PostgresStore, error) {
	p, err := newPool(ctx, dbURL)
	if err != nil {
		return nil, err
	}
	if _, err := p.Exec(ctx, postgresSchema); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &PostgresStore{pool: p}, nil
}

// Open pins one pooled connection for the lifetime of the session.
func (s *PostgresStore) Open(ctx context.Context) (Session, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return &sqlSession{q: &pgQuerier{conn: conn}}, nil
}

func (s *PostgresStore) Close() { s.pool.Close() }

type pgQuerier struct {
	conn *pgxpool.Conn
}

func (p *pgQuerier) exec(ctx context.Context, q string, args ...any) (int64, error) {
	tag, err := p.conn.Exec(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (p *pgQuerier) queryRow(ctx context.Context, q string, args ...any) rowScanner {
	return p.conn.QueryRow(ctx, q, args...)
}

func (p *pgQuerier) query(ctx context.Context, q string, args ...any) (rowsIter, error) {
	return p.conn.Query(ctx, q, args...)
}

func (p *pgQuerier) isNoRows(err error) bool { return errors.Is(err, pgx.ErrNoRows) }

func (p *pgQuerier) timeArg(t time.Time) any { return t }

func (p *pgQuerier) release() error {
	p.conn.Release()
	return nil
}

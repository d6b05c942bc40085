package callbacks

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists callback requests in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	stmt := `CREATE TABLE IF NOT EXISTS callback_requests (
		id BIGSERIAL PRIMARY KEY,
		caller_name TEXT,
		caller_phone TEXT NOT NULL,
		material_description TEXT,
		notes TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`
	if _, err := pool.Exec(ctx, stmt); err != nil {
		return nil, fmt.Errorf("init callback_requests schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Save(ctx context.Context, req Request) (Request, error) {
	if req.Status == "" {
		req.Status = "pending"
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO callback_requests (caller_name, caller_phone, material_description, notes, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		req.CallerName, req.CallerPhone, req.MaterialDescription, req.Notes, req.Status, req.CreatedAt,
	).Scan(&req.ID)
	if err != nil {
		return Request{}, fmt.Errorf("save callback request: %w", err)
	}
	return req, nil
}

func (s *PostgresStore) Close() error {
	// Pool lifetime is owned by the caller; it is shared with other stores.
	return nil
}

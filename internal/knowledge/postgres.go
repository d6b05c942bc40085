package knowledge

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore answers material queries from the pricing and FAQ tables.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if err := initSchema(ctx, pool); err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS material_pricing (
			id BIGSERIAL PRIMARY KEY,
			question TEXT NOT NULL,
			intent TEXT NOT NULL DEFAULT '',
			answer_voice TEXT NOT NULL DEFAULT '',
			answer_long TEXT NOT NULL DEFAULT '',
			priority INT NOT NULL DEFAULT 0,
			active BOOLEAN NOT NULL DEFAULT TRUE
		);`,
		`CREATE TABLE IF NOT EXISTS recycle_knowledge (
			id BIGSERIAL PRIMARY KEY,
			question TEXT NOT NULL,
			intent TEXT NOT NULL DEFAULT '',
			answer_voice TEXT NOT NULL DEFAULT '',
			answer_long TEXT NOT NULL DEFAULT '',
			priority INT NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		);`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) FindTop(ctx context.Context, table Table, query string) (Row, error) {
	activeColumn := "active"
	if table == TableKnowledge {
		activeColumn = "is_active"
	}
	// Table and column names come from the Table constants above, never
	// from the query string; only the pattern is a bind parameter.
	sql := fmt.Sprintf(
		`SELECT id, question, intent, answer_voice, answer_long, priority
		 FROM %s
		 WHERE (question ILIKE $1 OR intent ILIKE $1) AND %s = TRUE
		 ORDER BY priority DESC
		 LIMIT 1`, string(table), activeColumn)

	var row Row
	err := s.pool.QueryRow(ctx, sql, "%"+query+"%").Scan(
		&row.ID, &row.Question, &row.Intent, &row.AnswerVoice, &row.AnswerLong, &row.Priority,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Row{}, ErrNoMatch
	}
	if err != nil {
		return Row{}, fmt.Errorf("query %s: %w", table, err)
	}
	return row, nil
}

func (s *PostgresStore) Close() error {
	// Pool lifetime is owned by the caller; it is shared with other stores.
	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS documents (
	seq        BIGSERIAL PRIMARY KEY,
	kind       TEXT NOT NULL,
	id         TEXT NOT NULL,
	body       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (kind, id)
)`

// uniqueViolation is PostgreSQL's unique_violation code.
const uniqueViolation = "23505"

type postgresDriver struct {
	db *pgxpool.Pool
}

// Connect opens a pgx pool for dbURL.
func Connect(ctx context.Context, dbURL string, opts ...Option) (*pgxpool.Pool, error) {
	s := newSettings(opts)
	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = s.maxConns
	cfg.MaxConnLifetime = s.maxConnLifetime
	return pgxpool.NewWithConfig(ctx, cfg)
}

// OpenPostgres connects to dbURL and returns a PostgreSQL-backed Store.
func OpenPostgres(ctx context.Context, dbURL string, opts ...Option) (*Store, error) {
	pool, err := Connect(ctx, dbURL, opts...)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create documents table: %w", err)
	}
	return newStore(&postgresDriver{db: pool}), nil
}

func (d *postgresDriver) get(ctx context.Context, kind, id string) ([]byte, error) {
	var body []byte
	err := d.db.QueryRow(ctx, `SELECT body FROM documents WHERE kind = $1 AND id = $2`, kind, id).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select document: %w", err)
	}
	return body, nil
}

func (d *postgresDriver) list(ctx context.Context, kind string) ([][]byte, error) {
	rows, err := d.db.Query(ctx, `SELECT body FROM documents WHERE kind = $1 ORDER BY seq`, kind)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, body)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}
	return out, nil
}

func (d *postgresDriver) insert(ctx context.Context, kind, id string, doc []byte) error {
	_, err := d.db.Exec(ctx, `INSERT INTO documents (kind, id, body) VALUES ($1, $2, $3)`, kind, id, doc)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// update locks the row with SELECT ... FOR UPDATE so concurrent writers to
// the same entity serialize across processes.
func (d *postgresDriver) update(ctx context.Context, kind, id string, fn func([]byte) ([]byte, error)) ([]byte, error) {
	var out []byte
	err := d.execTx(ctx, func(tx pgx.Tx) error {
		var body []byte
		err := tx.QueryRow(ctx, `SELECT body FROM documents WHERE kind = $1 AND id = $2 FOR UPDATE`, kind, id).Scan(&body)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("select document: %w", err)
		}

		next, err := fn(body)
		if err != nil {
			return err
		}
		if next == nil {
			out = body
			return nil
		}
		if _, err := tx.Exec(ctx,
			`UPDATE documents SET body = $3, updated_at = now() WHERE kind = $1 AND id = $2`,
			kind, id, next); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		out = next
		return nil
	})
	return out, err
}

func (d *postgresDriver) remove(ctx context.Context, kind, id string) error {
	tag, err := d.db.Exec(ctx, `DELETE FROM documents WHERE kind = $1 AND id = $2`, kind, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *postgresDriver) execTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := d.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (d *postgresDriver) close() error {
	d.db.Close()
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	kind       TEXT NOT NULL,
	id         TEXT NOT NULL,
	body       TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (kind, id)
);`

type sqliteDriver struct {
	db *sql.DB
}

// OpenSQLite opens (and creates if needed) a SQLite-backed Store at path.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; read-modify-write transactions serialize here.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create documents table: %w", err)
	}
	return newStore(&sqliteDriver{db: db}), nil
}

func (d *sqliteDriver) get(ctx context.Context, kind, id string) ([]byte, error) {
	var body []byte
	err := d.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE kind = ? AND id = ?`, kind, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select document: %w", err)
	}
	return body, nil
}

func (d *sqliteDriver) list(ctx context.Context, kind string) ([][]byte, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT body FROM documents WHERE kind = ? ORDER BY seq`, kind)
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

func (d *sqliteDriver) insert(ctx context.Context, kind, id string, doc []byte) error {
	_, err := d.db.ExecContext(ctx, `INSERT INTO documents (kind, id, body) VALUES (?, ?, ?)`, kind, id, string(doc))
	var se sqlite3.Error
	if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (d *sqliteDriver) update(ctx context.Context, kind, id string, fn func([]byte) ([]byte, error)) ([]byte, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var body []byte
	err = tx.QueryRowContext(ctx, `SELECT body FROM documents WHERE kind = ? AND id = ?`, kind, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select document: %w", err)
	}

	next, err := fn(body)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return body, nil
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET body = ?, updated_at = CURRENT_TIMESTAMP WHERE kind = ? AND id = ?`,
		string(next), kind, id); err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return next, nil
}

func (d *sqliteDriver) remove(ctx context.Context, kind, id string) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM documents WHERE kind = ? AND id = ?`, kind, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *sqliteDriver) close() error { return d.db.Close() }

package store

import (
	"context"
	"database/sql"
	"errors"
)

// SQL keeps documents in a two-column table. The statements are valid for
// both PostgreSQL (lib/pq) and SQLite (mattn/go-sqlite3).
type SQL struct {
	db *sql.DB
}

func NewSQL(db *sql.DB) *SQL {
	return &SQL{db: db}
}

func (s *SQL) CreateTable(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS documents (key TEXT PRIMARY KEY, value TEXT NOT NULL)`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return ioError("create table", "documents", err)
	}
	return nil
}

func (s *SQL) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT value FROM documents WHERE key = $1`

	var value string
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, ioError("get", key, err)
	}
	return []byte(value), nil
}

func (s *SQL) Set(ctx context.Context, key string, value []byte) error {
	query := `INSERT INTO documents (key, value) VALUES ($1, $2)
              ON CONFLICT (key) DO UPDATE SET value = excluded.value`
	if _, err := s.db.ExecContext(ctx, query, key, string(value)); err != nil {
		return ioError("set", key, err)
	}
	return nil
}

func (s *SQL) Remove(ctx context.Context, key string) error {
	query := `DELETE FROM documents WHERE key = $1`
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return ioError("remove", key, err)
	}
	return nil
}

func (s *SQL) Close() error {
	return s.db.Close()
}

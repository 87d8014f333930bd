// Package sqlite persists the ledger state in a single SQLite table. Keys are
// stored as BLOBs so composite-key delimiters survive and compare bytewise.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"walletguru/internal/ledger"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

var _ ledger.State = (*Store)(nil)

// Open creates the database file if needed, migrates it and returns a Store.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	version, err := migrateSchema(dbPath)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.InfoContext(ctx, "Ledger database ready", "path", dbPath, "schema_version", version)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) GetState(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM ledger_state WHERE key = ?`, []byte(key)).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	return value, nil
}

func (s *Store) PutState(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ledger_state (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   value = excluded.value,
		   updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`,
		[]byte(key), value)
	if err != nil {
		return fmt.Errorf("put state: %w", err)
	}
	return nil
}

func (s *Store) DeleteState(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM ledger_state WHERE key = ?`, []byte(key)); err != nil {
		return fmt.Errorf("delete state: %w", err)
	}
	return nil
}

func (s *Store) GetStateByPartialKey(ctx context.Context, prefix string) ([]ledger.KV, error) {
	query := `SELECT key, value FROM ledger_state WHERE key >= ? ORDER BY key`
	args := []any{[]byte(prefix)}
	if upper, ok := prefixUpperBound([]byte(prefix)); ok {
		query = `SELECT key, value FROM ledger_state WHERE key >= ? AND key < ? ORDER BY key`
		args = append(args, upper)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("scan state: %w", err)
	}
	defer rows.Close()

	var out []ledger.KV
	for rows.Next() {
		var key, value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan state row: %w", err)
		}
		out = append(out, ledger.KV{Key: string(key), Value: value})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan state: %w", err)
	}
	return out, nil
}

// prefixUpperBound returns the smallest key greater than every key that
// starts with prefix. ok is false when no such bound exists.
func prefixUpperBound(prefix []byte) ([]byte, bool) {
	upper := append([]byte(nil), prefix...)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] < 0xff {
			upper[i]++
			return upper[:i+1], true
		}
	}
	return nil, false
}

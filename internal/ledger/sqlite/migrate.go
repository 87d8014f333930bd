package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var schema embed.FS

var errDirtySchema = errors.New("ledger schema is dirty")

// migrateSchema applies every pending ledger migration to the file at dbPath
// and returns the schema version it ends on. A dirty version left by an
// interrupted run is reported instead of being retried.
func migrateSchema(dbPath string) (uint, error) {
	// golang-migrate closes the handle it is given
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return 0, fmt.Errorf("open %s for migration: %w", dbPath, err)
	}
	defer conn.Close()

	target, err := migratesqlite.WithInstance(conn, &migratesqlite.Config{})
	if err != nil {
		return 0, fmt.Errorf("wrap ledger database: %w", err)
	}
	files, err := iofs.New(schema, "migrations")
	if err != nil {
		return 0, fmt.Errorf("read embedded ledger schema: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", files, "sqlite", target)
	if err != nil {
		return 0, fmt.Errorf("prepare ledger migration: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		var dirty migrate.ErrDirty
		if errors.As(err, &dirty) {
			return uint(dirty.Version), fmt.Errorf("%w at version %d", errDirtySchema, dirty.Version)
		}
		return 0, fmt.Errorf("migrate ledger schema: %w", err)
	}
	version, _, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("read ledger schema version: %w", err)
	}
	return version, nil
}

package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations brings the schema at dbPath up to the latest version.
//
// Databases written before schema versioning existed have tables but no
// recorded version. For those the already materialized version is read from
// the catalog and recorded first, so only the missing steps run.
func RunMigrations(dbPath string) error {
	// Create a separate connection for migrations; the driver closes it with m.Close.
	migrateDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	legacy, err := legacyVersion(context.Background(), migrateDB)
	if err != nil {
		return fmt.Errorf("inspect legacy schema: %w", err)
	}

	driver, err := sqlite.WithInstance(migrateDB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}

	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if _, _, err := m.Version(); errors.Is(err, migrate.ErrNilVersion) && legacy > 0 {
		slog.Info("Adopting unversioned schema", "version", legacy, "path", dbPath)
		if err := m.Force(legacy); err != nil {
			return fmt.Errorf("record legacy schema version %d: %w", legacy, err)
		}
	} else if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read schema version: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// legacyVersion maps what already exists in the catalog onto migration
// versions. Each step counts only if every earlier step is present too.
func legacyVersion(ctx context.Context, db *sql.DB) (int, error) {
	steps := []func() (bool, error){
		func() (bool, error) { return tableExists(ctx, db, "moments") },
		func() (bool, error) { return columnExists(ctx, db, "moments", "cost") },
		func() (bool, error) { return columnExists(ctx, db, "moments", "currency") },
		func() (bool, error) { return tableExists(ctx, db, "money") },
	}

	version := 0
	for _, step := range steps {
		ok, err := step()
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		version++
	}
	return version, nil
}

func tableExists(ctx context.Context, db *sql.DB, table string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("lookup table %s: %w", table, err)
	}
	return n > 0, nil
}

func columnExists(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("lookup column %s.%s: %w", table, column, err)
	}
	return n > 0, nil
}

package repository

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"entgo.io/ent/dialect"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate applies the embedded schema for d's dialect. dsn is only used for
// Postgres, where golang-migrate opens its own connection.
func Migrate(d *DB, dsn string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	src, err := iofs.New(migrationsFS, "migrations/"+migrationDir(d.Dialect()))
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	var m *migrate.Migrate
	switch d.Dialect() {
	case dialect.SQLite:
		// Closing this instance would close d as well, so it is left open.
		drv, err := sqlite.WithInstance(d.DB(), &sqlite.Config{})
		if err != nil {
			return fmt.Errorf("migration driver: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", src, "sqlite", drv)
		if err != nil {
			return fmt.Errorf("migration instance: %w", err)
		}
	default:
		m, err = migrate.NewWithSourceInstance("iofs", src, pgxURL(dsn))
		if err != nil {
			return fmt.Errorf("migration instance: %w", err)
		}
		defer func() {
			if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
				logger.Warn("migrate.close_failed", "source_error", srcErr, "db_error", dbErr)
			}
		}()
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("migrate.up.failed", "error", err)
		return fmt.Errorf("migration up: %w", err)
	}
	version, dirty, _ := m.Version()
	logger.Info("migrate.up.ok", "dialect", d.Dialect(), "version", version, "dirty", dirty)
	return nil
}

func migrationDir(d string) string {
	if d == dialect.SQLite {
		return "sqlite"
	}
	return "postgres"
}

// pgxURL rewrites a postgres:// DSN to the scheme the pgx/v5 driver registers.
func pgxURL(dsn string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "pgx5://" + strings.TrimPrefix(dsn, prefix)
		}
	}
	return dsn
}

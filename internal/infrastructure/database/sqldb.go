package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/eslsoft/clozegen/internal/infrastructure/config"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// NewSQLDriver opens a database/sql connection for the configured driver and
// wraps it as an ent dialect driver. Migrations run through it; the
// repositories use the pgx pool instead.
func NewSQLDriver(cfg *config.Config) (dialect.Driver, func(), error) {
	switch driver := cfg.DatabaseDriver(); driver {
	case "postgres":
		return newPostgresDriver(cfg)
	case "sqlite3":
		return newSQLiteDriver(cfg)
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func newPostgresDriver(cfg *config.Config) (dialect.Driver, func(), error) {
	rawDB, err := sql.Open("postgres", cfg.DatabaseURL())
	if err != nil {
		return nil, nil, fmt.Errorf("open sql db: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rawDB.PingContext(ctx); err != nil {
		rawDB.Close()
		return nil, nil, fmt.Errorf("ping sql db: %w", err)
	}

	return wrapDriver(cfg, entsql.OpenDB(dialect.Postgres, rawDB), rawDB)
}

func newSQLiteDriver(cfg *config.Config) (dialect.Driver, func(), error) {
	rawDB, err := sql.Open("sqlite3", cfg.DatabaseURL())
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite db: %w", err)
	}
	rawDB.SetMaxOpenConns(1)
	rawDB.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rawDB.PingContext(ctx); err != nil {
		rawDB.Close()
		return nil, nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := rawDB.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		rawDB.Close()
		return nil, nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
	}

	return wrapDriver(cfg, entsql.OpenDB(dialect.SQLite, rawDB), rawDB)
}

func wrapDriver(cfg *config.Config, drv dialect.Driver, rawDB *sql.DB) (dialect.Driver, func(), error) {
	cleanup := func() {
		_ = rawDB.Close()
	}
	if cfg.Database.LogSQL {
		return dialect.Debug(drv), cleanup, nil
	}
	return drv, cleanup, nil
}

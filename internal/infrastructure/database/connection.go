package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"

	"github.com/eslsoft/clozegen/internal/infrastructure/config"
)

const (
	poolMaxConns    = 10
	poolDialTimeout = 5 * time.Second
)

// NewPool opens a pgx connection pool for the primary store. Only the
// postgres driver goes through pgx; the sqlite backup path uses
// database/sql instead.
func NewPool(cfg *config.Config) (*pgxpool.Pool, func(), error) {
	if driver := cfg.DatabaseDriver(); driver != "postgres" {
		return nil, nil, fmt.Errorf("pgx pool supports postgres only, configured driver: %s", driver)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL())
	if err != nil {
		return nil, nil, fmt.Errorf("parse pool config: %w", err)
	}
	poolCfg.MaxConns = poolMaxConns
	if cfg.Database.LogSQL {
		poolCfg.ConnConfig.Tracer = queryTracer()
	}

	ctx, cancel := context.WithTimeout(context.Background(), poolDialTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, pool.Close, fmt.Errorf("ping db: %w", err)
	}
	return pool, pool.Close, nil
}

// queryTracer logs every statement pgx executes. Enabled via DATABASE_LOG_SQL.
func queryTracer() *tracelog.TraceLog {
	logger := log.New(log.Writer(), "pgx ", log.LstdFlags|log.Lmicroseconds)
	return &tracelog.TraceLog{
		Logger: tracelog.LoggerFunc(func(_ context.Context, lvl tracelog.LogLevel, msg string, data map[string]any) {
			logger.Printf("level=%s msg=%s data=%v", lvl, msg, data)
		}),
		LogLevel: tracelog.LogLevelTrace,
	}
}

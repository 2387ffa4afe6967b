package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver           string // postgres | sqlite
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// DB bundles the database/sql handle the repositories run on with the dialect
// used to build their statements. Pool is only set for postgres.
type DB struct {
	SQL     *sql.DB
	Pool    *pgxpool.Pool
	Driver  string // DriverPostgres | DriverSQLite
	Dialect string // ent dialect name
}

// Open connects to postgres through a pgx pool, or to a sqlite file for local runs and tests.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Driver {
	case DriverSQLite:
		return openSQLite(ctx, cfg, logger)
	case DriverPostgres, "":
		return openPostgres(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func openPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	logger.Info("connecting to database", "driver", DriverPostgres)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database dsn", "error", err)
		return nil, err
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "syllabus-sync"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprintf("%d", cfg.StatementTimeout.Milliseconds())
	}

	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 3 * time.Second
	}
	dctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(dctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	// Wrap pool as *sql.DB for the statement builders and migrations
	db := stdlib.OpenDBFromPool(pool)
	logger.Info("successfully connected to database")
	return &DB{SQL: db, Pool: pool, Driver: DriverPostgres, Dialect: dialect.Postgres}, nil
}

func openSQLite(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	logger.Info("opening sqlite database", "dsn", cfg.DSN)
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer; also keeps PRAGMAs on the single connection
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &DB{SQL: db, Driver: DriverSQLite, Dialect: dialect.SQLite}, nil
}

// Builder returns a statement builder for the connected dialect.
func (d *DB) Builder() *entsql.DialectBuilder {
	return entsql.Dialect(d.Dialect)
}

// Close closes the database connections gracefully
func (d *DB) Close(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("closing database connections")
	if d.SQL != nil {
		if err := d.SQL.Close(); err != nil {
			logger.Error("failed to close sql db", "error", err)
		}
	}
	if d.Pool != nil {
		d.Pool.Close()
	}
	logger.Info("database connections closed")
}

// HealthCheck pings the database to catch DSN issues early.
func (d *DB) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if d.Pool != nil {
		return d.Pool.Ping(ctx)
	}
	return d.SQL.PingContext(ctx)
}

package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/syllabus-sync/internal/common"
	"github.com/joseph-ayodele/syllabus-sync/internal/repository"
)

// ConnectDB opens the course directory store and applies pending migrations.
func ConnectDB(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*repository.DB, error) {
	logger.Info("connecting to database", "driver", cfg.Driver)
	db, err := repository.Open(ctx, repository.Config{
		Driver:           cfg.Driver,
		DSN:              cfg.DSN,
		MaxConns:         cfg.MaxConns,
		MinConns:         cfg.MinConns,
		MaxConnLifetime:  cfg.MaxConnLifetime,
		MaxConnIdleTime:  cfg.MaxConnIdleTime,
		DialTimeout:      cfg.DialTimeout,
		StatementTimeout: cfg.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}
	if err := repository.Migrate(db, logger); err != nil {
		db.Close(logger)
		return nil, err
	}
	logger.Info("successfully connected to database")
	return db, nil
}

// PingDB pings the database to ensure it's responsive
func PingDB(ctx context.Context, db *repository.DB, logger *slog.Logger, timeout time.Duration) error {
	logger.Debug("pinging database")
	if err := db.HealthCheck(ctx, timeout); err != nil {
		logger.Error("database ping failed", "error", err)
		return err
	}
	logger.Debug("database ping successful")
	return nil
}

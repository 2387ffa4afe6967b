package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/syllabus-sync/internal/common"
	"github.com/joseph-ayodele/syllabus-sync/internal/repository"
	"github.com/joseph-ayodele/syllabus-sync/internal/server"
)

// env is what every subcommand needs: configuration, a logger on stderr and
// a migrated database.
type env struct {
	cfg    *common.Config
	logger *slog.Logger
	db     *repository.DB
}

func openEnv(ctx context.Context, cmd *cobra.Command, opts *RootOptions) (*env, error) {
	cfg, err := common.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logCfg := cfg.Log
	if opts.Verbose {
		logCfg.Level = "debug"
	}
	logger := common.NewLoggerTo(cmd.ErrOrStderr(), logCfg)

	db, err := server.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, db: db}, nil
}

func (e *env) Close() {
	e.db.Close(e.logger)
}

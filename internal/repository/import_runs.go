package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/syllabus-sync/constants"
	"github.com/joseph-ayodele/syllabus-sync/internal/entity"
)

const importRunsTable = "import_runs"

var importRunColumns = []string{"id", "kind", "roster", "status", "started_at", "finished_at", "processed", "created", "updated", "skipped", "failed", "error_message"}

type ImportRunRepository interface {
	Start(ctx context.Context, kind, roster string) (*entity.ImportRun, error)
	Finish(ctx context.Context, run *entity.ImportRun) error
	ListRecent(ctx context.Context, kind string, limit int) ([]*entity.ImportRun, error)
}

type importRunRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewImportRunRepository(db *DB, logger *slog.Logger) ImportRunRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &importRunRepository{db: db, logger: logger}
}

func (r *importRunRepository) Start(ctx context.Context, kind, roster string) (*entity.ImportRun, error) {
	run := &entity.ImportRun{
		ID:        uuid.New(),
		Kind:      kind,
		Roster:    roster,
		Status:    string(constants.RunStatusRunning),
		StartedAt: time.Now().UTC(),
	}
	q, args := r.db.Builder().Insert(importRunsTable).
		Columns("id", "kind", "roster", "status", "started_at").
		Values(run.ID, run.Kind, run.Roster, run.Status, run.StartedAt).
		Query()
	if _, err := r.db.SQL.ExecContext(ctx, q, args...); err != nil {
		r.logger.Error("failed to record import run", "kind", kind, "error", err)
		return nil, fmt.Errorf("insert import run: %w", err)
	}
	return run, nil
}

func (r *importRunRepository) Finish(ctx context.Context, run *entity.ImportRun) error {
	finished := time.Now().UTC()
	if run.FinishedAt == nil {
		run.FinishedAt = &finished
	}
	upd := r.db.Builder().Update(importRunsTable).
		Set("status", run.Status).
		Set("finished_at", *run.FinishedAt).
		Set("processed", run.Processed).
		Set("created", run.Created).
		Set("updated", run.Updated).
		Set("skipped", run.Skipped).
		Set("failed", run.Failed)
	if run.ErrorMessage != nil {
		upd = upd.Set("error_message", *run.ErrorMessage)
	}
	q, args := upd.Where(entsql.EQ("id", run.ID)).Query()
	if _, err := r.db.SQL.ExecContext(ctx, q, args...); err != nil {
		r.logger.Error("failed to finish import run", "run_id", run.ID, "error", err)
		return fmt.Errorf("update import run: %w", err)
	}
	return nil
}

func (r *importRunRepository) ListRecent(ctx context.Context, kind string, limit int) ([]*entity.ImportRun, error) {
	if limit <= 0 {
		limit = 20
	}
	b := r.db.Builder()
	sel := b.Select(importRunColumns...).From(b.Table(importRunsTable))
	if kind != "" {
		sel = sel.Where(entsql.EQ("kind", kind))
	}
	q, args := sel.OrderExpr(entsql.Expr("started_at DESC")).Limit(limit).Query()

	rows, err := r.db.SQL.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list import runs: %w", err)
	}
	defer rows.Close()

	out := make([]*entity.ImportRun, 0)
	for rows.Next() {
		var (
			run      entity.ImportRun
			finished sql.NullTime
			errMsg   sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.Kind, &run.Roster, &run.Status, &run.StartedAt, &finished,
			&run.Processed, &run.Created, &run.Updated, &run.Skipped, &run.Failed, &errMsg); err != nil {
			return nil, fmt.Errorf("scan import run: %w", err)
		}
		if finished.Valid {
			t := finished.Time
			run.FinishedAt = &t
		}
		if errMsg.Valid {
			s := errMsg.String
			run.ErrorMessage = &s
		}
		out = append(out, &run)
	}
	return out, rows.Err()
}

// Package batch tracks the lifecycle and counters of an offline import run.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/looplab/fsm"

	"github.com/joseph-ayodele/syllabus-sync/constants"
	"github.com/joseph-ayodele/syllabus-sync/internal/entity"
)

const (
	eventStart    = "start"
	eventComplete = "complete"
	eventFail     = "fail"
)

// Recorder persists runs; repository.ImportRunRepository satisfies it.
type Recorder interface {
	Start(ctx context.Context, kind, roster string) (*entity.ImportRun, error)
	Finish(ctx context.Context, run *entity.ImportRun) error
}

type Counters struct {
	Processed int `json:"processed"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Run moves pending -> running -> completed | failed. Item-level failures only
// bump counters; the run itself fails when Finish is given a cause.
type Run struct {
	Kind   string
	Roster string

	fsm      *fsm.FSM
	counters Counters
	started  time.Time
	finished time.Time
	cause    error

	recorder Recorder
	record   *entity.ImportRun
	logger   *slog.Logger
}

func NewRun(kind, roster string, logger *slog.Logger) *Run {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Run{Kind: kind, Roster: roster, logger: logger}
	r.fsm = fsm.NewFSM(
		string(constants.RunStatusPending),
		fsm.Events{
			{Name: eventStart, Src: []string{string(constants.RunStatusPending)}, Dst: string(constants.RunStatusRunning)},
			{Name: eventComplete, Src: []string{string(constants.RunStatusRunning)}, Dst: string(constants.RunStatusCompleted)},
			{Name: eventFail, Src: []string{string(constants.RunStatusPending), string(constants.RunStatusRunning)}, Dst: string(constants.RunStatusFailed)},
		},
		fsm.Callbacks{
			"enter_state": r.onEnterState,
		},
	)
	return r
}

// WithRecorder persists the run through rec. A nil rec keeps the run in memory.
func (r *Run) WithRecorder(rec Recorder) *Run {
	r.recorder = rec
	return r
}

func (r *Run) onEnterState(_ context.Context, e *fsm.Event) {
	r.logger.Info("batch.run.transition",
		"kind", r.Kind,
		"roster", r.Roster,
		"event", e.Event,
		"from", e.Src,
		"to", e.Dst,
	)
}

func (r *Run) Start(ctx context.Context) error {
	if err := r.fsm.Event(ctx, eventStart); err != nil {
		return fmt.Errorf("start %s run: %w", r.Kind, err)
	}
	r.started = time.Now()
	if r.recorder != nil {
		rec, err := r.recorder.Start(ctx, r.Kind, r.Roster)
		if err != nil {
			r.logger.Warn("batch.run.record_failed", "kind", r.Kind, "error", err)
		} else {
			r.record = rec
		}
	}
	return nil
}

func (r *Run) Create() { r.counters.Processed++; r.counters.Created++ }
func (r *Run) Update() { r.counters.Processed++; r.counters.Updated++ }
func (r *Run) Skip()   { r.counters.Processed++; r.counters.Skipped++ }
func (r *Run) Fail()   { r.counters.Processed++; r.counters.Failed++ }

// Finish completes the run, or fails it when cause is non-nil, and returns cause.
func (r *Run) Finish(ctx context.Context, cause error) error {
	event := eventComplete
	if cause != nil {
		event = eventFail
		r.cause = cause
	}
	// the caller's context may already be cancelled; the transition is still recorded
	if err := r.fsm.Event(context.WithoutCancel(ctx), event); err != nil {
		return fmt.Errorf("finish %s run: %w", r.Kind, err)
	}
	r.finished = time.Now()
	r.persist(context.WithoutCancel(ctx))
	r.logger.Info("batch.run.summary", r.SummaryAttrs()...)
	return cause
}

func (r *Run) persist(ctx context.Context) {
	if r.recorder == nil || r.record == nil {
		return
	}
	r.record.Status = r.fsm.Current()
	r.record.Processed = r.counters.Processed
	r.record.Created = r.counters.Created
	r.record.Updated = r.counters.Updated
	r.record.Skipped = r.counters.Skipped
	r.record.Failed = r.counters.Failed
	finished := r.finished.UTC()
	r.record.FinishedAt = &finished
	if r.cause != nil {
		msg := r.cause.Error()
		r.record.ErrorMessage = &msg
	}
	if err := r.recorder.Finish(ctx, r.record); err != nil {
		r.logger.Warn("batch.run.record_failed", "kind", r.Kind, "error", err)
	}
}

func (r *Run) Status() constants.RunStatus {
	return constants.RunStatus(r.fsm.Current())
}

func (r *Run) Counters() Counters {
	return r.counters
}

func (r *Run) Duration() time.Duration {
	if r.started.IsZero() {
		return 0
	}
	if r.finished.IsZero() {
		return time.Since(r.started)
	}
	return r.finished.Sub(r.started)
}

// Summary renders a one-line human summary for CLI output.
func (r *Run) Summary() string {
	c := r.counters
	return fmt.Sprintf("%s %s: %s processed=%d created=%d updated=%d skipped=%d failed=%d in %s",
		r.Kind, r.Roster, r.Status(), c.Processed, c.Created, c.Updated, c.Skipped, c.Failed,
		r.Duration().Round(time.Millisecond))
}

func (r *Run) SummaryAttrs() []any {
	c := r.counters
	attrs := []any{
		"kind", r.Kind,
		"roster", r.Roster,
		"status", r.Status(),
		"processed", c.Processed,
		"created", c.Created,
		"updated", c.Updated,
		"skipped", c.Skipped,
		"failed", c.Failed,
		"duration_ms", r.Duration().Milliseconds(),
	}
	if r.cause != nil {
		attrs = append(attrs, "error", r.cause.Error())
	}
	return attrs
}

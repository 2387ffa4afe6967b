// Package directory builds the course directory from the class roster API.
package directory

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/syllabus-sync/internal/batch"
	"github.com/joseph-ayodele/syllabus-sync/internal/catalog"
	"github.com/joseph-ayodele/syllabus-sync/internal/repository"
)

// Catalog is the slice of the roster API the builder needs.
type Catalog interface {
	Subjects(ctx context.Context, roster string) ([]catalog.Subject, error)
	Classes(ctx context.Context, roster, subject string) ([]catalog.Class, error)
}

// Builder upserts roster classes into the course directory one course at a time.
// There is no transaction across courses; a failure is logged and the run goes on.
type Builder struct {
	catalog Catalog
	courses repository.CourseRepository
	runs    batch.Recorder
	logger  *slog.Logger
}

func NewBuilder(c Catalog, courses repository.CourseRepository, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{catalog: c, courses: courses, logger: logger}
}

// WithRecorder persists each roster run, typically into import_runs.
func (b *Builder) WithRecorder(rec batch.Recorder) *Builder {
	b.runs = rec
	return b
}

// BuildSubject imports every class of subject in roster. A catalog error is
// logged and the subject is treated as empty.
func (b *Builder) BuildSubject(ctx context.Context, run *batch.Run, roster, subject string) {
	classes, err := b.catalog.Classes(ctx, roster, subject)
	if err != nil {
		b.logger.Error("directory.classes_failed", "roster", roster, "subject", subject, "error", err)
		run.Fail()
		return
	}
	b.logger.Info("directory.subject.start", "roster", roster, "subject", subject, "classes", len(classes))

	for _, c := range classes {
		if ctx.Err() != nil {
			return
		}
		course := CourseFromClass(roster, c)
		if c.CatalogNbr == "" {
			b.logger.Warn("directory.class_without_number", "subject", c.Subject, "title", course.Name)
			run.Skip()
			continue
		}
		_, created, err := b.courses.UpsertCourse(ctx, course)
		if err != nil {
			b.logger.Error("directory.upsert_failed", "code", course.Code, "error", err)
			run.Fail()
			continue
		}
		if created {
			run.Create()
		} else {
			run.Update()
		}
		b.logger.Debug("directory.upserted", "code", course.Code, "sections", len(course.Sections), "created", created)
	}
}

// BuildRoster imports the given subjects, or all subjects of roster when none are given.
func (b *Builder) BuildRoster(ctx context.Context, roster string, subjects ...string) (*batch.Run, error) {
	run := batch.NewRun("courses", roster, b.logger).WithRecorder(b.runs)
	if err := run.Start(ctx); err != nil {
		return run, err
	}

	if len(subjects) == 0 {
		list, err := b.catalog.Subjects(ctx, roster)
		if err != nil {
			b.logger.Error("directory.subjects_failed", "roster", roster, "error", err)
			return run, run.Finish(ctx, err)
		}
		for _, s := range list {
			subjects = append(subjects, s.Value)
		}
	}

	for _, subject := range subjects {
		if err := ctx.Err(); err != nil {
			return run, run.Finish(ctx, err)
		}
		b.BuildSubject(ctx, run, roster, subject)
	}
	return run, run.Finish(ctx, nil)
}

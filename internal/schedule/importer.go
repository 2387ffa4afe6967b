// Package schedule imports prelim and final schedules into the course directory.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/joseph-ayodele/syllabus-sync/constants"
	"github.com/joseph-ayodele/syllabus-sync/internal/batch"
	"github.com/joseph-ayodele/syllabus-sync/internal/common"
	"github.com/joseph-ayodele/syllabus-sync/internal/entity"
	"github.com/joseph-ayodele/syllabus-sync/internal/registrar"
	"github.com/joseph-ayodele/syllabus-sync/internal/repository"
)

// Fixed exam windows published by the registrar.
const (
	PrelimStartHour   = 19
	PrelimStartMinute = 30
	PrelimEndHour     = 21
	PrelimEndMinute   = 0
	FinalExamDuration = 2*time.Hour + 30*time.Minute
)

// PageSource yields the lines of a schedule page; *registrar.Scraper satisfies it.
type PageSource interface {
	FetchLines(ctx context.Context, pageURL string) ([]string, error)
}

type Config struct {
	PrelimURL    string
	FinalURL     string
	HostLocation *time.Location
	ExamLocation *time.Location
	CacheTTL     time.Duration
}

// Importer turns scraped registrar lines into exams and deliverables. Each line
// is handled on its own; an unmatched course is logged and skipped.
type Importer struct {
	cfg      Config
	pages    PageSource
	courses  repository.CourseRepository
	schedule repository.ScheduleRepository
	runs     batch.Recorder
	lookups  *cache.Cache
	logger   *slog.Logger
}

func NewImporter(cfg Config, pages PageSource, courses repository.CourseRepository, schedule repository.ScheduleRepository, logger *slog.Logger) (*Importer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ExamLocation == nil {
		loc, err := time.LoadLocation(DefaultExamTimezone)
		if err != nil {
			return nil, fmt.Errorf("load exam timezone: %w", err)
		}
		cfg.ExamLocation = loc
	}
	if cfg.HostLocation == nil {
		cfg.HostLocation = cfg.ExamLocation
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	return &Importer{
		cfg:      cfg,
		pages:    pages,
		courses:  courses,
		schedule: schedule,
		lookups:  cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		logger:   logger,
	}, nil
}

func (i *Importer) WithRecorder(rec batch.Recorder) *Importer {
	i.runs = rec
	return i
}

// ImportPrelims creates one prelim per parsed line, 19:30 to 21:00 on the listed date.
func (i *Importer) ImportPrelims(ctx context.Context, roster string) (*batch.Run, error) {
	run := batch.NewRun("prelims", roster, i.logger).WithRecorder(i.runs)
	if err := run.Start(ctx); err != nil {
		return run, err
	}
	year, lines, err := i.fetch(ctx, roster, i.cfg.PrelimURL)
	if err != nil {
		return run, run.Finish(ctx, err)
	}

	for _, rec := range registrar.ParseLines[registrar.ScrapeExam](registrar.PrelimParser{Year: year}, lines) {
		if err := ctx.Err(); err != nil {
			return run, run.Finish(ctx, err)
		}
		i.importPrelim(ctx, run, rec)
	}
	return run, run.Finish(ctx, nil)
}

func (i *Importer) importPrelim(ctx context.Context, run *batch.Run, rec registrar.ScrapeExam) {
	course, ok := i.lookup(ctx, run, rec.CourseCode)
	if !ok {
		return
	}
	exam := &entity.Exam{
		CourseID:    course.ID,
		SectionID:   rec.Section,
		Title:       course.Code + " Prelim",
		StartTime:   WallClock(rec.Date, PrelimStartHour, PrelimStartMinute, i.cfg.HostLocation, i.cfg.ExamLocation),
		EndTime:     WallClock(rec.Date, PrelimEndHour, PrelimEndMinute, i.cfg.HostLocation, i.cfg.ExamLocation),
		Type:        constants.ExamTypePrelim,
		Instructors: course.Instructors(rec.Section),
	}
	_, created, err := i.schedule.UpsertExam(ctx, exam)
	i.count(run, exam.Title, created, err)
}

// ImportFinals creates a final exam (start plus 2h30m) or, when the line names
// a Final deliverable, a deliverable due at the listed time.
func (i *Importer) ImportFinals(ctx context.Context, roster string) (*batch.Run, error) {
	run := batch.NewRun("finals", roster, i.logger).WithRecorder(i.runs)
	if err := run.Start(ctx); err != nil {
		return run, err
	}
	year, lines, err := i.fetch(ctx, roster, i.cfg.FinalURL)
	if err != nil {
		return run, run.Finish(ctx, err)
	}

	for _, rec := range registrar.ParseLines[registrar.ScrapeFinal](registrar.FinalParser{Year: year}, lines) {
		if err := ctx.Err(); err != nil {
			return run, run.Finish(ctx, err)
		}
		i.importFinal(ctx, run, rec)
	}
	return run, run.Finish(ctx, nil)
}

func (i *Importer) importFinal(ctx context.Context, run *batch.Run, rec registrar.ScrapeFinal) {
	course, ok := i.lookup(ctx, run, rec.CourseCode)
	if !ok {
		return
	}
	start := WallClock(rec.Date, rec.Hour, rec.Minute, i.cfg.HostLocation, i.cfg.ExamLocation)
	instructors := course.Instructors(rec.Section)

	if rec.Deliverable {
		d := &entity.FinalDeliverable{
			CourseID:    course.ID,
			SectionID:   rec.Section,
			Title:       course.Code + " Final Deliverable",
			DueDate:     start,
			Type:        constants.DeliverableTypeFinal,
			Instructors: instructors,
		}
		_, created, err := i.schedule.UpsertDeliverable(ctx, d)
		i.count(run, d.Title, created, err)
		return
	}

	exam := &entity.Exam{
		CourseID:    course.ID,
		SectionID:   rec.Section,
		Title:       course.Code + " Final Exam",
		StartTime:   start,
		EndTime:     start.Add(FinalExamDuration),
		Type:        constants.ExamTypeFinal,
		Instructors: instructors,
	}
	_, created, err := i.schedule.UpsertExam(ctx, exam)
	i.count(run, exam.Title, created, err)
}

func (i *Importer) fetch(ctx context.Context, roster, pageURL string) (int, []string, error) {
	year, err := registrar.RosterYear(roster)
	if err != nil {
		return 0, nil, common.InvalidArgumentErrorf("%v", err)
	}
	if pageURL == "" {
		return 0, nil, common.InvalidArgumentErrorf("schedule page url is not configured")
	}
	lines, err := i.pages.FetchLines(ctx, pageURL)
	if err != nil {
		i.logger.Error("schedule.fetch_failed", "url", pageURL, "error", err)
		return 0, nil, err
	}
	return year, lines, nil
}

// lookup resolves a course by code. Misses are logged, counted as skipped and
// not cached, so a directory import in between is picked up.
func (i *Importer) lookup(ctx context.Context, run *batch.Run, code string) (*entity.Course, bool) {
	if v, ok := i.lookups.Get(code); ok {
		return v.(*entity.Course), true
	}
	course, err := i.courses.GetByCode(ctx, code)
	switch {
	case err == nil:
		i.lookups.SetDefault(code, course)
		return course, true
	case errors.Is(err, common.ErrNotFound):
		i.logger.Warn("schedule.course_not_found", "code", code)
		run.Skip()
	default:
		i.logger.Error("schedule.course_lookup_failed", "code", code, "error", err)
		run.Fail()
	}
	return nil, false
}

func (i *Importer) count(run *batch.Run, title string, created bool, err error) {
	switch {
	case err != nil:
		i.logger.Error("schedule.upsert_failed", "title", title, "error", err)
		run.Fail()
	case created:
		run.Create()
	default:
		run.Update()
	}
}

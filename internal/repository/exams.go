package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/syllabus-sync/constants"
	"github.com/joseph-ayodele/syllabus-sync/internal/entity"
)

const (
	examsTable        = "exams"
	deliverablesTable = "final_deliverables"
)

var (
	examColumns        = []string{"id", "course_id", "section_id", "title", "start_time", "end_time", "type", "instructors", "created_at", "updated_at"}
	deliverableColumns = []string{"id", "course_id", "section_id", "title", "due_date", "type", "instructors", "created_at", "updated_at"}
)

// ScheduleRepository stores registrar exams and final deliverables. An exam is
// keyed by (course_id, section_id, title, start_time) and a deliverable by
// (course_id, section_id, title, due_date), so two prelims of one course stay
// separate rows. Re-importing the same line updates the row in place.
type ScheduleRepository interface {
	UpsertExam(ctx context.Context, e *entity.Exam) (exam *entity.Exam, created bool, err error)
	UpsertDeliverable(ctx context.Context, d *entity.FinalDeliverable) (deliverable *entity.FinalDeliverable, created bool, err error)
	ListExams(ctx context.Context, courseID uuid.UUID) ([]*entity.Exam, error)
	ListDeliverables(ctx context.Context, courseID uuid.UUID) ([]*entity.FinalDeliverable, error)
}

type scheduleRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewScheduleRepository(db *DB, logger *slog.Logger) ScheduleRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &scheduleRepository{db: db, logger: logger}
}

// findID returns the id of the row with the given identity, or uuid.Nil.
// whenColumn is start_time for exams and due_date for deliverables.
func (r *scheduleRepository) findID(ctx context.Context, table string, courseID uuid.UUID, sectionID, title, whenColumn string, when time.Time) (uuid.UUID, error) {
	b := r.db.Builder()
	q, args := b.Select("id").
		From(b.Table(table)).
		Where(entsql.And(
			entsql.EQ("course_id", courseID),
			entsql.EQ("section_id", sectionID),
			entsql.EQ("title", title),
			entsql.EQ(whenColumn, when),
		)).
		Limit(1).
		Query()

	var id uuid.UUID
	err := r.db.SQL.QueryRowContext(ctx, q, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, nil
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("lookup %s row: %w", table, err)
	}
	return id, nil
}

func (r *scheduleRepository) UpsertExam(ctx context.Context, e *entity.Exam) (*entity.Exam, bool, error) {
	if e.Type == "" {
		e.Type = constants.ExamTypePrelim
	}
	instructors, err := encodeNames(e.Instructors)
	if err != nil {
		return nil, false, err
	}
	now := time.Now().UTC()
	// sqlite compares the stored text, so the identity time is always UTC.
	start, end := e.StartTime.UTC(), e.EndTime.UTC()

	id, err := r.findID(ctx, examsTable, e.CourseID, e.SectionID, e.Title, "start_time", start)
	if err != nil {
		return nil, false, err
	}

	out := *e
	out.UpdatedAt = now
	if id != uuid.Nil {
		q, args := r.db.Builder().Update(examsTable).
			Set("end_time", end).
			Set("type", e.Type).
			Set("instructors", instructors).
			Set("updated_at", now).
			Where(entsql.EQ("id", id)).
			Query()
		if _, err := r.db.SQL.ExecContext(ctx, q, args...); err != nil {
			r.logger.Error("failed to update exam", "title", e.Title, "error", err)
			return nil, false, fmt.Errorf("update exam %q: %w", e.Title, err)
		}
		out.ID = id
		return &out, false, nil
	}

	out.ID = uuid.New()
	out.CreatedAt = now
	q, args := r.db.Builder().Insert(examsTable).
		Columns(examColumns...).
		Values(out.ID, e.CourseID, e.SectionID, e.Title, start, end, e.Type, instructors, now, now).
		OnConflict(
			entsql.ConflictColumns("course_id", "section_id", "title", "start_time"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("end_time")
				u.SetExcluded("type")
				u.SetExcluded("instructors")
				u.SetExcluded("updated_at")
			}),
		).
		Query()
	if _, err := r.db.SQL.ExecContext(ctx, q, args...); err != nil {
		r.logger.Error("failed to insert exam", "title", e.Title, "error", err)
		return nil, false, fmt.Errorf("insert exam %q: %w", e.Title, err)
	}
	return &out, true, nil
}

func (r *scheduleRepository) UpsertDeliverable(ctx context.Context, d *entity.FinalDeliverable) (*entity.FinalDeliverable, bool, error) {
	if d.Type == "" {
		d.Type = constants.DeliverableTypeFinal
	}
	instructors, err := encodeNames(d.Instructors)
	if err != nil {
		return nil, false, err
	}
	now := time.Now().UTC()
	due := d.DueDate.UTC()

	id, err := r.findID(ctx, deliverablesTable, d.CourseID, d.SectionID, d.Title, "due_date", due)
	if err != nil {
		return nil, false, err
	}

	out := *d
	out.UpdatedAt = now
	if id != uuid.Nil {
		q, args := r.db.Builder().Update(deliverablesTable).
			Set("type", d.Type).
			Set("instructors", instructors).
			Set("updated_at", now).
			Where(entsql.EQ("id", id)).
			Query()
		if _, err := r.db.SQL.ExecContext(ctx, q, args...); err != nil {
			r.logger.Error("failed to update deliverable", "title", d.Title, "error", err)
			return nil, false, fmt.Errorf("update deliverable %q: %w", d.Title, err)
		}
		out.ID = id
		return &out, false, nil
	}

	out.ID = uuid.New()
	out.CreatedAt = now
	q, args := r.db.Builder().Insert(deliverablesTable).
		Columns(deliverableColumns...).
		Values(out.ID, d.CourseID, d.SectionID, d.Title, due, d.Type, instructors, now, now).
		OnConflict(
			entsql.ConflictColumns("course_id", "section_id", "title", "due_date"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("type")
				u.SetExcluded("instructors")
				u.SetExcluded("updated_at")
			}),
		).
		Query()
	if _, err := r.db.SQL.ExecContext(ctx, q, args...); err != nil {
		r.logger.Error("failed to insert deliverable", "title", d.Title, "error", err)
		return nil, false, fmt.Errorf("insert deliverable %q: %w", d.Title, err)
	}
	return &out, true, nil
}

func (r *scheduleRepository) ListExams(ctx context.Context, courseID uuid.UUID) ([]*entity.Exam, error) {
	b := r.db.Builder()
	q, args := b.Select(examColumns...).
		From(b.Table(examsTable)).
		Where(entsql.EQ("course_id", courseID)).
		OrderBy("start_time", "section_id").
		Query()

	rows, err := r.db.SQL.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	defer rows.Close()

	out := make([]*entity.Exam, 0)
	for rows.Next() {
		var (
			e     entity.Exam
			names []byte
		)
		if err := rows.Scan(&e.ID, &e.CourseID, &e.SectionID, &e.Title, &e.StartTime, &e.EndTime, &e.Type, &names, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan exam: %w", err)
		}
		if e.Instructors, err = decodeNames(names); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (r *scheduleRepository) ListDeliverables(ctx context.Context, courseID uuid.UUID) ([]*entity.FinalDeliverable, error) {
	b := r.db.Builder()
	q, args := b.Select(deliverableColumns...).
		From(b.Table(deliverablesTable)).
		Where(entsql.EQ("course_id", courseID)).
		OrderBy("due_date", "section_id").
		Query()

	rows, err := r.db.SQL.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list deliverables: %w", err)
	}
	defer rows.Close()

	out := make([]*entity.FinalDeliverable, 0)
	for rows.Next() {
		var (
			d     entity.FinalDeliverable
			names []byte
		)
		if err := rows.Scan(&d.ID, &d.CourseID, &d.SectionID, &d.Title, &d.DueDate, &d.Type, &names, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan deliverable: %w", err)
		}
		if d.Instructors, err = decodeNames(names); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

func encodeNames(names []string) (string, error) {
	if names == nil {
		names = []string{}
	}
	b, err := json.Marshal(names)
	if err != nil {
		return "", fmt.Errorf("encode instructors: %w", err)
	}
	return string(b), nil
}

func decodeNames(b []byte) ([]string, error) {
	out := []string{}
	if len(b) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode instructors: %w", err)
	}
	return out, nil
}

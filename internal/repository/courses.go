package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/syllabus-sync/internal/common"
	"github.com/joseph-ayodele/syllabus-sync/internal/entity"
)

const coursesTable = "courses"

var courseColumns = []string{"id", "code", "name", "semester", "sections", "created_at", "updated_at"}

type CourseRepository interface {
	// UpsertCourse matches on exact code: an existing course gets name, semester and
	// sections overwritten, otherwise a new row is inserted. created reports which.
	UpsertCourse(ctx context.Context, c *entity.Course) (course *entity.Course, created bool, err error)
	GetByCode(ctx context.Context, code string) (*entity.Course, error)
	ListBySubject(ctx context.Context, subject string) ([]*entity.Course, error)
}

type courseRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewCourseRepository(db *DB, logger *slog.Logger) CourseRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &courseRepository{db: db, logger: logger}
}

func (r *courseRepository) UpsertCourse(ctx context.Context, c *entity.Course) (*entity.Course, bool, error) {
	if strings.TrimSpace(c.Code) == "" {
		return nil, false, common.InvalidArgumentErrorf("course code is required")
	}
	sections := c.Sections
	if sections == nil {
		sections = []entity.Section{}
	}
	sectionsJSON, err := json.Marshal(sections)
	if err != nil {
		return nil, false, fmt.Errorf("encode sections: %w", err)
	}
	now := time.Now().UTC()

	existing, err := r.GetByCode(ctx, c.Code)
	switch {
	case err == nil:
		q, args := r.db.Builder().Update(coursesTable).
			Set("name", c.Name).
			Set("semester", c.Semester).
			Set("sections", string(sectionsJSON)).
			Set("updated_at", now).
			Where(entsql.EQ("id", existing.ID)).
			Query()
		if _, err := r.db.SQL.ExecContext(ctx, q, args...); err != nil {
			r.logger.Error("failed to update course", "code", c.Code, "error", err)
			return nil, false, fmt.Errorf("update course %s: %w", c.Code, err)
		}
		out := *existing
		out.Name, out.Semester, out.Sections, out.UpdatedAt = c.Name, c.Semester, sections, now
		return &out, false, nil
	case errors.Is(err, common.ErrNotFound):
	default:
		return nil, false, err
	}

	id := uuid.New()
	q, args := r.db.Builder().Insert(coursesTable).
		Columns(courseColumns...).
		Values(id, c.Code, c.Name, c.Semester, string(sectionsJSON), now, now).
		OnConflict(
			entsql.ConflictColumns("code"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("name")
				u.SetExcluded("semester")
				u.SetExcluded("sections")
				u.SetExcluded("updated_at")
			}),
		).
		Query()
	if _, err := r.db.SQL.ExecContext(ctx, q, args...); err != nil {
		r.logger.Error("failed to insert course", "code", c.Code, "error", err)
		return nil, false, fmt.Errorf("insert course %s: %w", c.Code, err)
	}
	return &entity.Course{
		ID:        id,
		Code:      c.Code,
		Name:      c.Name,
		Semester:  c.Semester,
		Sections:  sections,
		CreatedAt: now,
		UpdatedAt: now,
	}, true, nil
}

func (r *courseRepository) GetByCode(ctx context.Context, code string) (*entity.Course, error) {
	b := r.db.Builder()
	q, args := b.Select(courseColumns...).
		From(b.Table(coursesTable)).
		Where(entsql.EQ("code", code)).
		Limit(1).
		Query()

	rows, err := r.db.SQL.QueryContext(ctx, q, args...)
	if err != nil {
		r.logger.Error("failed to query course", "code", code, "error", err)
		return nil, fmt.Errorf("query course %s: %w", code, err)
	}
	defer rows.Close()

	courses, err := scanCourses(rows)
	if err != nil {
		return nil, err
	}
	if len(courses) == 0 {
		return nil, common.NotFoundErrorf("course %q", code)
	}
	return courses[0], nil
}

// ListBySubject returns courses whose code starts with "SUBJ ", or every course when subject is empty.
func (r *courseRepository) ListBySubject(ctx context.Context, subject string) ([]*entity.Course, error) {
	b := r.db.Builder()
	sel := b.Select(courseColumns...).From(b.Table(coursesTable))
	if s := strings.ToUpper(strings.TrimSpace(subject)); s != "" {
		sel = sel.Where(entsql.HasPrefix("code", s+" "))
	}
	q, args := sel.OrderBy("code").Query()

	rows, err := r.db.SQL.QueryContext(ctx, q, args...)
	if err != nil {
		r.logger.Error("failed to list courses", "subject", subject, "error", err)
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()
	return scanCourses(rows)
}

func scanCourses(rows *sql.Rows) ([]*entity.Course, error) {
	out := make([]*entity.Course, 0)
	for rows.Next() {
		var (
			c        entity.Course
			sections []byte
		)
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Semester, &sections, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		if len(sections) > 0 {
			if err := json.Unmarshal(sections, &c.Sections); err != nil {
				return nil, fmt.Errorf("decode sections of %s: %w", c.Code, err)
			}
		}
		if c.Sections == nil {
			c.Sections = []entity.Section{}
		}
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate courses: %w", err)
	}
	return out, nil
}

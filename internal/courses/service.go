// Package courses serves the course directory and its imported schedules.
package courses

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/syllabus-sync/internal/common"
	"github.com/joseph-ayodele/syllabus-sync/internal/entity"
	"github.com/joseph-ayodele/syllabus-sync/internal/repository"
)

var reCompactCode = regexp.MustCompile(`^([A-Z]{2,6})[\s_-]*(\d{4})$`)

// Service handles course directory reads.
type Service struct {
	courses  repository.CourseRepository
	schedule repository.ScheduleRepository
	logger   *slog.Logger
}

func NewService(courses repository.CourseRepository, schedule repository.ScheduleRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{courses: courses, schedule: schedule, logger: logger}
}

// NormalizeCourseCode accepts "cs 2110", "CS-2110" and "CS2110" and returns "CS 2110".
func NormalizeCourseCode(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if m := reCompactCode.FindStringSubmatch(code); m != nil {
		code = m[1] + " " + m[2]
	}
	v := common.NewValidator().Field("code", code, common.Required, common.CourseCode)
	if err := common.ValidateAndReturnError(v); err != nil {
		return "", err
	}
	return code, nil
}

func (s *Service) GetCourse(ctx context.Context, rawCode string) (*entity.Course, error) {
	code, err := NormalizeCourseCode(rawCode)
	if err != nil {
		s.logger.Warn("invalid course code", "code", rawCode, "error", err)
		return nil, err
	}
	course, err := s.courses.GetByCode(ctx, code)
	if err != nil {
		s.logger.Info("course lookup failed", "code", code, "error", err)
		return nil, err
	}
	return course, nil
}

// ListCourses returns every course of subject, or the whole directory when subject is empty.
func (s *Service) ListCourses(ctx context.Context, subject string) ([]*entity.Course, error) {
	subject = strings.ToUpper(strings.TrimSpace(subject))
	if subject != "" {
		v := common.NewValidator().Field("subject", subject, common.MaxLength(6))
		if err := common.ValidateAndReturnError(v); err != nil {
			return nil, err
		}
	}
	list, err := s.courses.ListBySubject(ctx, subject)
	if err != nil {
		s.logger.Error("failed to list courses", "subject", subject, "error", err)
		return nil, common.NewAppError("DATABASE_ERROR", "list courses failed", fmt.Errorf("%w: %w", common.ErrDatabase, err))
	}
	s.logger.Info("courses listed", "subject", subject, "count", len(list))
	return list, nil
}

// Schedule returns the course with its imported exams and final deliverables.
func (s *Service) Schedule(ctx context.Context, rawCode string) (*entity.CourseSchedule, error) {
	course, err := s.GetCourse(ctx, rawCode)
	if err != nil {
		return nil, err
	}
	exams, err := s.schedule.ListExams(ctx, course.ID)
	if err != nil {
		s.logger.Error("failed to list exams", "code", course.Code, "error", err)
		return nil, err
	}
	deliverables, err := s.schedule.ListDeliverables(ctx, course.ID)
	if err != nil {
		s.logger.Error("failed to list deliverables", "code", course.Code, "error", err)
		return nil, err
	}

	out := &entity.CourseSchedule{
		Course:       *course,
		Exams:        make([]entity.Exam, 0, len(exams)),
		Deliverables: make([]entity.FinalDeliverable, 0, len(deliverables)),
	}
	for _, e := range exams {
		out.Exams = append(out.Exams, *e)
	}
	for _, d := range deliverables {
		out.Deliverables = append(out.Deliverables, *d)
	}
	return out, nil
}

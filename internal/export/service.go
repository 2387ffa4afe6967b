package export

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/syllabus-sync/internal/entity"
)

const sheetName = "Schedule"

// ScheduleSource loads one course with its exams; *courses.Service satisfies it.
type ScheduleSource interface {
	Schedule(ctx context.Context, code string) (*entity.CourseSchedule, error)
}

// Service produces XLSX bytes for course schedule exports.
type Service struct {
	source ScheduleSource
	loc    *time.Location
	logger *slog.Logger
}

// NewService renders times in loc (UTC when nil).
func NewService(source ScheduleSource, loc *time.Location, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{source: source, loc: loc, logger: logger}
}

type scheduleRow struct {
	kind        string
	title       string
	section     string
	start       time.Time
	end         time.Time
	instructors []string
}

// ExportCourseScheduleXLSX returns a workbook with one row per exam and
// deliverable of the course, ordered by start time.
func (s *Service) ExportCourseScheduleXLSX(ctx context.Context, code string) ([]byte, error) {
	start := time.Now()

	sched, err := s.source.Schedule(ctx, code)
	if err != nil {
		return nil, err
	}

	rows := make([]scheduleRow, 0, len(sched.Exams)+len(sched.Deliverables))
	for _, e := range sched.Exams {
		rows = append(rows, scheduleRow{kind: e.Type, title: e.Title, section: e.SectionID, start: e.StartTime, end: e.EndTime, instructors: e.Instructors})
	}
	for _, d := range sched.Deliverables {
		rows = append(rows, scheduleRow{kind: d.Type, title: d.Title, section: d.SectionID, start: d.DueDate, instructors: d.Instructors})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].start.Before(rows[j].start) })

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	headers := []string{"Type", "Title", "Section", "Start", "End / Due", "Instructors"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(sheetName, "A1", "F1", style)
	}

	for i, r := range rows {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
		write(1, r.kind)
		write(2, r.title)
		write(3, r.section)
		if r.end.IsZero() {
			// deliverables only have a due time
			write(4, "")
			write(5, s.format(r.start))
		} else {
			write(4, s.format(r.start))
			write(5, s.format(r.end))
		}
		write(6, strings.Join(r.instructors, ", "))
	}

	_ = f.SetColWidth(sheetName, "A", "A", 12)
	_ = f.SetColWidth(sheetName, "B", "B", 32)
	_ = f.SetColWidth(sheetName, "C", "C", 9)
	_ = f.SetColWidth(sheetName, "D", "E", 20)
	_ = f.SetColWidth(sheetName, "F", "F", 40)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"code", sched.Course.Code,
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func (s *Service) format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(s.loc).Format("2006-01-02 15:04")
}

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/syllabus-sync/internal/common"
	"github.com/joseph-ayodele/syllabus-sync/internal/entity"
	"github.com/joseph-ayodele/syllabus-sync/internal/syllabus"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// multipart framing on top of the file itself
const multipartOverhead = 1 << 20

type SyllabusService interface {
	Upload(ctx context.Context, req syllabus.UploadRequest) (*entity.UploadResult, error)
	FromText(ctx context.Context, req syllabus.TextRequest) (*entity.UploadResult, error)
	MaxBytes() int64
}

type CourseService interface {
	GetCourse(ctx context.Context, code string) (*entity.Course, error)
	ListCourses(ctx context.Context, subject string) ([]*entity.Course, error)
	Schedule(ctx context.Context, code string) (*entity.CourseSchedule, error)
}

type ExportService interface {
	ExportCourseScheduleXLSX(ctx context.Context, code string) ([]byte, error)
}

type HealthChecker interface {
	HealthCheck(ctx context.Context, timeout time.Duration) error
}

// Handler holds the HTTP endpoints. Any dependency may be nil in tests that do
// not hit its routes.
type Handler struct {
	syllabi SyllabusService
	courses CourseService
	export  ExportService
	db      HealthChecker
	logger  *slog.Logger
}

func NewHandler(syllabi SyllabusService, courses CourseService, export ExportService, db HealthChecker, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{syllabi: syllabi, courses: courses, export: export, db: db, logger: logger}
}

// Health reports the process and, when wired, the database.
// GET /health
func (h *Handler) Health(c *gin.Context) {
	if h.db != nil {
		if err := h.db.HealthCheck(c.Request.Context(), 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// UploadSyllabus extracts deadlines from one document.
// POST /api/v1/syllabi (multipart: file, roster?, termDates?)
func (h *Handler) UploadSyllabus(c *gin.Context) {
	log := common.LoggerFromContext(c.Request.Context(), h.logger)
	max := h.syllabi.MaxBytes()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max+multipartOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Fail(c, common.NewAppError("PAYLOAD_TOO_LARGE", fmt.Sprintf("file exceeds %d MB", max>>20), common.ErrTooLarge))
			return
		}
		Fail(c, common.InvalidArgumentErrorf("multipart field \"file\" is required"))
		return
	}

	contentType := uploadContentType(fh.Header.Get("Content-Type"), fh.Filename)
	f, err := fh.Open()
	if err != nil {
		Fail(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer f.Close()

	log.Info("syllabus.upload.received", "filename", fh.Filename, "size", fh.Size, "content_type", contentType)
	res, err := h.syllabi.Upload(c.Request.Context(), syllabus.UploadRequest{
		File:        f,
		Filename:    fh.Filename,
		ContentType: contentType,
		Size:        fh.Size,
		Roster:      c.PostForm("roster"),
		TermDates:   c.PostForm("termDates"),
	})
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, res)
}

type textRequest struct {
	Text      string `json:"text"`
	Filename  string `json:"filename"`
	Roster    string `json:"roster"`
	TermDates string `json:"termDates"`
}

// ExtractText runs the extraction client on pasted text.
// POST /api/v1/syllabi/text
func (h *Handler) ExtractText(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, common.InvalidArgumentErrorf("invalid JSON body: %v", err))
		return
	}
	res, err := h.syllabi.FromText(c.Request.Context(), syllabus.TextRequest{
		Text:         req.Text,
		FilenameHint: req.Filename,
		Roster:       req.Roster,
		TermDates:    req.TermDates,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, res)
}

// GetCourse GET /api/v1/courses/:code
func (h *Handler) GetCourse(c *gin.Context) {
	course, err := h.courses.GetCourse(c.Request.Context(), c.Param("code"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, course)
}

// ListCourses GET /api/v1/courses?subject=CS
func (h *Handler) ListCourses(c *gin.Context) {
	list, err := h.courses.ListCourses(c.Request.Context(), c.Query("subject"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, list)
}

// CourseExams GET /api/v1/courses/:code/exams
func (h *Handler) CourseExams(c *gin.Context) {
	sched, err := h.courses.Schedule(c.Request.Context(), c.Param("code"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, sched)
}

// ExportCourseExams GET /api/v1/courses/:code/exams/export
func (h *Handler) ExportCourseExams(c *gin.Context) {
	code := c.Param("code")
	buf, err := h.export.ExportCourseScheduleXLSX(c.Request.Context(), code)
	if err != nil {
		Fail(c, err)
		return
	}
	filename := strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(code)), " ", "") + "-exams.xlsx"
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf)
}

// uploadContentType trusts the part header unless the client left it generic,
// in which case the extension decides.
func uploadContentType(header, filename string) string {
	ct := strings.TrimSpace(header)
	if ct != "" && !strings.HasPrefix(strings.ToLower(ct), "application/octet-stream") {
		return ct
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); byExt != "" {
		return byExt
	}
	return ct
}

// Package syllabus runs the upload path: text extraction, then one LLM call.
// Nothing here is persisted; the result goes back to the client for review.
package syllabus

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/syllabus-sync/constants"
	"github.com/joseph-ayodele/syllabus-sync/internal/common"
	"github.com/joseph-ayodele/syllabus-sync/internal/entity"
	"github.com/joseph-ayodele/syllabus-sync/internal/llm"
	"github.com/joseph-ayodele/syllabus-sync/internal/terms"
	"github.com/joseph-ayodele/syllabus-sync/internal/textextract"
)

// TextExtractor is satisfied by *textextract.Extractor.
type TextExtractor interface {
	ExtractUpload(ctx context.Context, r io.Reader, filename string) (textextract.Result, error)
}

type Service struct {
	extractor TextExtractor
	deadlines llm.DeadlineExtractor
	calendar  *terms.Calendar
	maxBytes  int64
	logger    *slog.Logger
}

// NewService caps uploads at maxUploadMB (constants.MaxUploadMBDefault when <= 0).
func NewService(extractor TextExtractor, deadlines llm.DeadlineExtractor, calendar *terms.Calendar, maxUploadMB int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if maxUploadMB <= 0 {
		maxUploadMB = constants.MaxUploadMBDefault
	}
	return &Service{
		extractor: extractor,
		deadlines: deadlines,
		calendar:  calendar,
		maxBytes:  int64(maxUploadMB) << 20,
		logger:    logger,
	}
}

func (s *Service) MaxBytes() int64 {
	return s.maxBytes
}

type UploadRequest struct {
	File        io.Reader
	Filename    string
	ContentType string
	Size        int64
	Roster      string // term dates come from the calendar when set
	TermDates   string // overrides Roster
}

type TextRequest struct {
	Text         string
	FilenameHint string
	Roster       string
	TermDates    string
}

// Upload gates the document by content type and size, extracts its text and
// asks the model for deadlines. Extraction is nil when the model answer was unusable.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*entity.UploadResult, error) {
	format, ok := constants.FormatForContentType(req.ContentType)
	if !ok {
		s.logger.Warn("syllabus.upload.rejected_content_type", "content_type", req.ContentType, "filename", req.Filename)
		return nil, common.NewAppError("UNSUPPORTED_MEDIA_TYPE", fmt.Sprintf("content type %q is not accepted", req.ContentType), common.ErrUnsupported)
	}
	if req.Size > s.maxBytes {
		return nil, common.NewAppError("PAYLOAD_TOO_LARGE", fmt.Sprintf("file exceeds %d MB", s.maxBytes>>20), common.ErrTooLarge)
	}
	termDates, err := s.termDates(req.Roster, req.TermDates)
	if err != nil {
		return nil, err
	}

	// the temp file is named from the gated format when the filename does not say
	name := filepath.Base(req.Filename)
	if constants.MapExtToFormat(filepath.Ext(name)) != format {
		name = strings.TrimSuffix(name, filepath.Ext(name)) + constants.ExtForFormat(format)
	}

	// one byte past the cap tells an oversize body from an exact fit
	body := io.LimitReader(req.File, s.maxBytes+1)
	counted := &countingReader{r: body}
	res, err := s.extractor.ExtractUpload(ctx, counted, name)
	if counted.n > s.maxBytes {
		return nil, common.NewAppError("PAYLOAD_TOO_LARGE", fmt.Sprintf("file exceeds %d MB", s.maxBytes>>20), common.ErrTooLarge)
	}
	if err != nil {
		s.logger.Error("syllabus.extract_failed", "filename", req.Filename, "format", format, "error", err)
		return nil, err
	}
	for _, w := range res.Warnings {
		s.logger.Warn("syllabus.extract_warning", "filename", req.Filename, "warning", w)
	}

	return s.derive(ctx, res.Text, req.Filename, termDates)
}

// FromText skips extraction for pasted syllabus text.
func (s *Service) FromText(ctx context.Context, req TextRequest) (*entity.UploadResult, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, common.InvalidArgumentErrorf("text is required")
	}
	termDates, err := s.termDates(req.Roster, req.TermDates)
	if err != nil {
		return nil, err
	}
	return s.derive(ctx, textextract.Normalize(req.Text), req.FilenameHint, termDates)
}

func (s *Service) derive(ctx context.Context, text, filename, termDates string) (*entity.UploadResult, error) {
	out := &entity.UploadResult{Text: text}
	if strings.TrimSpace(text) == "" {
		s.logger.Warn("syllabus.empty_text", "filename", filename)
		return out, nil
	}

	start := time.Now()
	fields, _, err := s.deadlines.ExtractDeadlines(ctx, llm.ExtractRequest{
		SyllabusText: text,
		TermDates:    termDates,
		FilenameHint: filename,
	})
	if err != nil {
		s.logger.Error("syllabus.llm_failed", "filename", filename, "error", err)
		return nil, common.NewAppError("LLM_ERROR", "deadline extraction failed", fmt.Errorf("%w: %w", common.ErrUpstream, err))
	}
	if fields == nil {
		s.logger.Warn("syllabus.extraction_unusable", "filename", filename, "elapsed_ms", time.Since(start).Milliseconds())
		return out, nil
	}

	out.Extraction = fields.ToEntity()
	s.logger.Info("syllabus.extracted",
		"filename", filename,
		"course_code", out.Extraction.CourseCode,
		"todos", len(out.Extraction.Todos),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (s *Service) termDates(roster, explicit string) (string, error) {
	if d := strings.TrimSpace(explicit); d != "" {
		return d, nil
	}
	roster = strings.ToUpper(strings.TrimSpace(roster))
	if roster == "" {
		return "", nil
	}
	v := common.NewValidator().Field("roster", roster, common.RosterToken)
	if err := common.ValidateAndReturnError(v); err != nil {
		return "", err
	}
	dates := s.calendar.TermDates(roster)
	if dates == "" {
		s.logger.Warn("syllabus.term_dates_unknown", "roster", roster)
	}
	return dates, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Package textextract pulls plain text out of uploaded syllabus documents.
package textextract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/syllabus-sync/constants"
	"github.com/joseph-ayodele/syllabus-sync/internal/common"
)

var (
	ErrFileNotFound      = errors.New("document not found")
	ErrParse             = errors.New("document could not be parsed")
	ErrUnsupportedFormat = fmt.Errorf("unsupported document format: %w", common.ErrUnsupported)
)

type Config struct {
	Pdftotext string // binary name or absolute path; empty -> embedded PDF reader
	TmpDir    string // where uploads are staged; empty -> os.TempDir()
}

type Result struct {
	Text     string
	Pages    int
	Format   string // constants.PDF | constants.DOCX | constants.TXT
	Method   string // "pdf-embedded" | "pdftotext" | "docx-xml" | "plain"
	Duration time.Duration
	Warnings []string
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{cfg: cfg, runner: newCommandRunner(logger), logger: logger}
}

// WithRunner swaps the command runner used for pdftotext.
func (e *Extractor) WithRunner(r Runner) *Extractor {
	e.runner = r
	return e
}

// Extract picks a strategy based on file extension.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{}, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return Result{}, fmt.Errorf("stat %s: %w", path, err)
	}

	ext := constants.NormalizeExt(filepath.Ext(path))
	format := constants.MapExtToFormat(ext)
	e.logger.Debug("textextract.start", "path", path, "format", format)

	var (
		res Result
		err error
	)
	switch format {
	case constants.PDF:
		res, err = e.extractPDF(ctx, path)
	case constants.DOCX:
		res, err = extractDOCX(path)
	case constants.TXT:
		res, err = extractPlain(path)
	default:
		e.logger.Warn("textextract.unsupported", "path", path, "ext", ext)
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	res.Format = format
	res.Duration = time.Since(start)
	if err != nil {
		e.logger.Error("textextract.failed", "path", path, "method", res.Method, "error", err)
		return res, err
	}
	res.Text = Normalize(res.Text)
	e.logger.Info("textextract.done",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// ExtractUpload stages r in a temp file named after filename's extension, extracts
// it and removes the temp file on every exit path.
func (e *Extractor) ExtractUpload(ctx context.Context, r io.Reader, filename string) (Result, error) {
	ext := filepath.Ext(filename)
	if constants.MapExtToFormat(ext) == "" {
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	tmp, err := os.CreateTemp(e.cfg.TmpDir, "syllabus-*"+"."+constants.NormalizeExt(ext))
	if err != nil {
		return Result{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if rmErr := os.Remove(tmpPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			e.logger.Warn("textextract.cleanup_failed", "path", tmpPath, "error", rmErr)
		}
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return Result{}, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Result{}, fmt.Errorf("close temp file: %w", err)
	}
	return e.Extract(ctx, tmpPath)
}

func extractPlain(path string) (Result, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Result{Method: "plain"}, fmt.Errorf("read %s: %w", path, err)
	}
	return Result{Text: string(b), Pages: 1, Method: "plain"}, nil
}

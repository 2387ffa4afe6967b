package textextract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

func (e *Extractor) extractPDF(ctx context.Context, path string) (Result, error) {
	if e.cfg.Pdftotext != "" {
		return e.pdfToText(ctx, path)
	}
	return pdfEmbedded(path)
}

func (e *Extractor) pdfToText(ctx context.Context, path string) (Result, error) {
	// pdftotext -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return Result{Method: "pdftotext", Warnings: []string{string(errb)}}, fmt.Errorf("%w: pdftotext: %v", ErrParse, err)
	}
	text := string(out)
	// pdftotext separates pages with \f
	pages := 1 + strings.Count(strings.TrimRight(text, "\f"), "\f")
	return Result{Text: text, Pages: pages, Method: "pdftotext"}, nil
}

func pdfEmbedded(path string) (res Result, err error) {
	res.Method = "pdf-embedded"
	// the reader panics on some malformed streams
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrParse, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return res, fmt.Errorf("%w: %v", ErrParse, err)
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return res, fmt.Errorf("%w: %v", ErrParse, err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return res, fmt.Errorf("%w: %v", ErrParse, err)
	}
	res.Text = buf.String()
	res.Pages = r.NumPage()
	if strings.TrimSpace(res.Text) == "" {
		res.Warnings = append(res.Warnings, "pdf has no text layer")
	}
	return res, nil
}

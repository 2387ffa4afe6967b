package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/joseph-ayodele/syllabus-sync/internal/common"
)

// maxResponseBytes caps how much of a model response is read.
const maxResponseBytes = 4 << 20

// Request is one JSON POST to a model provider. Provider specifics (URL,
// auth header) are the caller's.
type Request struct {
	ID      string // correlates the http log lines with the caller's
	URL     string
	Body    any
	Headers map[string]string
}

type Response struct {
	Status  int
	Body    []byte
	Elapsed time.Duration
}

// StatusError is returned for a non-2xx answer. It wraps common.ErrUpstream.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("model returned status %d: %s", e.Status, e.Body)
}

func (e *StatusError) Unwrap() error { return common.ErrUpstream }

// PostJSON sends req and reads the answer. Transport failures wrap
// common.ErrUpstream as well, so callers can map both to one outcome.
func PostJSON(ctx context.Context, client *http.Client, req Request, logger *slog.Logger) (Response, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	start := time.Now()

	payload, err := json.Marshal(req.Body)
	if err != nil {
		return Response{}, fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	logger.Debug("llm.http.request", "req_id", req.ID, "url", req.URL, "content_length", len(payload))

	resp, err := client.Do(httpReq)
	if err != nil {
		logger.Error("llm.http.send_error", "req_id", req.ID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return Response{}, fmt.Errorf("send request: %w: %w", common.ErrUpstream, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Warn("llm.http.response_body_close_error", "req_id", req.ID, "error", err)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Response{Status: resp.StatusCode}, fmt.Errorf("read response: %w: %w", common.ErrUpstream, err)
	}
	out := Response{Status: resp.StatusCode, Body: raw, Elapsed: time.Since(start)}

	logger.Info("llm.http.response",
		"req_id", req.ID,
		"status", out.Status,
		"bytes", len(raw),
		"elapsed_ms", out.Elapsed.Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return out, &StatusError{Status: resp.StatusCode, Body: snippet(raw, 512)}
	}
	return out, nil
}

func snippet(b []byte, max int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/syllabus-sync/internal/llm"
)

var _ llm.DeadlineExtractor = (*Client)(nil)

type chatCompletion struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ExtractDeadlines implements llm.DeadlineExtractor with one text-only chat/completions call.
// Transport failures and non-2xx answers are errors; content that does not parse
// into a valid document gives a nil result and a nil error.
func (c *Client) ExtractDeadlines(ctx context.Context, req llm.ExtractRequest) (*llm.SyllabusFields, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(req.SyllabusText),
		"has_term_dates", strings.TrimSpace(req.TermDates) != "",
		"filename", req.FilenameHint,
	)

	schema := llm.BuildSyllabusJSONSchema()
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildSystemPrompt(req.TermDates)},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
			{"role": "user", "content": llm.BuildUserPrompt(req, c.cfg.MaxTextChars)},
		},
	}

	resp, err := llm.PostJSON(ctx, c.http, llm.Request{
		ID:      rid,
		URL:     strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions",
		Body:    body,
		Headers: map[string]string{"Authorization": "Bearer " + c.cfg.APIKey},
	}, c.logger)
	if err != nil {
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "status", resp.Status, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, nil, fmt.Errorf("openai chat completion: %w", err)
	}
	raw := resp.Body

	var cc chatCompletion
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, raw, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.extract.no_choices",
			"req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, raw, fmt.Errorf("no choices in openai response")
	}

	fields, accepted := c.parser.Parse(cc.Choices[0].Message.Content)
	if fields == nil {
		c.logger.Warn("llm.extract.unusable_content",
			"req_id", rid,
			"content_len", len(cc.Choices[0].Message.Content),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, accepted, nil
	}

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"course_code", fields.CourseCode,
		"todos", len(fields.Todos),
		"grading_categories", len(fields.GradingPolicy),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return fields, accepted, nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

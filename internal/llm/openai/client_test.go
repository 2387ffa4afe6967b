package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/syllabus-sync/internal/llm"
)

func chatServer(t *testing.T, status int, content string, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
			return
		}
		resp := map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": content}}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(baseURL string, maxChars int) *Client {
	return NewClient(Config{
		APIKey:       "test-key",
		BaseURL:      baseURL,
		Model:        "gpt-4o-mini",
		Timeout:      5 * time.Second,
		MaxTextChars: maxChars,
		Lenient:      true,
	}, nil)
}

func TestExtractDeadlines_OK(t *testing.T) {
	var body map[string]any
	content := "```json\n{\"courseCode\":\"CS 2110\",\"todos\":[{\"title\":\"A1\",\"date\":\"2024-01-30\",\"eventType\":\"assignment\",\"priority\":2}],\"gradingPolicy\":{\"Assignments\":40}}\n```"
	srv := chatServer(t, http.StatusOK, content, &body)

	c := newTestClient(srv.URL, 0)
	fields, raw, err := c.ExtractDeadlines(context.Background(), llm.ExtractRequest{
		SyllabusText: "CS 2110 syllabus",
		TermDates:    "Classes begin Jan 22",
		FilenameHint: "cs2110.pdf",
	})
	require.NoError(t, err)
	require.NotNil(t, fields)
	assert.Equal(t, "CS 2110", fields.CourseCode)
	require.Len(t, fields.Todos, 1)
	assert.Equal(t, 2, fields.Todos[0].Priority)
	assert.True(t, json.Valid(raw))

	assert.Equal(t, "gpt-4o-mini", body["model"])
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 3)
	sys := msgs[0].(map[string]any)["content"].(string)
	assert.Contains(t, sys, "Classes begin Jan 22")
	user := msgs[2].(map[string]any)["content"].(string)
	assert.Contains(t, user, "Filename: cs2110.pdf")
}

func TestExtractDeadlines_TruncatesText(t *testing.T) {
	var body map[string]any
	srv := chatServer(t, http.StatusOK, `{"todos":[]}`, &body)

	c := newTestClient(srv.URL, 100)
	_, _, err := c.ExtractDeadlines(context.Background(), llm.ExtractRequest{SyllabusText: strings.Repeat("x", 500)})
	require.NoError(t, err)

	user := body["messages"].([]any)[2].(map[string]any)["content"].(string)
	assert.Contains(t, user, strings.Repeat("x", 100)+"\n…(truncated)")
	assert.NotContains(t, user, strings.Repeat("x", 101))
}

func TestExtractDeadlines_MalformedContentIsNil(t *testing.T) {
	srv := chatServer(t, http.StatusOK, "I could not find any deadlines.", nil)

	fields, _, err := newTestClient(srv.URL, 0).ExtractDeadlines(context.Background(), llm.ExtractRequest{SyllabusText: "x"})
	require.NoError(t, err)
	assert.Nil(t, fields)
}

func TestExtractDeadlines_Non2xxIsError(t *testing.T) {
	srv := chatServer(t, http.StatusTooManyRequests, "", nil)

	fields, _, err := newTestClient(srv.URL, 0).ExtractDeadlines(context.Background(), llm.ExtractRequest{SyllabusText: "x"})
	require.Error(t, err)
	assert.Nil(t, fields)
	assert.Contains(t, err.Error(), "429")
}

func TestExtractDeadlines_NetworkErrorPropagates(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{"todos":[]}`, nil)
	url := srv.URL
	srv.Close()

	_, _, err := newTestClient(url, 0).ExtractDeadlines(context.Background(), llm.ExtractRequest{SyllabusText: "x"})
	require.Error(t, err)
}

func TestExtractDeadlines_NoChoicesIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, _, err := newTestClient(srv.URL, 0).ExtractDeadlines(context.Background(), llm.ExtractRequest{SyllabusText: "x"})
	require.Error(t, err)
}

// Package catalog talks to the public class roster API.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/joseph-ayodele/syllabus-sync/internal/common"
)

const DefaultBaseURL = "https://classes.cornell.edu/api/2.0"

type Config struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration // 0 disables caching
}

// Client fetches subjects and classes for a roster. Responses are cached per
// roster (and subject) for CacheTTL.
type Client struct {
	cfg    Config
	http   *http.Client
	cache  *cache.Cache
	logger *slog.Logger
}

func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{cfg: cfg, http: httpClient, logger: logger}
	if cfg.CacheTTL > 0 {
		c.cache = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	return c
}

// Subjects lists the subject codes offered in roster (e.g. "FA23").
func (c *Client) Subjects(ctx context.Context, roster string) ([]Subject, error) {
	key := "subjects:" + roster
	if v, ok := c.cached(key); ok {
		return v.([]Subject), nil
	}

	var env envelope[subjectsData]
	q := url.Values{"roster": {roster}}
	if err := c.get(ctx, "/config/subjects.json", q, &env); err != nil {
		return nil, err
	}
	c.store(key, env.Data.Subjects)
	return env.Data.Subjects, nil
}

// Classes lists every class of subject in roster.
func (c *Client) Classes(ctx context.Context, roster, subject string) ([]Class, error) {
	key := "classes:" + roster + ":" + subject
	if v, ok := c.cached(key); ok {
		return v.([]Class), nil
	}

	var env envelope[classesData]
	q := url.Values{"roster": {roster}, "subject": {subject}}
	if err := c.get(ctx, "/search/classes.json", q, &env); err != nil {
		return nil, err
	}
	c.store(key, env.Data.Classes)
	return env.Data.Classes, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, env interface{ status() (string, string) }) error {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + path + "?" + q.Encode()
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("catalog.http.send_error", "url", endpoint, "error", err)
		return fmt.Errorf("catalog request %s: %w", path, common.ErrUpstream)
	}
	defer resp.Body.Close()

	c.logger.Debug("catalog.http.response",
		"url", endpoint,
		"status", resp.StatusCode,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog %s returned %s: %w", path, resp.Status, common.ErrUpstream)
	}
	if err := json.NewDecoder(resp.Body).Decode(env); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if status, msg := env.status(); status != "success" {
		return fmt.Errorf("catalog %s status %q %s: %w", path, status, msg, common.ErrUpstream)
	}
	return nil
}

func (e *envelope[T]) status() (string, string) {
	return e.Status, e.Message
}

func (c *Client) cached(key string) (any, bool) {
	if c.cache == nil {
		return nil, false
	}
	return c.cache.Get(key)
}

func (c *Client) store(key string, v any) {
	if c.cache != nil {
		c.cache.SetDefault(key, v)
	}
}

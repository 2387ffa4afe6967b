package openai

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joseph-ayodele/syllabus-sync/internal/llm"
)

// Config for the OpenAI client.
type Config struct {
	APIKey       string        // if empty, falls back to env OPENAI_API_KEY
	BaseURL      string        // default https://api.openai.com/v1
	Model        string        // e.g., "gpt-4o-mini"
	Temperature  float32       // 0..2
	Timeout      time.Duration // http client timeout
	MaxTextChars int           // syllabus text cap, default 30000
	Lenient      bool          // sanitize and re-validate when strict validation fails
}

type Client struct {
	cfg    Config
	http   *http.Client
	parser *llm.ResponseParser
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxTextChars <= 0 {
		cfg.MaxTextChars = llm.DefaultMaxTextChars
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		parser: llm.NewResponseParser(cfg.Lenient, logger),
		logger: logger,
	}
}

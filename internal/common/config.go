package common

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Extract   ExtractConfig   `mapstructure:"extract"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Registrar RegistrarConfig `mapstructure:"registrar"`
	Terms     TermsConfig     `mapstructure:"terms"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr    string     `mapstructure:"http_addr"`
	GRPCAddr    string     `mapstructure:"grpc_addr"`
	MaxUploadMB int        `mapstructure:"max_upload_mb"`
	CORS        CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string        `mapstructure:"driver"` // postgres | sqlite
	DSN              string        `mapstructure:"dsn"`
	MaxConns         int32         `mapstructure:"max_conns"`
	MinConns         int32         `mapstructure:"min_conns"`
	MaxConnLifetime  time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime  time.Duration `mapstructure:"max_conn_idle_time"`
	DialTimeout      time.Duration `mapstructure:"dial_timeout"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json | text
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	APIKey       string        `mapstructure:"api_key"`
	Model        string        `mapstructure:"model"`
	Temperature  float32       `mapstructure:"temperature"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxTextChars int           `mapstructure:"max_text_chars"`
	Lenient      bool          `mapstructure:"lenient"`
}

// ExtractConfig controls document text extraction.
type ExtractConfig struct {
	Pdftotext string `mapstructure:"pdftotext"` // empty -> embedded PDF reader
	TmpDir    string `mapstructure:"tmp_dir"`
}

// CatalogConfig points at the class roster API.
type CatalogConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// RegistrarConfig points at the exam schedule pages.
type RegistrarConfig struct {
	PrelimURL    string        `mapstructure:"prelim_url"`
	FinalURL     string        `mapstructure:"final_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	HostTimezone string        `mapstructure:"host_timezone"`
	ExamTimezone string        `mapstructure:"exam_timezone"`
}

type TermsConfig struct {
	File string `mapstructure:"file"`
}

// Load reads configuration from defaults, an optional YAML file and the environment.
// Priority: env > file > defaults. An empty path searches ./configs and the working dir.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.grpc_addr", ":9090")
	v.SetDefault("server.max_upload_mb", 10)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:3000"})

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "30m")
	v.SetDefault("database.max_conn_idle_time", "5m")
	v.SetDefault("database.dial_timeout", "3s")
	v.SetDefault("database.statement_timeout", "0s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.max_text_chars", 30000)
	v.SetDefault("llm.lenient", true)

	v.SetDefault("extract.pdftotext", "")
	v.SetDefault("extract.tmp_dir", "")

	v.SetDefault("catalog.base_url", "https://classes.cornell.edu/api/2.0")
	v.SetDefault("catalog.timeout", "20s")
	v.SetDefault("catalog.cache_ttl", "1h")

	v.SetDefault("registrar.prelim_url", "https://registrar.cornell.edu/exams/spring-prelim-schedule")
	v.SetDefault("registrar.final_url", "https://registrar.cornell.edu/exams/spring-final-exam-schedule")
	v.SetDefault("registrar.timeout", "20s")
	v.SetDefault("registrar.host_timezone", "America/New_York")
	v.SetDefault("registrar.exam_timezone", "America/New_York")

	v.SetDefault("terms.file", "configs/terms.yaml")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SYLLABUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Keep the conventional names working alongside the prefixed ones.
	_ = v.BindEnv("llm.api_key", "SYLLABUS_LLM_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("llm.model", "SYLLABUS_LLM_MODEL", "OPENAI_MODEL")
	_ = v.BindEnv("database.dsn", "SYLLABUS_DATABASE_DSN", "DB_URL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings every binary needs. The LLM key is checked by
// the binaries that call the model.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "database.dsn (DB_URL) is required", ErrInvalidInput)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("database.driver %q must be postgres or sqlite", c.Database.Driver), ErrInvalidInput)
	}
	if c.Server.MaxUploadMB <= 0 {
		return NewAppError("CONFIG_ERROR", "server.max_upload_mb must be positive", ErrInvalidInput)
	}
	if _, err := time.LoadLocation(c.Registrar.HostTimezone); err != nil {
		return NewAppError("CONFIG_ERROR", "registrar.host_timezone is not a valid zone", err)
	}
	if _, err := time.LoadLocation(c.Registrar.ExamTimezone); err != nil {
		return NewAppError("CONFIG_ERROR", "registrar.exam_timezone is not a valid zone", err)
	}
	return nil
}

// ValidateLLM is called by binaries that talk to the model.
func (c *Config) ValidateLLM() error {
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	return nil
}

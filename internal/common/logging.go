package common

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the slog logger used by the services.
func NewLogger(cfg LogConfig) *slog.Logger {
	return newSlog(os.Stdout, cfg)
}

// NewLoggerTo is NewLogger writing to w. The CLI logs to stderr and keeps stdout for results.
func NewLoggerTo(w io.Writer, cfg LogConfig) *slog.Logger {
	return newSlog(w, cfg)
}

func newSlog(w io.Writer, cfg LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseSlogLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseSlogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewAccessLogger builds the zap logger behind the HTTP access log.
func NewAccessLogger(cfg LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	switch strings.ToLower(cfg.Format) {
	case "text", "console":
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build access logger: %w", err)
	}
	return logger, nil
}

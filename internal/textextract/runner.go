package textextract

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"time"
	"unicode/utf8"
)

// stderrLogCap bounds how much tool stderr goes into a single log record.
const stderrLogCap = 4 << 10

// Runner runs an external converter such as pdftotext. Tests swap it out.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// commandRunner shells out with exec and logs one textextract.exec.* record
// per invocation.
type commandRunner struct {
	logger *slog.Logger
}

func newCommandRunner(logger *slog.Logger) commandRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return commandRunner{logger: logger}
}

func (r commandRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	began := time.Now()
	err := cmd.Run()
	attrs := []any{
		"tool", name,
		"argc", len(args),
		"elapsed_ms", time.Since(began).Milliseconds(),
	}

	if err == nil {
		r.logger.Debug("textextract.exec.done", append(attrs, "stdout_bytes", stdout.Len())...)
		return stdout.Bytes(), stderr.Bytes(), nil
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	r.logger.Error("textextract.exec.failed", append(attrs,
		"exit_code", exitCode,
		"stderr", clip(stderr.Bytes(), stderrLogCap),
		"error", err,
	)...)
	return stdout.Bytes(), stderr.Bytes(), err
}

// clip shortens b to at most n bytes without splitting a UTF-8 sequence.
func clip(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(b[cut]) {
		cut--
	}
	return string(b[:cut]) + "…"
}

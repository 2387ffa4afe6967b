package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/syllabus-sync/internal/common"
	"github.com/joseph-ayodele/syllabus-sync/internal/llm/openai"
	"github.com/joseph-ayodele/syllabus-sync/internal/syllabus"
	"github.com/joseph-ayodele/syllabus-sync/internal/terms"
	"github.com/joseph-ayodele/syllabus-sync/internal/textextract"
)

// llm runs one syllabus file through extraction and the model, optionally
// several times, and prints each result as JSON. Useful for checking how
// stable the model output is for a given document.
func main() {
	var (
		configPath = flag.String("config", "", "path to config.yaml")
		roster     = flag.String("roster", "", "roster token used to look up term dates, e.g. FA23")
		times      = flag.Int("times", 1, "number of model calls")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if flag.NArg() != 1 {
		logger.Error("usage: llm [-config path] [-roster FA23] [-times n] <syllabus file>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg, err := common.Load(*configPath)
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(2)
	}
	if err := cfg.ValidateLLM(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(2)
	}

	calendar, err := terms.Load(cfg.Terms.File)
	if errors.Is(err, fs.ErrNotExist) {
		calendar = terms.NewCalendar()
	} else if err != nil {
		logger.Error("load term calendar", "error", err)
		os.Exit(2)
	}

	extractor := textextract.NewExtractor(textextract.Config{
		Pdftotext: cfg.Extract.Pdftotext,
		TmpDir:    cfg.Extract.TmpDir,
	}, logger)
	model := openai.NewClient(openai.Config{
		APIKey:       cfg.LLM.APIKey,
		BaseURL:      cfg.LLM.BaseURL,
		Model:        cfg.LLM.Model,
		Temperature:  cfg.LLM.Temperature,
		Timeout:      cfg.LLM.Timeout,
		MaxTextChars: cfg.LLM.MaxTextChars,
		Lenient:      cfg.LLM.Lenient,
	}, logger)
	svc := syllabus.NewService(extractor, model, calendar, cfg.Server.MaxUploadMB, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	text, err := extractor.Extract(ctx, path)
	if err != nil {
		logger.Error("extract text", "path", path, "error", err)
		os.Exit(1)
	}
	logger.Info("extract.ok", "method", text.Method, "pages", text.Pages, "chars", len(text.Text))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	base := filepath.Base(path)
	for i := 1; i <= *times; i++ {
		runCtx, cancelRun := context.WithTimeout(context.Background(), cfg.LLM.Timeout+10*time.Second)
		start := time.Now()
		res, err := svc.FromText(runCtx, syllabus.TextRequest{Text: text.Text, FilenameHint: base, Roster: *roster})
		cancelRun()
		if err != nil {
			logger.Error("llm.run.error", "iter", i, "error", err)
			continue
		}
		logger.Info("llm.run.ok", "iter", i, "elapsed_ms", time.Since(start).Milliseconds())
		if err := enc.Encode(res); err != nil {
			logger.Error("encode result", "error", err)
			os.Exit(1)
		}
	}
}

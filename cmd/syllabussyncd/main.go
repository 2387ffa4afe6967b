package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joseph-ayodele/syllabus-sync/internal/common"
	"github.com/joseph-ayodele/syllabus-sync/internal/courses"
	"github.com/joseph-ayodele/syllabus-sync/internal/export"
	"github.com/joseph-ayodele/syllabus-sync/internal/llm/openai"
	"github.com/joseph-ayodele/syllabus-sync/internal/repository"
	"github.com/joseph-ayodele/syllabus-sync/internal/server"
	"github.com/joseph-ayodele/syllabus-sync/internal/syllabus"
	"github.com/joseph-ayodele/syllabus-sync/internal/terms"
	"github.com/joseph-ayodele/syllabus-sync/internal/textextract"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default: ./configs/config.yaml)")
	flag.Parse()

	cfg, err := common.Load(*configPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(2)
	}
	if err := cfg.ValidateLLM(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(2)
	}

	logger := common.NewLogger(cfg.Log)
	slog.SetDefault(logger)
	access, err := common.NewAccessLogger(cfg.Log)
	if err != nil {
		logger.Error("build access logger", "error", err)
		os.Exit(2)
	}
	defer func() { _ = access.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := server.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		os.Exit(1)
	}
	defer db.Close(logger)
	if err := server.PingDB(ctx, db, logger, 3*time.Second); err != nil {
		os.Exit(1)
	}

	examLoc, err := time.LoadLocation(cfg.Registrar.ExamTimezone)
	if err != nil {
		logger.Error("load exam timezone", "error", err)
		os.Exit(2)
	}

	calendar, err := terms.Load(cfg.Terms.File)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Warn("terms.file_missing", "path", cfg.Terms.File)
		calendar = terms.NewCalendar()
	case err != nil:
		logger.Error("load term calendar", "path", cfg.Terms.File, "error", err)
		os.Exit(2)
	}

	courseRepo := repository.NewCourseRepository(db, logger)
	scheduleRepo := repository.NewScheduleRepository(db, logger)

	courseSvc := courses.NewService(courseRepo, scheduleRepo, logger)
	exportSvc := export.NewService(courseSvc, examLoc, logger)

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
	syllabusSvc := syllabus.NewService(extractor, model, calendar, cfg.Server.MaxUploadMB, logger)

	handler := server.NewHandler(syllabusSvc, courseSvc, exportSvc, db, logger)
	router := server.NewRouter(server.RouterConfig{AllowOrigins: cfg.Server.CORS.AllowOrigins}, handler, access)

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer, hs := server.NewGRPCServer()
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("grpc listen", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	go server.WatchHealth(ctx, hs, db, 15*time.Second, logger)

	go func() {
		logger.Info("grpc serving", "addr", cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("grpc serve", "error", err)
			stop()
		}
	}()
	go func() {
		logger.Info("http serving", "addr", cfg.Server.HTTPAddr, "terms", calendar.Rosters())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	grpcServer.GracefulStop()
	logger.Info("stopped")
}

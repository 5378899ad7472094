package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/HiroshiOkada/update-notes/internal/aggregate"
	"github.com/HiroshiOkada/update-notes/internal/api"
	"github.com/HiroshiOkada/update-notes/internal/history"
	"github.com/HiroshiOkada/update-notes/internal/mcpserver"
	"github.com/HiroshiOkada/update-notes/internal/runservice"
	"github.com/HiroshiOkada/update-notes/internal/storage"
)

// setup validates the vault layout and wires storage, engine, ledger, and
// service. Logs go to logSink; the returned cleanup closes the ledger
// database.
func setup(app *application, logSink io.Writer) (*Config, *slog.Logger, *runservice.Service, func(), error) {
	if app.config == nil {
		return nil, nil, nil, nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(logSink, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("input_dir", cfg.Vault.InputDir),
		slog.String("output_dir", cfg.Vault.OutputDirName()),
		slog.String("history_path", cfg.History.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// The vault and its input directory must already exist; the output
	// directory is created on demand.
	inputPath := filepath.Join(cfg.Vault.Path, cfg.Vault.InputDir)
	info, err := os.Stat(inputPath)
	if err != nil || !info.IsDir() {
		return nil, nil, nil, nil, fmt.Errorf("input directory %q does not exist in the vault", cfg.Vault.InputDir)
	}
	if err := os.MkdirAll(filepath.Join(cfg.Vault.Path, cfg.Vault.OutputDirName()), 0o755); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("create output dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := history.Open(cfg.History.Path)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("init history: %w", err)
	}

	engine := aggregate.New(store, logger)
	svc := runservice.NewService(engine, db, cfg.Vault.InputDir, cfg.Vault.OutputDirName())

	return cfg, logger, svc, func() { _ = db.Close() }, nil
}

func newApplication(opts []Option) *application {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// Run performs one consolidation run and records it in the ledger.
func Run(ctx context.Context, opts ...Option) error {
	_, logger, svc, cleanup, err := setup(newApplication(opts), os.Stdout)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := svc.Trigger(ctx)
	if err != nil {
		return fmt.Errorf("consolidation run: %w", err)
	}

	logger.Info("Run recorded",
		slog.Int64("run_id", result.RunID),
		slog.Int("processed", result.Processed),
		slog.Int("files_written", result.FilesWritten))
	return nil
}

// Serve starts the HTTP API with graceful shutdown.
func Serve(ctx context.Context, opts ...Option) error {
	cfg, logger, svc, cleanup, err := setup(newApplication(opts), os.Stdout)
	if err != nil {
		return err
	}
	defer cleanup()

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server.
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// ServeMCP starts the MCP server on stdin/stdout.
func ServeMCP(_ context.Context, opts ...Option) error {
	// stdout carries the MCP protocol, so logs go to stderr here.
	_, logger, svc, cleanup, err := setup(newApplication(opts), os.Stderr)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(svc).ServeStdio()
}

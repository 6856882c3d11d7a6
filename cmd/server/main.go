/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the attendance engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env + environment), then command-line flags
  2. Build the zap logger
  3. Initialize SQLite store and restore the saved state
  4. Apply SETTINGS_FILE overrides, if any
  5. Start the backup scheduler (when BACKUP_DIR is set)
  6. Start the HTTP server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides APP_PORT)
  -db      SQLite database path (overrides DB_PATH)
           Use ":memory:" for in-memory database

ENVIRONMENT:
  APP_PORT, DB_PATH, MIN_DATE, UNDO_CAPACITY, LOG_LEVEL, LOG_FORMAT,
  BACKUP_DIR, BACKUP_INTERVAL, SETTINGS_FILE (see config/config.go)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler, save the state, close the database

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/attendance-engine/api"
	"github.com/warp/attendance-engine/config"
	"github.com/warp/attendance-engine/factory"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Flags
	port := flag.Int("port", cfg.App.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.Store.Path, "SQLite database path")
	flag.Parse()

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer store.Close()

	engine := generic.NewEngine(generic.Options{
		MinDate:      cfg.App.MinDate,
		UndoCapacity: cfg.App.UndoCapacity,
	})

	ctx := context.Background()
	loaded, err := engine.LoadFrom(ctx, store)
	if err != nil {
		logger.Fatal("failed to load saved state", zap.Error(err))
	}
	logger.Info("state loaded",
		zap.Bool("from_store", loaded),
		zap.Int("people", len(engine.People())),
		zap.String("selected", string(engine.Selected())),
	)

	if cfg.App.SettingsFile != "" {
		patch, err := factory.NewSettingsFactory().PatchFromFile(cfg.App.SettingsFile)
		if err != nil {
			logger.Fatal("failed to read settings file", zap.Error(err))
		}
		engine.ApplySettings(patch)
		logger.Info("settings file applied", zap.String("path", cfg.App.SettingsFile))
	}

	handler := api.NewHandler(engine, store, logger)
	router := api.NewRouter(handler)

	scheduler := api.NewBackupScheduler(engine, cfg.Backup.Dir, logger)
	scheduler.Interval = cfg.Backup.Interval
	scheduler.Start()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", zap.Int("port", *port), zap.String("db", *dbPath))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down server", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	scheduler.Stop()

	if err := engine.Persist(shutdownCtx, store); err != nil {
		logger.Error("final save failed", zap.Error(err))
	}

	logger.Info("server stopped")
}


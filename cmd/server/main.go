/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Smart Hisab ledger server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (environment), then parse flags over it
  2. Configure logging
  3. Initialize SQLite store (schema via golang-migrate), optionally reset
  4. Run storage migrations on the stored documents
  5. Bootstrap admin credentials if configured and none exist
  6. Configure HTTP router and start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: $PORT or 8080)
  -db      SQLite database path (default: $DB_PATH or hisab.db)
           Use ":memory:" for in-memory database
  -log     Log level (default: $LOG_LEVEL or info)
  -reset   Clear every stored value before starting (refused in production)

ENVIRONMENT:
  PORT, DB_PATH, LOG_LEVEL, ENVIRONMENT, ADMIN_ID, ADMIN_PASSWORD,
  ALLOWED_ORIGINS. See config/config.go.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - hisab/migrate.go: Storage migrations
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/warp/smart-hisab/api"
	"github.com/warp/smart-hisab/config"
	"github.com/warp/smart-hisab/hisab"
	"github.com/warp/smart-hisab/store/sqlite"
)

func main() {
	cfg := config.Get()

	// Flags
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	logLevel := flag.String("log", cfg.LogLevel, "Log level (debug, info, warn, error)")
	reset := flag.Bool("reset", false, "Clear all stored data before starting (not allowed in production)")
	flag.Parse()

	setupLogging(*logLevel, cfg.IsProduction())

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer store.Close()

	ctx := context.Background()
	if *reset {
		if cfg.IsProduction() {
			log.Fatal("Refusing to reset the database in production")
		}
		if err := store.Reset(ctx); err != nil {
			log.WithError(err).Fatal("Failed to reset database")
		}
		log.WithField("db", *dbPath).Warn("Database reset")
	}

	book := hisab.NewBook(store, hisab.WithLogger(log.WithField("component", "book")))

	version := book.Migrate(ctx)
	log.WithFields(log.Fields{"db": *dbPath, "storageVersion": version}).Info("Storage ready")

	if cfg.AdminID != "" && cfg.AdminPassword != "" && !book.HasAdmin(ctx) {
		if err := book.SetAdminCredentials(ctx, cfg.AdminID, cfg.AdminPassword); err != nil {
			log.WithError(err).Fatal("Failed to store admin credentials")
		}
		log.WithField("admin", cfg.AdminID).Info("Admin credentials created")
	}

	handler := api.NewHandler(book, log.StandardLogger())
	router := api.NewRouter(handler, cfg.AllowedOrigins)

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
		log.WithField("port", *port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	log.Info("Server stopped")
}

func setupLogging(level string, production bool) {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.WithField("level", level).Warn("Unknown log level, using info")
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)

	if production {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

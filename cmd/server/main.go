/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the WFH request engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present), then the YAML config, then flags
  2. Initialize SQLite store
  3. Seed the directory from the configured seed file
  4. Create service, sweep scheduler and API handler
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  YAML config file (default: wfh.yaml, optional)
  -port    HTTP server port (overrides config)
  -db      SQLite database path (overrides config)
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the sweep scheduler (waits for a running sweep)
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/wfh.db"

  # Run with in-memory database and the demo directory
  WFH_SEED_FILE=seed/employees.yaml ./server -db=":memory:"

  # Run on different port
  ./server -port=3000

ENVIRONMENT:
  See config/config.go. A .env file in the working directory is loaded
  first; real environment variables win over it.

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
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/allinone/wfh-engine/api"
	"github.com/allinone/wfh-engine/config"
	"github.com/allinone/wfh-engine/store/sqlite"
	"github.com/allinone/wfh-engine/wfh"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Flags
	configPath := flag.String("config", "wfh.yaml", "YAML config file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	policy, err := cfg.WFHPolicy()
	if err != nil {
		log.Fatalf("Invalid policy: %v", err)
	}

	// Initialize store
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	if cfg.Directory.SeedFile != "" {
		if err := seedDirectory(context.Background(), store, cfg.Directory.SeedFile); err != nil {
			log.Fatalf("Failed to seed directory: %v", err)
		}
	}

	svc := wfh.NewService(store, store, policy)

	scheduler := api.NewSweepScheduler(svc)
	scheduler.CheckInterval = cfg.Sweep.Interval
	scheduler.Enabled = cfg.Sweep.Enabled

	handler := api.NewHandler(svc, store, scheduler)
	handler.Records = store

	router := api.NewRouter(handler, cfg.Server.AllowedOrigins)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", cfg.Server.Port)
		log.Printf("API available at http://localhost:%d/api", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	scheduler.Start()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func seedDirectory(ctx context.Context, store *sqlite.Store, path string) error {
	employees, err := config.LoadSeed(path)
	if err != nil {
		return err
	}
	for _, e := range employees {
		if err := store.SaveEmployee(ctx, e); err != nil {
			return err
		}
	}
	log.Printf("[Directory] Seeded %d employees from %s", len(employees), path)
	return nil
}

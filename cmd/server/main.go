/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the renewal planning server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env overrides (if present)
  2. Parse command-line flags
  3. Load planning configuration (grace table, calendar, capacities)
  4. Initialize SQLite store and seed configured capacities
  5. Configure HTTP router and optional replan scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port      HTTP server port (default: 8080, env PORT)
  -db        SQLite database path (default: renewals.db, env DB_PATH)
             Use ":memory:" for an in-memory database
  -config    Planning config JSON path (env CONFIG_PATH); when omitted,
             a default 26-period calendar anchored next Monday is used
  -schedule  Enable the daily automatic replan scheduler

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  ./server -db="./data/renewals.db" -config="./config/planning.json"
  ./server -db=":memory:" -schedule

SEE ALSO:
  - api/server.go: Router configuration
  - factory/config.go: Planning config schema
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
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/skyfleet/renewal-engine/api"
	"github.com/skyfleet/renewal-engine/factory"
	"github.com/skyfleet/renewal-engine/planning"
	"github.com/skyfleet/renewal-engine/store/sqlite"
)

func main() {
	// .env is optional; real deployments set environment variables directly.
	_ = godotenv.Load()

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("DB_PATH", "renewals.db"), "SQLite database path")
	configPath := flag.String("config", envStr("CONFIG_PATH", ""), "Planning config JSON path")
	schedule := flag.Bool("schedule", false, "Enable the daily automatic replan scheduler")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load planning config: %v", err)
	}

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Seed configured capacities so the allocator and summaries see them.
	ctx := context.Background()
	for code, byCat := range cfg.Capacities {
		for cat, max := range byCat {
			if err := store.SaveCapacity(ctx, code, cat, max); err != nil {
				log.Fatalf("Failed to seed capacity for %s: %v", code, err)
			}
		}
	}

	handler := api.NewHandler(store, cfg.Grace, cfg.Calendar)
	router := api.NewRouter(handler)

	scheduler := api.NewPlanScheduler(handler)
	scheduler.Enabled = *schedule
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Renewal planning server listening on http://localhost:%d", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// loadConfig reads the planning config from disk, falling back to a
// default calendar anchored on the next Monday.
func loadConfig(path string) (*factory.PlanningConfig, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return factory.ParseConfig(data)
	}

	anchor := nextMonday(planning.Today())
	return factory.ParseConfig([]byte(factory.DefaultConfigJSON(anchor.String(), 5)))
}

func nextMonday(from planning.TimePoint) planning.TimePoint {
	t := from
	for t.Time.Weekday() != time.Monday {
		t = t.AddDays(1)
	}
	return t
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/segyhp/lending-ledger/internal/config"
	"github.com/segyhp/lending-ledger/internal/scheduler"
	"github.com/segyhp/lending-ledger/pkg/logger"
)

// Standalone scheduler for deployments that run the server with
// SCHEDULER_IN_PROCESS=false. Jobs are triggered through the admin API.
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New("lending-scheduler", cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	zl.Info("Starting lending scheduler...", zap.String("api", cfg.Scheduler.APIBaseURL))

	client := &http.Client{Timeout: cfg.GetSchedulerAPITimeout()}
	jobs := scheduler.NewAPIJobs(cfg.Scheduler.APIBaseURL, client)

	// Initialize cron scheduler
	c := scheduler.New(cfg)
	if err := scheduler.Register(c, jobs, cfg, zl); err != nil {
		zl.Fatal("Failed to schedule jobs", zap.Error(err))
	}

	// Start the scheduler
	c.Start()
	zl.Info("Scheduler started successfully")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("Shutting down scheduler...")
	<-c.Stop().Done()
	zl.Info("Scheduler stopped")
}

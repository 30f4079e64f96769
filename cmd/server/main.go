package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/segyhp/lending-ledger/internal/config"
	"github.com/segyhp/lending-ledger/internal/handler"
	"github.com/segyhp/lending-ledger/internal/idempotency"
	"github.com/segyhp/lending-ledger/internal/metrics"
	"github.com/segyhp/lending-ledger/internal/notify"
	"github.com/segyhp/lending-ledger/internal/repository"
	"github.com/segyhp/lending-ledger/internal/scheduler"
	"github.com/segyhp/lending-ledger/internal/service"
	"github.com/segyhp/lending-ledger/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New("lending-ledger", cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()
	zap.ReplaceGlobals(zl)

	// Initialize database
	db, err := initDB(cfg)
	if err != nil {
		zl.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Initialize Redis; repayments fall back to a process-local cache without it
	redisClient, cache := initCache(cfg, zl)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Initialize repositories
	store := repository.NewStore(db)
	auditRepo := repository.NewAuditRepository(db)

	// Initialize service
	m := metrics.New(prometheus.DefaultRegisterer)
	lendingService := service.NewLendingService(store, auditRepo, cache, notify.NewLogNotifier(zl), m, zl, cfg)

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 30*time.Second)
	if err := lendingService.Load(loadCtx); err != nil {
		zl.Fatal("Failed to load ledger", zap.Error(err))
	}
	cancelLoad()

	lendingHandler := handler.NewLendingHandler(lendingService, zl)
	healthHandler := handler.NewHealthHandler(store, redisClient, lendingService, cfg.GetHealthTimeout())

	// Setup routes
	router := handler.NewRouter(lendingHandler, healthHandler, handler.MetricsHandler(), zl)

	// In-process cron jobs
	if cfg.Scheduler.InProcess {
		c := scheduler.New(cfg)
		if err := scheduler.Register(c, scheduler.NewServiceJobs(lendingService), cfg, zl.Named("scheduler")); err != nil {
			zl.Fatal("Failed to schedule jobs", zap.Error(err))
		}
		c.Start()
		defer func() { <-c.Stop().Done() }()
	}

	// Start server
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
	}

	// Start server in a goroutine
	go func() {
		zl.Info("Server starting", zap.String("addr", server.Addr), zap.String("env", cfg.Server.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zl.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		zl.Error("Server forced to shutdown", zap.Error(err))
	}

	// Last chance to write back anything still queued
	if pending, err := lendingService.SyncPending(ctx); err != nil {
		zl.Error("Unsynced operations at shutdown", zap.Int("pending", pending), zap.Error(err))
	}

	zl.Info("Server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := repository.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	if cfg.Database.Driver == repository.DriverPostgres {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.GetConnMaxLifetime())
	}

	return db, nil
}

func initCache(cfg *config.Config, zl *zap.Logger) (*redis.Client, idempotency.Store) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.GetHealthTimeout())
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		zl.Warn("Redis unavailable, using in-memory idempotency cache", zap.Error(err))
		client.Close()
		return nil, idempotency.NewMemoryStore(cfg.GetIdempotencyTTL())
	}

	return client, idempotency.NewRedisStore(client, cfg.GetIdempotencyTTL())
}

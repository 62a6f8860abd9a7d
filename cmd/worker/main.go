package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gearflip/resaleapi/internal/config"
	"github.com/gearflip/resaleapi/internal/jobs"
	"github.com/gearflip/resaleapi/internal/repository/postgres"
	"github.com/gearflip/resaleapi/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	var logger *zap.Logger
	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Connect to database
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	repos := postgres.NewRepositories(db, logger)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Fatal("Redis unavailable, worker cannot run", zap.Error(err))
	}
	defer rdb.Close()

	lock := service.NewRunLock(rdb, 15*time.Minute, logger)

	worker, err := jobs.NewWorker(cfg, repos, lock, logger)
	if err != nil {
		logger.Fatal("Failed to build worker", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Worker starting",
		zap.String("sync_cron", cfg.Jobs.SyncCron),
		zap.String("autoprocess_cron", cfg.Jobs.AutoProcessCron),
	)
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Fatal("Worker failed", zap.Error(err))
	}
	logger.Info("Worker stopped")
}

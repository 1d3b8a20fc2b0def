// cmd/historian/main.go pops room actions from the Redis queue and persists them to Postgres.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/impostor/internal/cache"
	"github.com/jason-s-yu/impostor/internal/config"
	"github.com/jason-s-yu/impostor/internal/database"
	"github.com/jason-s-yu/impostor/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	logger := logrus.New()
	cfg := config.Load(logger)
	logger.SetLevel(cfg.Level())
	logger.SetFormatter(cfg.Formatter())
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	if cfg.RedisAddr == "" || cfg.DatabaseURL == "" {
		logger.Fatal("historian needs both REDIS_ADDR and a database (DATABASE_URL or PG_HOST)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	store, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatalf("database schema: %v", err)
	}

	queue := cache.NewActionQueue(rdb, cfg.HistoryQueue)
	svc := historian.New(historian.Config{
		BatchSize:  cfg.HistorianBatchSize,
		FlushDelay: cfg.HistorianFlushDelay,
		Inactivity: cfg.GameInactivity,
	}, queue, store, logger.WithField("queue", queue.Name()))

	svc.Run(ctx)
}

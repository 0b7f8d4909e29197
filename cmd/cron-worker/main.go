package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/teeforge-backend/internal/artwork"
	"github.com/angelmondragon/teeforge-backend/internal/cron"
	"github.com/angelmondragon/teeforge-backend/internal/orders"
	"github.com/angelmondragon/teeforge-backend/pkg/config"
	"github.com/angelmondragon/teeforge-backend/pkg/db"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
	"github.com/angelmondragon/teeforge-backend/pkg/metrics"
	"github.com/angelmondragon/teeforge-backend/pkg/outbox"
	"github.com/angelmondragon/teeforge-backend/pkg/redis"
	"github.com/angelmondragon/teeforge-backend/pkg/storage/gcs"
	"github.com/angelmondragon/teeforge-backend/pkg/stripe"
)

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})
	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "cron-worker"
	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})

	if err := run(ctx, cfg, logg, *once); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shut down")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, once bool) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer dbClient.Close()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	storage, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
	if err != nil {
		return err
	}
	payments, err := stripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		return err
	}

	outboxRepo := outbox.NewRepository(dbClient.DB())
	expiry, err := cron.NewPendingOrderExpiryJob(cron.PendingOrderExpiryJobParams{
		Logger:   logg,
		DB:       dbClient,
		Orders:   orders.NewRepository(dbClient.DB()),
		Payments: payments,
		Outbox:   outbox.NewService(outboxRepo, logg),
	})
	if err != nil {
		return err
	}
	artworkCleanup, err := cron.NewArtworkCleanupJob(cron.ArtworkCleanupJobParams{
		Logger:     logg,
		Repository: artwork.NewRepository(dbClient.DB()),
		Storage:    storage,
		TempPrefix: cfg.Artwork.TempPrefix,
		Retention:  time.Duration(cfg.Artwork.TempRetentionHrs) * time.Hour,
	})
	if err != nil {
		return err
	}
	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		Repository: outboxRepo,
		Retention:  cfg.Outbox.Retention,
	})
	if err != nil {
		return err
	}
	registry, err := cron.NewRegistry(expiry, artworkCleanup, retention)
	if err != nil {
		return err
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.GuardKey("cron", cfg.Cron.LockKey), cfg.Cron.LockTTL)
	if err != nil {
		return err
	}
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		return err
	}

	if once {
		return service.RunOnce(ctx)
	}
	return service.Run(ctx)
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/teeforge-backend/api/controllers"
	"github.com/angelmondragon/teeforge-backend/api/routes"
	"github.com/angelmondragon/teeforge-backend/internal/artwork"
	"github.com/angelmondragon/teeforge-backend/internal/campaigns"
	"github.com/angelmondragon/teeforge-backend/internal/checkout"
	"github.com/angelmondragon/teeforge-backend/internal/discounts"
	"github.com/angelmondragon/teeforge-backend/internal/garments"
	"github.com/angelmondragon/teeforge-backend/internal/imagegen"
	"github.com/angelmondragon/teeforge-backend/internal/orderconfig"
	"github.com/angelmondragon/teeforge-backend/internal/orders"
	"github.com/angelmondragon/teeforge-backend/internal/pricing"
	stripewebhook "github.com/angelmondragon/teeforge-backend/internal/webhooks/stripe"
	"github.com/angelmondragon/teeforge-backend/internal/wizard"
	"github.com/angelmondragon/teeforge-backend/pkg/config"
	"github.com/angelmondragon/teeforge-backend/pkg/db"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
	"github.com/angelmondragon/teeforge-backend/pkg/metrics"
	"github.com/angelmondragon/teeforge-backend/pkg/migrate"
	"github.com/angelmondragon/teeforge-backend/pkg/outbox"
	"github.com/angelmondragon/teeforge-backend/pkg/redis"
	"github.com/angelmondragon/teeforge-backend/pkg/storage/gcs"
	"github.com/angelmondragon/teeforge-backend/pkg/stripe"
)

const shutdownTimeout = 20 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	storage, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
	if err != nil {
		return err
	}
	defer storage.Close()

	payments, err := stripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	gormDB := dbClient.DB()
	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)

	garmentSvc, err := garments.NewService(garments.NewRepository(gormDB), redisClient, cfg.Catalog.CacheTTL, logg)
	if err != nil {
		return err
	}
	schedule, err := pricing.ScheduleFromConfig(cfg.Pricing)
	if err != nil {
		return err
	}
	calc, err := pricing.NewCalculator(schedule)
	if err != nil {
		return err
	}
	pricingSvc, err := pricing.NewService(garmentSvc, calc)
	if err != nil {
		return err
	}
	discountSvc, err := discounts.NewService(discounts.NewRepository(gormDB), logg)
	if err != nil {
		return err
	}

	sessionRepo, err := orderconfig.NewSessionRepository(redisClient, cfg.Session.TTL)
	if err != nil {
		return err
	}
	draftRepo := orderconfig.NewDraftRepository(gormDB)
	saver, err := orderconfig.NewDraftSaver(draftRepo, cfg.Session.DraftDebounce, logg)
	if err != nil {
		return err
	}
	defer saver.Close()
	go func() {
		for err := range saver.Errors() {
			logg.Error(ctx, "draft save failed", err)
		}
	}()
	sessionSvc, err := orderconfig.NewService(orderconfig.ServiceParams{
		Sessions: sessionRepo,
		Drafts:   draftRepo,
		Saver:    saver,
		Logger:   logg,
	})
	if err != nil {
		return err
	}
	gates, err := wizard.NewQuoteRefresher(pricingSvc, discountSvc)
	if err != nil {
		return err
	}

	imageClient, err := imagegen.NewClient(cfg.ImageGen)
	if err != nil {
		return err
	}
	var vectorizer artwork.Vectorizer
	if cfg.FeatureFlags.Vectorize && imageClient.CanVectorize() {
		vectorizer = imageClient
	}
	artworkRepo := artwork.NewRepository(gormDB)
	artworkSvc, err := artwork.NewService(storage, artworkRepo, vectorizer, artwork.Options{
		MaxBytes:        cfg.Artwork.MaxUploadBytes(),
		TempPrefix:      cfg.Artwork.TempPrefix,
		MockupPrefix:    cfg.Artwork.MockupPrefix,
		MockupMaxWidth:  cfg.Artwork.MockupMaxWidth,
		MockupMaxHeight: cfg.Artwork.MockupMaxHeight,
	}, logg)
	if err != nil {
		return err
	}
	limiter, err := imagegen.NewLimiter(redisClient, cfg.ImageGen.RateLimit, cfg.ImageGen.RateLimitWindow, logg)
	if err != nil {
		return err
	}
	var remover imagegen.BackgroundRemover
	if imageClient.CanRemoveBackground() {
		remover = imageClient
	}
	imageSvc, err := imagegen.NewService(imagegen.ServiceParams{
		Generator:         imageClient,
		BackgroundRemover: remover,
		Artwork:           artworkSvc,
		Limiter:           limiter,
		Logger:            logg,
	})
	if err != nil {
		return err
	}

	checkoutSvc, err := checkout.NewService(checkout.ServiceParams{
		Tx:        dbClient,
		Sessions:  sessionSvc,
		Gates:     gates,
		Orders:    orders.NewRepository(gormDB),
		Artwork:   artworkSvc,
		Attacher:  artworkRepo,
		Payments:  payments,
		Guard:     redisClient,
		Outbox:    outboxSvc,
		Discounts: discountSvc,
		Metrics:   metrics.NewCheckoutMetrics(registry),
		Options: checkout.Options{
			SubmitGuardTTL:  cfg.Checkout.SubmitGuardTTL,
			PendingOrderTTL: cfg.Checkout.PendingOrderTTL,
			Currency:        cfg.Pricing.Currency,
		},
		Logger: logg,
	})
	if err != nil {
		return err
	}

	campaignSvc, err := campaigns.NewService(campaigns.ServiceParams{
		Tx:        dbClient,
		Repo:      campaigns.NewRepository(gormDB),
		Sessions:  sessionSvc,
		Garments:  garmentSvc,
		Pricing:   pricingSvc,
		Mockups:   artworkSvc,
		Outbox:    outboxSvc,
		PublicURL: cfg.App.PublicURL,
		Logger:    logg,
	})
	if err != nil {
		return err
	}

	webhookSvc, err := stripewebhook.NewService(stripewebhook.ServiceParams{Settler: checkoutSvc, Logger: logg})
	if err != nil {
		return err
	}
	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Checkout.IdempotencyTTL, stripewebhook.GuardScope)
	if err != nil {
		return err
	}

	handler := routes.NewRouter(routes.Deps{
		Config:      cfg,
		Logger:      logg,
		Gatherer:    registry,
		HTTPMetrics: metrics.NewHTTPMetrics(registry),
		Readiness: map[string]controllers.ReadinessCheck{
			"database": dbClient.Ping,
			"redis":    redisClient.Ping,
			"storage":  storage.Ping,
		},
		Idempotency: redisClient,

		Garments:         garmentSvc,
		Pricing:          pricingSvc,
		DiscountResolver: discountSvc,
		Discounts:        discountSvc,
		Sessions:         sessionSvc,
		Gates:            gates,
		Artwork:          artworkSvc,
		Images:           imageSvc,
		Checkout:         checkoutSvc,
		Campaigns:        campaignSvc,

		StripeWebhook: webhookSvc,
		StripeClient:  payments,
		StripeGuard:   webhookGuard,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"addr":        addr,
		"serviceKind": cfg.Service.Kind,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logg.Info(ctx, "shutting down api server")
	return server.Shutdown(shutdownCtx)
}

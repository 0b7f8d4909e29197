package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/teeforge-backend/api/controllers"
	webhookcontrollers "github.com/angelmondragon/teeforge-backend/api/controllers/webhooks"
	"github.com/angelmondragon/teeforge-backend/api/middleware"
	"github.com/angelmondragon/teeforge-backend/pkg/config"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
	"github.com/angelmondragon/teeforge-backend/pkg/metrics"
	"github.com/angelmondragon/teeforge-backend/pkg/redis"
)

// Deps is everything the API surface is built from. Nil services produce
// 500 envelopes on their routes rather than panics.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics
	Readiness   map[string]controllers.ReadinessCheck
	Idempotency redis.IdempotencyStore

	Garments         controllers.GarmentCatalog
	Pricing          controllers.Quoter
	DiscountResolver controllers.DiscountResolver
	Discounts        controllers.DiscountValidator
	Sessions         controllers.SessionService
	Gates            controllers.SessionGates
	Artwork          controllers.ArtworkUploader
	Images           controllers.ImageService
	Checkout         controllers.CheckoutService
	Campaigns        controllers.CampaignService

	StripeWebhook webhookcontrollers.StripeWebhookService
	StripeClient  webhookcontrollers.StripeSigningClient
	StripeGuard   webhookcontrollers.StripeWebhookGuard
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger
	maxUpload := cfg.Artwork.MaxUploadBytes()

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, d.HTTPMetrics),
		middleware.CORS(cfg.App),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, d.Readiness, logg))
	})
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	sessionDeps := controllers.SessionDeps{
		Sessions:       d.Sessions,
		Gates:          d.Gates,
		Garments:       d.Garments,
		Artwork:        d.Artwork,
		MaxUploadBytes: maxUpload,
		Logger:         logg,
	}
	artworkDeps := controllers.ArtworkDeps{
		Sessions:       d.Sessions,
		Gates:          d.Gates,
		Images:         d.Images,
		MaxUploadBytes: maxUpload,
		Logger:         logg,
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Stripe signs the raw body, so the webhook sits outside the session
		// and auth middleware.
		r.Post("/webhooks/stripe", webhookcontrollers.StripeWebhook(d.StripeWebhook, d.StripeClient, d.StripeGuard, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(logg))
			r.Use(middleware.OptionalAuth(cfg.JWT, logg))

			r.Get("/garments", controllers.ListGarments(d.Garments, logg))
			r.Get("/garments/{garmentId}", controllers.GetGarment(d.Garments, logg))
			r.Post("/quotes", controllers.Quote(d.Pricing, d.DiscountResolver, logg))
			r.Post("/discounts/validate", controllers.ValidateDiscount(d.Discounts, logg))
			r.Get("/campaigns/{slug}", controllers.GetCampaign(d.Campaigns, logg))
			r.Post("/session", controllers.CreateSession(sessionDeps))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireSession(logg))
				if d.Idempotency != nil {
					r.Use(middleware.Idempotency(d.Idempotency, cfg.Checkout.IdempotencyTTL, logg))
				}

				r.Route("/session", func(r chi.Router) {
					r.Get("/", controllers.GetSession(sessionDeps))
					r.Delete("/", controllers.ResetSession(sessionDeps))
					r.With(middleware.RequireUser(logg)).Post("/resume", controllers.ResumeSession(sessionDeps))

					r.Put("/garment", controllers.SetSessionGarment(sessionDeps))
					r.Post("/garments", controllers.AddSessionGarment(sessionDeps))
					r.Delete("/garments/{garmentId}", controllers.RemoveSessionGarment(sessionDeps))
					r.Post("/garments/{garmentId}/colors", controllers.AddSessionColor(sessionDeps))
					r.Delete("/garments/{garmentId}/colors/{color}", controllers.RemoveSessionColor(sessionDeps))

					r.Put("/quantities", controllers.SetSessionQuantity(sessionDeps))
					r.Patch("/quantities", controllers.MergeSessionQuantities(sessionDeps))
					r.Put("/print-locations/{location}", controllers.SetSessionPrintLocation(sessionDeps))

					r.Post("/artwork/{location}", controllers.UploadSessionArtwork(sessionDeps))
					r.Put("/artwork/{location}/transform", controllers.SetSessionArtworkTransform(sessionDeps))
					r.Delete("/artwork/{location}", controllers.RemoveSessionArtwork(sessionDeps))

					r.Put("/customer", controllers.SetSessionCustomer(sessionDeps))
					r.Put("/discount", controllers.SetSessionDiscount(sessionDeps))
					r.Delete("/discount", controllers.ClearSessionDiscount(sessionDeps))
					r.Put("/campaign", controllers.SetSessionCampaign(sessionDeps))
				})

				r.Post("/checkout", controllers.Checkout(d.Checkout, maxUpload, logg))
				r.Post("/orders", controllers.CreateOrderRequest(d.Checkout, maxUpload, logg))
				r.Post("/artwork/generate", controllers.GenerateArtwork(artworkDeps))
				r.Post("/artwork/remove-background", controllers.RemoveArtworkBackground(artworkDeps))
				r.Post("/campaigns", controllers.CreateCampaign(d.Campaigns, maxUpload, logg))
			})

			r.Get("/checkout/confirmation/{paymentIntentId}", controllers.CheckoutConfirmation(d.Checkout, logg))
		})
	})

	return r
}

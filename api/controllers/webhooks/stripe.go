package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/angelmondragon/teeforge-backend/api/responses"
	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
)

const maxStripePayloadBytes = 65536

type StripeWebhookService interface {
	HandleEvent(ctx context.Context, event *stripe.Event) error
}

type StripeWebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

type StripeSigningClient interface {
	SigningSecret() string
}

// StripeWebhook verifies and applies deposit payment events. A failed event
// is forgotten by the guard so Stripe's redelivery runs it again.
func StripeWebhook(svc StripeWebhookService, client StripeSigningClient, guard StripeWebhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil || client == nil || guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stripe webhook unavailable"))
			return
		}

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxStripePayloadBytes))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}
		sigHeader := r.Header.Get("Stripe-Signature")
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "stripe signature missing"))
			return
		}

		event, err := webhook.ConstructEventWithOptions(payload, sigHeader, client.SigningSecret(), webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid stripe signature"))
			return
		}

		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{
				"stripe_event_id":   event.ID,
				"stripe_event_type": string(event.Type),
			})
		}
		seen, err := guard.CheckAndMark(ctx, event.ID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if seen {
			if logg != nil {
				logg.Debug(ctx, "stripe event already processed")
			}
			responses.WriteSuccess(w, map[string]bool{"duplicate": true})
			return
		}

		if err := svc.HandleEvent(ctx, &event); err != nil {
			if delErr := guard.Delete(ctx, event.ID); delErr != nil && logg != nil {
				logg.Error(ctx, "release stripe event guard", delErr)
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(ctx, "stripe event processed")
		}
		responses.WriteSuccess(w, map[string]bool{"received": true})
	}
}

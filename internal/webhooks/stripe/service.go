package stripewebhook

import (
	"context"

	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
	stripeclient "github.com/angelmondragon/teeforge-backend/pkg/stripe"
)

// PaymentSettler applies deposit payment outcomes to pending orders.
type PaymentSettler interface {
	MarkPaid(ctx context.Context, intent *stripeclient.PaymentIntent) error
	MarkFailed(ctx context.Context, intent *stripeclient.PaymentIntent) error
}

type ServiceParams struct {
	Settler PaymentSettler
	Logger  *logger.Logger
}

type Service struct {
	settler PaymentSettler
	logg    *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Settler == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment settler required")
	}
	return &Service{settler: params.Settler, logg: params.Logger}, nil
}

// HandleEvent routes payment intent events. Other event types are
// acknowledged and ignored.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		intent, err := stripeclient.PaymentIntentFromEvent(event)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent event")
		}
		return s.settler.MarkPaid(ctx, intent)
	case stripe.EventTypePaymentIntentPaymentFailed:
		intent, err := stripeclient.PaymentIntentFromEvent(event)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent event")
		}
		return s.settler.MarkFailed(ctx, intent)
	default:
		if s.logg != nil {
			s.logg.Debug(s.logg.WithField(ctx, "stripe_event_type", string(event.Type)), "stripe event ignored")
		}
		return nil
	}
}

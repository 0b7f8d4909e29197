package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/teeforge-backend/internal/artwork"
	"github.com/angelmondragon/teeforge-backend/internal/orderconfig"
	"github.com/angelmondragon/teeforge-backend/internal/orders"
	"github.com/angelmondragon/teeforge-backend/internal/wizard"
	"github.com/angelmondragon/teeforge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
	"github.com/angelmondragon/teeforge-backend/pkg/outbox"
	"github.com/angelmondragon/teeforge-backend/pkg/stripe"
	"github.com/angelmondragon/teeforge-backend/pkg/types"
)

const submitGuardScope = "checkout"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type sessionStore interface {
	Get(ctx context.Context, sessionID string) (*orderconfig.State, error)
	Mutate(ctx context.Context, sessionID string, fn func(*orderconfig.State) error) (*orderconfig.State, error)
	Reset(ctx context.Context, sessionID string) (*orderconfig.State, error)
}

type gateKeeper interface {
	Evaluate(st *orderconfig.State, attached ...enums.PrintLocation) wizard.Progress
	RefreshQuote(ctx context.Context, st *orderconfig.State) error
}

type artworkUploader interface {
	Upload(ctx context.Context, input artwork.UploadInput) (types.ArtworkRecord, error)
}

type artworkAttacher interface {
	AttachToOrder(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, orderID uuid.UUID) error
}

type paymentIntents interface {
	CreatePaymentIntent(ctx context.Context, input stripe.PaymentIntentInput) (*stripe.PaymentIntent, error)
	RetrievePaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
}

type submitGuard interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	GuardKey(scope, id string) string
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type discountRecorder interface {
	RecordUse(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type counters interface {
	IncSubmission(outcome string)
	IncSettlement(result string)
}

// Options holds checkout timing and currency settings.
type Options struct {
	SubmitGuardTTL  time.Duration
	PendingOrderTTL time.Duration
	Currency        string
}

type ServiceParams struct {
	Tx        txRunner
	Sessions  sessionStore
	Gates     gateKeeper
	Orders    orders.Repository
	Artwork   artworkUploader
	Attacher  artworkAttacher
	Payments  paymentIntents
	Guard     submitGuard
	Outbox    outboxEmitter
	Discounts discountRecorder
	Metrics   counters
	Options   Options
	Logger    *logger.Logger
}

// Service turns a ready configuration session into a pending order with a
// deposit payment intent, and settles it when the payment resolves.
type Service struct {
	tx        txRunner
	sessions  sessionStore
	gates     gateKeeper
	orders    orders.Repository
	artwork   artworkUploader
	attacher  artworkAttacher
	payments  paymentIntents
	guard     submitGuard
	outbox    outboxEmitter
	discounts discountRecorder
	metrics   counters
	opts      Options
	logg      *logger.Logger
	now       func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Tx == nil:
		return nil, fmt.Errorf("tx runner required")
	case params.Sessions == nil:
		return nil, fmt.Errorf("session store required")
	case params.Gates == nil:
		return nil, fmt.Errorf("wizard gates required")
	case params.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case params.Artwork == nil:
		return nil, fmt.Errorf("artwork uploader required")
	case params.Attacher == nil:
		return nil, fmt.Errorf("artwork attacher required")
	case params.Payments == nil:
		return nil, fmt.Errorf("payment client required")
	case params.Guard == nil:
		return nil, fmt.Errorf("submit guard required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	case params.Discounts == nil:
		return nil, fmt.Errorf("discount recorder required")
	}
	opts := params.Options
	if opts.SubmitGuardTTL <= 0 {
		opts.SubmitGuardTTL = 2 * time.Minute
	}
	if opts.PendingOrderTTL <= 0 {
		opts.PendingOrderTTL = 48 * time.Hour
	}
	if strings.TrimSpace(opts.Currency) == "" {
		opts.Currency = "usd"
	}
	return &Service{
		tx:        params.Tx,
		sessions:  params.Sessions,
		gates:     params.Gates,
		orders:    params.Orders,
		artwork:   params.Artwork,
		attacher:  params.Attacher,
		payments:  params.Payments,
		guard:     params.Guard,
		outbox:    params.Outbox,
		discounts: params.Discounts,
		metrics:   params.Metrics,
		opts:      opts,
		logg:      params.Logger,
		now:       time.Now,
	}, nil
}

// withGuard runs fn while holding the per-session submit guard. The guard is
// released on every exit.
func (s *Service) withGuard(ctx context.Context, sessionID string, fn func() error) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	key := s.guard.GuardKey(submitGuardScope, sessionID)
	acquired, err := s.guard.SetNX(ctx, key, s.now().UTC().Format(time.RFC3339), s.opts.SubmitGuardTTL)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire checkout guard")
	}
	if !acquired {
		return pkgerrors.New(pkgerrors.CodeConflict, "checkout already in progress for this session")
	}
	defer func() {
		if err := s.guard.Del(context.WithoutCancel(ctx), key); err != nil && s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("release checkout guard: %v", err))
		}
	}()
	return fn()
}

func (s *Service) count(outcome string) {
	if s.metrics != nil {
		s.metrics.IncSubmission(outcome)
	}
}

func outcomeFor(err error) string {
	if err == nil {
		return "created"
	}
	switch pkgerrors.CodeOf(err) {
	case pkgerrors.CodeValidation:
		return "blocked"
	case pkgerrors.CodeConflict:
		return "conflict"
	default:
		return "error"
	}
}

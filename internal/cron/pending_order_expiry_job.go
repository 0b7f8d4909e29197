package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/teeforge-backend/internal/orders"
	"github.com/angelmondragon/teeforge-backend/pkg/db/models"
	"github.com/angelmondragon/teeforge-backend/pkg/enums"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
	"github.com/angelmondragon/teeforge-backend/pkg/outbox"
	"github.com/angelmondragon/teeforge-backend/pkg/outbox/payloads"
)

const defaultExpiryBatch = 100

type PendingOrderExpiryJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Orders    orders.Repository
	Payments  paymentCanceller
	Outbox    outboxEmitter
	BatchSize int
}

type paymentCanceller interface {
	CancelPaymentIntent(ctx context.Context, id string) error
}

// NewPendingOrderExpiryJob builds the sweep that closes pending orders whose
// payment window has passed.
func NewPendingOrderExpiryJob(params PendingOrderExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payment client required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultExpiryBatch
	}
	return &pendingOrderExpiryJob{
		logg:     params.Logger,
		db:       params.DB,
		orders:   params.Orders,
		payments: params.Payments,
		outbox:   params.Outbox,
		batch:    batch,
		now:      time.Now,
	}, nil
}

type pendingOrderExpiryJob struct {
	logg     *logger.Logger
	db       txRunner
	orders   orders.Repository
	payments paymentCanceller
	outbox   outboxEmitter
	batch    int
	now      func() time.Time
}

func (j *pendingOrderExpiryJob) Name() string { return "pending-order-expiry" }

func (j *pendingOrderExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	rows, err := j.orders.ListExpiredPendingOrders(ctx, now, j.batch)
	if err != nil {
		return fmt.Errorf("list expired pending orders: %w", err)
	}

	var (
		errs    error
		expired int
	)
	for _, row := range rows {
		changed, err := j.expire(ctx, row, now)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("expire pending order %s: %w", row.ID, err))
			continue
		}
		if changed {
			expired++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"candidates": len(rows),
		"expired":    expired,
	})
	j.logg.Info(logCtx, "pending order expiry complete")
	return errs
}

// expire cancels the intent first so a customer cannot pay for an order the
// sweep is about to close. A payment that lands anyway is still honored by
// the webhook since expired orders remain payable.
func (j *pendingOrderExpiryJob) expire(ctx context.Context, row models.PendingOrder, now time.Time) (bool, error) {
	if row.PaymentIntentID != nil && *row.PaymentIntentID != "" {
		if err := j.payments.CancelPaymentIntent(ctx, *row.PaymentIntentID); err != nil {
			return false, err
		}
	}

	var changed bool
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := j.orders.WithTx(tx).TransitionPendingOrder(ctx, row.ID,
			[]enums.PendingOrderStatus{enums.PendingOrderStatusAwaitingPayment, enums.PendingOrderStatusPaymentFailed},
			enums.PendingOrderStatusExpired, nil)
		if err != nil || !ok {
			return err
		}
		changed = true

		data := payloads.PendingOrderExpiredEvent{
			PendingOrderID: row.ID,
			ExpiredAt:      now,
		}
		if row.PaymentIntentID != nil {
			data.PaymentIntentID = *row.PaymentIntentID
		}
		return j.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPendingOrderExpired,
			AggregateType: enums.AggregatePendingOrder,
			AggregateID:   row.ID,
			Data:          data,
			Version:       1,
			OccurredAt:    now,
		})
	})
	return changed, err
}

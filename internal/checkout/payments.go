package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/teeforge-backend/internal/orders"
	"github.com/angelmondragon/teeforge-backend/pkg/db/models"
	"github.com/angelmondragon/teeforge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
	"github.com/angelmondragon/teeforge-backend/pkg/outbox"
	"github.com/angelmondragon/teeforge-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/teeforge-backend/pkg/stripe"
)

// Payment intent metadata keys written at submit time.
const (
	MetadataPendingOrderID = "pending_order_id"
	MetadataSessionID      = "session_id"
)

// Confirmation states returned to the confirmation page.
const (
	ConfirmationPaid       = "paid"
	ConfirmationProcessing = "processing"
	ConfirmationPending    = "pending_payment"
	ConfirmationFailed     = "payment_failed"
	ConfirmationExpired    = "expired"
)

var payableStatuses = []enums.PendingOrderStatus{
	enums.PendingOrderStatusAwaitingPayment,
	enums.PendingOrderStatusPaymentFailed,
	enums.PendingOrderStatusExpired,
}

// Confirmation describes where a payment intent ended up.
type Confirmation struct {
	Status       string                  `json:"status"`
	Order        *orders.OrderDTO        `json:"order,omitempty"`
	PendingOrder *orders.PendingOrderDTO `json:"pending_order,omitempty"`
}

// MarkPaid materializes the pending order behind intent into a deposit_paid
// order. Replays for an already settled pending order are no-ops.
func (s *Service) MarkPaid(ctx context.Context, intent *stripe.PaymentIntent) error {
	if intent == nil || intent.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent required")
	}
	pendingID, err := s.resolvePendingOrder(ctx, intent)
	if err != nil {
		return err
	}

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		pending, err := repo.LockPendingOrder(ctx, pendingID)
		if err != nil {
			return notFoundOr(err, "pending order not found", "load pending order")
		}
		if pending.Status == enums.PendingOrderStatusPaid {
			return nil
		}
		if want := stripe.ToCents(pending.DepositAmount); intent.AmountCents != 0 && intent.AmountCents != want && s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("payment intent %s amount %d differs from deposit %d", intent.ID, intent.AmountCents, want))
		}

		built := orderFromPending(pending, intent.ID)
		moved, err := repo.TransitionPendingOrder(ctx, pending.ID, payableStatuses, enums.PendingOrderStatusPaid, &built.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark pending order paid")
		}
		if !moved {
			return nil
		}
		if err := repo.CreateOrder(ctx, built); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if err := s.attacher.AttachToOrder(ctx, tx, artworkIDs(built.ArtworkData), built.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach artwork")
		}
		if built.DiscountCodeID != nil {
			if err := s.discounts.RecordUse(ctx, tx, *built.DiscountCodeID); err != nil {
				return err
			}
		}
		if err := s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   built.ID,
			Actor:         &outbox.ActorRef{UserID: pending.UserID, SessionID: pending.SessionID},
			Data: payloads.OrderPaidEvent{
				OrderID:         built.ID,
				PendingOrderID:  pending.ID,
				PaymentIntentID: intent.ID,
				CustomerEmail:   built.Customer.Email,
				DepositPaid:     built.DepositPaid,
				BalanceDue:      built.BalanceDue,
				PaidAt:          s.now().UTC(),
			},
		}); err != nil {
			return err
		}
		order = built
		return nil
	})
	if err != nil {
		return err
	}

	if order == nil {
		s.settled("duplicate")
		return nil
	}
	s.settled("paid")
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"order_id":          order.ID.String(),
			"pending_order_id":  pendingID.String(),
			"payment_intent_id": intent.ID,
		})
		s.logg.Info(ctx, "deposit paid, order created")
	}
	return nil
}

// MarkFailed records a failed deposit attempt. The pending order stays
// payable so the customer can retry with another method.
func (s *Service) MarkFailed(ctx context.Context, intent *stripe.PaymentIntent) error {
	if intent == nil || intent.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent required")
	}
	pendingID, err := s.resolvePendingOrder(ctx, intent)
	if err != nil {
		return err
	}

	var moved bool
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		moved, err = s.orders.WithTx(tx).TransitionPendingOrder(ctx, pendingID,
			[]enums.PendingOrderStatus{enums.PendingOrderStatusAwaitingPayment},
			enums.PendingOrderStatusPaymentFailed, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment failed")
		}
		if !moved {
			return nil
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentFailed,
			AggregateType: enums.AggregatePendingOrder,
			AggregateID:   pendingID,
			Data: payloads.PaymentFailedEvent{
				PendingOrderID:  pendingID,
				PaymentIntentID: intent.ID,
				FailureMessage:  intent.FailureMessage,
				FailedAt:        s.now().UTC(),
			},
		})
	})
	if err != nil {
		return err
	}
	if moved {
		s.settled("failed")
	} else {
		s.settled("duplicate")
	}
	return nil
}

// Confirmation resolves the order, or the pending state, behind a payment
// intent for the confirmation page.
func (s *Service) Confirmation(ctx context.Context, paymentIntentID string) (*Confirmation, error) {
	if paymentIntentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id required")
	}
	pending, err := s.orders.FindPendingOrderByPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, notFoundOr(err, "order not found", "load pending order")
	}

	if pending.OrderID != nil {
		order, err := s.orders.FindOrder(ctx, *pending.OrderID)
		if err != nil {
			return nil, notFoundOr(err, "order not found", "load order")
		}
		return &Confirmation{Status: ConfirmationPaid, Order: orders.NewOrderDTO(order)}, nil
	}

	out := &Confirmation{PendingOrder: orders.NewPendingOrderDTO(pending)}
	switch pending.Status {
	case enums.PendingOrderStatusExpired:
		out.Status = ConfirmationExpired
	case enums.PendingOrderStatusPaymentFailed:
		out.Status = ConfirmationFailed
	default:
		out.Status = ConfirmationPending
		intent, err := s.payments.RetrievePaymentIntent(ctx, paymentIntentID)
		if err != nil {
			if s.logg != nil {
				s.logg.Warn(ctx, fmt.Sprintf("retrieve payment intent %s: %v", paymentIntentID, err))
			}
			break
		}
		if intent.Status == "succeeded" || intent.Status == "processing" {
			out.Status = ConfirmationProcessing
		}
	}
	return out, nil
}

func (s *Service) resolvePendingOrder(ctx context.Context, intent *stripe.PaymentIntent) (uuid.UUID, error) {
	if raw := intent.Metadata[MetadataPendingOrderID]; raw != "" {
		id, err := uuid.Parse(raw)
		if err == nil {
			return id, nil
		}
		if s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("payment intent %s has malformed pending_order_id %q", intent.ID, raw))
		}
	}
	pending, err := s.orders.FindPendingOrderByPaymentIntent(ctx, intent.ID)
	if err != nil {
		return uuid.Nil, notFoundOr(err, "pending order not found", "load pending order")
	}
	return pending.ID, nil
}

func (s *Service) settled(result string) {
	if s.metrics != nil {
		s.metrics.IncSettlement(result)
	}
}

func orderFromPending(pending *models.PendingOrder, paymentIntentID string) *models.Order {
	pendingID := pending.ID
	piID := paymentIntentID
	return &models.Order{
		ID:              uuid.New(),
		PendingOrderID:  &pendingID,
		UserID:          pending.UserID,
		Status:          enums.OrderStatusDepositPaid,
		Lines:           pending.Lines,
		PrintConfig:     pending.PrintConfig,
		Customer:        pending.Customer,
		ArtworkData:     pending.ArtworkData,
		DiscountCodeID:  pending.DiscountCodeID,
		DiscountAmount:  pending.DiscountAmount,
		Total:           pending.Total,
		DepositPaid:     pending.DepositAmount,
		BalanceDue:      pending.BalanceDue,
		PaymentIntentID: &piID,
	}
}

func notFoundOr(err error, notFound, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Classify(err, pkgerrors.CodeDependency, op)
}

package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/teeforge-backend/internal/artwork"
	"github.com/angelmondragon/teeforge-backend/internal/orderconfig"
	"github.com/angelmondragon/teeforge-backend/pkg/db/models"
	"github.com/angelmondragon/teeforge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
	"github.com/angelmondragon/teeforge-backend/pkg/outbox"
	"github.com/angelmondragon/teeforge-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/teeforge-backend/pkg/stripe"
	"github.com/angelmondragon/teeforge-backend/pkg/types"
)

// SubmitInput carries artwork files attached to the checkout request, keyed
// by print location.
type SubmitInput struct {
	Files map[enums.PrintLocation]artwork.File
}

// SubmitResult is what the client needs to confirm the deposit payment.
type SubmitResult struct {
	PendingOrderID  uuid.UUID       `json:"pending_order_id"`
	PaymentIntentID string          `json:"payment_intent_id"`
	ClientSecret    string          `json:"client_secret"`
	Total           decimal.Decimal `json:"total"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	DepositAmount   decimal.Decimal `json:"deposit_amount"`
	BalanceDue      decimal.Decimal `json:"balance_due"`
}

// OrderRequestResult identifies a direct order request.
type OrderRequestResult struct {
	OrderID       uuid.UUID       `json:"order_id"`
	Status        string          `json:"status"`
	Total         decimal.Decimal `json:"total"`
	BalanceDue    decimal.Decimal `json:"balance_due"`
	TotalQuantity int             `json:"total_quantity"`
}

// prepared is a session frozen for order creation.
type prepared struct {
	state          *orderconfig.State
	artwork        []types.ArtworkRecord
	discountID     *uuid.UUID
	discountCode   *string
	total          decimal.Decimal
	discountAmount decimal.Decimal
	deposit        decimal.Decimal
	balance        decimal.Decimal
}

// Submit validates the session, persists its artwork, freezes a pending order
// and opens a deposit payment intent for it.
func (s *Service) Submit(ctx context.Context, sessionID string, input SubmitInput) (*SubmitResult, error) {
	var result *SubmitResult
	err := s.withGuard(ctx, sessionID, func() error {
		p, err := s.prepare(ctx, sessionID, input.Files)
		if err != nil {
			return err
		}
		result, err = s.openPendingOrder(ctx, p)
		return err
	})
	s.count(outcomeFor(err))
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CreateOrder records a direct order request without taking a deposit. The
// session is reset once the order exists.
func (s *Service) CreateOrder(ctx context.Context, sessionID string, input SubmitInput) (*OrderRequestResult, error) {
	var result *OrderRequestResult
	err := s.withGuard(ctx, sessionID, func() error {
		p, err := s.prepare(ctx, sessionID, input.Files)
		if err != nil {
			return err
		}
		order := &models.Order{
			ID:             uuid.New(),
			UserID:         p.state.UserID,
			Status:         enums.OrderStatusRequested,
			Lines:          lineSnapshots(p.state),
			PrintConfig:    p.state.PrintConfig.Clone(),
			Customer:       p.state.Customer,
			ArtworkData:    p.artwork,
			DiscountCodeID: p.discountID,
			DiscountAmount: p.discountAmount,
			Total:          p.total,
			DepositPaid:    decimal.Zero,
			BalanceDue:     p.total,
		}
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if err := s.orders.WithTx(tx).CreateOrder(ctx, order); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
			}
			if err := s.attacher.AttachToOrder(ctx, tx, artworkIDs(p.artwork), order.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach artwork")
			}
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderRequested,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Actor:         actorFor(p.state),
				Data: payloads.OrderRequestedEvent{
					OrderID:       order.ID,
					CustomerEmail: order.Customer.Email,
					TotalQuantity: p.state.TotalQuantity(),
					Total:         order.Total,
				},
			})
		})
		if err != nil {
			return err
		}
		result = &OrderRequestResult{
			OrderID:       order.ID,
			Status:        string(order.Status),
			Total:         order.Total,
			BalanceDue:    order.BalanceDue,
			TotalQuantity: p.state.TotalQuantity(),
		}
		if _, err := s.sessions.Reset(ctx, sessionID); err != nil && s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("reset session after order request: %v", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// prepare runs the wizard gates, stores attached artwork and refreshes the
// quote and discount.
func (s *Service) prepare(ctx context.Context, sessionID string, files map[enums.PrintLocation]artwork.File) (*prepared, error) {
	st, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	progress := s.gates.Evaluate(st, attachedLocations(files)...)
	if !progress.CanCheckout {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is not ready for checkout").
			WithDetails(map[string]any{"blocking": progress.Blocking()})
	}

	records, err := s.persistArtwork(ctx, st, files)
	if err != nil {
		return nil, err
	}

	st, err = s.sessions.Mutate(ctx, sessionID, func(cur *orderconfig.State) error {
		for loc, rec := range records {
			if err := cur.SetArtwork(loc, rec); err != nil {
				return err
			}
		}
		return s.gates.RefreshQuote(ctx, cur)
	})
	if err != nil {
		return nil, err
	}
	if st.Quote == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quote unavailable for this configuration")
	}

	p := &prepared{
		state:          st,
		total:          st.Quote.Total,
		discountAmount: decimal.Zero,
		deposit:        st.Quote.DepositAmount,
		balance:        st.Quote.BalanceDue,
	}
	for _, loc := range st.EnabledLocations() {
		p.artwork = append(p.artwork, st.Artwork[loc])
	}
	if d := st.Discount; d != nil {
		code := d.Code
		p.discountID = d.DiscountCodeID
		p.discountCode = &code
		p.total = d.DiscountedTotal
		p.discountAmount = d.DiscountAmount
		p.deposit = d.DepositAmount
		p.balance = d.BalanceDue
	}
	return p, nil
}

// persistArtwork uploads freshly attached files and reuses persisted records
// for the remaining enabled locations. Existing transforms are kept.
func (s *Service) persistArtwork(ctx context.Context, st *orderconfig.State, files map[enums.PrintLocation]artwork.File) (map[enums.PrintLocation]types.ArtworkRecord, error) {
	out := map[enums.PrintLocation]types.ArtworkRecord{}
	for _, loc := range st.EnabledLocations() {
		prev, hasPrev := st.Artwork[loc]
		if file, ok := files[loc]; ok && file.Body != nil {
			rec, err := s.artwork.Upload(ctx, artwork.UploadInput{
				SessionID: st.SessionID,
				UserID:    st.UserID,
				Location:  loc,
				Source:    enums.ArtworkSourceUpload,
				File:      file,
			})
			if err != nil {
				return nil, err
			}
			if hasPrev && prev.Transform != nil {
				rec.Transform = prev.Transform
			}
			out[loc] = rec
			continue
		}
		if hasPrev && prev.Persisted() {
			continue
		}
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("artwork required for %s", loc)).
			WithDetails(map[string]any{"location": loc})
	}
	return out, nil
}

func (s *Service) openPendingOrder(ctx context.Context, p *prepared) (*SubmitResult, error) {
	st := p.state
	pending := &models.PendingOrder{
		ID:             uuid.New(),
		SessionID:      st.SessionID,
		UserID:         st.UserID,
		Status:         enums.PendingOrderStatusAwaitingPayment,
		Lines:          lineSnapshots(st),
		PrintConfig:    st.PrintConfig.Clone(),
		Customer:       st.Customer,
		ArtworkData:    p.artwork,
		Quote:          *st.Quote,
		DiscountCodeID: p.discountID,
		DiscountCode:   p.discountCode,
		DiscountAmount: p.discountAmount,
		Total:          p.total,
		DepositAmount:  p.deposit,
		BalanceDue:     p.balance,
		Currency:       s.opts.Currency,
		ExpiresAt:      s.now().UTC().Add(s.opts.PendingOrderTTL),
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.orders.WithTx(tx).CreatePendingOrder(ctx, pending); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create pending order")
		}
		code := ""
		if pending.DiscountCode != nil {
			code = *pending.DiscountCode
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPendingOrderCreated,
			AggregateType: enums.AggregatePendingOrder,
			AggregateID:   pending.ID,
			Actor:         actorFor(st),
			Data: payloads.PendingOrderCreatedEvent{
				PendingOrderID: pending.ID,
				SessionID:      pending.SessionID,
				CustomerEmail:  pending.Customer.Email,
				TotalQuantity:  st.TotalQuantity(),
				Total:          pending.Total,
				DepositAmount:  pending.DepositAmount,
				DiscountCode:   code,
				ExpiresAt:      pending.ExpiresAt,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	intent, err := s.payments.CreatePaymentIntent(ctx, stripe.PaymentIntentInput{
		AmountCents:  stripe.ToCents(pending.DepositAmount),
		Currency:     pending.Currency,
		ReceiptEmail: pending.Customer.Email,
		Description:  fmt.Sprintf("Deposit for order %s", pending.ID),
		Metadata: map[string]string{
			MetadataPendingOrderID: pending.ID.String(),
			MetadataSessionID:      pending.SessionID,
		},
		IdempotencyKey: "pending_order:" + pending.ID.String(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment intent")
	}
	if err := s.orders.SetPaymentIntent(ctx, pending.ID, intent.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store payment intent")
	}

	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"pending_order_id":  pending.ID.String(),
			"payment_intent_id": intent.ID,
		})
		s.logg.Info(ctx, "pending order created")
	}

	return &SubmitResult{
		PendingOrderID:  pending.ID,
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Total:           pending.Total,
		DiscountAmount:  pending.DiscountAmount,
		DepositAmount:   pending.DepositAmount,
		BalanceDue:      pending.BalanceDue,
	}, nil
}

func attachedLocations(files map[enums.PrintLocation]artwork.File) []enums.PrintLocation {
	out := make([]enums.PrintLocation, 0, len(files))
	for loc, file := range files {
		if file.Body != nil {
			out = append(out, loc)
		}
	}
	return out
}

func lineSnapshots(st *orderconfig.State) []models.OrderLineSnapshot {
	ids := st.GarmentIDs()
	out := make([]models.OrderLineSnapshot, 0, len(ids))
	for _, id := range ids {
		line := st.Lines[id]
		quantities := make(map[string]map[string]int, len(line.Quantities))
		for color, sizes := range line.Quantities {
			row := make(map[string]int, len(sizes))
			for size, qty := range sizes {
				row[size] = qty
			}
			quantities[color] = row
		}
		out = append(out, models.OrderLineSnapshot{
			GarmentID:  id,
			Colors:     st.GarmentColors(id),
			Quantities: quantities,
		})
	}
	return out
}

func artworkIDs(records []types.ArtworkRecord) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(records))
	for _, rec := range records {
		if rec.ArtworkID != nil {
			ids = append(ids, *rec.ArtworkID)
		}
	}
	return ids
}

func actorFor(st *orderconfig.State) *outbox.ActorRef {
	return &outbox.ActorRef{UserID: st.UserID, SessionID: st.SessionID}
}

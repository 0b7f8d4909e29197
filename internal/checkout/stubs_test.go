package checkout

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/teeforge-backend/internal/artwork"
	"github.com/angelmondragon/teeforge-backend/internal/orderconfig"
	"github.com/angelmondragon/teeforge-backend/internal/orders"
	"github.com/angelmondragon/teeforge-backend/internal/wizard"
	"github.com/angelmondragon/teeforge-backend/pkg/db/models"
	"github.com/angelmondragon/teeforge-backend/pkg/enums"
	"github.com/angelmondragon/teeforge-backend/pkg/outbox"
	"github.com/angelmondragon/teeforge-backend/pkg/stripe"
	"github.com/angelmondragon/teeforge-backend/pkg/types"
)

type stubTx struct{}

func (stubTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubSessions struct {
	states map[string]*orderconfig.State
	resets int
}

func (s *stubSessions) Get(_ context.Context, id string) (*orderconfig.State, error) {
	st, ok := s.states[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return st, nil
}

func (s *stubSessions) Mutate(ctx context.Context, id string, fn func(*orderconfig.State) error) (*orderconfig.State, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *stubSessions) Reset(ctx context.Context, id string) (*orderconfig.State, error) {
	s.resets++
	return s.Mutate(ctx, id, func(st *orderconfig.State) error {
		st.Reset()
		return nil
	})
}

type stubGates struct {
	blocked  map[wizard.Step][]string
	quote    types.Quote
	discount *types.AppliedDiscount
	attached []enums.PrintLocation
}

func (g *stubGates) Evaluate(_ *orderconfig.State, attached ...enums.PrintLocation) wizard.Progress {
	g.attached = attached
	p := wizard.Progress{CanCheckout: len(g.blocked) == 0}
	for step, reasons := range g.blocked {
		p.Steps = append(p.Steps, wizard.StepStatus{Step: step, Reasons: reasons})
	}
	return p
}

func (g *stubGates) RefreshQuote(_ context.Context, st *orderconfig.State) error {
	st.SetQuote(g.quote)
	if g.discount != nil {
		st.SetDiscount(*g.discount)
	}
	return nil
}

type stubOrders struct {
	pending map[uuid.UUID]*models.PendingOrder
	orders  map[uuid.UUID]*models.Order
}

func newStubOrders() *stubOrders {
	return &stubOrders{pending: map[uuid.UUID]*models.PendingOrder{}, orders: map[uuid.UUID]*models.Order{}}
}

func (s *stubOrders) WithTx(*gorm.DB) orders.Repository { return s }

func (s *stubOrders) CreatePendingOrder(_ context.Context, p *models.PendingOrder) error {
	cp := *p
	s.pending[p.ID] = &cp
	return nil
}

func (s *stubOrders) SetPaymentIntent(_ context.Context, id uuid.UUID, pi string) error {
	p, ok := s.pending[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.PaymentIntentID = &pi
	return nil
}

func (s *stubOrders) FindPendingOrder(_ context.Context, id uuid.UUID) (*models.PendingOrder, error) {
	p, ok := s.pending[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *stubOrders) FindPendingOrderByPaymentIntent(_ context.Context, pi string) (*models.PendingOrder, error) {
	for _, p := range s.pending {
		if p.PaymentIntentID != nil && *p.PaymentIntentID == pi {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrders) LockPendingOrder(ctx context.Context, id uuid.UUID) (*models.PendingOrder, error) {
	return s.FindPendingOrder(ctx, id)
}

func (s *stubOrders) TransitionPendingOrder(_ context.Context, id uuid.UUID, from []enums.PendingOrderStatus, to enums.PendingOrderStatus, orderID *uuid.UUID) (bool, error) {
	p, ok := s.pending[id]
	if !ok {
		return false, nil
	}
	for _, status := range from {
		if p.Status == status {
			p.Status = to
			if orderID != nil {
				oid := *orderID
				p.OrderID = &oid
			}
			return true, nil
		}
	}
	return false, nil
}

func (s *stubOrders) ListExpiredPendingOrders(context.Context, time.Time, int) ([]models.PendingOrder, error) {
	return nil, nil
}

func (s *stubOrders) CreateOrder(_ context.Context, o *models.Order) error {
	cp := *o
	s.orders[o.ID] = &cp
	return nil
}

func (s *stubOrders) FindOrder(_ context.Context, id uuid.UUID) (*models.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return o, nil
}

func (s *stubOrders) FindOrderByPendingOrder(_ context.Context, id uuid.UUID) (*models.Order, error) {
	for _, o := range s.orders {
		if o.PendingOrderID != nil && *o.PendingOrderID == id {
			return o, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type recordingUploader struct {
	inputs []artwork.UploadInput
	err    error
}

func (r *recordingUploader) Upload(_ context.Context, input artwork.UploadInput) (types.ArtworkRecord, error) {
	if r.err != nil {
		return types.ArtworkRecord{}, r.err
	}
	r.inputs = append(r.inputs, input)
	_, _ = io.ReadAll(input.File.Body)
	id := uuid.New()
	return types.ArtworkRecord{
		ArtworkID: &id,
		Location:  input.Location,
		FileName:  input.File.FileName,
		FileURL:   "https://cdn.example/" + id.String(),
	}, nil
}

type stubAttacher struct {
	calls map[uuid.UUID][]uuid.UUID
}

func (s *stubAttacher) AttachToOrder(_ context.Context, _ *gorm.DB, ids []uuid.UUID, orderID uuid.UUID) error {
	if s.calls == nil {
		s.calls = map[uuid.UUID][]uuid.UUID{}
	}
	s.calls[orderID] = append(s.calls[orderID], ids...)
	return nil
}

type stubPayments struct {
	inputs    []stripe.PaymentIntentInput
	createErr error
	retrieved *stripe.PaymentIntent
}

func (s *stubPayments) CreatePaymentIntent(_ context.Context, input stripe.PaymentIntentInput) (*stripe.PaymentIntent, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.inputs = append(s.inputs, input)
	return &stripe.PaymentIntent{
		ID:           "pi_test_" + input.Metadata[MetadataPendingOrderID][:8],
		ClientSecret: "secret_123",
		Status:       "requires_payment_method",
		AmountCents:  input.AmountCents,
		Metadata:     input.Metadata,
	}, nil
}

func (s *stubPayments) RetrievePaymentIntent(_ context.Context, id string) (*stripe.PaymentIntent, error) {
	if s.retrieved == nil {
		return &stripe.PaymentIntent{ID: id, Status: "requires_payment_method"}, nil
	}
	return s.retrieved, nil
}

type memoryGuard struct {
	keys    map[string]bool
	deleted []string
}

func (m *memoryGuard) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if m.keys == nil {
		m.keys = map[string]bool{}
	}
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *memoryGuard) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.keys, k)
		m.deleted = append(m.deleted, k)
	}
	return nil
}

func (m *memoryGuard) GuardKey(scope, id string) string {
	return "guard:" + scope + ":" + id
}

type recordingOutbox struct {
	events []outbox.DomainEvent
}

func (r *recordingOutbox) Emit(_ context.Context, _ *gorm.DB, e outbox.DomainEvent) error {
	r.events = append(r.events, e)
	return nil
}

func (r *recordingOutbox) EmitIfNotExists(ctx context.Context, tx *gorm.DB, e outbox.DomainEvent) error {
	return r.Emit(ctx, tx, e)
}

func (r *recordingOutbox) eventTypes() []enums.OutboxEventType {
	out := make([]enums.OutboxEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}

type recordingDiscounts struct {
	used []uuid.UUID
}

func (r *recordingDiscounts) RecordUse(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	r.used = append(r.used, id)
	return nil
}

type fixture struct {
	svc       *Service
	sessions  *stubSessions
	gates     *stubGates
	orders    *stubOrders
	uploader  *recordingUploader
	attacher  *stubAttacher
	payments  *stubPayments
	guard     *memoryGuard
	outbox    *recordingOutbox
	discounts *recordingDiscounts
}

func newFixture(t interface{ Fatalf(string, ...any) }) *fixture {
	f := &fixture{
		sessions:  &stubSessions{states: map[string]*orderconfig.State{}},
		gates:     &stubGates{quote: sampleQuote()},
		orders:    newStubOrders(),
		uploader:  &recordingUploader{},
		attacher:  &stubAttacher{},
		payments:  &stubPayments{},
		guard:     &memoryGuard{},
		outbox:    &recordingOutbox{},
		discounts: &recordingDiscounts{},
	}
	svc, err := NewService(ServiceParams{
		Tx:        stubTx{},
		Sessions:  f.sessions,
		Gates:     f.gates,
		Orders:    f.orders,
		Artwork:   f.uploader,
		Attacher:  f.attacher,
		Payments:  f.payments,
		Guard:     f.guard,
		Outbox:    f.outbox,
		Discounts: f.discounts,
		Options:   Options{PendingOrderTTL: 48 * time.Hour},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	svc.now = func() time.Time { return time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC) }
	f.svc = svc
	return f
}

func sampleQuote() types.Quote {
	return types.Quote{
		GarmentCost:   decimal.RequireFromString("240.00"),
		PrintCost:     decimal.RequireFromString("60.00"),
		SetupFees:     decimal.RequireFromString("25.00"),
		Total:         decimal.RequireFromString("325.00"),
		DepositAmount: decimal.RequireFromString("162.50"),
		BalanceDue:    decimal.RequireFromString("162.50"),
		TotalQuantity: 24,
		TotalScreens:  1,
	}
}

// readySession returns a session with one garment, 24 shirts and persisted
// front artwork.
func (f *fixture) readySession(id string) *orderconfig.State {
	st := orderconfig.NewState(id)
	garmentID := uuid.New()
	st.AddGarment(garmentID)
	_ = st.AddColor(garmentID, "Black")
	_ = st.SetQuantity(garmentID, "Black", "M", orderconfig.Quantity(24))
	artworkID := uuid.New()
	_ = st.SetArtwork(enums.PrintLocationFront, types.ArtworkRecord{
		ArtworkID: &artworkID,
		FileName:  "logo.png",
		FileURL:   "https://cdn.example/logo.png",
	})
	st.SetCustomer(types.CustomerInfo{
		Name:  "Riley Park",
		Email: "riley@example.com",
		Phone: "555-0100",
		ShippingAddress: types.ShippingAddress{
			Line1: "1 Main St", City: "Austin", State: "TX", PostalCode: "78701",
		},
	})
	f.sessions.states[id] = st
	return st
}

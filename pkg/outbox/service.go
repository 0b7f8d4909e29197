package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/angelmondragon/teeforge-backend/pkg/db"
	"github.com/angelmondragon/teeforge-backend/pkg/db/models"
	"github.com/angelmondragon/teeforge-backend/pkg/enums"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
)

const (
	currentVersion = 1
	// onceConstraint backs EmitIfNotExists for event types indexed as unique
	// per aggregate.
	onceConstraint = "ux_outbox_events_event_aggregate"
)

var (
	ErrTxRequired        = errors.New("outbox: transaction required")
	ErrAggregateRequired = errors.New("outbox: aggregate id required")
)

// DomainEvent is what services hand to Emit. Data is marshalled as the
// envelope's data field.
type DomainEvent struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   uuid.UUID
	Actor         *ActorRef
	Data          any
	Version       int
	OccurredAt    time.Time
}

func (e DomainEvent) validate() error {
	switch {
	case !e.EventType.IsValid():
		return fmt.Errorf("outbox: unknown event type %q", e.EventType)
	case !e.AggregateType.IsValid():
		return fmt.Errorf("outbox: unknown aggregate type %q", e.AggregateType)
	case e.AggregateID == uuid.Nil:
		return ErrAggregateRequired
	}
	return nil
}

type eventWriter interface {
	Insert(tx *gorm.DB, event models.OutboxEvent) error
	ExistsTx(tx *gorm.DB, eventType enums.OutboxEventType, aggregateType enums.OutboxAggregateType, aggregateID uuid.UUID) (bool, error)
}

// Service appends domain events to outbox_events. It never publishes; the
// outbox-publisher binary drains the table.
type Service struct {
	repo eventWriter
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo eventWriter, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg, now: time.Now}
}

// Emit writes the event inside tx so it commits or rolls back with the
// aggregate change that produced it.
func (s *Service) Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error {
	if tx == nil {
		return ErrTxRequired
	}
	if err := event.validate(); err != nil {
		return err
	}
	row, envelope, err := s.row(event)
	if err != nil {
		return err
	}
	if err := s.repo.Insert(tx, row); err != nil {
		return fmt.Errorf("insert outbox %s: %w", event.EventType, err)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"event_id":       envelope.EventID,
		"event_type":     event.EventType,
		"aggregate_id":   envelope.AggregateID,
		"aggregate_type": event.AggregateType,
	}), "outbox event queued")
	return nil
}

// EmitIfNotExists is Emit for events that must exist at most once per
// aggregate, such as order_paid on a redelivered webhook. Losing a race to a
// concurrent writer counts as success.
func (s *Service) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event DomainEvent) error {
	if tx == nil {
		return ErrTxRequired
	}
	exists, err := s.repo.ExistsTx(tx, event.EventType, event.AggregateType, event.AggregateID)
	if err != nil {
		return fmt.Errorf("check outbox %s: %w", event.EventType, err)
	}
	if exists {
		return nil
	}
	err = s.Emit(ctx, tx, event)
	if err != nil && dbpkg.IsUniqueViolation(err, onceConstraint) {
		return nil
	}
	return err
}

func (s *Service) row(event DomainEvent) (models.OutboxEvent, PayloadEnvelope, error) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return models.OutboxEvent{}, PayloadEnvelope{}, fmt.Errorf("marshal %s data: %w", event.EventType, err)
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now().UTC()
	}
	if event.Version <= 0 {
		event.Version = currentVersion
	}
	envelope := newEnvelope(event, data)
	payload, err := json.Marshal(envelope)
	if err != nil {
		return models.OutboxEvent{}, PayloadEnvelope{}, fmt.Errorf("marshal %s envelope: %w", event.EventType, err)
	}
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       payload,
	}, envelope, nil
}

package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"

	"github.com/angelmondragon/teeforge-backend/pkg/config"
	"github.com/angelmondragon/teeforge-backend/pkg/db/models"
	"github.com/angelmondragon/teeforge-backend/pkg/enums"
	"github.com/angelmondragon/teeforge-backend/pkg/outbox"
	"github.com/angelmondragon/teeforge-backend/pkg/outbox/payloads"
)

// maxEnvelopeVersion is the newest envelope layout this publisher understands.
const maxEnvelopeVersion = 1

// EventDescriptor routes one event type to a topic and names its payload type.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() any
}

// ResolvedEvent is a validated outbox row with its payload decoded.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

// EventRegistry is the routing table for every event the outbox may hold.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError marks a row that can never be published as stored.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error {
	return e.Err
}

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

func nonRetryable(format string, args ...any) error {
	return NonRetryableError{Err: fmt.Errorf(format, args...)}
}

func describe[T any](eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType, topic string) EventDescriptor {
	return EventDescriptor{
		EventType:      eventType,
		AggregateType:  aggregate,
		Topic:          topic,
		PayloadFactory: func() any { return new(T) },
	}
}

// NewEventRegistry wires order lifecycle events to the orders topic and
// campaign events to the campaigns topic.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	var missing error
	if cfg.OrdersTopic == "" {
		missing = errors.Join(missing, errors.New("orders topic is required"))
	}
	if cfg.CampaignsTopic == "" {
		missing = errors.Join(missing, errors.New("campaigns topic is required"))
	}
	if missing != nil {
		return nil, missing
	}

	orders, campaigns := cfg.OrdersTopic, cfg.CampaignsTopic
	descriptors := []EventDescriptor{
		describe[payloads.PendingOrderCreatedEvent](enums.EventPendingOrderCreated, enums.AggregatePendingOrder, orders),
		describe[payloads.PendingOrderExpiredEvent](enums.EventPendingOrderExpired, enums.AggregatePendingOrder, orders),
		describe[payloads.PaymentFailedEvent](enums.EventPaymentFailed, enums.AggregatePendingOrder, orders),
		describe[payloads.OrderRequestedEvent](enums.EventOrderRequested, enums.AggregateOrder, orders),
		describe[payloads.OrderPaidEvent](enums.EventOrderPaid, enums.AggregateOrder, orders),
		describe[payloads.CampaignCreatedEvent](enums.EventCampaignCreated, enums.AggregateCampaign, campaigns),
	}
	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor, len(descriptors))}
	for _, desc := range descriptors {
		reg.entries[desc.EventType] = desc
	}
	return reg, nil
}

// Topics lists the distinct topics, sorted.
func (r *EventRegistry) Topics() []string {
	set := make(map[string]struct{}, 2)
	for _, desc := range r.entries {
		set[desc.Topic] = struct{}{}
	}
	return slices.Sorted(maps.Keys(set))
}

// Resolve checks the row against its descriptor and decodes the payload.
// Every failure is non-retryable: the row will not change on its own.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	switch {
	case !ok:
		return nil, nonRetryable("unsupported event type %s", event.EventType)
	case desc.AggregateType != event.AggregateType:
		return nil, nonRetryable("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType)
	case event.AggregateID == uuid.Nil:
		return nil, nonRetryable("missing aggregate_id")
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nil, nonRetryable("decode envelope: %w", err)
	}
	switch {
	case envelope.Version > maxEnvelopeVersion:
		return nil, nonRetryable("unsupported envelope version %d", envelope.Version)
	case envelope.EventType != "" && envelope.EventType != event.EventType:
		return nil, nonRetryable("envelope event type %s does not match row %s", envelope.EventType, event.EventType)
	}
	data := bytes.TrimSpace(envelope.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nonRetryable("payload missing for %s", event.EventType)
	}

	payload := desc.PayloadFactory()
	if err := json.Unmarshal(data, payload); err != nil {
		return nil, nonRetryable("decode %s payload: %w", event.EventType, err)
	}
	return &ResolvedEvent{Descriptor: desc, Envelope: envelope, Payload: payload}, nil
}

package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/teeforge-backend/pkg/enums"
)

// ActorRef identifies who produced the event. Anonymous shoppers carry only
// the session id.
type ActorRef struct {
	UserID    *uuid.UUID `json:"userId,omitempty"`
	SessionID string     `json:"sessionId,omitempty"`
}

// PayloadEnvelope is what outbox_events.payload holds and what subscribers
// receive as the message body.
type PayloadEnvelope struct {
	Version     int                   `json:"version"`
	EventID     string                `json:"eventId"`
	EventType   enums.OutboxEventType `json:"eventType,omitempty"`
	AggregateID string                `json:"aggregateId,omitempty"`
	OccurredAt  time.Time             `json:"occurredAt"`
	Actor       *ActorRef             `json:"actor,omitempty"`
	Data        json.RawMessage       `json:"data"`
}

func newEnvelope(event DomainEvent, data json.RawMessage) PayloadEnvelope {
	return PayloadEnvelope{
		Version:     event.Version,
		EventID:     uuid.NewString(),
		EventType:   event.EventType,
		AggregateID: event.AggregateID.String(),
		OccurredAt:  event.OccurredAt,
		Actor:       event.Actor,
		Data:        data,
	}
}

package registry

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/teeforge-backend/pkg/config"
	"github.com/angelmondragon/teeforge-backend/pkg/db/models"
	"github.com/angelmondragon/teeforge-backend/pkg/enums"
	"github.com/angelmondragon/teeforge-backend/pkg/outbox"
	"github.com/angelmondragon/teeforge-backend/pkg/outbox/payloads"
)

const (
	testOrdersTopic    = "tf-orders"
	testCampaignsTopic = "tf-campaigns"
)

func testRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	reg, err := NewEventRegistry(config.PubSubConfig{OrdersTopic: testOrdersTopic, CampaignsTopic: testCampaignsTopic})
	require.NoError(t, err)
	return reg
}

func envelopeFor(t *testing.T, eventType enums.OutboxEventType, version int, data any) json.RawMessage {
	t.Helper()
	var raw json.RawMessage
	switch v := data.(type) {
	case string:
		raw = json.RawMessage(v)
	default:
		b, err := json.Marshal(v)
		require.NoError(t, err)
		raw = b
	}
	b, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    version,
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC),
		Data:       raw,
	})
	require.NoError(t, err)
	return b
}

func TestResolveDecodesPendingOrderPayload(t *testing.T) {
	reg := testRegistry(t)
	pendingID := uuid.New()
	row := models.OutboxEvent{
		EventType:     enums.EventPendingOrderCreated,
		AggregateType: enums.AggregatePendingOrder,
		AggregateID:   pendingID,
		Payload: envelopeFor(t, enums.EventPendingOrderCreated, 1, payloads.PendingOrderCreatedEvent{
			PendingOrderID: pendingID,
			SessionID:      "sess-42",
			TotalQuantity:  36,
			Total:          decimal.RequireFromString("287.64"),
		}),
	}

	resolved, err := reg.Resolve(row)
	require.NoError(t, err)
	assert.Equal(t, testOrdersTopic, resolved.Descriptor.Topic)
	assert.NotEmpty(t, resolved.Envelope.EventID)
	assert.False(t, resolved.Envelope.OccurredAt.IsZero())

	payload, ok := resolved.Payload.(*payloads.PendingOrderCreatedEvent)
	require.True(t, ok, "payload type %T", resolved.Payload)
	assert.Equal(t, pendingID, payload.PendingOrderID)
	assert.Equal(t, 36, payload.TotalQuantity)
	assert.True(t, payload.Total.Equal(decimal.RequireFromString("287.64")))
}

func TestResolveRoutesCampaignsToTheirTopic(t *testing.T) {
	reg := testRegistry(t)
	row := models.OutboxEvent{
		EventType:     enums.EventCampaignCreated,
		AggregateType: enums.AggregateCampaign,
		AggregateID:   uuid.New(),
		Payload:       envelopeFor(t, "", 0, payloads.CampaignCreatedEvent{Slug: "relay-team-9f3c", Name: "Relay Team"}),
	}

	resolved, err := reg.Resolve(row)
	require.NoError(t, err)
	assert.Equal(t, testCampaignsTopic, resolved.Descriptor.Topic)
	assert.Equal(t, []string{testCampaignsTopic, testOrdersTopic}, reg.Topics())
}

func TestResolveRejectsUnpublishableRows(t *testing.T) {
	reg := testRegistry(t)

	cases := map[string]models.OutboxEvent{
		"unknown event type": {
			EventType:     enums.OutboxEventType("garment_restocked"),
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Payload:       envelopeFor(t, "", 1, `{"sku":"G500"}`),
		},
		"aggregate mismatch": {
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregatePendingOrder,
			AggregateID:   uuid.New(),
			Payload:       envelopeFor(t, "", 1, payloads.OrderPaidEvent{}),
		},
		"missing aggregate id": {
			EventType:     enums.EventCampaignCreated,
			AggregateType: enums.AggregateCampaign,
			Payload:       envelopeFor(t, "", 1, `{}`),
		},
		"null payload": {
			EventType:     enums.EventCampaignCreated,
			AggregateType: enums.AggregateCampaign,
			AggregateID:   uuid.New(),
			Payload:       envelopeFor(t, "", 1, `null`),
		},
		"corrupt envelope": {
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Payload:       json.RawMessage(`{"version":`),
		},
		"envelope names another event": {
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Payload:       envelopeFor(t, enums.EventOrderRequested, 1, payloads.OrderPaidEvent{}),
		},
		"future envelope version": {
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Payload:       envelopeFor(t, "", 2, payloads.OrderPaidEvent{}),
		},
	}

	for name, row := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := reg.Resolve(row)
			var nonRetry NonRetryableError
			require.ErrorAs(t, err, &nonRetry)
		})
	}
}

func TestNewEventRegistryReportsEveryMissingTopic(t *testing.T) {
	_, err := NewEventRegistry(config.PubSubConfig{OrdersTopic: testOrdersTopic})
	require.ErrorContains(t, err, "campaigns topic")

	_, err = NewEventRegistry(config.PubSubConfig{})
	require.ErrorContains(t, err, "orders topic")
	require.ErrorContains(t, err, "campaigns topic")
}

package enums

import (
	"fmt"
	"slices"
)

// OutboxAggregateType is outbox_events.aggregate_type.
type OutboxAggregateType string

const (
	AggregatePendingOrder OutboxAggregateType = "pending_order"
	AggregateOrder        OutboxAggregateType = "order"
	AggregateCampaign     OutboxAggregateType = "campaign"
)

func (a OutboxAggregateType) IsValid() bool {
	switch a {
	case AggregatePendingOrder, AggregateOrder, AggregateCampaign:
		return true
	}
	return false
}

// OutboxEventType is outbox_events.event_type. Pending-order events and
// order events go to the orders topic; campaign events to the campaigns topic.
type OutboxEventType string

const (
	EventPendingOrderCreated OutboxEventType = "pending_order_created"
	EventPendingOrderExpired OutboxEventType = "pending_order_expired"
	EventPaymentFailed       OutboxEventType = "payment_failed"
	EventOrderRequested      OutboxEventType = "order_requested"
	EventOrderPaid           OutboxEventType = "order_paid"
	EventCampaignCreated     OutboxEventType = "campaign_created"
)

var eventTypes = []OutboxEventType{
	EventPendingOrderCreated,
	EventPendingOrderExpired,
	EventPaymentFailed,
	EventOrderRequested,
	EventOrderPaid,
	EventCampaignCreated,
}

func (e OutboxEventType) IsValid() bool {
	return slices.Contains(eventTypes, e)
}

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	if e := OutboxEventType(value); e.IsValid() {
		return e, nil
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}

package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/teeforge-backend/pkg/enums"
)

// PendingOrderCreatedEvent is emitted when checkout freezes a configuration
// awaiting its deposit.
type PendingOrderCreatedEvent struct {
	PendingOrderID uuid.UUID       `json:"pending_order_id"`
	SessionID      string          `json:"session_id"`
	CustomerEmail  string          `json:"customer_email"`
	TotalQuantity  int             `json:"total_quantity"`
	Total          decimal.Decimal `json:"total"`
	DepositAmount  decimal.Decimal `json:"deposit_amount"`
	DiscountCode   string          `json:"discount_code,omitempty"`
	ExpiresAt      time.Time       `json:"expires_at"`
}

// PendingOrderExpiredEvent reports a pending order nobody paid for in time.
type PendingOrderExpiredEvent struct {
	PendingOrderID  uuid.UUID `json:"pending_order_id"`
	PaymentIntentID string    `json:"payment_intent_id,omitempty"`
	ExpiredAt       time.Time `json:"expired_at"`
}

// OrderRequestedEvent is emitted for direct order requests that skip payment.
type OrderRequestedEvent struct {
	OrderID       uuid.UUID       `json:"order_id"`
	CustomerEmail string          `json:"customer_email"`
	TotalQuantity int             `json:"total_quantity"`
	Total         decimal.Decimal `json:"total"`
}

// OrderPaidEvent is emitted once a deposit succeeds and the order exists.
type OrderPaidEvent struct {
	OrderID         uuid.UUID       `json:"order_id"`
	PendingOrderID  uuid.UUID       `json:"pending_order_id"`
	PaymentIntentID string          `json:"payment_intent_id"`
	CustomerEmail   string          `json:"customer_email"`
	DepositPaid     decimal.Decimal `json:"deposit_paid"`
	BalanceDue      decimal.Decimal `json:"balance_due"`
	PaidAt          time.Time       `json:"paid_at"`
}

// PaymentFailedEvent reports a declined or failed deposit attempt.
type PaymentFailedEvent struct {
	PendingOrderID  uuid.UUID `json:"pending_order_id"`
	PaymentIntentID string    `json:"payment_intent_id"`
	FailureMessage  string    `json:"failure_message,omitempty"`
	FailedAt        time.Time `json:"failed_at"`
}

// CampaignCreatedEvent announces a new group-order campaign page.
type CampaignCreatedEvent struct {
	CampaignID     uuid.UUID          `json:"campaign_id"`
	Slug           string             `json:"slug"`
	Name           string             `json:"name"`
	Deadline       time.Time          `json:"deadline"`
	PaymentStyle   enums.PaymentStyle `json:"payment_style"`
	OrganizerEmail string             `json:"organizer_email"`
	GarmentCount   int                `json:"garment_count"`
}

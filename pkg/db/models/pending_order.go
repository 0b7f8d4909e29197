package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/teeforge-backend/pkg/enums"
	"github.com/angelmondragon/teeforge-backend/pkg/types"
)

// PendingOrder binds a deposit payment intent to a frozen order configuration
// until the payment is confirmed.
type PendingOrder struct {
	ID              uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID       string                   `gorm:"column:session_id;not null"`
	UserID          *uuid.UUID               `gorm:"column:user_id;type:uuid"`
	Status          enums.PendingOrderStatus `gorm:"column:status;type:text;not null"`
	Lines           []OrderLineSnapshot      `gorm:"column:lines;type:jsonb;serializer:json;not null"`
	PrintConfig     types.PrintConfig        `gorm:"column:print_config;type:jsonb;serializer:json;not null"`
	Customer        types.CustomerInfo       `gorm:"column:customer;type:jsonb;serializer:json;not null"`
	ArtworkData     []types.ArtworkRecord    `gorm:"column:artwork_data;type:jsonb;serializer:json;not null"`
	Quote           types.Quote              `gorm:"column:quote;type:jsonb;serializer:json;not null"`
	DiscountCodeID  *uuid.UUID               `gorm:"column:discount_code_id;type:uuid"`
	DiscountCode    *string                  `gorm:"column:discount_code"`
	DiscountAmount  decimal.Decimal          `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0"`
	Total           decimal.Decimal          `gorm:"column:total;type:numeric(12,2);not null"`
	DepositAmount   decimal.Decimal          `gorm:"column:deposit_amount;type:numeric(12,2);not null"`
	BalanceDue      decimal.Decimal          `gorm:"column:balance_due;type:numeric(12,2);not null"`
	Currency        string                   `gorm:"column:currency;not null;default:'usd'"`
	PaymentIntentID *string                  `gorm:"column:payment_intent_id;uniqueIndex:ux_pending_orders_payment_intent"`
	OrderID         *uuid.UUID               `gorm:"column:order_id;type:uuid"`
	ExpiresAt       time.Time                `gorm:"column:expires_at;not null"`
	CreatedAt       time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

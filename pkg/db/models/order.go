package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/teeforge-backend/pkg/enums"
	"github.com/angelmondragon/teeforge-backend/pkg/types"
)

// Order is a materialized customer order, either requested directly or
// created once a pending order's deposit is paid.
type Order struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PendingOrderID  *uuid.UUID            `gorm:"column:pending_order_id;type:uuid;uniqueIndex:ux_orders_pending_order"`
	UserID          *uuid.UUID            `gorm:"column:user_id;type:uuid"`
	Status          enums.OrderStatus     `gorm:"column:status;type:text;not null"`
	Lines           []OrderLineSnapshot   `gorm:"column:lines;type:jsonb;serializer:json;not null"`
	PrintConfig     types.PrintConfig     `gorm:"column:print_config;type:jsonb;serializer:json;not null"`
	Customer        types.CustomerInfo    `gorm:"column:customer;type:jsonb;serializer:json;not null"`
	ArtworkData     []types.ArtworkRecord `gorm:"column:artwork_data;type:jsonb;serializer:json"`
	DiscountCodeID  *uuid.UUID            `gorm:"column:discount_code_id;type:uuid"`
	DiscountAmount  decimal.Decimal       `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0"`
	Total           decimal.Decimal       `gorm:"column:total;type:numeric(12,2);not null"`
	DepositPaid     decimal.Decimal       `gorm:"column:deposit_paid;type:numeric(12,2);not null;default:0"`
	BalanceDue      decimal.Decimal       `gorm:"column:balance_due;type:numeric(12,2);not null"`
	PaymentIntentID *string               `gorm:"column:payment_intent_id"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/teeforge-backend/pkg/enums"
)

// DiscountCode is a promotional code customers can apply at checkout.
type DiscountCode struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code        string             `gorm:"column:code;not null;uniqueIndex:ux_discount_codes_code"`
	Type        enums.DiscountType `gorm:"column:type;type:text;not null"`
	Value       decimal.Decimal    `gorm:"column:value;type:numeric(10,2);not null"`
	IsActive    bool               `gorm:"column:is_active;not null;default:true"`
	MinSubtotal *decimal.Decimal   `gorm:"column:min_subtotal;type:numeric(12,2)"`
	MaxUses     *int               `gorm:"column:max_uses"`
	UsedCount   int                `gorm:"column:used_count;not null;default:0"`
	StartsAt    *time.Time         `gorm:"column:starts_at"`
	ExpiresAt   *time.Time         `gorm:"column:expires_at"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

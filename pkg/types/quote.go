package types

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/teeforge-backend/pkg/enums"
)

// Quote is the priced breakdown of an order configuration.
type Quote struct {
	GarmentCost   decimal.Decimal    `json:"garment_cost"`
	PrintCost     decimal.Decimal    `json:"print_cost"`
	SetupFees     decimal.Decimal    `json:"setup_fees"`
	Total         decimal.Decimal    `json:"total"`
	DepositAmount decimal.Decimal    `json:"deposit_amount"`
	BalanceDue    decimal.Decimal    `json:"balance_due"`
	PerShirtPrice decimal.Decimal    `json:"per_shirt_price"`
	TotalScreens  int                `json:"total_screens"`
	TotalQuantity int                `json:"total_quantity"`
	Lines         []GarmentQuoteLine `json:"lines,omitempty"`
}

// GarmentQuoteLine is the garment cost contribution of one garment.
type GarmentQuoteLine struct {
	GarmentID uuid.UUID       `json:"garment_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// AppliedDiscount is a validated discount code together with the amounts it
// produces against a quote.
type AppliedDiscount struct {
	DiscountCodeID  *uuid.UUID         `json:"discount_code_id,omitempty"`
	Code            string             `json:"code"`
	Type            enums.DiscountType `json:"type"`
	Value           decimal.Decimal    `json:"value"`
	DiscountAmount  decimal.Decimal    `json:"discount_amount"`
	DiscountedTotal decimal.Decimal    `json:"discounted_total"`
	DepositAmount   decimal.Decimal    `json:"deposit_amount"`
	BalanceDue      decimal.Decimal    `json:"balance_due"`
}

package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/teeforge-backend/pkg/db/models"
	"github.com/angelmondragon/teeforge-backend/pkg/types"
)

// LineDTO is one garment's frozen selection.
type LineDTO struct {
	GarmentID  uuid.UUID                 `json:"garment_id"`
	Colors     []string                  `json:"colors"`
	Quantities map[string]map[string]int `json:"quantities"`
	Quantity   int                       `json:"quantity"`
}

// OrderDTO is the customer-facing view of an order.
type OrderDTO struct {
	ID             uuid.UUID             `json:"id"`
	Status         string                `json:"status"`
	Lines          []LineDTO             `json:"lines"`
	PrintConfig    types.PrintConfig     `json:"print_config"`
	Customer       types.CustomerInfo    `json:"customer"`
	Artwork        []types.ArtworkRecord `json:"artwork"`
	DiscountAmount decimal.Decimal       `json:"discount_amount"`
	Total          decimal.Decimal       `json:"total"`
	DepositPaid    decimal.Decimal       `json:"deposit_paid"`
	BalanceDue     decimal.Decimal       `json:"balance_due"`
	TotalQuantity  int                   `json:"total_quantity"`
	CreatedAt      time.Time             `json:"created_at"`
}

// PendingOrderDTO summarizes a pending order still awaiting its deposit.
type PendingOrderDTO struct {
	ID             uuid.UUID       `json:"id"`
	Status         string          `json:"status"`
	Total          decimal.Decimal `json:"total"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	DepositAmount  decimal.Decimal `json:"deposit_amount"`
	BalanceDue     decimal.Decimal `json:"balance_due"`
	ExpiresAt      time.Time       `json:"expires_at"`
}

func NewOrderDTO(order *models.Order) *OrderDTO {
	if order == nil {
		return nil
	}
	lines, qty := linesDTO(order.Lines)
	artwork := order.ArtworkData
	if artwork == nil {
		artwork = []types.ArtworkRecord{}
	}
	return &OrderDTO{
		ID:             order.ID,
		Status:         string(order.Status),
		Lines:          lines,
		PrintConfig:    order.PrintConfig,
		Customer:       order.Customer,
		Artwork:        artwork,
		DiscountAmount: order.DiscountAmount,
		Total:          order.Total,
		DepositPaid:    order.DepositPaid,
		BalanceDue:     order.BalanceDue,
		TotalQuantity:  qty,
		CreatedAt:      order.CreatedAt,
	}
}

func NewPendingOrderDTO(pending *models.PendingOrder) *PendingOrderDTO {
	if pending == nil {
		return nil
	}
	return &PendingOrderDTO{
		ID:             pending.ID,
		Status:         string(pending.Status),
		Total:          pending.Total,
		DiscountAmount: pending.DiscountAmount,
		DepositAmount:  pending.DepositAmount,
		BalanceDue:     pending.BalanceDue,
		ExpiresAt:      pending.ExpiresAt,
	}
}

func linesDTO(lines []models.OrderLineSnapshot) ([]LineDTO, int) {
	out := make([]LineDTO, 0, len(lines))
	total := 0
	for _, line := range lines {
		qty := 0
		for _, sizes := range line.Quantities {
			for _, n := range sizes {
				qty += n
			}
		}
		total += qty
		out = append(out, LineDTO{
			GarmentID:  line.GarmentID,
			Colors:     line.Colors,
			Quantities: line.Quantities,
			Quantity:   qty,
		})
	}
	return out, total
}

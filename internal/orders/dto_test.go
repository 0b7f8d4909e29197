package orders

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/teeforge-backend/pkg/db/models"
	"github.com/angelmondragon/teeforge-backend/pkg/enums"
)

func TestNewOrderDTOSumsQuantities(t *testing.T) {
	order := &models.Order{
		ID:     uuid.New(),
		Status: enums.OrderStatusDepositPaid,
		Lines: []models.OrderLineSnapshot{
			{GarmentID: uuid.New(), Colors: []string{"Black"}, Quantities: map[string]map[string]int{"Black": {"M": 12, "L": 6}}},
			{GarmentID: uuid.New(), Colors: []string{"White", "Red"}, Quantities: map[string]map[string]int{"White": {"S": 4}, "Red": {"XL": 2}}},
		},
		Total:       decimal.RequireFromString("400.00"),
		DepositPaid: decimal.RequireFromString("200.00"),
		BalanceDue:  decimal.RequireFromString("200.00"),
	}

	dto := NewOrderDTO(order)
	if dto.TotalQuantity != 24 {
		t.Fatalf("expected 24 shirts, got %d", dto.TotalQuantity)
	}
	if dto.Lines[0].Quantity != 18 || dto.Lines[1].Quantity != 6 {
		t.Fatalf("unexpected line quantities %+v", dto.Lines)
	}
	if dto.Status != "deposit_paid" {
		t.Fatalf("unexpected status %q", dto.Status)
	}
	if dto.Artwork == nil {
		t.Fatal("artwork should render as an empty list")
	}
}

func TestDTOConstructorsHandleNil(t *testing.T) {
	if NewOrderDTO(nil) != nil {
		t.Fatal("expected nil order dto")
	}
	if NewPendingOrderDTO(nil) != nil {
		t.Fatal("expected nil pending order dto")
	}
}

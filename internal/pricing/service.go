package pricing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/teeforge-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
	"github.com/angelmondragon/teeforge-backend/pkg/types"
)

type garmentLookup interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Garment, error)
}

// QuoteLine is a garment and its combined quantity as the client submits it.
type QuoteLine struct {
	GarmentID uuid.UUID `json:"garment_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"gte=0"`
}

// Service prices configurations against catalog garments.
type Service interface {
	Quote(ctx context.Context, lines []QuoteLine, printConfig types.PrintConfig) (types.Quote, error)
	CampaignPrice(ctx context.Context, garmentID uuid.UUID, quantity int, printConfig types.PrintConfig) (decimal.Decimal, error)
	ApplyDiscount(quote types.Quote, d Discount) (types.AppliedDiscount, error)
	MinimumQuantity() int
}

type service struct {
	garments garmentLookup
	calc     *Calculator
}

// NewService wires the calculator to the garment catalog.
func NewService(garments garmentLookup, calc *Calculator) (Service, error) {
	if garments == nil {
		return nil, fmt.Errorf("garment lookup required")
	}
	if calc == nil {
		return nil, fmt.Errorf("calculator required")
	}
	return &service{garments: garments, calc: calc}, nil
}

func (s *service) Quote(ctx context.Context, lines []QuoteLine, printConfig types.PrintConfig) (types.Quote, error) {
	if len(lines) == 0 {
		return types.Quote{}, pkgerrors.New(pkgerrors.CodeValidation, "at least one garment is required")
	}
	garments, err := s.lookup(ctx, lines)
	if err != nil {
		return types.Quote{}, err
	}

	inputs := make([]LineInput, 0, len(lines))
	for _, line := range lines {
		g := garments[line.GarmentID]
		inputs = append(inputs, LineInput{
			GarmentID:     g.ID,
			Quantity:      line.Quantity,
			BaseCost:      g.BaseCost,
			CustomerPrice: g.CustomerPrice,
		})
	}
	return s.calc.Calculate(inputs, printConfig)
}

func (s *service) CampaignPrice(ctx context.Context, garmentID uuid.UUID, quantity int, printConfig types.PrintConfig) (decimal.Decimal, error) {
	garments, err := s.lookup(ctx, []QuoteLine{{GarmentID: garmentID}})
	if err != nil {
		return decimal.Zero, err
	}
	g := garments[garmentID]
	return s.calc.CampaignPrice(g.BaseCost, g.CustomerPrice, quantity, printConfig)
}

func (s *service) ApplyDiscount(quote types.Quote, d Discount) (types.AppliedDiscount, error) {
	return s.calc.ApplyDiscount(quote, d)
}

func (s *service) MinimumQuantity() int {
	return s.calc.MinimumQuantity()
}

func (s *service) lookup(ctx context.Context, lines []QuoteLine) (map[uuid.UUID]models.Garment, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.GarmentID)
	}
	garments, err := s.garments.GetByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load garments")
	}
	for _, id := range ids {
		if _, ok := garments[id]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("garment %s not found", id))
		}
	}
	return garments, nil
}

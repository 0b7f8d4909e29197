package garments

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/teeforge-backend/pkg/db/models"
)

// GarmentDTO is the storefront view of a catalog garment.
type GarmentDTO struct {
	ID          uuid.UUID                     `json:"id"`
	Brand       string                        `json:"brand"`
	Name        string                        `json:"name"`
	Description string                        `json:"description,omitempty"`
	Category    string                        `json:"category"`
	FitType     string                        `json:"fit_type,omitempty"`
	Price       decimal.Decimal               `json:"price"`
	Colors      []string                      `json:"colors"`
	Sizes       []string                      `json:"sizes"`
	ColorImages map[string]models.ColorImages `json:"color_images,omitempty"`
}

// NewGarmentDTO shows the customer price when one is set, otherwise base cost.
func NewGarmentDTO(g models.Garment) GarmentDTO {
	price := g.BaseCost
	if g.CustomerPrice != nil {
		price = *g.CustomerPrice
	}
	return GarmentDTO{
		ID:          g.ID,
		Brand:       g.Brand,
		Name:        g.Name,
		Description: g.Description,
		Category:    g.Category,
		FitType:     g.FitType,
		Price:       price,
		Colors:      append([]string{}, g.Colors...),
		Sizes:       append([]string{}, g.Sizes...),
		ColorImages: g.ColorImages,
	}
}

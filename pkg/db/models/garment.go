package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// ColorImages are the mockup photos for one garment color.
type ColorImages struct {
	FrontURL string `json:"front_url,omitempty"`
	BackURL  string `json:"back_url,omitempty"`
}

// Garment is a blank garment offered in the catalog.
type Garment struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Brand         string                 `gorm:"column:brand;not null"`
	Name          string                 `gorm:"column:name;not null"`
	Description   string                 `gorm:"column:description"`
	Category      string                 `gorm:"column:category;not null"`
	FitType       string                 `gorm:"column:fit_type"`
	BaseCost      decimal.Decimal        `gorm:"column:base_cost;type:numeric(10,2);not null"`
	CustomerPrice *decimal.Decimal       `gorm:"column:customer_price;type:numeric(10,2)"`
	Colors        pq.StringArray         `gorm:"column:colors;type:text[];not null"`
	Sizes         pq.StringArray         `gorm:"column:sizes;type:text[];not null"`
	ColorImages   map[string]ColorImages `gorm:"column:color_images;type:jsonb;serializer:json"`
	IsActive      bool                   `gorm:"column:is_active;not null;default:true"`
	SortOrder     int                    `gorm:"column:sort_order;not null;default:0"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// HasColor reports whether color is offered for the garment.
func (g Garment) HasColor(color string) bool {
	for _, c := range g.Colors {
		if c == color {
			return true
		}
	}
	return false
}

// HasSize reports whether size is offered for the garment.
func (g Garment) HasSize(size string) bool {
	for _, s := range g.Sizes {
		if s == size {
			return true
		}
	}
	return false
}

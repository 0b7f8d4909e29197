package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/teeforge-backend/pkg/enums"
	"github.com/angelmondragon/teeforge-backend/pkg/types"
)

// CampaignGarment is one garment offered on a campaign page with its price.
type CampaignGarment struct {
	GarmentID     uuid.UUID         `json:"garment_id"`
	Name          string            `json:"name"`
	Colors        []string          `json:"colors"`
	PricePerShirt decimal.Decimal   `json:"price_per_shirt"`
	MockupURLs    map[string]string `json:"mockup_urls,omitempty"`
}

// Campaign is a shareable group order collection page.
type Campaign struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Slug           string                `gorm:"column:slug;not null;uniqueIndex:ux_campaigns_slug"`
	Name           string                `gorm:"column:name;not null"`
	Deadline       time.Time             `gorm:"column:deadline;not null"`
	PaymentStyle   enums.PaymentStyle    `gorm:"column:payment_style;type:text;not null"`
	Status         enums.CampaignStatus  `gorm:"column:status;type:text;not null"`
	OrganizerName  string                `gorm:"column:organizer_name;not null"`
	OrganizerEmail string                `gorm:"column:organizer_email;not null"`
	OrganizerPhone string                `gorm:"column:organizer_phone"`
	UserID         *uuid.UUID            `gorm:"column:user_id;type:uuid"`
	Garments       []CampaignGarment     `gorm:"column:garments;type:jsonb;serializer:json;not null"`
	PrintConfig    types.PrintConfig     `gorm:"column:print_config;type:jsonb;serializer:json;not null"`
	ArtworkData    []types.ArtworkRecord `gorm:"column:artwork_data;type:jsonb;serializer:json;not null"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

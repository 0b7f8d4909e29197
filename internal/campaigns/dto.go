package campaigns

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/teeforge-backend/pkg/db/models"
	"github.com/angelmondragon/teeforge-backend/pkg/enums"
	"github.com/angelmondragon/teeforge-backend/pkg/types"
)

// CampaignDTO is the public landing page view. Organizer contact details
// other than the name are not exposed.
type CampaignDTO struct {
	ID            uuid.UUID                `json:"id"`
	Slug          string                   `json:"slug"`
	URL           string                   `json:"url"`
	Name          string                   `json:"name"`
	Deadline      time.Time                `json:"deadline"`
	PaymentStyle  string                   `json:"payment_style"`
	Status        string                   `json:"status"`
	AcceptsOrders bool                     `json:"accepts_orders"`
	OrganizerName string                   `json:"organizer_name"`
	Garments      []models.CampaignGarment `json:"garments"`
	PrintConfig   types.PrintConfig        `json:"print_config"`
	Artwork       []types.ArtworkRecord    `json:"artwork"`
}

func NewCampaignDTO(c *models.Campaign, url string, now time.Time) *CampaignDTO {
	if c == nil {
		return nil
	}
	garments := c.Garments
	if garments == nil {
		garments = []models.CampaignGarment{}
	}
	art := c.ArtworkData
	if art == nil {
		art = []types.ArtworkRecord{}
	}
	return &CampaignDTO{
		ID:            c.ID,
		Slug:          c.Slug,
		URL:           url,
		Name:          c.Name,
		Deadline:      c.Deadline,
		PaymentStyle:  string(c.PaymentStyle),
		Status:        string(c.Status),
		AcceptsOrders: c.Status == enums.CampaignStatusActive && now.Before(c.Deadline),
		OrganizerName: c.OrganizerName,
		Garments:      garments,
		PrintConfig:   c.PrintConfig,
		Artwork:       art,
	}
}

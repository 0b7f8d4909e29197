package campaigns

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/teeforge-backend/pkg/db/models"
)

// Repository persists campaign pages.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the campaign using tx when provided.
func (r *Repository) Create(ctx context.Context, tx *gorm.DB, campaign *models.Campaign) error {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	return conn.WithContext(ctx).Create(campaign).Error
}

func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.db.WithContext(ctx).
		Where("slug = ?", strings.ToLower(strings.TrimSpace(slug))).
		First(&campaign).Error
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

package garments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/teeforge-backend/pkg/db/models"
)

// Repository reads the garment catalog.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListActive returns active garments in display order.
func (r *Repository) ListActive(ctx context.Context) ([]models.Garment, error) {
	var rows []models.Garment
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC").
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Garment, error) {
	var row models.Garment
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Garment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Garment
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

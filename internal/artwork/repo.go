package artwork

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/teeforge-backend/pkg/db/models"
	"github.com/angelmondragon/teeforge-backend/pkg/enums"
)

// Repository tracks artwork objects in storage.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, row *models.ArtworkFile) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// AttachToOrder marks temporary files as belonging to orderID.
func (r *Repository) AttachToOrder(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, orderID uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	conn := r.db
	if tx != nil {
		conn = tx
	}
	return conn.WithContext(ctx).
		Model(&models.ArtworkFile{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"status":     enums.ArtworkStatusAttached,
			"order_id":   orderID,
			"updated_at": time.Now().UTC(),
		}).Error
}

// ListStaleTemporary returns temporary uploads created before cutoff.
func (r *Repository) ListStaleTemporary(ctx context.Context, cutoff time.Time, limit int) ([]models.ArtworkFile, error) {
	var rows []models.ArtworkFile
	err := r.db.WithContext(ctx).
		Where("status = ? AND source <> ? AND created_at < ?", enums.ArtworkStatusTemporary, enums.ArtworkSourceMockup, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *Repository) MarkDeleted(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.ArtworkFile{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"status":     enums.ArtworkStatusDeleted,
			"updated_at": time.Now().UTC(),
		}).Error
}

package discounts

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/teeforge-backend/pkg/db/models"
)

// Repository reads and updates discount codes.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByCode matches codes case-insensitively.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	var row models.DiscountCode
	err := r.db.WithContext(ctx).
		Where("UPPER(code) = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// IncrementUse bumps used_count inside tx unless the cap is already reached.
// It reports whether a row was updated.
func (r *Repository) IncrementUse(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	res := conn.WithContext(ctx).
		Model(&models.DiscountCode{}).
		Where("id = ? AND (max_uses IS NULL OR used_count < max_uses)", id).
		Update("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

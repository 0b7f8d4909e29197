package orderconfig

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/teeforge-backend/pkg/db/models"
)

// DraftRepository persists draft snapshots, one per user.
type DraftRepository struct {
	db *gorm.DB
}

func NewDraftRepository(db *gorm.DB) *DraftRepository {
	return &DraftRepository{db: db}
}

// Upsert writes the user's snapshot, replacing any previous one.
func (r *DraftRepository) Upsert(ctx context.Context, userID uuid.UUID, snapshot []byte) error {
	row := &models.OrderDraft{
		ID:       uuid.New(),
		UserID:   userID,
		Snapshot: json.RawMessage(snapshot),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"snapshot", "updated_at"}),
	}).Create(row).Error
}

// FindByUserID returns gorm.ErrRecordNotFound when the user has no draft.
func (r *DraftRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.OrderDraft, error) {
	var row models.OrderDraft
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

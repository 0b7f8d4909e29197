package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OrderDraft is the last auto-saved configuration snapshot of a signed-in user.
type OrderDraft struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_order_drafts_user"`
	Snapshot  json.RawMessage `gorm:"column:snapshot;type:jsonb;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

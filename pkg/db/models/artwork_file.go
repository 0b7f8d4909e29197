package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/teeforge-backend/pkg/enums"
)

// ArtworkFile tracks an uploaded artwork object in storage.
type ArtworkFile struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID     string              `gorm:"column:session_id;not null"`
	UserID        *uuid.UUID          `gorm:"column:user_id;type:uuid"`
	OrderID       *uuid.UUID          `gorm:"column:order_id;type:uuid"`
	Location      enums.PrintLocation `gorm:"column:location;type:text"`
	Source        enums.ArtworkSource `gorm:"column:source;type:text;not null"`
	Status        enums.ArtworkStatus `gorm:"column:status;type:text;not null"`
	FileName      string              `gorm:"column:file_name;not null"`
	ContentType   string              `gorm:"column:content_type;not null"`
	ByteSize      int64               `gorm:"column:byte_size;not null"`
	ObjectKey     string              `gorm:"column:object_key;not null"`
	FileURL       string              `gorm:"column:file_url;not null"`
	VectorizedURL *string             `gorm:"column:vectorized_url"`
	PixelWidth    int                 `gorm:"column:pixel_width;not null;default:0"`
	PixelHeight   int                 `gorm:"column:pixel_height;not null;default:0"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

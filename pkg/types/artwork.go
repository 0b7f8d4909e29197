package types

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/teeforge-backend/pkg/enums"
)

// ArtworkTransform positions artwork on the design canvas. X and Y are the
// artwork center in canvas pixels; rotation is in degrees.
type ArtworkTransform struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Scale    float64 `json:"scale"`
	Rotation float64 `json:"rotation"`
}

// ArtworkRecord is the artwork attached to one print location.
type ArtworkRecord struct {
	ArtworkID     *uuid.UUID          `json:"artwork_id,omitempty"`
	Location      enums.PrintLocation `json:"location"`
	FileName      string              `json:"file_name"`
	ByteSize      int64               `json:"byte_size"`
	ContentType   string              `json:"content_type,omitempty"`
	FileURL       string              `json:"file_url,omitempty"`
	ObjectKey     string              `json:"object_key,omitempty"`
	VectorizedURL string              `json:"vectorized_url,omitempty"`
	PixelWidth    int                 `json:"pixel_width"`
	PixelHeight   int                 `json:"pixel_height"`
	Transform     *ArtworkTransform   `json:"transform,omitempty"`
}

// Persisted reports whether the file already lives in storage.
func (a ArtworkRecord) Persisted() bool {
	return a.FileURL != ""
}

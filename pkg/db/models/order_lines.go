package models

import "github.com/google/uuid"

// OrderLineSnapshot freezes one garment's colors and quantity matrix on an
// order or pending order.
type OrderLineSnapshot struct {
	GarmentID  uuid.UUID                 `json:"garment_id"`
	Colors     []string                  `json:"colors"`
	Quantities map[string]map[string]int `json:"quantities"`
}

package orderconfig

import (
	"slices"

	"github.com/google/uuid"

	"github.com/angelmondragon/teeforge-backend/pkg/enums"
)

// TotalQuantity sums every cell across garments.
func (s *State) TotalQuantity() int {
	total := 0
	for _, id := range s.Garments {
		total += s.GarmentQuantity(id)
	}
	return total
}

// GarmentQuantity sums the cells of one garment.
func (s *State) GarmentQuantity(garmentID uuid.UUID) int {
	total := 0
	for _, sizes := range s.Lines[garmentID].Quantities {
		for _, qty := range sizes {
			total += qty
		}
	}
	return total
}

// GarmentIDs returns the selection in the order garments were added.
func (s *State) GarmentIDs() []uuid.UUID {
	return slices.Clone(s.Garments)
}

// ColorSubtotal sums one color's sizes for one garment.
func (s *State) ColorSubtotal(garmentID uuid.UUID, color string) int {
	total := 0
	for _, qty := range s.Lines[garmentID].Quantities[color] {
		total += qty
	}
	return total
}

// ColorTotals sums quantities per color across all garments.
func (s *State) ColorTotals() map[string]int {
	out := map[string]int{}
	for _, id := range s.Garments {
		for color := range s.Lines[id].Quantities {
			out[color] += s.ColorSubtotal(id, color)
		}
	}
	return out
}

// GarmentColors returns the garment's selected colors in order.
func (s *State) GarmentColors(garmentID uuid.UUID) []string {
	return slices.Clone(s.Lines[garmentID].Colors)
}

func (s *State) EnabledLocations() []enums.PrintLocation {
	return s.PrintConfig.EnabledLocations()
}

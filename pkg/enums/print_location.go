package enums

import "fmt"

// PrintLocation is a fixed position on a garment where artwork can be printed.
type PrintLocation string

const (
	PrintLocationFront      PrintLocation = "front"
	PrintLocationBack       PrintLocation = "back"
	PrintLocationLeftChest  PrintLocation = "left_chest"
	PrintLocationRightChest PrintLocation = "right_chest"
	PrintLocationFullBack   PrintLocation = "full_back"
)

var validPrintLocations = []PrintLocation{
	PrintLocationFront,
	PrintLocationBack,
	PrintLocationLeftChest,
	PrintLocationRightChest,
	PrintLocationFullBack,
}

// PrintLocations returns every location in display order.
func PrintLocations() []PrintLocation {
	out := make([]PrintLocation, len(validPrintLocations))
	copy(out, validPrintLocations)
	return out
}

// String returns the literal string for the location.
func (p PrintLocation) String() string {
	return string(p)
}

// IsValid reports whether the location is known.
func (p PrintLocation) IsValid() bool {
	for _, candidate := range validPrintLocations {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePrintLocation converts raw input into a PrintLocation.
func ParsePrintLocation(value string) (PrintLocation, error) {
	for _, candidate := range validPrintLocations {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid print location %q", value)
}

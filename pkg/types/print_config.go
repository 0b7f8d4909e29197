package types

import (
	"fmt"

	"github.com/angelmondragon/teeforge-backend/pkg/enums"
)

const (
	MinInkColors = 1
	MaxInkColors = 4
)

// PrintLocationConfig is the ink setup for a single print location.
type PrintLocationConfig struct {
	Enabled   bool `json:"enabled"`
	NumColors int  `json:"num_colors"`
}

// PrintConfig maps each print location to its ink setup. Locations missing from
// the map are treated as disabled.
type PrintConfig map[enums.PrintLocation]PrintLocationConfig

// DefaultPrintConfig enables a one-color front print, the starting point of
// every new configuration.
func DefaultPrintConfig() PrintConfig {
	return PrintConfig{
		enums.PrintLocationFront: {Enabled: true, NumColors: 1},
	}
}

// EnabledLocations lists enabled locations in canonical order.
func (p PrintConfig) EnabledLocations() []enums.PrintLocation {
	var out []enums.PrintLocation
	for _, loc := range enums.PrintLocations() {
		if cfg, ok := p[loc]; ok && cfg.Enabled {
			out = append(out, loc)
		}
	}
	return out
}

// Screens counts ink screens across enabled locations.
func (p PrintConfig) Screens() int {
	total := 0
	for _, loc := range p.EnabledLocations() {
		total += p[loc].NumColors
	}
	return total
}

// Clone returns an independent copy.
func (p PrintConfig) Clone() PrintConfig {
	if p == nil {
		return nil
	}
	out := make(PrintConfig, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Validate checks location names and the ink color range of enabled locations.
func (p PrintConfig) Validate() error {
	for loc, cfg := range p {
		if !loc.IsValid() {
			return fmt.Errorf("unknown print location %q", loc)
		}
		if !cfg.Enabled {
			continue
		}
		if cfg.NumColors < MinInkColors || cfg.NumColors > MaxInkColors {
			return fmt.Errorf("%s: num_colors must be between %d and %d", loc, MinInkColors, MaxInkColors)
		}
	}
	return nil
}

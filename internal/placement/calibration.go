package placement

import "github.com/angelmondragon/teeforge-backend/pkg/enums"

// Rect is a print area on the design canvas in pixels.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() (float64, float64) {
	return r.Left + r.Width/2, r.Top + r.Height/2
}

// Calibration maps a location's canvas print area to its physical size.
type Calibration struct {
	Area        Rect    `json:"area"`
	MaxWidthIn  float64 `json:"max_width_in"`
	MaxHeightIn float64 `json:"max_height_in"`
}

// PixelsPerInch returns the horizontal and vertical canvas density.
func (c Calibration) PixelsPerInch() (float64, float64) {
	return c.Area.Width / c.MaxWidthIn, c.Area.Height / c.MaxHeightIn
}

// Canvas is 300x400 px for every garment mockup.
var calibrations = map[enums.PrintLocation]Calibration{
	enums.PrintLocationFront: {
		Area:        Rect{Left: 67.5, Top: 70, Width: 165, Height: 255},
		MaxWidthIn:  11,
		MaxHeightIn: 17,
	},
	enums.PrintLocationBack: {
		Area:        Rect{Left: 67.5, Top: 70, Width: 165, Height: 255},
		MaxWidthIn:  11,
		MaxHeightIn: 17,
	},
	enums.PrintLocationFullBack: {
		Area:        Rect{Left: 45, Top: 50, Width: 210, Height: 300},
		MaxWidthIn:  14,
		MaxHeightIn: 20,
	},
	enums.PrintLocationLeftChest: {
		Area:        Rect{Left: 170, Top: 90, Width: 60, Height: 60},
		MaxWidthIn:  4,
		MaxHeightIn: 4,
	},
	enums.PrintLocationRightChest: {
		Area:        Rect{Left: 70, Top: 90, Width: 60, Height: 60},
		MaxWidthIn:  4,
		MaxHeightIn: 4,
	},
}

// CalibrationFor returns the calibration for location.
func CalibrationFor(location enums.PrintLocation) (Calibration, bool) {
	c, ok := calibrations[location]
	return c, ok
}

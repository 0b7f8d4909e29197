package placement

import (
	"fmt"
	"math"

	"github.com/angelmondragon/teeforge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
	"github.com/angelmondragon/teeforge-backend/pkg/types"
)

const (
	minScale          = 0.3
	rotationTolerance = 15.0
	centerTolerancePx = 10.0
)

// Analysis is the advisory readout for a placed artwork.
type Analysis struct {
	Location    enums.PrintLocation `json:"location"`
	WidthIn     float64             `json:"width_in"`
	HeightIn    float64             `json:"height_in"`
	MaxWidthIn  float64             `json:"max_width_in"`
	MaxHeightIn float64             `json:"max_height_in"`
	Oversize    bool                `json:"oversize"`
	Undersized  bool                `json:"undersized"`
	Rotated     bool                `json:"rotated"`
	Position    string              `json:"position"`
	Warnings    []string            `json:"warnings,omitempty"`
}

// Analyze reports physical print size and placement warnings for artwork of
// the given pixel dimensions. Warnings never block checkout.
func Analyze(location enums.PrintLocation, imageWidth, imageHeight int, transform types.ArtworkTransform) (Analysis, error) {
	cal, ok := CalibrationFor(location)
	if !ok {
		return Analysis{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown print location %q", location))
	}
	if imageWidth < 0 || imageHeight < 0 {
		return Analysis{}, pkgerrors.New(pkgerrors.CodeValidation, "image dimensions must not be negative")
	}

	pxPerInW, pxPerInH := cal.PixelsPerInch()
	widthIn := float64(imageWidth) * transform.Scale / pxPerInW
	heightIn := float64(imageHeight) * transform.Scale / pxPerInH
	// the flag uses exact inches; only the reported values are rounded
	a := Analysis{
		Location:    location,
		WidthIn:     round1(widthIn),
		HeightIn:    round1(heightIn),
		MaxWidthIn:  cal.MaxWidthIn,
		MaxHeightIn: cal.MaxHeightIn,
		Undersized:  transform.Scale < minScale,
		Rotated:     foldRotation(transform.Rotation) > rotationTolerance,
		Position:    positionLabel(cal.Area, transform.X, transform.Y),
	}
	a.Oversize = widthIn > cal.MaxWidthIn || heightIn > cal.MaxHeightIn

	if a.Oversize {
		a.Warnings = append(a.Warnings, fmt.Sprintf("Design is %.1f x %.1f in, larger than the %.0f x %.0f in print area", a.WidthIn, a.HeightIn, cal.MaxWidthIn, cal.MaxHeightIn))
	}
	if a.Undersized {
		a.Warnings = append(a.Warnings, "Design is scaled very small and may lose detail")
	}
	if a.Rotated {
		a.Warnings = append(a.Warnings, "Design is rotated; confirm this is intended")
	}
	return a, nil
}

// DefaultTransform centers artwork in the location's print area at full scale.
func DefaultTransform(location enums.PrintLocation) types.ArtworkTransform {
	cal, ok := CalibrationFor(location)
	if !ok {
		return types.ArtworkTransform{Scale: 1}
	}
	x, y := cal.Area.Center()
	return types.ArtworkTransform{X: x, Y: y, Scale: 1}
}

// foldRotation returns the distance in degrees from the nearest upright angle.
func foldRotation(deg float64) float64 {
	r := math.Mod(deg, 360)
	if r < 0 {
		r += 360
	}
	return math.Min(r, 360-r)
}

func positionLabel(area Rect, x, y float64) string {
	cx, cy := area.Center()
	dx, dy := x-cx, y-cy

	vertical := ""
	switch {
	case dy < -centerTolerancePx:
		vertical = "Top"
	case dy > centerTolerancePx:
		vertical = "Bottom"
	}
	horizontal := ""
	switch {
	case dx < -centerTolerancePx:
		horizontal = "Left"
	case dx > centerTolerancePx:
		horizontal = "Right"
	}

	switch {
	case vertical == "" && horizontal == "":
		return "Centered"
	case vertical == "":
		return horizontal
	case horizontal == "":
		return vertical
	default:
		return vertical + " " + horizontal
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

package orderconfig

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/teeforge-backend/internal/placement"
	"github.com/angelmondragon/teeforge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
	"github.com/angelmondragon/teeforge-backend/pkg/types"
)

// Line is the selection for one garment: its ordered colors and the
// color → size → quantity matrix.
type Line struct {
	Colors     []string                  `json:"colors"`
	Quantities map[string]map[string]int `json:"quantities"`
}

// CampaignFields are the campaign page inputs collected before creation.
type CampaignFields struct {
	Name           string             `json:"name,omitempty"`
	Deadline       *time.Time         `json:"deadline,omitempty"`
	PaymentStyle   enums.PaymentStyle `json:"payment_style,omitempty"`
	OrganizerName  string             `json:"organizer_name,omitempty"`
	OrganizerEmail string             `json:"organizer_email,omitempty"`
	OrganizerPhone string             `json:"organizer_phone,omitempty"`
}

// State is one configuration session. Fields are exported for serialization
// only; callers change them through the named operations below.
type State struct {
	SessionID   string                                      `json:"session_id"`
	UserID      *uuid.UUID                                  `json:"user_id,omitempty"`
	Garments    []uuid.UUID                                 `json:"garments"`
	Lines       map[uuid.UUID]Line                          `json:"lines"`
	PrintConfig types.PrintConfig                           `json:"print_config"`
	Artwork     map[enums.PrintLocation]types.ArtworkRecord `json:"artwork"`
	Customer    types.CustomerInfo                          `json:"customer"`
	Quote       *types.Quote                                `json:"quote,omitempty"`
	Discount    *types.AppliedDiscount                      `json:"discount,omitempty"`
	Campaign    CampaignFields                              `json:"campaign"`
	UpdatedAt   time.Time                                   `json:"updated_at"`
}

// NewState returns an empty configuration with the default one-color front print.
func NewState(sessionID string) *State {
	return &State{
		SessionID:   sessionID,
		Garments:    []uuid.UUID{},
		Lines:       map[uuid.UUID]Line{},
		PrintConfig: types.DefaultPrintConfig(),
		Artwork:     map[enums.PrintLocation]types.ArtworkRecord{},
	}
}

// normalize repairs nil maps after decoding.
func (s *State) normalize() {
	if s.Garments == nil {
		s.Garments = []uuid.UUID{}
	}
	if s.Lines == nil {
		s.Lines = map[uuid.UUID]Line{}
	}
	if s.PrintConfig == nil {
		s.PrintConfig = types.DefaultPrintConfig()
	}
	if s.Artwork == nil {
		s.Artwork = map[enums.PrintLocation]types.ArtworkRecord{}
	}
}

// SetGarment selects id as the only garment. An existing line for id is kept.
func (s *State) SetGarment(id uuid.UUID) {
	line, ok := s.Lines[id]
	if !ok {
		line = Line{Colors: []string{}, Quantities: map[string]map[string]int{}}
	}
	s.Garments = []uuid.UUID{id}
	s.Lines = map[uuid.UUID]Line{id: line}
}

// AddGarment appends id to the selection if absent.
func (s *State) AddGarment(id uuid.UUID) {
	if slices.Contains(s.Garments, id) {
		return
	}
	s.Garments = append(s.Garments, id)
	s.Lines[id] = Line{Colors: []string{}, Quantities: map[string]map[string]int{}}
}

// RemoveGarment drops id and its quantities. Print config and artwork are untouched.
func (s *State) RemoveGarment(id uuid.UUID) {
	s.Garments = slices.DeleteFunc(s.Garments, func(g uuid.UUID) bool { return g == id })
	delete(s.Lines, id)
}

// AddColor appends color to the garment's ordered color set.
func (s *State) AddColor(garmentID uuid.UUID, color string) error {
	line, err := s.line(garmentID)
	if err != nil {
		return err
	}
	color = strings.TrimSpace(color)
	if color == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "color is required")
	}
	if !slices.Contains(line.Colors, color) {
		line.Colors = append(line.Colors, color)
	}
	s.Lines[garmentID] = line
	return nil
}

// RemoveColor drops color and that color's quantities for one garment only.
func (s *State) RemoveColor(garmentID uuid.UUID, color string) error {
	line, err := s.line(garmentID)
	if err != nil {
		return err
	}
	line.Colors = slices.DeleteFunc(line.Colors, func(c string) bool { return c == color })
	delete(line.Quantities, color)
	s.Lines[garmentID] = line
	return nil
}

// SetQuantity writes one matrix cell. Colors not yet selected are added.
func (s *State) SetQuantity(garmentID uuid.UUID, color, size string, qty QuantityInput) error {
	line, err := s.line(garmentID)
	if err != nil {
		return err
	}
	if err := setCell(&line, color, size, qty.Int()); err != nil {
		return err
	}
	s.Lines[garmentID] = line
	return nil
}

// MergeQuantities writes every supplied cell, leaving other cells alone.
func (s *State) MergeQuantities(garmentID uuid.UUID, matrix map[string]map[string]QuantityInput) error {
	line, err := s.line(garmentID)
	if err != nil {
		return err
	}
	for color, sizes := range matrix {
		for size, qty := range sizes {
			if err := setCell(&line, color, size, qty.Int()); err != nil {
				return err
			}
		}
	}
	s.Lines[garmentID] = line
	return nil
}

func setCell(line *Line, color, size string, qty int) error {
	color = strings.TrimSpace(color)
	size = strings.TrimSpace(size)
	if color == "" || size == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "color and size are required")
	}
	if !slices.Contains(line.Colors, color) {
		line.Colors = append(line.Colors, color)
	}
	if line.Quantities == nil {
		line.Quantities = map[string]map[string]int{}
	}
	sizes := line.Quantities[color]
	if sizes == nil {
		sizes = map[string]int{}
	}
	if qty == 0 {
		delete(sizes, size)
	} else {
		sizes[size] = qty
	}
	if len(sizes) == 0 {
		delete(line.Quantities, color)
		return nil
	}
	line.Quantities[color] = sizes
	return nil
}

// SetPrintLocation enables or disables a location. Disabling keeps the last
// ink count so re-enabling restores it.
func (s *State) SetPrintLocation(location enums.PrintLocation, enabled bool, numColors int) error {
	if !location.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid print location %q", location))
	}
	cfg := s.PrintConfig[location]
	cfg.Enabled = enabled
	if numColors != 0 {
		if numColors < types.MinInkColors || numColors > types.MaxInkColors {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("num_colors must be between %d and %d", types.MinInkColors, types.MaxInkColors))
		}
		cfg.NumColors = numColors
	}
	if cfg.Enabled && cfg.NumColors == 0 {
		cfg.NumColors = types.MinInkColors
	}
	s.PrintConfig[location] = cfg
	return nil
}

// SetArtwork stores the artwork for a location, centering it when no
// transform is supplied.
func (s *State) SetArtwork(location enums.PrintLocation, record types.ArtworkRecord) error {
	if !location.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid print location %q", location))
	}
	record.Location = location
	if record.Transform == nil {
		tr := placement.DefaultTransform(location)
		record.Transform = &tr
	}
	s.Artwork[location] = record
	return nil
}

// SetArtworkTransform repositions existing artwork.
func (s *State) SetArtworkTransform(location enums.PrintLocation, transform types.ArtworkTransform) error {
	record, ok := s.Artwork[location]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no artwork at %s", location))
	}
	if transform.Scale <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "scale must be positive")
	}
	record.Transform = &transform
	s.Artwork[location] = record
	return nil
}

func (s *State) RemoveArtwork(location enums.PrintLocation) {
	delete(s.Artwork, location)
}

func (s *State) SetCustomer(info types.CustomerInfo) {
	s.Customer = info
}

func (s *State) SetQuote(q types.Quote) {
	s.Quote = &q
}

func (s *State) ClearQuote() {
	s.Quote = nil
}

func (s *State) SetDiscount(d types.AppliedDiscount) {
	s.Discount = &d
}

func (s *State) ClearDiscount() {
	s.Discount = nil
}

func (s *State) SetCampaign(fields CampaignFields) {
	s.Campaign = fields
}

// Reset clears the configuration while keeping the session identity.
func (s *State) Reset() {
	fresh := NewState(s.SessionID)
	fresh.UserID = s.UserID
	*s = *fresh
}

func (s *State) line(garmentID uuid.UUID) (Line, error) {
	line, ok := s.Lines[garmentID]
	if !ok {
		return Line{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("garment %s is not selected", garmentID))
	}
	if line.Quantities == nil {
		line.Quantities = map[string]map[string]int{}
	}
	return line, nil
}

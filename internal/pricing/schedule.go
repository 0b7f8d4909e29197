package pricing

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/teeforge-backend/pkg/config"
	"github.com/angelmondragon/teeforge-backend/pkg/enums"
)

// Tier is the per-color print rate that applies from MinQuantity upward.
type Tier struct {
	MinQuantity int
	Rate        decimal.Decimal
}

// Schedule is the catalog data the calculator prices against.
type Schedule struct {
	Tiers           []Tier
	LocationWeights map[enums.PrintLocation]decimal.Decimal
	ScreenFee       decimal.Decimal
	DepositRatio    decimal.Decimal
	MinimumCharge   decimal.Decimal
	GarmentMarkup   decimal.Decimal
	MinimumQuantity int
}

// DefaultSchedule returns the standard screen printing price list.
func DefaultSchedule() Schedule {
	return Schedule{
		Tiers: []Tier{
			{MinQuantity: 0, Rate: decimal.RequireFromString("2.00")},
			{MinQuantity: 48, Rate: decimal.RequireFromString("1.60")},
			{MinQuantity: 72, Rate: decimal.RequireFromString("1.30")},
			{MinQuantity: 144, Rate: decimal.RequireFromString("1.05")},
			{MinQuantity: 288, Rate: decimal.RequireFromString("0.85")},
			{MinQuantity: 500, Rate: decimal.RequireFromString("0.70")},
		},
		LocationWeights: map[enums.PrintLocation]decimal.Decimal{
			enums.PrintLocationFront:      decimal.NewFromInt(1),
			enums.PrintLocationBack:       decimal.NewFromInt(1),
			enums.PrintLocationFullBack:   decimal.RequireFromString("1.25"),
			enums.PrintLocationLeftChest:  decimal.RequireFromString("0.75"),
			enums.PrintLocationRightChest: decimal.RequireFromString("0.75"),
		},
		ScreenFee:       decimal.RequireFromString("25.00"),
		DepositRatio:    decimal.RequireFromString("0.50"),
		MinimumCharge:   decimal.RequireFromString("0.50"),
		GarmentMarkup:   decimal.NewFromInt(1),
		MinimumQuantity: 24,
	}
}

// ScheduleFromConfig overlays the environment knobs on the default schedule.
func ScheduleFromConfig(cfg config.PricingConfig) (Schedule, error) {
	s := DefaultSchedule()
	fields := []struct {
		name string
		raw  string
		dest *decimal.Decimal
	}{
		{"deposit ratio", cfg.DepositRatio, &s.DepositRatio},
		{"minimum charge", cfg.MinimumCharge, &s.MinimumCharge},
		{"screen fee", cfg.ScreenFee, &s.ScreenFee},
		{"garment markup", cfg.GarmentMarkup, &s.GarmentMarkup},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		v, err := decimal.NewFromString(f.raw)
		if err != nil {
			return Schedule{}, fmt.Errorf("parse %s %q: %w", f.name, f.raw, err)
		}
		*f.dest = v
	}
	if cfg.MinimumQuantity > 0 {
		s.MinimumQuantity = cfg.MinimumQuantity
	}
	return s, s.validate()
}

func (s Schedule) validate() error {
	if len(s.Tiers) == 0 {
		return fmt.Errorf("at least one print tier is required")
	}
	if s.DepositRatio.LessThanOrEqual(decimal.Zero) || s.DepositRatio.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("deposit ratio must be in (0, 1], got %s", s.DepositRatio)
	}
	if s.MinimumCharge.IsNegative() || s.ScreenFee.IsNegative() {
		return fmt.Errorf("minimum charge and screen fee must not be negative")
	}
	if !s.GarmentMarkup.IsPositive() {
		return fmt.Errorf("garment markup must be positive")
	}
	for loc, w := range s.LocationWeights {
		if !w.IsPositive() {
			return fmt.Errorf("location weight for %s must be positive", loc)
		}
	}
	return nil
}

// rateFor picks the tier rate for a combined quantity. Tiers are sorted on
// construction so the last tier whose minimum is reached wins.
func (s Schedule) rateFor(quantity int) decimal.Decimal {
	rate := s.Tiers[0].Rate
	for _, tier := range s.Tiers {
		if quantity >= tier.MinQuantity {
			rate = tier.Rate
		}
	}
	return rate
}

func (s *Schedule) sortTiers() {
	sort.SliceStable(s.Tiers, func(i, j int) bool {
		return s.Tiers[i].MinQuantity < s.Tiers[j].MinQuantity
	})
}

func (s Schedule) weightFor(loc enums.PrintLocation) decimal.Decimal {
	if w, ok := s.LocationWeights[loc]; ok {
		return w
	}
	return decimal.NewFromInt(1)
}

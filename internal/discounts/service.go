package discounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/teeforge-backend/internal/pricing"
	"github.com/angelmondragon/teeforge-backend/pkg/db/models"
	"github.com/angelmondragon/teeforge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
)

type repository interface {
	FindByCode(ctx context.Context, code string) (*models.DiscountCode, error)
	IncrementUse(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
}

// Result is the outcome of checking a code against a subtotal.
type Result struct {
	Valid          bool               `json:"valid"`
	Code           string             `json:"code"`
	Type           enums.DiscountType `json:"type,omitempty"`
	Value          decimal.Decimal    `json:"value"`
	DiscountCodeID *uuid.UUID         `json:"discount_code_id,omitempty"`
	Reason         string             `json:"reason,omitempty"`
}

// Discount converts a valid result into the pricing input.
func (r Result) Discount() pricing.Discount {
	return pricing.Discount{
		ID:    r.DiscountCodeID,
		Code:  r.Code,
		Type:  r.Type,
		Value: r.Value,
	}
}

// Service validates codes and records their use.
type Service struct {
	repo repository
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo repository, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("discount repository required")
	}
	return &Service{repo: repo, logg: logg, now: time.Now}, nil
}

// Validate checks code against subtotal. Unknown or inapplicable codes return
// a Result with Valid false and a reason rather than an error.
func (s *Service) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (Result, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}

	row, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Result{Code: code, Reason: "Invalid discount code"}, nil
		}
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup discount code")
	}

	res := Result{
		Code:           row.Code,
		Type:           row.Type,
		Value:          row.Value,
		DiscountCodeID: &row.ID,
	}
	if reason := s.ineligible(row, subtotal); reason != "" {
		res.Reason = reason
		return res, nil
	}
	res.Valid = true
	return res, nil
}

// Resolve returns the pricing discount for code, or nil when it does not apply.
func (s *Service) Resolve(ctx context.Context, code string, subtotal decimal.Decimal) (*pricing.Discount, error) {
	res, err := s.Validate(ctx, code, subtotal)
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		return nil, nil
	}
	d := res.Discount()
	return &d, nil
}

// RecordUse increments usage after a payment succeeds. A code that hit its
// cap in the meantime is logged and otherwise ignored; the customer already paid.
func (s *Service) RecordUse(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	ok, err := s.repo.IncrementUse(ctx, tx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record discount use")
	}
	if !ok && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "discount_code_id", id.String()), "discount usage cap reached before payment settled")
	}
	return nil
}

func (s *Service) ineligible(row *models.DiscountCode, subtotal decimal.Decimal) string {
	now := s.now()
	switch {
	case !row.IsActive:
		return "Discount code is no longer active"
	case row.StartsAt != nil && now.Before(*row.StartsAt):
		return "Discount code is not active yet"
	case row.ExpiresAt != nil && !now.Before(*row.ExpiresAt):
		return "Discount code has expired"
	case row.MaxUses != nil && row.UsedCount >= *row.MaxUses:
		return "Discount code has reached its usage limit"
	case row.MinSubtotal != nil && subtotal.LessThan(*row.MinSubtotal):
		return fmt.Sprintf("Order total must be at least $%s", row.MinSubtotal.StringFixed(2))
	}
	if _, err := pricing.DiscountAmount(subtotal, pricing.Discount{Type: row.Type, Value: row.Value}); err != nil {
		return "Discount code is misconfigured"
	}
	return ""
}

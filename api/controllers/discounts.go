package controllers

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/teeforge-backend/api/responses"
	"github.com/angelmondragon/teeforge-backend/api/validators"
	"github.com/angelmondragon/teeforge-backend/internal/discounts"
	"github.com/angelmondragon/teeforge-backend/internal/pricing"
	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
)

type DiscountValidator interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal) (discounts.Result, error)
}

type validateDiscountRequest struct {
	Code     string          `json:"code" validate:"required,max=64"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type validateDiscountResponse struct {
	discounts.Result
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

// ValidateDiscount checks a code against a subtotal. An inapplicable code is
// a successful response with valid=false.
func ValidateDiscount(svc DiscountValidator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}
		var payload validateDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.Subtotal.IsNegative() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "subtotal must not be negative"))
			return
		}
		res, err := svc.Validate(r.Context(), payload.Code, payload.Subtotal)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp := validateDiscountResponse{Result: res, DiscountAmount: decimal.Zero}
		if res.Valid {
			amount, err := pricing.DiscountAmount(payload.Subtotal, res.Discount())
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			resp.DiscountAmount = amount
		}
		responses.WriteSuccess(w, resp)
	}
}

package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/teeforge-backend/api/responses"
	"github.com/angelmondragon/teeforge-backend/api/validators"
	"github.com/angelmondragon/teeforge-backend/internal/pricing"
	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
	"github.com/angelmondragon/teeforge-backend/pkg/types"
)

type Quoter interface {
	Quote(ctx context.Context, lines []pricing.QuoteLine, printConfig types.PrintConfig) (types.Quote, error)
	ApplyDiscount(quote types.Quote, d pricing.Discount) (types.AppliedDiscount, error)
}

type DiscountResolver interface {
	Resolve(ctx context.Context, code string, subtotal decimal.Decimal) (*pricing.Discount, error)
}

type quoteRequest struct {
	Lines        []pricing.QuoteLine `json:"lines" validate:"required,min=1,dive"`
	PrintConfig  types.PrintConfig   `json:"print_config" validate:"required"`
	DiscountCode string              `json:"discount_code,omitempty" validate:"max=64"`
}

type quoteResponse struct {
	Quote    types.Quote            `json:"quote"`
	Discount *types.AppliedDiscount `json:"discount,omitempty"`
}

// Quote prices an arbitrary configuration without touching a session.
func Quote(svc Quoter, discounts DiscountResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || discounts == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing unavailable"))
			return
		}

		var payload quoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := payload.PrintConfig.Validate(); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error()))
			return
		}

		quote, err := svc.Quote(r.Context(), payload.Lines, payload.PrintConfig)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp := quoteResponse{Quote: quote}

		if code := strings.TrimSpace(payload.DiscountCode); code != "" {
			d, err := discounts.Resolve(r.Context(), code, quote.Total)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if d != nil {
				applied, err := svc.ApplyDiscount(quote, *d)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
				resp.Discount = &applied
			}
		}
		responses.WriteSuccess(w, resp)
	}
}

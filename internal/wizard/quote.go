package wizard

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/teeforge-backend/internal/orderconfig"
	"github.com/angelmondragon/teeforge-backend/internal/pricing"
	"github.com/angelmondragon/teeforge-backend/pkg/enums"
	"github.com/angelmondragon/teeforge-backend/pkg/types"
)

type quoter interface {
	Quote(ctx context.Context, lines []pricing.QuoteLine, printConfig types.PrintConfig) (types.Quote, error)
	ApplyDiscount(quote types.Quote, d pricing.Discount) (types.AppliedDiscount, error)
	MinimumQuantity() int
}

type discountResolver interface {
	Resolve(ctx context.Context, code string, subtotal decimal.Decimal) (*pricing.Discount, error)
}

// QuoteRefresher keeps a session's live quote and discount in sync with its
// configuration.
type QuoteRefresher struct {
	pricing   quoter
	discounts discountResolver
}

func NewQuoteRefresher(pricing quoter, discounts discountResolver) (*QuoteRefresher, error) {
	if pricing == nil {
		return nil, fmt.Errorf("pricing service required")
	}
	if discounts == nil {
		return nil, fmt.Errorf("discount resolver required")
	}
	return &QuoteRefresher{pricing: pricing, discounts: discounts}, nil
}

// MinimumQuantity is the configure gate threshold.
func (r *QuoteRefresher) MinimumQuantity() int {
	return r.pricing.MinimumQuantity()
}

// Evaluate runs the wizard gates with the pricing minimum. Attached lists
// locations whose artwork arrives with the current request.
func (r *QuoteRefresher) Evaluate(st *orderconfig.State, attached ...enums.PrintLocation) Progress {
	return Evaluate(st, r.MinimumQuantity(), attached...)
}

// RefreshQuote recomputes the quote once the minimum is met and clears it
// otherwise. An applied discount is re-applied to the new total, or cleared
// when it no longer applies.
func (r *QuoteRefresher) RefreshQuote(ctx context.Context, st *orderconfig.State) error {
	if st.TotalQuantity() < r.MinimumQuantity() {
		st.ClearQuote()
		return nil
	}

	lines := QuoteLines(st)
	quote, err := r.pricing.Quote(ctx, lines, st.PrintConfig)
	if err != nil {
		return err
	}
	st.SetQuote(quote)

	if st.Discount == nil {
		return nil
	}
	_, err = r.ApplyDiscountCode(ctx, st, st.Discount.Code)
	return err
}

// ApplyDiscountCode validates code against the session's current quote and
// stores the result. It reports whether the code applied.
func (r *QuoteRefresher) ApplyDiscountCode(ctx context.Context, st *orderconfig.State, code string) (bool, error) {
	if st.Quote == nil {
		st.ClearDiscount()
		return false, nil
	}
	d, err := r.discounts.Resolve(ctx, code, st.Quote.Total)
	if err != nil {
		return false, err
	}
	if d == nil {
		st.ClearDiscount()
		return false, nil
	}
	applied, err := r.pricing.ApplyDiscount(*st.Quote, *d)
	if err != nil {
		return false, err
	}
	st.SetDiscount(applied)
	return true, nil
}

// QuoteLines flattens the session selection into pricing lines.
func QuoteLines(st *orderconfig.State) []pricing.QuoteLine {
	ids := st.GarmentIDs()
	lines := make([]pricing.QuoteLine, 0, len(ids))
	for _, id := range ids {
		lines = append(lines, pricing.QuoteLine{GarmentID: id, Quantity: st.GarmentQuantity(id)})
	}
	return lines
}

package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/teeforge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
	"github.com/angelmondragon/teeforge-backend/pkg/types"
)

var hundred = decimal.NewFromInt(100)

// Discount is a code definition before it is applied to a quote.
type Discount struct {
	ID    *uuid.UUID
	Code  string
	Type  enums.DiscountType
	Value decimal.Decimal
}

// DiscountAmount computes how much of total the discount removes, capped at total.
func DiscountAmount(total decimal.Decimal, d Discount) (decimal.Decimal, error) {
	if d.Value.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "discount value must not be negative")
	}
	var amount decimal.Decimal
	switch d.Type {
	case enums.DiscountTypePercentage:
		amount = total.Mul(d.Value).Div(hundred).Round(currencyPlaces)
	case enums.DiscountTypeFixed:
		amount = d.Value.Round(currencyPlaces)
	default:
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "unsupported discount type")
	}
	return decimal.Min(amount, total), nil
}

// ApplyDiscount recomputes deposit and balance for a discounted total using the
// quote's own deposit-to-total ratio, with the same minimum charge floor.
func (c *Calculator) ApplyDiscount(quote types.Quote, d Discount) (types.AppliedDiscount, error) {
	amount, err := DiscountAmount(quote.Total, d)
	if err != nil {
		return types.AppliedDiscount{}, err
	}
	discounted := quote.Total.Sub(amount)

	ratio := c.schedule.DepositRatio
	if quote.Total.IsPositive() && quote.DepositAmount.IsPositive() {
		ratio = quote.DepositAmount.Div(quote.Total)
	}
	deposit, balance := Deposit(discounted, ratio, c.schedule.MinimumCharge)

	return types.AppliedDiscount{
		DiscountCodeID:  d.ID,
		Code:            d.Code,
		Type:            d.Type,
		Value:           d.Value,
		DiscountAmount:  amount,
		DiscountedTotal: discounted,
		DepositAmount:   deposit,
		BalanceDue:      balance,
	}, nil
}

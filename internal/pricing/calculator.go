package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
	"github.com/angelmondragon/teeforge-backend/pkg/types"
)

const currencyPlaces = 2

// LineInput is one garment and its combined quantity across colors and sizes.
type LineInput struct {
	GarmentID     uuid.UUID
	Quantity      int
	BaseCost      decimal.Decimal
	CustomerPrice *decimal.Decimal
}

// Calculator prices order configurations against a fixed schedule. It holds
// no mutable state and is safe for concurrent use.
type Calculator struct {
	schedule Schedule
}

func NewCalculator(schedule Schedule) (*Calculator, error) {
	if err := schedule.validate(); err != nil {
		return nil, err
	}
	schedule.sortTiers()
	return &Calculator{schedule: schedule}, nil
}

func (c *Calculator) Schedule() Schedule {
	return c.schedule
}

// MinimumQuantity is the smallest combined quantity that can be checked out.
func (c *Calculator) MinimumQuantity() int {
	return c.schedule.MinimumQuantity
}

// UnitPrice is the per-garment price charged to the customer.
func (c *Calculator) UnitPrice(baseCost decimal.Decimal, customerPrice *decimal.Decimal) decimal.Decimal {
	if customerPrice != nil {
		return *customerPrice
	}
	return baseCost.Mul(c.schedule.GarmentMarkup).Round(currencyPlaces)
}

// Calculate prices one or more garments sharing a single print configuration.
// Print cost and setup fees are keyed off the combined quantity.
func (c *Calculator) Calculate(lines []LineInput, printConfig types.PrintConfig) (types.Quote, error) {
	if err := printConfig.Validate(); err != nil {
		return types.Quote{}, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	quote := types.Quote{}
	garmentCost := decimal.Zero
	for _, line := range lines {
		if line.Quantity < 0 {
			return types.Quote{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
		}
		unit := c.UnitPrice(line.BaseCost, line.CustomerPrice)
		subtotal := unit.Mul(decimal.NewFromInt(int64(line.Quantity)))
		garmentCost = garmentCost.Add(subtotal)
		quote.TotalQuantity += line.Quantity
		quote.Lines = append(quote.Lines, types.GarmentQuoteLine{
			GarmentID: line.GarmentID,
			Quantity:  line.Quantity,
			UnitPrice: unit,
			Subtotal:  subtotal.Round(currencyPlaces),
		})
	}

	quote.GarmentCost = garmentCost.Round(currencyPlaces)
	quote.PrintCost = c.printCost(quote.TotalQuantity, printConfig)
	quote.TotalScreens = printConfig.Screens()
	quote.SetupFees = c.schedule.ScreenFee.Mul(decimal.NewFromInt(int64(quote.TotalScreens))).Round(currencyPlaces)
	quote.Total = quote.GarmentCost.Add(quote.PrintCost).Add(quote.SetupFees)
	quote.DepositAmount, quote.BalanceDue = Deposit(quote.Total, c.schedule.DepositRatio, c.schedule.MinimumCharge)
	if quote.TotalQuantity > 0 {
		quote.PerShirtPrice = quote.Total.Div(decimal.NewFromInt(int64(quote.TotalQuantity))).Round(currencyPlaces)
	}
	return quote, nil
}

// PrintCostPerShirt is the ink cost of one garment at the given combined quantity.
func (c *Calculator) PrintCostPerShirt(quantity int, printConfig types.PrintConfig) decimal.Decimal {
	return c.weightedColors(printConfig).Mul(c.schedule.rateFor(quantity))
}

func (c *Calculator) printCost(quantity int, printConfig types.PrintConfig) decimal.Decimal {
	if quantity <= 0 {
		return decimal.Zero
	}
	return c.PrintCostPerShirt(quantity, printConfig).
		Mul(decimal.NewFromInt(int64(quantity))).
		Round(currencyPlaces)
}

func (c *Calculator) weightedColors(printConfig types.PrintConfig) decimal.Decimal {
	sum := decimal.Zero
	for _, loc := range printConfig.EnabledLocations() {
		colors := decimal.NewFromInt(int64(printConfig[loc].NumColors))
		sum = sum.Add(colors.Mul(c.schedule.weightFor(loc)))
	}
	return sum
}

// CampaignPrice is the per-shirt price shown on a campaign page: garment plus
// print cost, without setup fees.
func (c *Calculator) CampaignPrice(baseCost decimal.Decimal, customerPrice *decimal.Decimal, quantity int, printConfig types.PrintConfig) (decimal.Decimal, error) {
	if err := printConfig.Validate(); err != nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	if quantity <= 0 {
		quantity = c.schedule.MinimumQuantity
	}
	unit := c.UnitPrice(baseCost, customerPrice)
	return unit.Add(c.PrintCostPerShirt(quantity, printConfig)).Round(currencyPlaces), nil
}

// Deposit splits total into the amount charged now and the balance due later.
// The floor applies only when the computed deposit is positive but below it,
// and never raises the deposit above the total.
func Deposit(total, ratio, floor decimal.Decimal) (deposit, balance decimal.Decimal) {
	if !total.IsPositive() {
		return decimal.Zero, total
	}
	deposit = total.Mul(ratio).Round(currencyPlaces)
	if deposit.IsPositive() && deposit.LessThan(floor) {
		deposit = decimal.Min(floor, total)
	}
	return deposit, total.Sub(deposit)
}

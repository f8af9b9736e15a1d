// Package lpg splits shared propane tank refill bills across apartments by
// metered consumption and reconciles the resulting balances against tagged
// payment transactions.
package lpg

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNoConsumption rejects an allocation whose readings net to zero or less;
// such a refill cannot be split proportionally.
var ErrNoConsumption = errors.New("total consumption must be positive")

// Reading is one apartment's meter pair for a refill.
type Reading struct {
	OwnerID         uint
	PreviousReading decimal.Decimal
	CurrentReading  decimal.Decimal
}

// Allocation is one apartment's computed share. All figures are exact
// decimals; rounding happens only at presentation.
type Allocation struct {
	OwnerID     uint
	Consumption decimal.Decimal
	Percentage  decimal.Decimal
	Subtotal    decimal.Decimal
	TotalAmount decimal.Decimal
}

var oneHundred = decimal.NewFromInt(100)

// Allocate splits billAmount across the readings in proportion to each
// apartment's consumption, then applies the efficiency surcharge to every
// share. The percentages sum to 100 and the subtotals to billAmount, up to
// decimal division precision.
func Allocate(billAmount, efficiencyPercent decimal.Decimal, readings []Reading) ([]Allocation, error) {
	if len(readings) == 0 {
		return nil, ErrNoConsumption
	}

	total := decimal.Zero
	consumptions := make([]decimal.Decimal, len(readings))
	for i, rd := range readings {
		consumptions[i] = rd.CurrentReading.Sub(rd.PreviousReading)
		total = total.Add(consumptions[i])
	}
	if total.LessThanOrEqual(decimal.Zero) {
		return nil, ErrNoConsumption
	}

	surcharge := decimal.NewFromInt(1).Add(efficiencyPercent.Div(oneHundred))

	out := make([]Allocation, len(readings))
	for i, rd := range readings {
		percentage := consumptions[i].Div(total).Mul(oneHundred)
		subtotal := percentage.Div(oneHundred).Mul(billAmount)
		out[i] = Allocation{
			OwnerID:     rd.OwnerID,
			Consumption: consumptions[i],
			Percentage:  percentage,
			Subtotal:    subtotal,
			TotalAmount: subtotal.Mul(surcharge),
		}
	}
	return out, nil
}

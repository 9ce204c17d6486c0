// Package risk sizes simulated positions and measures what they put at stake.
package risk

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidSize = errors.New("position size, risk and price must be positive")

// Amount converts a quote-currency position size, scaled by the risk
// multiplier, into base-currency units at price.
func Amount(positionSize, multiplier, price float64) (float64, error) {
	if !(positionSize > 0) || !(multiplier > 0) || !(price > 0) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("%w (size %v, risk %v, price %v)", ErrInvalidSize, positionSize, multiplier, price)
	}
	return positionSize * multiplier / price, nil
}

// PlannedRisk is the quote-currency loss if the stop is hit.
func PlannedRisk(amount, entry, stop float64) float64 {
	return amount * math.Abs(entry-stop)
}

// RR is reward over risk; zero when the stop sits on the entry.
func RR(entry, stop, takeProfit float64) float64 {
	risk := math.Abs(entry - stop)
	if risk == 0 {
		return 0
	}
	return math.Abs(takeProfit-entry) / risk
}

package strategy

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Action is the decision emitted by the generator.
type Action string

const (
	Buy  Action = "BUY"
	Sell Action = "SELL"
	Hold Action = "HOLD"
)

const (
	// Threshold is the exclusive |delta| a signal must exceed to trade.
	Threshold = 0.005

	momentumBoost = 1.1
	weightRecent  = 0.8
	weightPrior   = 0.2
)

var ErrInvalidPrice = errors.New("current price must be positive")

// Dampener supplies the calendar multiplier for a date.
type Dampener interface {
	Modifier(date time.Time) float64
}

// Signal is one fair-value evaluation.
type Signal struct {
	Action    Action
	FairValue float64
	Delta     float64
}

// Generator computes the BUE fair value against the current price.
type Generator struct {
	Events Dampener
	Now    func() time.Time
}

// NewGenerator returns a Generator using the wall clock.
func NewGenerator(events Dampener) *Generator {
	return &Generator{Events: events, Now: time.Now}
}

// Signal combines the two reference prices fn1 (most recent) and fn2 with
// the momentum boost, today's event modifier and the sentiment factor.
func (g *Generator) Signal(fn1, fn2, price, sentiment float64) (Signal, error) {
	if !(price > 0) || math.IsInf(price, 0) {
		return Signal{}, fmt.Errorf("signal: %w: %v", ErrInvalidPrice, price)
	}

	boost := 1.0
	if fn1 > fn2 {
		boost = momentumBoost
	}

	modifier := neutral
	if g.Events != nil {
		now := time.Now
		if g.Now != nil {
			now = g.Now
		}
		modifier = g.Events.Modifier(now())
	}

	fair := (weightRecent*fn1 + weightPrior*fn2) * boost * modifier * sentiment
	delta := (fair - price) / price

	return Signal{
		Action:    Classify(delta),
		FairValue: fair,
		Delta:     delta,
	}, nil
}

// Classify maps delta to an action. Both thresholds are exclusive.
func Classify(delta float64) Action {
	switch {
	case delta > Threshold:
		return Buy
	case delta < -Threshold:
		return Sell
	default:
		return Hold
	}
}

package sim

import (
	"time"

	"github.com/rustyeddy/flashbot/strategy"
)

// Status tracks a trade from entry to settlement.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Close reasons recorded on settlement.
const (
	ReasonTakeProfit = "TakeProfit"
	ReasonStopLoss   = "StopLoss"
	ReasonSettled    = "Settled"
)

// Trade is one simulated position. JSON names match the daily snapshot layout.
type Trade struct {
	ID          string          `json:"id"`
	Time        time.Time       `json:"timestamp"`
	Pair        string          `json:"pair"`
	Action      strategy.Action `json:"action"`
	Price       float64         `json:"price"`
	Amount      float64         `json:"amount"`
	TakeProfit  float64         `json:"tp"`
	StopLoss    float64         `json:"sl"`
	FairValue   float64         `json:"bue"`
	Delta       float64         `json:"delta"`
	PnL         float64         `json:"pnl"`
	Status      Status          `json:"status"`
	ClosePrice  float64         `json:"close_price,omitempty"`
	CloseReason string          `json:"close_reason,omitempty"`
}

// IsOpen reports whether the trade still awaits settlement.
func (t *Trade) IsOpen() bool {
	return t.Status == StatusOpen
}

// UnrealizedPL marks an open trade against price.
func (t *Trade) UnrealizedPL(price float64) float64 {
	return pnl(t.Action, t.Price, price, t.Amount)
}

func (t *Trade) hitStopLoss(price float64) bool {
	if t.Action == strategy.Buy {
		return price <= t.StopLoss
	}
	return price >= t.StopLoss
}

func (t *Trade) hitTakeProfit(price float64) bool {
	if t.Action == strategy.Buy {
		return price >= t.TakeProfit
	}
	return price <= t.TakeProfit
}

func (t *Trade) closeReason(price float64) string {
	switch {
	case t.hitStopLoss(price):
		return ReasonStopLoss
	case t.hitTakeProfit(price):
		return ReasonTakeProfit
	}
	return ReasonSettled
}

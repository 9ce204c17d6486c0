package sim

import "github.com/rustyeddy/flashbot/strategy"

// pnl is positive when the move from entry to exit favours the side.
func pnl(action strategy.Action, entry, exit, amount float64) float64 {
	switch action {
	case strategy.Buy:
		return (exit - entry) * amount
	case strategy.Sell:
		return (entry - exit) * amount
	}
	return 0
}

// TargetPrices returns the take-profit and stop-loss for a new trade.
// Take-profit is a fraction of entry; stop-loss is an absolute offset.
func TargetPrices(action strategy.Action, price, takeProfit, stopLoss float64) (tp, sl float64) {
	if action == strategy.Buy {
		return price * (1 + takeProfit), price - stopLoss
	}
	return price * (1 - takeProfit), price + stopLoss
}

// Package market is the bot's view of the exchange: a ticker source and
// the short price history the signal reads its reference prices from.
package market

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNoQuote      = errors.New("no quote available")
	ErrInvalidQuote = errors.New("invalid quote")
)

// Ticker is a market snapshot for one pair.
type Ticker struct {
	Pair string
	Last float64
	Bid  float64
	Ask  float64
	Time time.Time
}

// Source fetches the latest ticker for a pair.
type Source interface {
	Ticker(ctx context.Context, pair string) (Ticker, error)
}

// Spread is the relative bid/ask spread, (ask-bid)/bid.
func (t Ticker) Spread() float64 {
	return (t.Ask - t.Bid) / t.Bid
}

// Validate rejects snapshots the bot cannot price against.
func (t Ticker) Validate() error {
	if t.Last <= 0 || t.Bid <= 0 || t.Ask <= 0 {
		return fmt.Errorf("%w: last=%v bid=%v ask=%v", ErrInvalidQuote, t.Last, t.Bid, t.Ask)
	}
	if t.Ask < t.Bid {
		return fmt.Errorf("%w: crossed book bid=%v ask=%v", ErrInvalidQuote, t.Bid, t.Ask)
	}
	return nil
}

// Symbol converts "BTC/USDT" to the exchange form "BTCUSDT".
func Symbol(pair string) string {
	return strings.ToUpper(strings.ReplaceAll(pair, "/", ""))
}

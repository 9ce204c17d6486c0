package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rustyeddy/flashbot/id"
	"github.com/rustyeddy/flashbot/strategy"
)

const (
	DefaultPair       = "BTC/USDT"
	DefaultTakeProfit = 0.03
	DefaultStopLoss   = 6.50

	timeLayout = "2006-01-02 15:04:05"
)

var (
	ErrHoldAction    = errors.New("hold does not open a trade")
	ErrInvalidAction = errors.New("action must be BUY or SELL")
	ErrInvalidTrade  = errors.New("price and amount must be positive")
)

// SnapshotWriter persists the full trade log for a calendar day.
type SnapshotWriter interface {
	Save(day time.Time, trades []Trade) error
}

// Config holds the fixed trade parameters.
type Config struct {
	Pair       string
	TakeProfit float64 // fraction of entry, e.g. 0.03
	StopLoss   float64 // absolute price offset, e.g. 6.50
	Location   *time.Location
}

// Settlement is the result of one settlement pass.
type Settlement struct {
	Price  float64
	Total  float64
	Closed []Trade
}

// Engine owns the trade log. All access goes through its mutex so a
// deposit or report from another goroutine never interleaves with
// settlement.
type Engine struct {
	mu        sync.Mutex
	cfg       Config
	trades    []Trade
	snapshots SnapshotWriter
	out       io.Writer
	now       func() time.Time
}

func NewEngine(cfg Config, snapshots SnapshotWriter, out io.Writer) *Engine {
	if cfg.Pair == "" {
		cfg.Pair = DefaultPair
	}
	if cfg.TakeProfit == 0 {
		cfg.TakeProfit = DefaultTakeProfit
	}
	if cfg.StopLoss == 0 {
		cfg.StopLoss = DefaultStopLoss
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if out == nil {
		out = io.Discard
	}
	return &Engine{
		cfg:       cfg,
		snapshots: snapshots,
		out:       out,
		now:       time.Now,
	}
}

// SetClock replaces the wall clock, mainly for tests.
func (e *Engine) SetClock(now func() time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = now
}

// Restore seeds the log from a previously saved snapshot. It only works
// on an empty engine so insertion order is never rewritten.
func (e *Engine) Restore(trades []Trade) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.trades) > 0 {
		return fmt.Errorf("restore: engine already holds %d trades", len(e.trades))
	}
	e.trades = append(e.trades, trades...)
	return nil
}

// OpenTrade records a simulated fill and prints one event line.
func (e *Engine) OpenTrade(action strategy.Action, price, amount, fair, delta float64) (Trade, error) {
	switch action {
	case strategy.Buy, strategy.Sell:
	case strategy.Hold:
		return Trade{}, ErrHoldAction
	default:
		return Trade{}, fmt.Errorf("open trade: %w: %q", ErrInvalidAction, action)
	}
	if price <= 0 || amount <= 0 {
		return Trade{}, fmt.Errorf("open trade: %w (price %v, amount %v)", ErrInvalidTrade, price, amount)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now().In(e.cfg.Location).Truncate(time.Second)
	tp, sl := TargetPrices(action, price, e.cfg.TakeProfit, e.cfg.StopLoss)

	t := Trade{
		ID:         id.New(now),
		Time:       now,
		Pair:       e.cfg.Pair,
		Action:     action,
		Price:      price,
		Amount:     amount,
		TakeProfit: tp,
		StopLoss:   sl,
		FairValue:  fair,
		Delta:      delta,
		Status:     StatusOpen,
	}
	e.trades = append(e.trades, t)

	fmt.Fprintf(e.out, "%s | %s %s at $%.2f | BUE: $%.2f | Δ: %.2f%%\n",
		now.Format(timeLayout), action, t.Pair, price, fair, delta*100)

	return t, nil
}

// Settle closes every open trade against price, then writes the whole
// log to today's snapshot. Trades closed on an earlier pass keep their pnl.
func (e *Engine) Settle(ctx context.Context, price float64) (Settlement, error) {
	if price <= 0 {
		return Settlement{}, fmt.Errorf("settle: %w (price %v)", ErrInvalidTrade, price)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	res := Settlement{Price: price}
	for i := range e.trades {
		t := &e.trades[i]
		if !t.IsOpen() {
			continue
		}
		t.PnL = t.UnrealizedPL(price)
		t.ClosePrice = price
		t.CloseReason = t.closeReason(price)
		t.Status = StatusClosed

		res.Total += t.PnL
		res.Closed = append(res.Closed, *t)
	}

	fmt.Fprintf(e.out, "Total PnL: $%.2f\n", res.Total)

	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("settle: %w", err)
	}
	if e.snapshots != nil {
		day := e.now().In(e.cfg.Location)
		if err := e.snapshots.Save(day, e.copyLocked()); err != nil {
			return res, fmt.Errorf("settle: save snapshot: %w", err)
		}
	}
	return res, nil
}

// UnrealizedPL sums the mark-to-market pnl of trades still open.
func (e *Engine) UnrealizedPL(mark float64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	var total float64
	for i := range e.trades {
		if e.trades[i].IsOpen() {
			total += e.trades[i].UnrealizedPL(mark)
		}
	}
	return total
}

// Trades returns a copy of the log in insertion order.
func (e *Engine) Trades() []Trade {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.copyLocked()
}

func (e *Engine) copyLocked() []Trade {
	out := make([]Trade, len(e.trades))
	copy(out, e.trades)
	return out
}

// Package portfolio tracks the account baseline and its audit trail.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rustyeddy/flashbot/journal"
	"github.com/shopspring/decimal"
)

// Kind names an audit event.
type Kind string

const (
	KindDeposit Kind = "DEPOSIT"
	KindClose   Kind = "CLOSE"
)

const depositReason = "Deposit"

var ErrInvalidAmount = errors.New("amount must be positive")

// DefaultInitial is the starting portfolio value.
var DefaultInitial = decimal.NewFromInt(1000)

// Recorder receives every audit row. journal.Log satisfies it.
type Recorder interface {
	Append(ctx context.Context, r journal.Row)
}

// Event is one audit-trail entry.
type Event struct {
	Time   time.Time
	Kind   Kind
	Symbol string
	Reason string
	Amount decimal.Decimal
}

// Ledger owns the portfolio baseline. Deposits and recomputation are
// serialized by its mutex.
type Ledger struct {
	mu       sync.Mutex
	baseline decimal.Decimal
	audit    []Event
	rec      Recorder
	now      func() time.Time
}

func NewLedger(initial decimal.Decimal, rec Recorder) *Ledger {
	return &Ledger{
		baseline: initial,
		rec:      rec,
		now:      time.Now,
	}
}

// SetClock replaces the wall clock, mainly for tests.
func (l *Ledger) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// Deposit adds amount to the baseline and records a DEPOSIT row.
func (l *Ledger) Deposit(ctx context.Context, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("deposit %s: %w", amount, ErrInvalidAmount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.baseline = l.baseline.Add(amount)
	ev := Event{
		Time:   l.now(),
		Kind:   KindDeposit,
		Symbol: amount.String(),
		Reason: depositReason,
		Amount: amount,
	}
	l.recordLocked(ctx, ev)
	return nil
}

// ClosePosition records a CLOSE row for symbol. Closing has no effect on
// the baseline; the realized pnl lives on the trade.
func (l *Ledger) ClosePosition(ctx context.Context, symbol, reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.recordLocked(ctx, Event{
		Time:   l.now(),
		Kind:   KindClose,
		Symbol: symbol,
		Reason: reason,
	})
}

// Equity is the baseline plus unrealized pnl of open positions.
func (l *Ledger) Equity(unrealized float64) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.baseline.Add(decimal.NewFromFloat(unrealized))
}

// Recompute stores the current equity as the new baseline and returns it.
func (l *Ledger) Recompute(unrealized float64) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.baseline = l.baseline.Add(decimal.NewFromFloat(unrealized))
	return l.baseline
}

func (l *Ledger) Baseline() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.baseline
}

// Audit returns a copy of the audit trail, oldest first.
func (l *Ledger) Audit() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.audit))
	copy(out, l.audit)
	return out
}

func (l *Ledger) recordLocked(ctx context.Context, ev Event) {
	l.audit = append(l.audit, ev)
	if l.rec == nil {
		return
	}
	l.rec.Append(ctx, journal.Row{
		Time:           ev.Time,
		Action:         string(ev.Kind),
		Symbol:         ev.Symbol,
		Reason:         ev.Reason,
		PnL:            journal.NotApplicable,
		PortfolioValue: l.baseline,
	})
}

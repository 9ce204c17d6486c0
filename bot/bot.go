// Package bot runs the once-a-minute decision loop: fetch a quote, gate
// on spread, signal, optionally execute, settle and recompute equity.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rustyeddy/flashbot/market"
	"github.com/rustyeddy/flashbot/portfolio"
	"github.com/rustyeddy/flashbot/risk"
	"github.com/rustyeddy/flashbot/sim"
	"github.com/rustyeddy/flashbot/strategy"
)

const (
	DefaultPositionSize = 10.0
	DefaultSpreadLimit  = 0.001
	DefaultErrorPause   = 5 * time.Second
)

var ErrTooManyFailures = errors.New("too many consecutive failed cycles")

// Signaler produces a trading signal from two reference prices.
type Signaler interface {
	Signal(fn1, fn2, price, sentiment float64) (strategy.Signal, error)
}

// Config holds the loop parameters.
type Config struct {
	Pair                   string
	PositionSize           float64
	Sentiment              float64
	Risk                   float64
	SpreadLimit            float64
	ErrorPause             time.Duration
	MaxConsecutiveFailures int // 0 means unlimited
}

// Bot owns one trading loop. Approver, Clock, Logger and Out may be
// replaced before Run.
type Bot struct {
	cfg     Config
	source  market.Source
	signals Signaler
	engine  *sim.Engine
	ledger  *portfolio.Ledger
	history *market.History

	Approver Approver
	Clock    Clock
	Logger   *slog.Logger
	Out      io.Writer
	RunID    string
}

func New(cfg Config, source market.Source, signals Signaler, engine *sim.Engine, ledger *portfolio.Ledger) *Bot {
	if cfg.Pair == "" {
		cfg.Pair = sim.DefaultPair
	}
	if cfg.PositionSize == 0 {
		cfg.PositionSize = DefaultPositionSize
	}
	if cfg.Sentiment == 0 {
		cfg.Sentiment = 1
	}
	if cfg.Risk == 0 {
		cfg.Risk = 1
	}
	if cfg.SpreadLimit == 0 {
		cfg.SpreadLimit = DefaultSpreadLimit
	}
	if cfg.ErrorPause == 0 {
		cfg.ErrorPause = DefaultErrorPause
	}
	return &Bot{
		cfg:      cfg,
		source:   source,
		signals:  signals,
		engine:   engine,
		ledger:   ledger,
		history:  market.NewHistory(3),
		Approver: AutoApprover{},
		Clock:    SystemClock{},
		Logger:   slog.Default(),
		Out:      io.Discard,
		RunID:    uuid.NewString(),
	}
}

// Run loops until ctx is cancelled. A failed cycle is logged and followed
// by the error pause. Run only returns an error when the consecutive
// failure ceiling is reached.
func (b *Bot) Run(ctx context.Context) error {
	log := b.Logger.With(slog.String("run_id", b.RunID), slog.String("pair", b.cfg.Pair))
	log.Info("bot started",
		slog.Float64("sentiment", b.cfg.Sentiment),
		slog.Float64("risk", b.cfg.Risk))

	failures := 0
	for {
		if ctx.Err() != nil {
			log.Info("bot stopping")
			return nil
		}

		wait, err := b.safeCycle(ctx, log)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("bot stopping")
				return nil
			}
			failures++
			log.Error("cycle failed", slog.Int("consecutive", failures), slog.Any("err", err))
			if limit := b.cfg.MaxConsecutiveFailures; limit > 0 && failures >= limit {
				return fmt.Errorf("%w (%d): %v", ErrTooManyFailures, failures, err)
			}
			wait = b.cfg.ErrorPause
		} else {
			failures = 0
		}

		if err := b.Clock.Sleep(ctx, wait); err != nil {
			log.Info("bot stopping")
			return nil
		}
	}
}

func (b *Bot) safeCycle(ctx context.Context, log *slog.Logger) (wait time.Duration, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panic: %v", r)
		}
	}()
	return b.cycle(ctx, log)
}

// cycle runs one pass of the loop and returns how long to wait before
// the next one.
func (b *Bot) cycle(ctx context.Context, log *slog.Logger) (time.Duration, error) {
	tk, err := b.source.Ticker(ctx, b.cfg.Pair)
	if err != nil {
		return 0, fmt.Errorf("fetch ticker: %w", err)
	}

	if spread := tk.Spread(); spread > b.cfg.SpreadLimit {
		log.Info("spread too wide, skipping",
			slog.Float64("spread", spread),
			slog.Float64("limit", b.cfg.SpreadLimit))
		return NextMinute(b.Clock.Now()), nil
	}

	b.history.Record(tk.Last)
	if err := b.decide(ctx, log, tk.Last); err != nil {
		return 0, err
	}
	if err := b.settle(ctx, log); err != nil {
		return 0, err
	}
	return NextMinute(b.Clock.Now()), nil
}

func (b *Bot) decide(ctx context.Context, log *slog.Logger, price float64) error {
	fn1, fn2, ok := b.history.References()
	if !ok {
		log.Info("warming up", slog.Int("prices", b.history.Len()))
		return nil
	}

	sig, err := b.signals.Signal(fn1, fn2, price, b.cfg.Sentiment)
	if err != nil {
		return err
	}
	fmt.Fprintf(b.Out, "Signal: %s %s at $%.2f | BUE: $%.2f | Δ: %.2f%%\n",
		sig.Action, b.cfg.Pair, price, sig.FairValue, sig.Delta*100)

	if sig.Action == strategy.Hold {
		return nil
	}

	approved, err := b.Approver.Approve(ctx, sig, price)
	if err != nil {
		return fmt.Errorf("approval: %w", err)
	}
	if !approved {
		log.Info("trade not approved", slog.String("action", string(sig.Action)))
		return nil
	}

	amount, err := risk.Amount(b.cfg.PositionSize, b.cfg.Risk, price)
	if err != nil {
		return err
	}
	t, err := b.engine.OpenTrade(sig.Action, price, amount, sig.FairValue, sig.Delta)
	if err != nil {
		return err
	}
	log.Info("trade opened",
		slog.String("trade_id", t.ID),
		slog.String("action", string(t.Action)),
		slog.Float64("price", t.Price),
		slog.Float64("amount", t.Amount),
		slog.Float64("at_risk", risk.PlannedRisk(t.Amount, t.Price, t.StopLoss)),
		slog.Float64("rr", risk.RR(t.Price, t.StopLoss, t.TakeProfit)))
	return nil
}

func (b *Bot) settle(ctx context.Context, log *slog.Logger) error {
	tk, err := b.source.Ticker(ctx, b.cfg.Pair)
	if err != nil {
		return fmt.Errorf("fetch settlement price: %w", err)
	}

	res, err := b.engine.Settle(ctx, tk.Last)
	for _, t := range res.Closed {
		b.ledger.ClosePosition(ctx, t.Pair, t.CloseReason)
		log.Info("trade closed",
			slog.String("trade_id", t.ID),
			slog.String("reason", t.CloseReason),
			slog.Float64("pnl", t.PnL))
	}
	if err != nil {
		return err
	}

	equity := b.ledger.Recompute(b.engine.UnrealizedPL(tk.Last))
	log.Info("portfolio updated",
		slog.Float64("total_pnl", res.Total),
		slog.String("equity", equity.StringFixed(2)))
	return nil
}

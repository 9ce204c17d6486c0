package bot

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/rustyeddy/flashbot/journal"
	"github.com/rustyeddy/flashbot/market"
	"github.com/rustyeddy/flashbot/portfolio"
	"github.com/rustyeddy/flashbot/sim"
	"github.com/rustyeddy/flashbot/strategy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type step struct {
	price float64
	ask   float64
	err   error
}

// scriptedSource replays quotes in order and repeats the last one.
type scriptedSource struct {
	mu    sync.Mutex
	steps []step
	calls int
}

func (s *scriptedSource) Ticker(ctx context.Context, pair string) (market.Ticker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.calls
	if i >= len(s.steps) {
		i = len(s.steps) - 1
	}
	s.calls++

	st := s.steps[i]
	if st.err != nil {
		return market.Ticker{}, st.err
	}
	ask := st.ask
	if ask == 0 {
		ask = st.price
	}
	return market.Ticker{Pair: pair, Last: st.price, Bid: st.price, Ask: ask}, nil
}

func prices(ps ...float64) []step {
	out := make([]step, len(ps))
	for i, p := range ps {
		out[i] = step{price: p}
	}
	return out
}

// fakeClock advances on every Sleep and cancels after a set number of them.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
	stopAt int
	cancel context.CancelFunc
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	if len(c.sleeps) >= c.stopAt {
		c.cancel()
		return ctx.Err()
	}
	return nil
}

type rowRecorder struct {
	mu   sync.Mutex
	rows []journal.Row
}

func (r *rowRecorder) Append(_ context.Context, row journal.Row) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, row)
}

type neutralDays struct{}

func (neutralDays) Modifier(time.Time) float64 { return 1 }

type mockApprover struct {
	mock.Mock
}

func (m *mockApprover) Approve(ctx context.Context, sig strategy.Signal, price float64) (bool, error) {
	args := m.Called(ctx, sig, price)
	return args.Bool(0), args.Error(1)
}

type panicSignaler struct{}

func (panicSignaler) Signal(fn1, fn2, price, sentiment float64) (strategy.Signal, error) {
	panic("boom")
}

type harness struct {
	bot    *Bot
	engine *sim.Engine
	ledger *portfolio.Ledger
	rows   *rowRecorder
	clock  *fakeClock
	out    *bytes.Buffer
	ctx    context.Context
}

func newHarness(t *testing.T, cfg Config, src market.Source, cycles int) *harness {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	start := time.Date(2024, 6, 3, 9, 30, 15, 0, time.UTC)
	clock := &fakeClock{now: start, stopAt: cycles, cancel: cancel}

	var out bytes.Buffer
	engine := sim.NewEngine(sim.Config{Location: time.UTC}, nil, &out)
	engine.SetClock(clock.Now)

	rows := &rowRecorder{}
	ledger := portfolio.NewLedger(decimal.NewFromInt(1000), rows)
	ledger.SetClock(clock.Now)

	gen := &strategy.Generator{Events: neutralDays{}, Now: clock.Now}

	b := New(cfg, src, gen, engine, ledger)
	b.Clock = clock
	b.Out = &out
	b.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	return &harness{bot: b, engine: engine, ledger: ledger, rows: rows, clock: clock, out: &out, ctx: ctx}
}

func TestRunOpensAndSettlesAfterWarmUp(t *testing.T) {
	t.Parallel()

	// Each cycle fetches twice: the decision quote and the settlement quote.
	src := &scriptedSource{steps: prices(90, 90, 100, 100, 100, 104)}
	h := newHarness(t, Config{Pair: "BTC/USDT"}, src, 3)

	require.NoError(t, h.bot.Run(h.ctx))

	trades := h.engine.Trades()
	require.Len(t, trades, 1)

	tr := trades[0]
	assert.Equal(t, strategy.Buy, tr.Action)
	assert.Equal(t, 100.0, tr.Price)
	assert.InDelta(t, 0.1, tr.Amount, 1e-12)
	assert.InDelta(t, 107.8, tr.FairValue, 1e-9)
	assert.Equal(t, sim.StatusClosed, tr.Status)
	assert.Equal(t, sim.ReasonTakeProfit, tr.CloseReason)
	assert.InDelta(t, 0.4, tr.PnL, 1e-9)

	require.Len(t, h.rows.rows, 1)
	row := h.rows.rows[0]
	assert.Equal(t, "CLOSE", row.Action)
	assert.Equal(t, "BTC/USDT", row.Symbol)
	assert.Equal(t, sim.ReasonTakeProfit, row.Reason)
	assert.Equal(t, journal.NotApplicable, row.PnL)

	assert.Equal(t, "1000", h.ledger.Baseline().String())
	assert.Equal(t, []time.Duration{45 * time.Second, time.Minute, time.Minute}, h.clock.sleeps)

	assert.Contains(t, h.out.String(), "Signal: BUY BTC/USDT at $100.00 | BUE: $107.80 | Δ: 7.80%")
	assert.Contains(t, h.out.String(), "BUY BTC/USDT at $100.00")
	assert.Contains(t, h.out.String(), "Total PnL: $0.40")
}

func TestRunHoldDoesNotTrade(t *testing.T) {
	t.Parallel()

	src := &scriptedSource{steps: prices(100)}
	h := newHarness(t, Config{}, src, 4)

	require.NoError(t, h.bot.Run(h.ctx))

	assert.Empty(t, h.engine.Trades())
	assert.Empty(t, h.rows.rows)
	assert.Contains(t, h.out.String(), "Signal: HOLD")
	// Every cycle past the spread gate settles, even with nothing open.
	assert.Equal(t, 4*2, src.calls)
}

func TestRunSpreadGateSkipsCycle(t *testing.T) {
	t.Parallel()

	src := &scriptedSource{steps: []step{{price: 100, ask: 100.2}}}
	h := newHarness(t, Config{}, src, 2)

	require.NoError(t, h.bot.Run(h.ctx))

	assert.Equal(t, 2, src.calls, "no settlement fetch on a skipped cycle")
	assert.Equal(t, 0, h.bot.history.Len())
	assert.Equal(t, []time.Duration{45 * time.Second, time.Minute}, h.clock.sleeps)
	assert.Empty(t, h.out.String())
}

func TestRunFetchFailurePausesAndContinues(t *testing.T) {
	t.Parallel()

	src := &scriptedSource{steps: []step{
		{err: errors.New("exchange down")},
		{price: 100},
	}}
	h := newHarness(t, Config{}, src, 2)

	require.NoError(t, h.bot.Run(h.ctx))

	require.Len(t, h.clock.sleeps, 2)
	assert.Equal(t, DefaultErrorPause, h.clock.sleeps[0])
	assert.Equal(t, 1, h.bot.history.Len())
}

func TestRunStopsAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	src := &scriptedSource{steps: []step{{err: market.ErrNoQuote}}}
	h := newHarness(t, Config{MaxConsecutiveFailures: 3, ErrorPause: 2 * time.Second}, src, 100)

	err := h.bot.Run(h.ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooManyFailures)
	assert.Contains(t, err.Error(), "no quote available")
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, h.clock.sleeps)
}

func TestRunRecoversPanic(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := &fakeClock{now: time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC), stopAt: 100, cancel: cancel}
	engine := sim.NewEngine(sim.Config{Location: time.UTC}, nil, nil)
	ledger := portfolio.NewLedger(decimal.NewFromInt(1000), nil)

	b := New(Config{MaxConsecutiveFailures: 1}, &scriptedSource{steps: prices(100)}, panicSignaler{}, engine, ledger)
	b.Clock = clock
	b.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	// Warm the history so the signaler is reached on the first cycle.
	b.history.Record(100)
	b.history.Record(100)

	err := b.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle panic: boom")
}

func TestRunManualApproval(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		approved bool
		trades   int
	}{
		{"approved", true, 1},
		{"refused", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &scriptedSource{steps: prices(90, 90, 100, 100, 100, 100)}
			h := newHarness(t, Config{}, src, 3)

			approver := &mockApprover{}
			approver.On("Approve", mock.Anything, mock.MatchedBy(func(s strategy.Signal) bool {
				return s.Action == strategy.Buy
			}), 100.0).Return(tt.approved, nil).Once()
			h.bot.Approver = approver

			require.NoError(t, h.bot.Run(h.ctx))

			approver.AssertExpectations(t)
			assert.Len(t, h.engine.Trades(), tt.trades)
		})
	}
}

func TestRunApprovalErrorIsCycleFailure(t *testing.T) {
	t.Parallel()

	src := &scriptedSource{steps: prices(90, 90, 100, 100, 100, 100)}
	h := newHarness(t, Config{MaxConsecutiveFailures: 1}, src, 100)

	approver := &mockApprover{}
	approver.On("Approve", mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("tty gone"))
	h.bot.Approver = approver

	err := h.bot.Run(h.ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "approval: tty gone")
	assert.Empty(t, h.engine.Trades())
}

func TestRunSizesByRisk(t *testing.T) {
	t.Parallel()

	src := &scriptedSource{steps: prices(90, 90, 100, 100, 100, 100)}
	h := newHarness(t, Config{PositionSize: 10, Risk: 2.5}, src, 3)

	require.NoError(t, h.bot.Run(h.ctx))

	trades := h.engine.Trades()
	require.Len(t, trades, 1)
	assert.InDelta(t, 0.25, trades[0].Amount, 1e-12)
	assert.Equal(t, sim.ReasonSettled, trades[0].CloseReason)
}

func TestRunCancelledBeforeStart(t *testing.T) {
	t.Parallel()

	src := &scriptedSource{steps: prices(100)}
	h := newHarness(t, Config{}, src, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, h.bot.Run(ctx))
	assert.Equal(t, 0, src.calls)
}

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	b := New(Config{}, nil, nil, nil, nil)
	assert.Equal(t, sim.DefaultPair, b.cfg.Pair)
	assert.Equal(t, DefaultPositionSize, b.cfg.PositionSize)
	assert.Equal(t, 1.0, b.cfg.Sentiment)
	assert.Equal(t, 1.0, b.cfg.Risk)
	assert.Equal(t, DefaultSpreadLimit, b.cfg.SpreadLimit)
	assert.Equal(t, DefaultErrorPause, b.cfg.ErrorPause)
	assert.NotEmpty(t, b.RunID)
	assert.IsType(t, AutoApprover{}, b.Approver)
}

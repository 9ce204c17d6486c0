package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rustyeddy/flashbot/bot"
	"github.com/rustyeddy/flashbot/config"
	"github.com/rustyeddy/flashbot/journal"
	"github.com/rustyeddy/flashbot/market"
	"github.com/rustyeddy/flashbot/portfolio"
	"github.com/rustyeddy/flashbot/sim"
	"github.com/rustyeddy/flashbot/strategy"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the decision loop",
	Long: `Run the once-a-minute decision loop until interrupted.

Flags override the values from the config file.

Examples:
  flashbot run --mode auto --sentiment 1.05
  flashbot run --config flashbot.yaml --log-json`,
	RunE: runRun,
}

var (
	runSentiment float64
	runRisk      float64
	runMode      string
	runLive      bool
)

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd)
}

func addRunFlags(c *cobra.Command) {
	c.Flags().Float64Var(&runSentiment, "sentiment", 1.0, "sentiment multiplier applied to the fair value")
	c.Flags().Float64Var(&runRisk, "risk", 1.0, "risk multiplier applied to the position size")
	c.Flags().StringVar(&runMode, "mode", config.ModeManual, "execution mode: manual or auto")
	c.Flags().BoolVar(&runLive, "live", false, "label the run as live (trades are still simulated)")
}

// applyRunFlags copies explicitly set flags over the config values.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("sentiment") {
		cfg.Trading.Sentiment = runSentiment
	}
	if flags.Changed("risk") {
		cfg.Trading.Risk = runRisk
	}
	if flags.Changed("mode") {
		cfg.Trading.Mode = runMode
	}
	if flags.Changed("live") {
		cfg.Trading.Live = runLive
	}
	return cfg.Validate()
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, cfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	out := cmd.OutOrStdout()
	if cfg.Trading.Live {
		fmt.Fprintln(out, "Running in live mode")
	} else {
		fmt.Fprintln(out, "Running in simulation mode")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.Default()
	loc, _ := cfg.Trading.Location()

	sink, err := openSink(cfg)
	if err != nil {
		return err
	}
	jlog, err := newLedgerLog(cfg, sink, logger)
	if err != nil {
		return err
	}
	defer jlog.Close()

	store := journal.NewSnapshotStore(cfg.Ledger.SnapshotDir)
	engine := sim.NewEngine(sim.Config{
		Pair:       cfg.Trading.Pair,
		TakeProfit: cfg.Trading.TakeProfit,
		StopLoss:   cfg.Trading.StopLoss,
		Location:   loc,
	}, store, out)

	today := time.Now().In(loc)
	trades, err := store.Load(today)
	if err != nil {
		logger.Warn("snapshot not restored", slog.String("path", store.Path(today)), slog.Any("err", err))
	} else if len(trades) > 0 {
		if err := engine.Restore(trades); err != nil {
			return err
		}
		logger.Info("snapshot restored", slog.String("path", store.Path(today)), slog.Int("trades", len(trades)))
	}

	initial, err := cfg.InitialPortfolio()
	if err != nil {
		return err
	}
	ledger := portfolio.NewLedger(initial, jlog)

	source, closeSource := newSource(ctx, cfg, logger)
	defer closeSource()

	gen := strategy.NewGenerator(strategy.NewEventModifier(loc))

	errorPause, _ := cfg.Loop.ParseDuration()
	b := bot.New(bot.Config{
		Pair:                   cfg.Trading.Pair,
		PositionSize:           cfg.Trading.PositionSize,
		Sentiment:              cfg.Trading.Sentiment,
		Risk:                   cfg.Trading.Risk,
		SpreadLimit:            cfg.Trading.SpreadLimit,
		ErrorPause:             errorPause,
		MaxConsecutiveFailures: cfg.Loop.MaxConsecutiveFailures,
	}, source, gen, engine, ledger)
	b.Out = out
	b.Logger = logger
	if cfg.Trading.Mode == config.ModeManual {
		b.Approver = bot.NewConsoleApprover(cmd.InOrStdin(), out)
	}

	return b.Run(ctx)
}

func openSink(cfg *config.Config) (journal.Sink, error) {
	var (
		sink journal.Sink
		err  error
	)
	if cfg.Ledger.Type == "sqlite" {
		sink, err = journal.NewSQLite(cfg.Ledger.DBPath)
	} else {
		sink, err = journal.NewCSV(cfg.Ledger.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	return sink, nil
}

func newLedgerLog(cfg *config.Config, sink journal.Sink, logger *slog.Logger) (*journal.Log, error) {
	delay, err := cfg.Ledger.ParseDuration()
	if err != nil {
		return nil, fmt.Errorf("ledger retry delay: %w", err)
	}
	jlog := journal.NewLog(sink, logger)
	jlog.Attempts = cfg.Ledger.Attempts
	jlog.Delay = delay
	return jlog, nil
}

func newSource(ctx context.Context, cfg *config.Config, logger *slog.Logger) (market.Source, func()) {
	if cfg.Market.Source == config.SourceStream {
		s := market.NewStream(cfg.Market.StreamURL, cfg.Trading.Pair)
		s.Logger = logger
		s.Start(ctx)
		return s, s.Stop
	}
	return market.NewClient(cfg.Market.RESTURL), func() {}
}

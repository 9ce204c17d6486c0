package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/rustyeddy/flashbot/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "flashbot",
	Short: "A simulated BTC/USDT decision bot driven by the BUE fair value",
	Long: `Flashbot watches BTC/USDT once a minute, derives a fair value (BUE) from
recent prices, a calendar modifier and a sentiment factor, and simulates
trades when the price strays from it.

It provides tools for:
  - Running the decision loop in manual or auto mode
  - Inspecting the ledger of deposits and closed positions
  - Reading the daily trade snapshots
  - Generating and validating configuration files

Running flashbot with no subcommand is the same as "flashbot run".`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(cmd.ErrOrStderr())
	},
	RunE: runRun,
}

var (
	cfgFile  string
	logLevel string
	logJSON  bool
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON); defaults are used when empty")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit logs as JSON")

	addRunFlags(rootCmd)
}

func setupLogging(w io.Writer) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(logLevel))); err != nil {
		return fmt.Errorf("log level %q: %w", logLevel, err)
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if logJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(h))
	return nil
}

// loadConfig reads --config when given, otherwise starts from the defaults.
func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.Default(), nil
	}
	cfg, err := config.LoadFromFile(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

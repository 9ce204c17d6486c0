package cmd

import (
	"fmt"

	"github.com/rustyeddy/flashbot/portfolio"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var depositCmd = &cobra.Command{
	Use:   "deposit <amount>",
	Short: "Record a deposit in the ledger",
	Long: `Add funds to the portfolio. The new value starts from the last
portfolio value in the ledger, or the configured initial value when the
ledger is empty.

Example:
  flashbot deposit 500`,
	Args: cobra.ExactArgs(1),
	RunE: runDeposit,
}

func init() {
	rootCmd.AddCommand(depositCmd)
}

func runDeposit(cmd *cobra.Command, args []string) error {
	amount, err := decimal.NewFromString(args[0])
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	baseline, err := cfg.InitialPortfolio()
	if err != nil {
		return err
	}
	rows, err := readLedger(cfg, "")
	if err != nil {
		return err
	}
	if n := len(rows); n > 0 {
		baseline = rows[n-1].PortfolioValue
	}

	sink, err := openSink(cfg)
	if err != nil {
		return err
	}
	jlog, err := newLedgerLog(cfg, sink, nil)
	if err != nil {
		return err
	}
	defer jlog.Close()

	ledger := portfolio.NewLedger(baseline, jlog)
	if err := ledger.Deposit(cmd.Context(), amount); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deposited $%s, portfolio value $%s\n",
		amount.StringFixed(2), ledger.Baseline().StringFixed(2))
	return nil
}

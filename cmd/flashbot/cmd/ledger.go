package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rustyeddy/flashbot/config"
	"github.com/rustyeddy/flashbot/journal"
	"github.com/spf13/cobra"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Show ledger rows and the equity series",
	Long: `Read the ledger and print the rows matching the filters, followed by
the portfolio value summed per timestamp.

Examples:
  flashbot ledger
  flashbot ledger --file bue_log.csv --symbol BTC/USDT --reason TakeProfit
  flashbot ledger --reason Deposit --reason StopLoss`,
	Args: cobra.NoArgs,
	RunE: runLedger,
}

var (
	ledgerFile    string
	ledgerSymbols []string
	ledgerReasons []string
)

func init() {
	rootCmd.AddCommand(ledgerCmd)

	ledgerCmd.Flags().StringVarP(&ledgerFile, "file", "f", "", "ledger CSV file (default from config)")
	ledgerCmd.Flags().StringSliceVar(&ledgerSymbols, "symbol", nil, "keep only these symbols")
	ledgerCmd.Flags().StringSliceVar(&ledgerReasons, "reason", nil, "keep only these close reasons")
}

func runLedger(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rows, err := readLedger(cfg, ledgerFile)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintln(out, "No ledger rows.")
		return nil
	}

	symbols := journal.Distinct(rows, func(r journal.Row) string { return r.Symbol })
	reasons := journal.Distinct(rows, func(r journal.Row) string { return r.Reason })
	fmt.Fprintf(out, "Symbols: %s\n", strings.Join(symbols, ", "))
	fmt.Fprintf(out, "Reasons: %s\n\n", strings.Join(reasons, ", "))

	rows = journal.Filter(rows, ledgerSymbols, ledgerReasons)
	writeRows(out, rows)

	fmt.Fprintln(out, "\nEquity:")
	for _, p := range journal.EquitySeries(rows) {
		fmt.Fprintf(out, "  %s  %s\n", p.Time.Format(time.RFC3339), p.Value.StringFixed(2))
	}
	return nil
}

// readLedger loads every row from the CSV file, or from SQLite when the
// config selects it and no file was given.
func readLedger(cfg *config.Config, file string) ([]journal.Row, error) {
	if file == "" && cfg.Ledger.Type == "sqlite" {
		db, err := journal.NewSQLite(cfg.Ledger.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open ledger: %w", err)
		}
		defer db.Close()

		rows, err := db.ListBetween(time.Time{}, time.Now().Add(24*time.Hour))
		if err != nil {
			return nil, fmt.Errorf("query ledger: %w", err)
		}
		return rows, nil
	}

	if file == "" {
		file = cfg.Ledger.Path
	}
	rows, err := journal.ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	return rows, nil
}

func writeRows(w io.Writer, rows []journal.Row) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tACTION\tSYMBOL\tREASON\tPNL\tPORTFOLIO")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Time.Format(time.RFC3339), r.Action, r.Symbol, r.Reason, r.PnL, r.PortfolioValue.StringFixed(2))
	}
	tw.Flush()
}

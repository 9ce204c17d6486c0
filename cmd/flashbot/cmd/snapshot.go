package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/rustyeddy/flashbot/journal"
	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Inspect the daily trade snapshots",
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the trades saved for a day",
	Long: `Print the trade log saved for a day (today by default, in the
configured timezone).

Examples:
  flashbot snapshot show
  flashbot snapshot show --date 2024-06-03 --org`,
	Args: cobra.NoArgs,
	RunE: runSnapshotShow,
}

var (
	snapshotDate string
	snapshotDir  string
	snapshotOrg  bool
)

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.AddCommand(snapshotShowCmd)

	snapshotShowCmd.Flags().StringVarP(&snapshotDate, "date", "d", "", "day to show, YYYY-MM-DD")
	snapshotShowCmd.Flags().StringVar(&snapshotDir, "dir", "", "snapshot directory (default from config)")
	snapshotShowCmd.Flags().BoolVar(&snapshotOrg, "org", false, "print Org-mode blocks")
}

func runSnapshotShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	loc, err := cfg.Trading.Location()
	if err != nil {
		return err
	}

	day := time.Now().In(loc)
	if snapshotDate != "" {
		day, err = time.ParseInLocation("2006-01-02", snapshotDate, loc)
		if err != nil {
			return fmt.Errorf("date: %w", err)
		}
	}

	dir := snapshotDir
	if dir == "" {
		dir = cfg.Ledger.SnapshotDir
	}
	store := journal.NewSnapshotStore(dir)

	trades, err := store.Load(day)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(trades) == 0 {
		fmt.Fprintf(out, "No trades in %s\n", store.Path(day))
		return nil
	}

	if snapshotOrg {
		for _, t := range trades {
			fmt.Fprintln(out, journal.FormatTradeOrg(t))
		}
		return nil
	}

	var total float64
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tACTION\tPRICE\tAMOUNT\tBUE\tDELTA\tSTATUS\tREASON\tPNL")
	for _, t := range trades {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.8f\t%.2f\t%.2f%%\t%s\t%s\t%.2f\n",
			t.Time.In(loc).Format("15:04:05"), t.Action, t.Price, t.Amount,
			t.FairValue, t.Delta*100, t.Status, t.CloseReason, t.PnL)
		total += t.PnL
	}
	tw.Flush()
	fmt.Fprintf(out, "\n%d trades, total PnL $%.2f\n", len(trades), total)
	return nil
}

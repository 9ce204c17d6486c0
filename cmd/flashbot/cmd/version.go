package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "flashbot version %s\n", version)
		fmt.Fprintln(out, "A simulated BTC/USDT decision bot")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

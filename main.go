package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "jobflow",
	Short: "jobflow tracks worked time, compensation and shortages",
	Long: `jobflow records clock-in/clock-out time, computes weekly time balances
with Dutch loading multipliers and holidays, and raises shortage alerts.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "inventory-service",
	Short: "Multi-tenant inventory and order service.",
	Long: `inventory-service keeps product stock, orders and their audit history
consistent per account. Run "serve" for the HTTP API.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, alertsCmd, tokenCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package cmd

import (
	"context"
	"fmt"

	"inventory-service/config"

	"github.com/spf13/cobra"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Stock alert maintenance.",
}

var alertsScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Notify vendors once for every product at or below its alert threshold.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(config.LoadConfig())
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.DBTxTimeout*4)
		defer cancel()
		sent, err := a.alerts.Scan(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "sent %d low stock notifications\n", sent)
		return nil
	},
}

func init() {
	alertsCmd.AddCommand(alertsScanCmd)
}

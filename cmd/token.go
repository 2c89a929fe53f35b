package cmd

import (
	"errors"
	"fmt"
	"time"

	"inventory-service/config"
	"inventory-service/utils"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for an account, signed with JWT_SECRET.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		account, _ := cmd.Flags().GetInt64("account")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		if account <= 0 {
			return errors.New("--account must be a positive id")
		}
		token, err := utils.GenerateToken(account, config.LoadConfig().JWTSecret, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().Int64("account", 0, "account (user_id) the token is issued for")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")
}

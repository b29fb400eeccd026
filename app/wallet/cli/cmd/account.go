package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Print the public key of the wallet",
	RunE:  accountRun,
}

func init() {
	rootCmd.AddCommand(accountCmd)
}

func accountRun(cmd *cobra.Command, args []string) error {
	pk, err := loadKey()
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), pk.Public())

	return nil
}

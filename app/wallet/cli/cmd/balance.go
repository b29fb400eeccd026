package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balance",
	RunE:  balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) error {
	pk, err := loadKey()
	if err != nil {
		return err
	}

	var bal struct {
		Balance uint64 `json:"balance"`
		Latest  string `json:"latest_block"`
	}
	if err := send(http.MethodGet, "/v1/balance/"+pk.Public().String(), nil, &bal); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "account: %s\nbalance: %d\nlatest:  %s\n", pk.Public(), bal.Balance, bal.Latest)

	return nil
}

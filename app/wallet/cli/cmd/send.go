package cmd

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/datben/gulf-stream/foundation/blockchain/database"
	"github.com/datben/gulf-stream/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

var (
	height uint64
	gas    uint64
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Sign and submit a transaction",
}

var mintCmd = &cobra.Command{
	Use:   "mint <amount>",
	Short: "Mint coins to the wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("amount: %w", err)
		}

		return sendWithDetails(cmd, database.Mint(amount))
	},
}

var transferCmd = &cobra.Command{
	Use:   "transfer <to> <amount>",
	Short: "Transfer coins to another account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		to, err := signature.ToPublicKey(args[0])
		if err != nil {
			return fmt.Errorf("to: %w", err)
		}

		amount, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("amount: %w", err)
		}

		return sendWithDetails(cmd, database.Transfer(to, amount))
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.AddCommand(mintCmd, transferCmd)
	sendCmd.PersistentFlags().Uint64VarP(&height, "height", "b", 0, "Block height to target, the next block when zero.")
	sendCmd.PersistentFlags().Uint64VarP(&gas, "gas", "g", 0, "Gas to pay.")
}

func sendWithDetails(cmd *cobra.Command, msg database.Message) error {
	pk, err := loadKey()
	if err != nil {
		return err
	}

	blockHeight := height
	if blockHeight == 0 {
		var latest struct {
			Index uint64 `json:"index"`
		}
		if err := send(http.MethodGet, "/v1/block/latest", nil, &latest); err != nil {
			return fmt.Errorf("latest block: %w", err)
		}
		blockHeight = latest.Index + 1
	}

	tx, err := database.Sign(pk, blockHeight, gas, msg)
	if err != nil {
		return err
	}

	if err := send(http.MethodPost, "/v1/tx/submit", tx, nil); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "submitted %s for block %d: %s\n", msg, blockHeight, tx.Signature)

	return nil
}

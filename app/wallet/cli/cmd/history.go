package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [signature]",
	Short: "Print the transaction history of the node or a single transaction",
	Args:  cobra.MaximumNArgs(1),
	RunE:  historyRun,
}

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Print the latest block",
	RunE:  latestRun,
}

func init() {
	rootCmd.AddCommand(historyCmd, latestCmd)
}

func historyRun(cmd *cobra.Command, args []string) error {
	path := "/v1/history"
	if len(args) == 1 {
		path += "/" + args[0]
	}

	var out json.RawMessage
	if err := send(http.MethodGet, path, nil, &out); err != nil {
		return err
	}

	return printJSON(cmd, out)
}

func latestRun(cmd *cobra.Command, args []string) error {
	var out json.RawMessage
	if err := send(http.MethodGet, "/v1/block/latest", nil, &out); err != nil {
		return err
	}

	return printJSON(cmd, out)
}

func printJSON(cmd *cobra.Command, raw json.RawMessage) error {
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(data))

	return nil
}

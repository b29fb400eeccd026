package cmd

import (
	"fmt"
	"os"

	"github.com/datben/gulf-stream/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new key pair",
	RunE:  generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func generateRun(cmd *cobra.Command, args []string) error {
	path := getPrivateKeyPath()
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("key file %s already exists", path)
	}

	pk, err := signature.GenerateKey()
	if err != nil {
		return err
	}

	if err := signature.SaveKey(path, pk); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), pk.Public())

	return nil
}

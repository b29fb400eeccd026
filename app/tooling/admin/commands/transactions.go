package commands

import (
	"fmt"

	"github.com/datben/gulf-stream/foundation/blockchain/database"
)

// Transactions prints the recorded transactions. An account name or key
// limits the output to the transactions touching that account.
func Transactions(args []string, cfg Config) error {
	var only string
	if len(args) == 3 {
		only = args[2]
	}

	records, err := cfg.Storage.List()
	if err != nil {
		return err
	}

	for _, ts := range records {
		if only != "" && !touches(cfg, ts.Tx, only) {
			continue
		}

		fmt.Fprintf(cfg.Out, "Sig: %s  State: %s  Payer: %s  Height: %d  Gas: %d  Msg: %s\n",
			ts.Tx.Signature, ts.State, cfg.NS.Lookup(ts.Tx.Payer), ts.Tx.BlockHeight, ts.Tx.Gas, ts.Tx.Message)
	}

	return nil
}

func touches(cfg Config, tx database.Transaction, only string) bool {
	for _, pk := range tx.InvolvedPublicKeys() {
		if only == pk.String() || only == cfg.NS.Lookup(pk) {
			return true
		}
	}
	return false
}

package commands

import (
	"fmt"
	"sort"

	"github.com/datben/gulf-stream/foundation/blockchain/database"
	"github.com/datben/gulf-stream/foundation/blockchain/signature"
)

// Balances prints the balances implied by the successful transactions of
// the history. An account name or key limits the output to that account.
func Balances(args []string, cfg Config) error {
	var only string
	if len(args) == 3 {
		only = args[2]
	}

	records, err := cfg.Storage.List()
	if err != nil {
		return err
	}

	var txs []database.Transaction
	for _, ts := range records {
		if ts.State == database.Success {
			txs = append(txs, ts.Tx)
		}
	}

	bals := database.BalanceDeltas(txs)

	keys := make([]signature.PublicKey, 0, len(bals))
	for pk := range bals {
		keys = append(keys, pk)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})

	for _, pk := range keys {
		name := cfg.NS.Lookup(pk)
		if only != "" && only != name && only != pk.String() {
			continue
		}
		fmt.Fprintf(cfg.Out, "Account: %s  Name: %s  Balance: %s\n", pk, name, bals[pk])
	}

	return nil
}

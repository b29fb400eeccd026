// Package selector provides different transaction selecting algorithms.
package selector

import (
	"fmt"

	"github.com/datben/gulf-stream/foundation/blockchain/database"
)

// List of different select strategies.
const (
	StrategyGas   = "gas"
	StrategyPayer = "payer"
)

// Map of different select strategies with functions.
var strategies = map[string]Func{
	StrategyGas:   gasSelect,
	StrategyPayer: payerSelect,
}

// Func defines a function that takes the candidate transactions, in the
// order they arrived in the mempool, and selects howMany of them in an
// order based on the functions strategy. The order returned is the order
// in which the block builder claims balance for them. Receiving -1 for
// howMany must return all the transactions in the strategies ordering.
type Func func(transactions []database.Transaction, howMany int) []database.Transaction

// Retrieve returns the specified select strategy function.
func Retrieve(strategy string) (Func, error) {
	fn, exists := strategies[strategy]
	if !exists {
		return nil, fmt.Errorf("strategy %q does not exist", strategy)
	}
	return fn, nil
}

// =============================================================================

// byGas provides sorting support by the transaction gas value.
type byGas []database.Transaction

// Len returns the number of transactions in the list.
func (bg byGas) Len() int {
	return len(bg)
}

// Less helps to sort the list by gas in decending order so the
// transactions paying the most get the first claim on balances.
func (bg byGas) Less(i, j int) bool {
	return bg[i].Gas > bg[j].Gas
}

// Swap moves transactions in the order of the gas value.
func (bg byGas) Swap(i, j int) {
	bg[i], bg[j] = bg[j], bg[i]
}

package selector

import (
	"sort"

	"github.com/datben/gulf-stream/foundation/blockchain/database"
)

// gasSelect returns the transactions with the highest gas first. Equal gas
// keeps the arrival order.
var gasSelect = func(transactions []database.Transaction, howMany int) []database.Transaction {
	final := make([]database.Transaction, len(transactions))
	copy(final, transactions)

	sort.Stable(byGas(final))

	if howMany >= 0 && howMany < len(final) {
		final = final[:howMany]
	}

	return final
}

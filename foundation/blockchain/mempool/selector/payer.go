package selector

import (
	"sort"

	"github.com/datben/gulf-stream/foundation/blockchain/database"
	"github.com/datben/gulf-stream/foundation/blockchain/signature"
)

// payerSelect returns transactions with the best gas while respecting the
// arrival order of each payer, so a payer's later transaction never claims
// balance before an earlier one.
var payerSelect = func(transactions []database.Transaction, howMany int) []database.Transaction {

	/*
		Bill: {Gas: 150, Transfer: 40}, {Gas: 250, Transfer: 10}
		Pavl: {Gas: 75, Mint: 100},     {Gas: 200, Transfer: 60}
		Edua: {Gas: 100, Transfer: 5}
	*/

	// Group the transactions per payer keeping arrival order. The payers
	// are kept in the order of their first transaction.
	var payers []signature.PublicKey
	m := make(map[signature.PublicKey][]database.Transaction)
	for _, tx := range transactions {
		if _, exists := m[tx.Payer]; !exists {
			payers = append(payers, tx.Payer)
		}
		m[tx.Payer] = append(m[tx.Payer], tx)
	}

	if howMany < 0 {
		howMany = len(transactions)
	}

	// Pick the first transaction in the slice for each payer. Each iteration
	// represents a new row of selections. Keep doing that until all the
	// transactions have been selected.
	var rows [][]database.Transaction
	for {
		var row []database.Transaction
		for _, payer := range payers {
			if len(m[payer]) > 0 {
				row = append(row, m[payer][0])
				m[payer] = m[payer][1:]
			}
		}
		if row == nil {
			break
		}
		rows = append(rows, row)
	}

	/*
		0: Bill: {Gas: 150}, Pavl: {Gas: 75}, Edua: {Gas: 100}
		1: Bill: {Gas: 250}, Pavl: {Gas: 200}
	*/

	// Sort each row by gas. Then try to select the number of requested
	// transactions. Keep pulling transactions from each row until the amount
	// is fulfilled or there are no more transactions.
	final := []database.Transaction{}
	for _, row := range rows {
		sort.Stable(byGas(row))

		need := howMany - len(final)
		if len(row) >= need {
			final = append(final, row[:need]...)
			break
		}
		final = append(final, row...)
	}

	/*
		0: Bill: {Gas: 150}
		1: Edua: {Gas: 100}
		2: Pavl: {Gas: 75}
		3: Bill: {Gas: 250}
	*/

	return final
}

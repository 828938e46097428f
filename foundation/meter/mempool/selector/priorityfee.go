package selector

import (
	"sort"

	"github.com/lamportlabs/feemeter/foundation/meter/transaction"
)

// priorityFeeSelect returns the transactions with the best priority-fee bids
// while respecting the nonce order within each account.
var priorityFeeSelect = func(m map[transaction.AccountID][]transaction.MeteredTx, howMany int) []transaction.MeteredTx {

	// Sort the transactions per account by nonce. A later nonce must never
	// be selected ahead of an earlier one from the same account, regardless
	// of what it bids.
	for key := range m {
		if len(m[key]) > 1 {
			sort.Sort(byNonce(m[key]))
		}
	}

	// Pick the first transaction in the slice for each account. Each
	// iteration represents a new row of selections. Keep doing that until
	// all the transactions have been taken.
	var rows [][]transaction.MeteredTx
	for {
		var row []transaction.MeteredTx
		for key := range m {
			if len(m[key]) > 0 {
				row = append(row, m[key][0])
				m[key] = m[key][1:]
			}
		}
		if row == nil {
			break
		}
		rows = append(rows, row)
	}

	// Sort each row by bid unless every transaction from that row is being
	// taken anyway. Keep pulling transactions from each row until the
	// request is fulfilled or there are no more transactions.
	final := []transaction.MeteredTx{}
done:
	for _, row := range rows {
		need := howMany - len(final)
		if len(row) > need {
			sort.Sort(byPriorityFee(row))
			final = append(final, row[:need]...)
			break done
		}
		final = append(final, row...)
	}

	return final
}

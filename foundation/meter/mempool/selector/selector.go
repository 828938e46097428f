// Package selector provides different transaction selection algorithms for
// block production.
package selector

import (
	"fmt"

	"github.com/lamportlabs/feemeter/foundation/meter/transaction"
)

// List of different select strategies.
const (
	StrategyPriorityFee = "priority_fee"
)

// Map of different select strategies with functions.
var strategies = map[string]Func{
	StrategyPriorityFee: priorityFeeSelect,
}

// Func defines a function that takes a mempool of transactions grouped by
// account and selects howMany of them in an order based on the function's
// strategy. All selector functions MUST respect nonce ordering per account.
// Receiving -1 for howMany must return all the transactions in the
// strategy's ordering.
type Func func(transactions map[transaction.AccountID][]transaction.MeteredTx, howMany int) []transaction.MeteredTx

// Retrieve returns the specified select strategy function.
func Retrieve(strategy string) (Func, error) {
	fn, exists := strategies[strategy]
	if !exists {
		return nil, fmt.Errorf("strategy %q does not exist", strategy)
	}
	return fn, nil
}

// =============================================================================

// byNonce provides sorting support by the transaction nonce value.
type byNonce []transaction.MeteredTx

// Len returns the number of transactions in the list.
func (bn byNonce) Len() int {
	return len(bn)
}

// Less helps to sort the list by nonce in ascending order to keep the
// transactions in the right order of processing.
func (bn byNonce) Less(i, j int) bool {
	return bn[i].Nonce < bn[j].Nonce
}

// Swap moves transactions in the order of the nonce value.
func (bn byNonce) Swap(i, j int) {
	bn[i], bn[j] = bn[j], bn[i]
}

// =============================================================================

// byPriorityFee provides sorting support by the priority-fee bid.
type byPriorityFee []transaction.MeteredTx

// Len returns the number of transactions in the list.
func (bp byPriorityFee) Len() int {
	return len(bp)
}

// Less helps to sort the list by priority fee in descending order to pick
// the transactions that pay the leader best.
func (bp byPriorityFee) Less(i, j int) bool {
	return bp[i].PriorityFee > bp[j].PriorityFee
}

// Swap moves transactions in the order of the priority-fee value.
func (bp byPriorityFee) Swap(i, j int) {
	bp[i], bp[j] = bp[j], bp[i]
}

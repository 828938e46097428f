// Package cost keeps track of the compute units committed to the block under
// construction, for the whole block and chained per account. The block
// producer uses it to decide whether another candidate transaction still
// fits.
package cost

import (
	"errors"
	"fmt"

	"github.com/lamportlabs/feemeter/foundation/meter/transaction"
)

// ErrWouldExceed indicates the candidate transaction does not fit the block
// under its cost limits.
var ErrWouldExceed = errors.New("transaction would exceed block cost limits")

// Tracker accumulates the compute-unit cost of the transactions selected for
// the current block. The tracker belongs to the single block-production
// goroutine; it is reset when work on a new block starts.
type Tracker struct {
	blockMax     uint64
	accountMax   uint64
	accountCosts map[transaction.AccountID]uint64
	blockCost    uint64
}

// NewTracker constructs a tracker with the protocol block and per-account
// compute-unit limits.
func NewTracker(blockMax uint64, accountMax uint64) (*Tracker, error) {
	if accountMax > blockMax {
		return nil, fmt.Errorf("account limit %d exceeds block limit %d", accountMax, blockMax)
	}

	t := Tracker{
		blockMax:     blockMax,
		accountMax:   accountMax,
		accountCosts: make(map[transaction.AccountID]uint64),
	}

	return &t, nil
}

// WouldExceed reports whether adding a transaction of the specified cost,
// touching the specified accounts, would break any limit.
func (t *Tracker) WouldExceed(accounts []transaction.AccountID, units uint64) bool {
	if t.blockCost+units > t.blockMax {
		return true
	}

	if units > t.accountMax {
		return true
	}

	for _, account := range accounts {
		if t.accountCosts[account]+units > t.accountMax {
			return true
		}
	}

	return false
}

// Add commits a transaction's cost to the block. It fails when the
// transaction does not fit; a failed add leaves the tracker unchanged.
func (t *Tracker) Add(accounts []transaction.AccountID, units uint64) error {
	if t.WouldExceed(accounts, units) {
		return fmt.Errorf("cost %d with block at %d/%d: %w", units, t.blockCost, t.blockMax, ErrWouldExceed)
	}

	for _, account := range accounts {
		t.accountCosts[account] += units
	}
	t.blockCost += units

	return nil
}

// BlockCost returns the compute units committed to the block so far.
func (t *Tracker) BlockCost() uint64 {
	return t.blockCost
}

// BlockMax returns the protocol block compute-unit limit.
func (t *Tracker) BlockMax() uint64 {
	return t.blockMax
}

// CostliestAccount returns the account with the most chained cost in the
// block and that cost.
func (t *Tracker) CostliestAccount() (transaction.AccountID, uint64) {
	var costliest transaction.AccountID
	var most uint64

	for account, units := range t.accountCosts {
		if units > most {
			costliest = account
			most = units
		}
	}

	return costliest, most
}

// Reset clears the tracker for a new block.
func (t *Tracker) Reset() {
	t.accountCosts = make(map[transaction.AccountID]uint64)
	t.blockCost = 0
}

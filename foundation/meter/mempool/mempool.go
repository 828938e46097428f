// Package mempool maintains the pool of metered transactions waiting for
// block inclusion.
package mempool

import (
	"fmt"
	"strings"
	"sync"

	"github.com/lamportlabs/feemeter/foundation/meter/mempool/selector"
	"github.com/lamportlabs/feemeter/foundation/meter/transaction"
)

// Mempool represents a cache of metered transactions organized by
// account:nonce.
type Mempool struct {
	pool     map[string]transaction.MeteredTx
	mu       sync.RWMutex
	selectFn selector.Func
}

// New constructs a new mempool using the default selection strategy.
func New() (*Mempool, error) {
	return NewWithStrategy(selector.StrategyPriorityFee)
}

// NewWithStrategy constructs a new mempool with the specified selection
// strategy.
func NewWithStrategy(strategy string) (*Mempool, error) {
	selectFn, err := selector.Retrieve(strategy)
	if err != nil {
		return nil, err
	}

	mp := Mempool{
		pool:     make(map[string]transaction.MeteredTx),
		selectFn: selectFn,
	}

	return &mp, nil
}

// Count returns the current number of transactions in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Upsert adds or replaces a transaction in the mempool. A replacement with
// the same account and nonce carries the latest quote and bid.
func (mp *Mempool) Upsert(tx transaction.MeteredTx) (int, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	key, err := mapKey(tx)
	if err != nil {
		return 0, err
	}

	mp.pool[key] = tx

	return len(mp.pool), nil
}

// Delete removes a transaction from the mempool.
func (mp *Mempool) Delete(tx transaction.MeteredTx) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	key, err := mapKey(tx)
	if err != nil {
		return err
	}

	delete(mp.pool, key)

	return nil
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[string]transaction.MeteredTx)
}

// PickBest uses the configured selection strategy to return the next set of
// transactions for the next block. Passing -1 returns the full pool in the
// strategy's ordering.
func (mp *Mempool) PickBest(howMany int) []transaction.MeteredTx {

	// Group the transactions by account.
	m := make(map[transaction.AccountID][]transaction.MeteredTx)
	mp.mu.RLock()
	{
		if howMany == -1 {
			howMany = len(mp.pool)
		}

		for key, tx := range mp.pool {
			account := transaction.AccountID(strings.Split(key, ":")[0])
			m[account] = append(m[account], tx)
		}
	}
	mp.mu.RUnlock()

	return mp.selectFn(m, howMany)
}

// =============================================================================

// mapKey is used to generate the map key.
func mapKey(tx transaction.MeteredTx) (string, error) {
	account, err := tx.FromAccount()
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s:%d", account, tx.Nonce), nil
}

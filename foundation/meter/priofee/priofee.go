// Package priofee tracks the priority fees paid by the transactions of
// recently produced blocks. Submitters query it to choose a bid with a
// realistic chance of inclusion.
package priofee

import (
	"sort"
	"sync"
)

// DefaultDepth is the number of recent blocks kept when no depth is
// configured.
const DefaultDepth = 150

// BlockFees summarizes the priority fees of one produced block.
type BlockFees struct {
	Block          uint64 `json:"block"`
	MinPriorityFee uint64 `json:"min_priority_fee"` // Smallest bid that landed in the block.
	MaxPriorityFee uint64 `json:"max_priority_fee"` // Largest bid that landed in the block.
	Transactions   int    `json:"transactions"`
}

// Cache keeps a sliding window of per-block fee summaries.
type Cache struct {
	mu     sync.RWMutex
	window []BlockFees
	depth  int
}

// NewCache constructs a cache holding the specified number of recent blocks.
func NewCache(depth int) *Cache {
	if depth <= 0 {
		depth = DefaultDepth
	}

	return &Cache{
		depth: depth,
	}
}

// Record folds one produced block's priority fees into the window. A block
// with no transactions is recorded with zero fees so utilization gaps stay
// visible to queries.
func (c *Cache) Record(block uint64, bids []uint64) {
	bf := BlockFees{
		Block:        block,
		Transactions: len(bids),
	}

	for i, bid := range bids {
		if i == 0 || bid < bf.MinPriorityFee {
			bf.MinPriorityFee = bid
		}
		if bid > bf.MaxPriorityFee {
			bf.MaxPriorityFee = bid
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.window = append(c.window, bf)
	if len(c.window) > c.depth {
		c.window = c.window[len(c.window)-c.depth:]
	}
}

// Recent returns the fee summaries for the blocks in the window, oldest
// first.
func (c *Cache) Recent() []BlockFees {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]BlockFees, len(c.window))
	copy(out, c.window)

	return out
}

// SuggestedBid returns the median of the minimum landing bids across the
// window. Bidding at or above it would have landed in at least half of the
// recent blocks.
func (c *Cache) SuggestedBid() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.window) == 0 {
		return 0
	}

	mins := make([]uint64, len(c.window))
	for i, bf := range c.window {
		mins[i] = bf.MinPriorityFee
	}
	sort.Slice(mins, func(i, j int) bool { return mins[i] < mins[j] })

	return mins[len(mins)/2]
}

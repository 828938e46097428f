// Package epoch owns the lamports-per-compute-unit rate in effect for the
// current epoch. The rate is written at most once per epoch and read without
// locking by any number of concurrent quoting calls.
package epoch

import (
	"fmt"
	"sync/atomic"

	"github.com/lamportlabs/feemeter/foundation/meter/fee"
)

// Number identifies an epoch.
type Number uint64

// epochRate pairs an epoch with the rate finalized for it. The pair is
// swapped as a unit so readers never observe a torn update.
type epochRate struct {
	epoch Number
	rate  fee.Rate
}

// Oracle provides read access to the current epoch rate. The rate itself is
// finalized externally, by an off-chain aggregation of validator votes; the
// oracle only stores the outcome.
type Oracle struct {
	current atomic.Pointer[epochRate]
}

// NewOracle constructs an oracle seeded with the genesis rate.
func NewOracle(epoch Number, rate fee.Rate) *Oracle {
	var o Oracle
	o.current.Store(&epochRate{epoch: epoch, rate: rate})
	return &o
}

// Rate returns the epoch currently in effect and its rate.
func (o *Oracle) Rate() (Number, fee.Rate) {
	er := o.current.Load()
	return er.epoch, er.rate
}

// Update swaps in the rate for a new epoch. The rate for an epoch is set at
// most once; updates for the current or an earlier epoch are refused.
func (o *Oracle) Update(epoch Number, rate fee.Rate) error {
	for {
		cur := o.current.Load()
		if epoch <= cur.epoch {
			return fmt.Errorf("epoch %d rate already finalized, have epoch %d", epoch, cur.epoch)
		}

		if o.current.CompareAndSwap(cur, &epochRate{epoch: epoch, rate: rate}) {
			return nil
		}
	}
}

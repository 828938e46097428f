package state

import (
	"errors"

	"github.com/lamportlabs/feemeter/foundation/meter/cost"
	"github.com/lamportlabs/feemeter/foundation/meter/epoch"
	"github.com/lamportlabs/feemeter/foundation/meter/fee"
	"github.com/lamportlabs/feemeter/foundation/meter/transaction"
)

// ErrNoTransactions indicates block production was asked for with an empty
// mempool.
var ErrNoTransactions = errors.New("no transactions in mempool")

// Proposal represents the set of transactions selected for the next block
// along with the block-level cost accounting behind the selection.
type Proposal struct {
	Block             uint64                  `json:"block"`
	Transactions      []transaction.MeteredTx `json:"transactions"`
	TotalComputeUnits uint64                  `json:"total_compute_units"`
	Utilization       uint64                  `json:"utilization"` // Block fill in percent after this proposal.
}

// ProposeBlock selects the best-paying transactions that fit the block cost
// limits, removes them from the mempool, and records the block's priority
// fees and utilization for rate proposals. Candidates that do not fit stay
// in the mempool for a later block.
func (s *State) ProposeBlock() (Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidates := s.mempool.PickBest(int(s.genesis.TransPerBlock))
	if len(candidates) == 0 {
		return Proposal{}, ErrNoTransactions
	}

	tracker, err := cost.NewTracker(s.genesis.BlockMaxComputeUnits, s.genesis.AccountMaxComputeUnits)
	if err != nil {
		return Proposal{}, err
	}

	var selected []transaction.MeteredTx
	var bids []uint64
	skipped := make(map[transaction.AccountID]bool)

	for _, tx := range candidates {
		from, err := tx.FromAccount()
		if err != nil {
			s.mempool.Delete(tx)
			continue
		}

		// Once one of an account's transactions is skipped for cost, its
		// later nonces must wait for a later block too. Including them
		// would break the per-account nonce order the selector guarantees.
		if skipped[from] {
			continue
		}

		accounts := []transaction.AccountID{from, tx.ToID}
		if err := tracker.Add(accounts, tx.Quote.TotalComputeUnits); err != nil {
			s.evHandler("state: propose block: tx[%s] skipped: %s", tx, err)
			skipped[from] = true
			continue
		}

		s.mempool.Delete(tx)
		selected = append(selected, tx)
		bids = append(bids, tx.PriorityFee)
	}

	if len(selected) == 0 {
		return Proposal{}, ErrNoTransactions
	}

	s.block++
	s.fees.Record(s.block, bids)
	s.pricer.Record(tracker.BlockCost(), tracker.BlockMax())

	proposal := Proposal{
		Block:             s.block,
		Transactions:      selected,
		TotalComputeUnits: tracker.BlockCost(),
		Utilization:       tracker.BlockCost() * 100 / tracker.BlockMax(),
	}

	s.evHandler("state: propose block: block[%d] txs[%d] units[%d/%d]", proposal.Block, len(selected), tracker.BlockCost(), tracker.BlockMax())

	return proposal, nil
}

// ProposedRate returns the rate this node would vote for the next epoch,
// derived from recent block utilization.
func (s *State) ProposedRate() (fee.Rate, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pricer.Proposed(), s.pricer.Utilization()
}

// AdvanceEpoch moves the node into the next epoch using the pricer's
// proposed rate. In a full deployment the rate comes back from the off-chain
// vote aggregation instead; this path keeps a single node's rate floating
// with its own utilization.
func (s *State) AdvanceEpoch() (epoch.Number, fee.Rate, error) {
	s.mu.Lock()
	proposed := s.pricer.Proposed()
	s.mu.Unlock()

	number, _ := s.oracle.Rate()
	next := number + 1

	if err := s.oracle.Update(next, proposed); err != nil {
		return 0, 0, err
	}

	s.evHandler("state: advance epoch: epoch[%d] rate[%d]", next, proposed)

	return next, proposed, nil
}

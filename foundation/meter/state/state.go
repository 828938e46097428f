// Package state is the core API for the metering node. It owns the protocol
// parameters, the epoch rate, the mempool of metered transactions, and the
// block-production bookkeeping, and implements the business rules tying them
// together.
package state

import (
	"fmt"
	"sync"

	"github.com/lamportlabs/feemeter/foundation/meter/admission"
	"github.com/lamportlabs/feemeter/foundation/meter/budget"
	"github.com/lamportlabs/feemeter/foundation/meter/epoch"
	"github.com/lamportlabs/feemeter/foundation/meter/fee"
	"github.com/lamportlabs/feemeter/foundation/meter/genesis"
	"github.com/lamportlabs/feemeter/foundation/meter/mempool"
	"github.com/lamportlabs/feemeter/foundation/meter/priofee"
	"github.com/lamportlabs/feemeter/foundation/meter/transaction"
)

// EventHandler defines a function that is called when events occur in the
// processing of transactions and blocks.
type EventHandler func(v string, args ...any)

// =============================================================================

// Config represents the configuration required to start the metering node.
type Config struct {
	Genesis        genesis.Genesis
	SelectStrategy string
	FeeDepth       int
	EvHandler      EventHandler
}

// State manages the metering node.
type State struct {
	genesis   genesis.Genesis
	policy    fee.Policy
	admPolicy admission.Policy
	oracle    *epoch.Oracle
	mempool   *mempool.Mempool
	fees      *priofee.Cache
	evHandler EventHandler

	// Block production is single threaded; the mutex covers the pricer and
	// block counter against concurrent private API calls.
	mu     sync.Mutex
	pricer *epoch.Pricer
	block  uint64
}

// New constructs a new metering node state from the genesis parameters.
func New(cfg Config) (*State, error) {
	policy, err := fee.NewPolicy(budget.NewCeilings(cfg.Genesis.Ceilings), cfg.Genesis.WeightVersion, cfg.Genesis.BurnBasisPoints)
	if err != nil {
		return nil, fmt.Errorf("constructing fee policy: %w", err)
	}

	mp, err := mempool.NewWithStrategy(cfg.SelectStrategy)
	if err != nil {
		return nil, fmt.Errorf("constructing mempool: %w", err)
	}

	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	rate := fee.Rate(cfg.Genesis.LamportsPerCU)

	s := State{
		genesis:   cfg.Genesis,
		policy:    policy,
		admPolicy: admission.Policy{ChargeOnRuntimeFailure: cfg.Genesis.ChargeOnRuntimeFailure},
		oracle:    epoch.NewOracle(epoch.Number(cfg.Genesis.Epoch), rate),
		mempool:   mp,
		fees:      priofee.NewCache(cfg.FeeDepth),
		evHandler: ev,
		pricer:    epoch.NewPricer(rate),
	}

	return &s, nil
}

// Genesis returns a copy of the genesis information.
func (s *State) Genesis() genesis.Genesis {
	return s.genesis
}

// Rate returns the epoch currently in effect and its lamports-per-CU rate.
func (s *State) Rate() (epoch.Number, fee.Rate) {
	return s.oracle.Rate()
}

// UpdateRate applies an externally finalized rate for a new epoch.
func (s *State) UpdateRate(number epoch.Number, rate fee.Rate) error {
	if err := s.oracle.Update(number, rate); err != nil {
		return err
	}

	s.evHandler("state: rate update: epoch[%d] rate[%d]", number, rate)
	return nil
}

// QuoteFee resolves the compute-budget instructions into a budget and prices
// it at the current epoch rate. The quote depends only on the instructions
// and the rate, so submitters can pre-compute it themselves.
func (s *State) QuoteFee(instructions []budget.Instruction) (budget.Budget, fee.Quote, error) {
	b, err := budget.FromInstructions(instructions, s.genesis.Defaults, s.policy.Ceilings())
	if err != nil {
		return budget.Budget{}, fee.Quote{}, err
	}

	_, rate := s.oracle.Rate()
	quote, err := s.policy.Quote(b, rate)
	if err != nil {
		return budget.Budget{}, fee.Quote{}, err
	}

	return b, quote, nil
}

// NewMeter constructs the per-transaction meter the execution engine reports
// consumption increments to.
func (s *State) NewMeter(b budget.Budget) (*admission.Meter, error) {
	return admission.New(b, s.policy.Ceilings(), s.admPolicy)
}

// SubmitTransaction validates the signed transaction, quotes its declared
// budget at the current rate, and admits it to the mempool.
func (s *State) SubmitTransaction(signedTx transaction.SignedTx) (transaction.MeteredTx, error) {
	if err := signedTx.Validate(s.genesis.ChainID); err != nil {
		return transaction.MeteredTx{}, err
	}

	b, quote, err := s.QuoteFee(signedTx.Instructions)
	if err != nil {
		return transaction.MeteredTx{}, err
	}

	tx := transaction.NewMeteredTx(signedTx, b, quote)

	n, err := s.mempool.Upsert(tx)
	if err != nil {
		return transaction.MeteredTx{}, err
	}

	s.evHandler("state: submit tran: tx[%s] units[%d] base[%d] bid[%d] pool[%d]", tx, quote.TotalComputeUnits, quote.BaseFeeLamports, tx.PriorityFee, n)

	return tx, nil
}

// Mempool returns a copy of the mempool in the selection order.
func (s *State) Mempool() []transaction.MeteredTx {
	return s.mempool.PickBest(-1)
}

// MempoolCount returns the number of transactions waiting for inclusion.
func (s *State) MempoolCount() int {
	return s.mempool.Count()
}

// RecentFees returns the priority-fee summaries of recently produced blocks.
func (s *State) RecentFees() []priofee.BlockFees {
	return s.fees.Recent()
}

// SuggestedBid returns a priority-fee bid that would have landed in at least
// half of the recent blocks.
func (s *State) SuggestedBid() uint64 {
	return s.fees.SuggestedBid()
}

// Package fee implements the deterministic base-fee computation for a
// transaction's declared resource budget. A quote is a pure function of the
// budget and the epoch rate: no wall-clock, cache, or machine-load input is
// ever consulted, so identical inputs always produce identical quotes.
package fee

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/lamportlabs/feemeter/foundation/meter/budget"
	"github.com/lamportlabs/feemeter/foundation/meter/weight"
)

// Rate represents the lamports charged per compute unit for the epoch in
// effect. The value is owned by the epoch oracle and passed in explicitly.
type Rate uint64

// basisPoints is the denominator for the burn/reward split.
const basisPoints = 10_000

// ErrOverflow indicates the base fee cannot be represented in 64 bits. The
// protocol ceilings keep honest budgets far away from this bound.
var ErrOverflow = errors.New("fee computation overflows")

// =============================================================================

// Quote is the fee breakdown for a transaction's declared budget. The burn
// and reward portions always sum to the base fee exactly.
type Quote struct {
	TotalComputeUnits uint64 `json:"total_compute_units"`
	BaseFeeLamports   uint64 `json:"base_fee_lamports"`
	BurnLamports      uint64 `json:"burn_lamports"`
	RewardLamports    uint64 `json:"reward_lamports"`
}

// =============================================================================

// Policy carries the protocol parameters a quote depends on: the per-dimension
// ceilings, the versioned combination strategy, and the burn/reward split.
type Policy struct {
	ceilings budget.Ceilings
	combine  weight.CombineFunc
	burnBps  uint64
}

// NewPolicy constructs a quoting policy. A split of zero burn basis points
// would reward validators with 100% of the base fee, which distorts the
// incentive to vote honest rates, so it is refused outright.
func NewPolicy(ceilings budget.Ceilings, weightVersion string, burnBps uint64) (Policy, error) {
	combine, err := weight.Retrieve(weightVersion)
	if err != nil {
		return Policy{}, err
	}

	if burnBps == 0 {
		return Policy{}, errors.New("burn basis points must be greater than zero")
	}
	if burnBps > basisPoints {
		return Policy{}, fmt.Errorf("burn basis points %d exceed %d", burnBps, basisPoints)
	}

	p := Policy{
		ceilings: ceilings,
		combine:  combine,
		burnBps:  burnBps,
	}

	return p, nil
}

// Ceilings returns the protocol per-dimension caps in effect.
func (p Policy) Ceilings() budget.Ceilings {
	return p.ceilings
}

// Quote validates the declared budget against the protocol ceilings, folds
// the dimensions into a compute-unit total, and prices that total at the
// specified epoch rate. The function is pure: it has no side effects and
// depends on nothing beyond its inputs.
func (p Policy) Quote(b budget.Budget, rate Rate) (Quote, error) {
	if err := b.Validate(p.ceilings); err != nil {
		return Quote{}, err
	}

	total, err := p.combine(b)
	if err != nil {
		return Quote{}, fmt.Errorf("combining dimensions: %w", err)
	}

	hi, base := bits.Mul64(total, uint64(rate))
	if hi != 0 {
		return Quote{}, fmt.Errorf("%d units at rate %d: %w", total, rate, ErrOverflow)
	}

	// The split is exact integer arithmetic. The reward takes whatever the
	// burn truncation leaves behind so the two always sum to the base fee.
	burn := mulDiv(base, p.burnBps, basisPoints)
	quote := Quote{
		TotalComputeUnits: total,
		BaseFeeLamports:   base,
		BurnLamports:      burn,
		RewardLamports:    base - burn,
	}

	return quote, nil
}

// mulDiv computes v*num/den using 128 bit intermediate math so the burn
// portion never wraps for large base fees.
func mulDiv(v uint64, num uint64, den uint64) uint64 {
	hi, lo := bits.Mul64(v, num)
	q, _ := bits.Div64(hi, lo, den)
	return q
}

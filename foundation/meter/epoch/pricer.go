package epoch

import "github.com/lamportlabs/feemeter/foundation/meter/fee"

// Pricer tuning. The rate moves by 12.5% per adjustment: up when the moving
// average of block utilization crosses the upper bound, down when it falls
// under the lower bound. The floor keeps a string of empty blocks from
// driving the rate to zero and getting it stuck there.
const (
	priceChangeRate  = 125
	priceChangeScale = 1_000

	utilizationUpperBound = 90
	utilizationLowerBound = 50

	minRate = 1
)

// Pricer proposes the next epoch's lamports-per-compute-unit rate from block
// utilization. Each produced block contributes its fill percentage to an
// exponential moving average; the proposed rate floats with that average.
// The pricer belongs to the single block-production goroutine and is not
// safe for concurrent use.
type Pricer struct {
	utilization ema
	rate        fee.Rate
}

// NewPricer constructs a pricer starting from the current epoch rate.
func NewPricer(rate fee.Rate) *Pricer {
	return &Pricer{
		rate: rate,
	}
}

// Record folds one block's cost into the utilization average and adjusts the
// proposed rate when the average sits outside the target band.
func (p *Pricer) Record(blockCost uint64, blockCostLimit uint64) {
	if blockCostLimit == 0 {
		return
	}

	p.utilization.aggregate(blockCost * 100 / blockCostLimit)

	switch avg := p.utilization.value(); {
	case avg >= utilizationUpperBound:

		// Apply the raise to at least 8 units so integer truncation cannot
		// pin a small rate in place under sustained demand.
		base := max(uint64(p.rate), 8)
		p.rate = fee.Rate((priceChangeScale + priceChangeRate) * base / priceChangeScale)

	case avg <= utilizationLowerBound:
		p.rate = fee.Rate((priceChangeScale - priceChangeRate) * uint64(p.rate) / priceChangeScale)
		if p.rate < minRate {
			p.rate = minRate
		}
	}
}

// Proposed returns the rate this node would vote for the next epoch.
func (p *Pricer) Proposed() fee.Rate {
	return p.rate
}

// Utilization returns the current moving average of block fill percentage.
func (p *Pricer) Utilization() uint64 {
	return p.utilization.value()
}

// =============================================================================

// emaAlphaN sets the smoothing window of the utilization average to roughly
// the last 16 blocks.
const emaAlphaN = 16

// ema maintains an exponential moving average over integer percentages.
type ema struct {
	avg    uint64
	primed bool
}

// aggregate folds a new sample into the average.
func (e *ema) aggregate(sample uint64) {
	if !e.primed {
		e.avg = sample
		e.primed = true
		return
	}

	e.avg = (sample + (emaAlphaN-1)*e.avg) / emaAlphaN
}

// value returns the current average.
func (e *ema) value() uint64 {
	return e.avg
}

// Package weight provides the versioned strategies for combining the six
// resource dimensions of a budget into a single compute-unit total. The
// combination formula is still being tuned by the protocol, so callers select
// a strategy by version name and never touch the formula directly.
package weight

import (
	"fmt"
	"math/bits"

	"github.com/lamportlabs/feemeter/foundation/meter/budget"
)

// List of different combination strategy versions.
const (
	VersionSum      = "sum:v1"
	VersionWeighted = "weighted:v1"
)

// Map of different combination strategies with functions.
var strategies = map[string]CombineFunc{
	VersionSum:      sumCombine,
	VersionWeighted: weightedCombine,
}

// CombineFunc defines a function that folds the declared per-dimension limits
// of a budget into one compute-unit total. Implementations MUST be pure and
// elementwise monotone: raising any dimension never lowers the total.
type CombineFunc func(b budget.Budget) (uint64, error)

// Retrieve returns the combination strategy for the specified version.
func Retrieve(version string) (CombineFunc, error) {
	fn, exists := strategies[version]
	if !exists {
		return nil, fmt.Errorf("weight version %q does not exist", version)
	}
	return fn, nil
}

// =============================================================================

// sumCombine treats every dimension as already denominated in compute units
// and takes the straight sum.
var sumCombine = func(b budget.Budget) (uint64, error) {
	var total uint64
	for _, dim := range budget.Dimensions {
		var carry uint64
		total, carry = bits.Add64(total, b.Get(dim), 0)
		if carry != 0 {
			return 0, fmt.Errorf("compute unit total overflows dimension %s", dim)
		}
	}

	return total, nil
}

// weightScale is the fixed-point denominator for the per-dimension weights
// used by the weighted strategy.
const weightScale = 1_000

// weights holds the per-dimension multipliers over weightScale. Execution and
// account access carry more of the leader's real cost than raw footprint
// dimensions, so they weigh heavier.
var weights = map[budget.Dimension]uint64{
	budget.Signatures:    1_000,
	budget.Execution:     1_250,
	budget.AccountAccess: 1_250,
	budget.Memory:        500,
	budget.StorageGrowth: 1_000,
	budget.Network:       750,
}

// weightedCombine applies the per-dimension multipliers before summing.
var weightedCombine = func(b budget.Budget) (uint64, error) {
	var total uint64
	for _, dim := range budget.Dimensions {
		hi, lo := bits.Mul64(b.Get(dim), weights[dim])
		if hi != 0 {
			return 0, fmt.Errorf("weighted units overflow dimension %s", dim)
		}

		var carry uint64
		total, carry = bits.Add64(total, lo/weightScale, 0)
		if carry != 0 {
			return 0, fmt.Errorf("compute unit total overflows dimension %s", dim)
		}
	}

	return total, nil
}

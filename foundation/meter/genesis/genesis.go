// Package genesis maintains access to the genesis file holding the protocol
// parameters the metering engine runs under.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/lamportlabs/feemeter/foundation/meter/budget"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date                   time.Time     `json:"date"`
	ChainID                uint16        `json:"chain_id"`                  // Unique id for this running network.
	Epoch                  uint64        `json:"epoch"`                     // Epoch the genesis rate takes effect in.
	LamportsPerCU          uint64        `json:"lamports_per_cu"`           // Rate in effect until the first vote finalizes.
	BurnBasisPoints        uint64        `json:"burn_basis_points"`         // Portion of the base fee that is burned, out of 10,000.
	WeightVersion          string        `json:"weight_version"`            // Version of the dimension combination formula.
	Ceilings               budget.Budget `json:"ceilings"`                  // Protocol per-dimension caps.
	Defaults               budget.Budget `json:"defaults"`                  // Per-dimension limits for dimensions a transaction never requests.
	BlockMaxComputeUnits   uint64        `json:"block_max_compute_units"`   // Total compute units a block may carry.
	AccountMaxComputeUnits uint64        `json:"account_max_compute_units"` // Compute units chained to a single account within a block.
	TransPerBlock          uint16        `json:"trans_per_block"`           // Maximum number of transactions in a block.
	ChargeOnRuntimeFailure bool          `json:"charge_on_runtime_failure"` // Whether overrunning transactions still pay the base fee.
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	if err := genesis.validate(); err != nil {
		return Genesis{}, fmt.Errorf("genesis file %s: %w", path, err)
	}

	return genesis, nil
}

// validate checks the parameters hold together well enough to start a node.
func (g Genesis) validate() error {
	if g.LamportsPerCU == 0 {
		return fmt.Errorf("lamports per compute unit must be set")
	}

	if g.BurnBasisPoints == 0 || g.BurnBasisPoints > 10_000 {
		return fmt.Errorf("burn basis points %d out of range (1-10000]", g.BurnBasisPoints)
	}

	if g.WeightVersion == "" {
		return fmt.Errorf("weight version must be set")
	}

	if g.AccountMaxComputeUnits > g.BlockMaxComputeUnits {
		return fmt.Errorf("account limit %d exceeds block limit %d", g.AccountMaxComputeUnits, g.BlockMaxComputeUnits)
	}

	return nil
}

// Package budget defines the per-transaction resource declaration and the
// protocol ceilings it is validated against. All dimensions are denominated
// in compute units.
package budget

import (
	"errors"
	"fmt"
)

// These errors cover the two ways a declaration can be refused before any
// execution takes place. Both are final for the transaction attempt; a
// submitter who wants different limits must construct and sign a new
// transaction.
var (
	ErrInvalidDeclaration      = errors.New("invalid resource declaration")
	ErrLimitExceededPreRuntime = errors.New("declared limit exceeds protocol ceiling")
)

// Dimension identifies one of the tracked resource dimensions.
type Dimension int

// The set of resource dimensions a transaction declares limits for.
const (
	Signatures Dimension = iota
	Execution
	AccountAccess
	Memory
	StorageGrowth
	Network
)

// Dimensions lists every tracked dimension in declaration order.
var Dimensions = []Dimension{Signatures, Execution, AccountAccess, Memory, StorageGrowth, Network}

// ParseDimension converts the string form of a dimension, as used by the web
// API and tooling, into its Dimension value.
func ParseDimension(s string) (Dimension, error) {
	for _, dim := range Dimensions {
		if dim.String() == s {
			return dim, nil
		}
	}

	return 0, fmt.Errorf("dimension %q: %w", s, ErrInvalidDeclaration)
}

// String implements the fmt.Stringer interface for logging.
func (d Dimension) String() string {
	switch d {
	case Signatures:
		return "signatures"
	case Execution:
		return "execution"
	case AccountAccess:
		return "account_access"
	case Memory:
		return "memory"
	case StorageGrowth:
		return "storage_growth"
	case Network:
		return "network"
	}
	return "unknown"
}

// =============================================================================

// Budget declares, per transaction, an upper bound for each tracked resource
// dimension. A zero value is a valid declaration meaning the transaction does
// not use that dimension. A Budget is immutable once the transaction carrying
// it has been signed.
type Budget struct {
	Signatures    uint64 `json:"signatures"`     // Cost of verifying the transaction signatures.
	Execution     uint64 `json:"execution"`      // VM execution cost.
	AccountAccess uint64 `json:"account_access"` // Account load/store cost.
	Memory        uint64 `json:"memory"`         // Memory footprint.
	StorageGrowth uint64 `json:"storage_growth"` // Persistent storage growth.
	Network       uint64 `json:"network"`        // Network ingress/egress.
}

// Get returns the declared limit for the specified dimension.
func (b Budget) Get(dim Dimension) uint64 {
	switch dim {
	case Signatures:
		return b.Signatures
	case Execution:
		return b.Execution
	case AccountAccess:
		return b.AccountAccess
	case Memory:
		return b.Memory
	case StorageGrowth:
		return b.StorageGrowth
	case Network:
		return b.Network
	}
	return 0
}

// set assigns the declared limit for the specified dimension.
func (b *Budget) set(dim Dimension, units uint64) {
	switch dim {
	case Signatures:
		b.Signatures = units
	case Execution:
		b.Execution = units
	case AccountAccess:
		b.AccountAccess = units
	case Memory:
		b.Memory = units
	case StorageGrowth:
		b.StorageGrowth = units
	case Network:
		b.Network = units
	}
}

// Validate checks every declared limit sits at or below the protocol ceiling
// for its dimension. A budget failing this check is rejected before any
// execution work is performed.
func (b Budget) Validate(ceilings Ceilings) error {
	for _, dim := range Dimensions {
		declared := b.Get(dim)
		ceiling := ceilings.Budget.Get(dim)
		if declared > ceiling {
			return fmt.Errorf("dimension %s declared %d ceiling %d: %w", dim, declared, ceiling, ErrLimitExceededPreRuntime)
		}
	}

	return nil
}

// =============================================================================

// Ceilings represents the protocol-wide per-dimension caps. The values come
// from the genesis file and do not change within an epoch.
type Ceilings struct {
	Budget
}

// NewCeilings constructs the protocol ceilings from per-dimension caps.
func NewCeilings(b Budget) Ceilings {
	return Ceilings{Budget: b}
}

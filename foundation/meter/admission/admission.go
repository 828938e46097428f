// Package admission implements the metering lifecycle for a single
// transaction attempt. A meter is created from the declared budget, passes or
// fails the static pre-check, then receives consumption increments from the
// execution engine until the transaction completes or overruns a declared
// limit. Every state except Admitted is terminal.
package admission

import (
	"errors"
	"fmt"

	"github.com/lamportlabs/feemeter/foundation/meter/budget"
)

// ErrLimitExceededDuringRuntime indicates execution consumed more than the
// transaction declared. The failure is immediate and final; any retry is a
// new transaction constructed by the submitter.
var ErrLimitExceededDuringRuntime = errors.New("consumption exceeds declared limit")

// Status represents where a transaction attempt sits in the metering
// lifecycle.
type Status int

// The set of lifecycle states. Admitted is the only state that transitions;
// it does so exactly once.
const (
	Declared Status = iota
	Admitted
	RejectedPreRuntime
	Completed
	FailedDuringRuntime
)

// String implements the fmt.Stringer interface for logging.
func (s Status) String() string {
	switch s {
	case Declared:
		return "Declared"
	case Admitted:
		return "Admitted"
	case RejectedPreRuntime:
		return "RejectedPreRuntime"
	case Completed:
		return "Completed"
	case FailedDuringRuntime:
		return "FailedDuringRuntime"
	}
	return "Unknown"
}

// =============================================================================

// Policy holds the configuration for behavior the protocol has not pinned
// down. Whether a payer is charged when execution overruns the declared
// budget is still an open economic question; leaving overruns free of charge
// lets a submitter force leaders into unpaid work, so charging is the
// default. Pre-runtime rejections sit outside the flag's scope: a
// transaction refused before any execution never landed and never pays.
type Policy struct {
	ChargeOnRuntimeFailure bool
}

// DefaultPolicy returns the policy in effect unless the genesis overrides it.
func DefaultPolicy() Policy {
	return Policy{ChargeOnRuntimeFailure: true}
}

// =============================================================================

// Verdict is the final outcome of metering one transaction attempt.
type Verdict struct {
	Status    Status           `json:"status"`
	Dimension budget.Dimension `json:"dimension,omitempty"` // Dimension that failed, when one did.
	ChargeFee bool             `json:"charge_fee"`          // Whether the payer owes the base fee.
}

// =============================================================================

// Meter tracks cumulative consumption for one transaction against its
// declared budget. A meter belongs to the single execution goroutine running
// that transaction; cross-transaction parallelism is the execution engine's
// concern, so no locking happens here.
type Meter struct {
	declared budget.Budget
	consumed budget.Budget
	status   Status
	failed   budget.Dimension
	policy   Policy
}

// New constructs a meter for the declared budget and runs the static
// pre-execution check against the protocol ceilings. A budget above any
// ceiling produces a meter already in RejectedPreRuntime along with the
// rejection error.
func New(declared budget.Budget, ceilings budget.Ceilings, policy Policy) (*Meter, error) {
	m := Meter{
		declared: declared,
		status:   Declared,
		policy:   policy,
	}

	if err := declared.Validate(ceilings); err != nil {
		m.status = RejectedPreRuntime
		return &m, err
	}

	m.status = Admitted
	return &m, nil
}

// Consume records an execution consumption increment for one dimension. The
// moment the cumulative total for any dimension would exceed its declared
// limit, the meter fails the transaction. The recorded consumption is capped
// at the declared limit; the size of the overrunning increment is only
// reported in the error.
func (m *Meter) Consume(dim budget.Dimension, units uint64) error {
	if m.status != Admitted {
		return fmt.Errorf("meter in terminal state %s", m.status)
	}

	limit := m.declared.Get(dim)
	used := m.consumed.Get(dim)

	if units > limit-used {
		m.consume(dim, limit-used)
		m.status = FailedDuringRuntime
		m.failed = dim
		return fmt.Errorf("dimension %s consumed %d+%d declared %d: %w", dim, used, units, limit, ErrLimitExceededDuringRuntime)
	}

	m.consume(dim, units)
	return nil
}

// Complete finalizes an admitted meter after execution finished within every
// declared limit.
func (m *Meter) Complete() error {
	if m.status != Admitted {
		return fmt.Errorf("meter in terminal state %s", m.status)
	}

	m.status = Completed
	return nil
}

// Status returns the current lifecycle state.
func (m *Meter) Status() Status {
	return m.status
}

// Consumed returns the cumulative recorded consumption per dimension.
func (m *Meter) Consumed() budget.Budget {
	return m.consumed
}

// Verdict reports the outcome of this transaction attempt, resolving the
// charge-on-failure policy. A pre-runtime rejection never charges: no leader
// work was wasted and the quote was never owed.
func (m *Meter) Verdict() Verdict {
	v := Verdict{
		Status: m.status,
	}

	switch m.status {
	case Completed:
		v.ChargeFee = true
	case FailedDuringRuntime:
		v.Dimension = m.failed
		v.ChargeFee = m.policy.ChargeOnRuntimeFailure
	}

	return v
}

// consume adds units to the cumulative total for the dimension.
func (m *Meter) consume(dim budget.Dimension, units uint64) {
	switch dim {
	case budget.Signatures:
		m.consumed.Signatures += units
	case budget.Execution:
		m.consumed.Execution += units
	case budget.AccountAccess:
		m.consumed.AccountAccess += units
	case budget.Memory:
		m.consumed.Memory += units
	case budget.StorageGrowth:
		m.consumed.StorageGrowth += units
	case budget.Network:
		m.consumed.Network += units
	}
}

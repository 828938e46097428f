package public

import (
	"github.com/lamportlabs/feemeter/foundation/meter/budget"
	"github.com/lamportlabs/feemeter/foundation/meter/fee"
	"github.com/lamportlabs/feemeter/foundation/meter/transaction"
)

// appInstruction represents a compute-budget instruction as submitted over
// the API. Dimensions travel by name.
type appInstruction struct {
	Kind  string `json:"kind" validate:"required"`
	Units uint64 `json:"units"`
}

// appQuoteRequest is the payload for quoting a budget without submitting a
// transaction. An empty instruction list quotes the protocol defaults.
type appQuoteRequest struct {
	Instructions []appInstruction `json:"instructions"`
}

// appBudget represents the resolved budget in the API responses.
type appBudget struct {
	Signatures    uint64 `json:"signatures"`
	Execution     uint64 `json:"execution"`
	AccountAccess uint64 `json:"account_access"`
	Memory        uint64 `json:"memory"`
	StorageGrowth uint64 `json:"storage_growth"`
	Network       uint64 `json:"network"`
}

// appQuote is the fee breakdown returned to the caller.
type appQuote struct {
	TotalComputeUnits uint64 `json:"total_compute_units"`
	BaseFeeLamports   uint64 `json:"base_fee_lamports"`
	BurnLamports      uint64 `json:"burn_lamports"`
	RewardLamports    uint64 `json:"reward_lamports"`
}

// appQuoteResponse carries the resolved budget and its quote.
type appQuoteResponse struct {
	Budget appBudget `json:"budget"`
	Quote  appQuote  `json:"quote"`
}

// appSubmitResponse reports a transaction admitted to the mempool.
type appSubmitResponse struct {
	Tx    string    `json:"tx"`
	Quote appQuote  `json:"quote"`
	Pool  int       `json:"pool"`
	Bid   uint64    `json:"bid"`
	From  string    `json:"from"`
	Sig   string    `json:"sig"`
	Bud   appBudget `json:"budget"`
}

// =============================================================================

// toInstructions converts the API instruction list to the budget form.
func toInstructions(app []appInstruction) ([]budget.Instruction, error) {
	instructions := make([]budget.Instruction, len(app))
	for i, ins := range app {
		dim, err := budget.ParseDimension(ins.Kind)
		if err != nil {
			return nil, err
		}
		instructions[i] = budget.SetLimit(dim, ins.Units)
	}

	return instructions, nil
}

// toAppBudget converts a budget to its API form.
func toAppBudget(b budget.Budget) appBudget {
	return appBudget{
		Signatures:    b.Signatures,
		Execution:     b.Execution,
		AccountAccess: b.AccountAccess,
		Memory:        b.Memory,
		StorageGrowth: b.StorageGrowth,
		Network:       b.Network,
	}
}

// toAppQuote converts a quote to its API form.
func toAppQuote(q fee.Quote) appQuote {
	return appQuote{
		TotalComputeUnits: q.TotalComputeUnits,
		BaseFeeLamports:   q.BaseFeeLamports,
		BurnLamports:      q.BurnLamports,
		RewardLamports:    q.RewardLamports,
	}
}

// toAppSubmit converts an admitted transaction to its API form.
func toAppSubmit(tx transaction.MeteredTx, pool int) appSubmitResponse {
	from, err := tx.FromAccount()
	if err != nil {
		from = "unknown"
	}

	return appSubmitResponse{
		Tx:    tx.String(),
		Quote: toAppQuote(tx.Quote),
		Pool:  pool,
		Bid:   tx.PriorityFee,
		From:  string(from),
		Sig:   tx.SignatureString(),
		Bud:   toAppBudget(tx.Budget),
	}
}

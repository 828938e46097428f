// Package private maintains the group of handlers for node-operator access.
package private

import (
	"context"
	"errors"
	"net/http"

	v1 "github.com/lamportlabs/feemeter/business/web/v1"
	"github.com/lamportlabs/feemeter/foundation/meter/epoch"
	"github.com/lamportlabs/feemeter/foundation/meter/fee"
	"github.com/lamportlabs/feemeter/foundation/meter/state"
	"github.com/lamportlabs/feemeter/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of private endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// Status returns the node's metering status.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	epochNum, rate := h.State.Rate()
	proposed, utilization := h.State.ProposedRate()

	resp := struct {
		Epoch        uint64 `json:"epoch"`
		Rate         uint64 `json:"lamports_per_cu"`
		ProposedRate uint64 `json:"proposed_rate"`
		Utilization  uint64 `json:"utilization"`
		Mempool      int    `json:"mempool"`
	}{
		Epoch:        uint64(epochNum),
		Rate:         uint64(rate),
		ProposedRate: uint64(proposed),
		Utilization:  utilization,
		Mempool:      h.State.MempoolCount(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// ProposeBlock selects the next block's transactions under the block cost
// limits and records its utilization and priority fees.
func (h Handlers) ProposeBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	proposal, err := h.State.ProposeBlock()
	if err != nil {
		if errors.Is(err, state.ErrNoTransactions) {
			return v1.NewRequestError(err, http.StatusNotFound)
		}
		return err
	}

	h.Log.Infow("propose block", "traceid", v.TraceID, "block", proposal.Block, "txs", len(proposal.Transactions), "units", proposal.TotalComputeUnits, "utilization", proposal.Utilization)

	return web.Respond(ctx, w, proposal, http.StatusOK)
}

// AdvanceEpoch moves the node into the next epoch at the pricer's proposed
// rate.
func (h Handlers) AdvanceEpoch(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	number, rate, err := h.State.AdvanceEpoch()
	if err != nil {
		return v1.NewRequestError(err, http.StatusConflict)
	}

	resp := struct {
		Epoch uint64 `json:"epoch"`
		Rate  uint64 `json:"lamports_per_cu"`
	}{
		Epoch: uint64(number),
		Rate:  uint64(rate),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// UpdateRate applies an externally finalized rate for a new epoch, as the
// vote aggregation would.
func (h Handlers) UpdateRate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var app struct {
		Epoch uint64 `json:"epoch" validate:"required"`
		Rate  uint64 `json:"lamports_per_cu" validate:"required"`
	}
	if err := web.Decode(r, &app); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	if err := h.State.UpdateRate(epoch.Number(app.Epoch), fee.Rate(app.Rate)); err != nil {
		return v1.NewRequestError(err, http.StatusConflict)
	}

	return web.Respond(ctx, w, app, http.StatusOK)
}

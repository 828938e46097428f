// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lamportlabs/feemeter/business/sys/validate"
	v1 "github.com/lamportlabs/feemeter/business/web/v1"
	"github.com/lamportlabs/feemeter/foundation/events"
	"github.com/lamportlabs/feemeter/foundation/meter/budget"
	"github.com/lamportlabs/feemeter/foundation/meter/state"
	"github.com/lamportlabs/feemeter/foundation/meter/transaction"
	"github.com/lamportlabs/feemeter/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of public endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Genesis returns the protocol parameters the node runs under.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.Genesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Rate returns the epoch currently in effect and its lamports-per-CU rate.
func (h Handlers) Rate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	epoch, rate := h.State.Rate()

	resp := struct {
		Epoch uint64 `json:"epoch"`
		Rate  uint64 `json:"lamports_per_cu"`
	}{
		Epoch: uint64(epoch),
		Rate:  uint64(rate),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Quote resolves a set of compute-budget instructions into a budget and
// prices it at the current rate without submitting anything.
func (h Handlers) Quote(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var app appQuoteRequest
	if err := web.Decode(r, &app); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	for _, ins := range app.Instructions {
		if err := validate.Check(ins); err != nil {
			return err
		}
	}

	instructions, err := toInstructions(app.Instructions)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	b, quote, err := h.State.QuoteFee(instructions)
	if err != nil {
		return quoteError(err)
	}

	resp := appQuoteResponse{
		Budget: toAppBudget(b),
		Quote:  toAppQuote(quote),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SubmitTransaction admits a new signed transaction to the mempool.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var signedTx transaction.SignedTx
	if err := web.Decode(r, &signedTx); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	h.Log.Infow("submit tran", "traceid", v.TraceID, "from:nonce", signedTx, "to", signedTx.ToID, "value", signedTx.Value, "bid", signedTx.PriorityFee)

	tx, err := h.State.SubmitTransaction(signedTx)
	if err != nil {
		return quoteError(err)
	}

	return web.Respond(ctx, w, toAppSubmit(tx, h.State.MempoolCount()), http.StatusOK)
}

// Mempool returns the set of uncommitted transactions in selection order.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	txs := h.State.Mempool()

	resp := make([]appSubmitResponse, len(txs))
	for i, tx := range txs {
		resp[i] = toAppSubmit(tx, len(txs))
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// RecentFees returns the priority-fee summaries of recently produced blocks.
func (h Handlers) RecentFees(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RecentFees(), http.StatusOK)
}

// SuggestedBid returns a priority-fee bid likely to land.
func (h Handlers) SuggestedBid(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := struct {
		SuggestedBid uint64 `json:"suggested_bid"`
	}{
		SuggestedBid: h.State.SuggestedBid(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Events handles a web socket to provide metering events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case event, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteJSON(event); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// =============================================================================

// quoteError maps the metering error taxonomy to request errors. Every
// rejection the meter produces is the submitter's to fix, so they all come
// back as 4xx.
func quoteError(err error) error {
	switch {
	case errors.Is(err, budget.ErrInvalidDeclaration):
		return v1.NewRequestError(err, http.StatusBadRequest)
	case errors.Is(err, budget.ErrLimitExceededPreRuntime):
		return v1.NewRequestError(err, http.StatusUnprocessableEntity)
	default:
		return v1.NewRequestError(err, http.StatusBadRequest)
	}
}

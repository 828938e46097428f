// Package v1 contains the full set of handler functions and routes supported
// by the v1 web api.
package v1

import (
	"net/http"

	"github.com/lamportlabs/feemeter/app/services/meterd/handlers/v1/private"
	"github.com/lamportlabs/feemeter/app/services/meterd/handlers/v1/public"
	"github.com/lamportlabs/feemeter/foundation/events"
	"github.com/lamportlabs/feemeter/foundation/meter/state"
	"github.com/lamportlabs/feemeter/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/genesis/list", pbl.Genesis)
	app.Handle(http.MethodGet, version, "/rate", pbl.Rate)
	app.Handle(http.MethodPost, version, "/fees/quote", pbl.Quote)
	app.Handle(http.MethodGet, version, "/fees/recent", pbl.RecentFees)
	app.Handle(http.MethodGet, version, "/fees/suggested", pbl.SuggestedBid)
	app.Handle(http.MethodPost, version, "/tx/submit", pbl.SubmitTransaction)
	app.Handle(http.MethodGet, version, "/tx/uncommitted/list", pbl.Mempool)
	app.Handle(http.MethodGet, version, "/events", pbl.Events)
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
	}

	app.Handle(http.MethodGet, version, "/node/status", prv.Status)
	app.Handle(http.MethodPost, version, "/node/block/propose", prv.ProposeBlock)
	app.Handle(http.MethodPost, version, "/node/epoch/advance", prv.AdvanceEpoch)
	app.Handle(http.MethodPost, version, "/node/rate", prv.UpdateRate)
}

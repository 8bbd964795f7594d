package handlers

import (
	"net/http"

	"github.com/chris/audio-market-settlement/pkg/api"
	"github.com/chris/audio-market-settlement/pkg/handlers/distributions"
	"github.com/chris/audio-market-settlement/pkg/handlers/ledger"
	"github.com/chris/audio-market-settlement/pkg/handlers/payments"
	"github.com/chris/audio-market-settlement/pkg/handlers/respond"
	"github.com/chris/audio-market-settlement/pkg/handlers/transactions"
	"github.com/chris/audio-market-settlement/pkg/handlers/wallets"
	"github.com/chris/audio-market-settlement/pkg/scheduler"
	"github.com/chris/audio-market-settlement/pkg/settlement"
	"github.com/chris/audio-market-settlement/pkg/storage"
)

// ApiHandler implements the generated server interface by composing the
// per-resource handlers.
type ApiHandler struct {
	*transactions.TransactionsHandler
	*payments.PaymentsHandler
	*wallets.WalletsHandler
	*ledger.LedgerHandler
	*distributions.DistributionsHandler
}

// Deps are the services the API is built from.
type Deps struct {
	Engine      *settlement.Engine
	Store       storage.ApiStore
	Distributor distributions.Runner
	// Scheduler queues gateway webhooks. Nil settles them inline.
	Scheduler     scheduler.Scheduler
	WebhookSecret string
}

// NewApiHandler wires the handlers. Wallet reads go through the engine so
// they hit the wallet cache.
func NewApiHandler(d Deps) *ApiHandler {
	return &ApiHandler{
		TransactionsHandler:  transactions.NewTransactionsHandler(d.Engine, d.Store),
		PaymentsHandler:      payments.NewPaymentsHandler(d.Engine, d.Scheduler, d.WebhookSecret),
		WalletsHandler:       wallets.NewWalletsHandler(d.Engine),
		LedgerHandler:        ledger.NewLedgerHandler(d.Store),
		DistributionsHandler: distributions.NewDistributionsHandler(d.Distributor),
	}
}

// Make sure we conform to the interface
var _ api.ServerInterface = (*ApiHandler)(nil)

// Healthz reports that the process is serving.
func (h *ApiHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ParamError answers requests whose path or query parameters don't parse.
func ParamError(w http.ResponseWriter, r *http.Request, err error) {
	respond.Message(w, http.StatusBadRequest, err.Error())
}

package wallets

import (
	"net/http"

	"github.com/chris/audio-market-settlement/pkg/handlers/respond"
	"github.com/chris/audio-market-settlement/pkg/mapping"
	"github.com/chris/audio-market-settlement/pkg/storage"
)

// WalletsHandler holds the dependencies for wallet-related handlers.
type WalletsHandler struct {
	Store storage.WalletStore
}

// NewWalletsHandler creates a new WalletsHandler. Passing the settlement
// engine as store reads wallets through its cache.
func NewWalletsHandler(store storage.WalletStore) *WalletsHandler {
	return &WalletsHandler{Store: store}
}

// GetWalletByUserId returns a user's balances to that user or an admin.
func (h *WalletsHandler) GetWalletByUserId(w http.ResponseWriter, r *http.Request, userId string) {
	caller, ok := respond.Caller(w, r)
	if !ok {
		return
	}
	if !caller.CanActFor(userId) {
		respond.Forbidden(w)
		return
	}

	wallet, err := h.Store.GetWallet(r.Context(), userId)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiWallet(wallet))
}

package wallets

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chris/audio-market-settlement/pkg/api"
	"github.com/chris/audio-market-settlement/pkg/middleware"
	"github.com/chris/audio-market-settlement/pkg/models"
	"github.com/chris/audio-market-settlement/pkg/storage/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGetWalletByUserId(t *testing.T) {
	wallet := &models.Wallet{UserId: "artist", AvailableBalance: 1800, PendingBalance: 200, LifetimeEarnings: 2000}

	request := func(caller *middleware.Caller) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/wallets/artist", nil)
		if caller != nil {
			req = req.WithContext(middleware.WithCaller(req.Context(), *caller))
		}
		return req
	}

	t.Run("Owner", func(t *testing.T) {
		store := mocks.NewStorage(t)
		store.On("GetWallet", mock.Anything, "artist").Return(wallet, nil)
		h := NewWalletsHandler(store)

		rr := httptest.NewRecorder()
		h.GetWalletByUserId(rr, request(&middleware.Caller{UserID: "artist"}), "artist")

		assert.Equal(t, http.StatusOK, rr.Code)
		var out api.Wallet
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
		assert.Equal(t, int64(1800), out.AvailableBalance)
		assert.Equal(t, int64(200), out.PendingBalance)
		assert.Equal(t, int64(2000), out.LifetimeEarnings)
	})

	t.Run("Admin", func(t *testing.T) {
		store := mocks.NewStorage(t)
		store.On("GetWallet", mock.Anything, "artist").Return(wallet, nil)
		h := NewWalletsHandler(store)

		rr := httptest.NewRecorder()
		h.GetWalletByUserId(rr, request(&middleware.Caller{UserID: "ops", Admin: true}), "artist")
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Someone else", func(t *testing.T) {
		h := NewWalletsHandler(mocks.NewStorage(t))
		rr := httptest.NewRecorder()
		h.GetWalletByUserId(rr, request(&middleware.Caller{UserID: "fan"}), "artist")
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("Anonymous", func(t *testing.T) {
		h := NewWalletsHandler(mocks.NewStorage(t))
		rr := httptest.NewRecorder()
		h.GetWalletByUserId(rr, request(nil), "artist")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("Storage error", func(t *testing.T) {
		store := mocks.NewStorage(t)
		store.On("GetWallet", mock.Anything, "artist").Return(nil, assert.AnError)
		h := NewWalletsHandler(store)

		rr := httptest.NewRecorder()
		h.GetWalletByUserId(rr, request(&middleware.Caller{UserID: "artist"}), "artist")
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

package distributions

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chris/audio-market-settlement/pkg/adrevenue"
	"github.com/chris/audio-market-settlement/pkg/api"
	"github.com/chris/audio-market-settlement/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runnerFunc func(start, end time.Time) (*adrevenue.Result, error)

func (f runnerFunc) Run(ctx context.Context, start, end time.Time) (*adrevenue.Result, error) {
	return f(start, end)
}

func TestRunAdRevenueDistribution(t *testing.T) {
	admin := middleware.Caller{UserID: "ops", Admin: true}
	var gotStart, gotEnd time.Time
	h := NewDistributionsHandler(runnerFunc(func(start, end time.Time) (*adrevenue.Result, error) {
		gotStart, gotEnd = start, end
		return &adrevenue.Result{PeriodKey: adrevenue.PeriodKey(start, end), TotalRevenue: 10001, CreatorPool: 4000, CreatorsPaid: 3, TotalDistributed: 4000}, nil
	}))
	h.Now = func() time.Time { return time.Date(2025, 3, 20, 8, 0, 0, 0, time.UTC) }

	request := func(body string, caller *middleware.Caller) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/distributions/ad-revenue", bytes.NewBufferString(body))
		if caller != nil {
			req = req.WithContext(middleware.WithCaller(req.Context(), *caller))
		}
		return req
	}

	t.Run("Defaults to the last closed window", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.RunAdRevenueDistribution(rr, request("", &admin))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), gotStart)
		assert.Equal(t, time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC), gotEnd)
		var out api.DistributionResult
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
		assert.Equal(t, "2025-03-01_2025-03-16", out.PeriodKey)
		assert.Equal(t, 3, out.CreatorsPaid)
	})

	t.Run("Explicit window", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.RunAdRevenueDistribution(rr, request(`{"period_start":"2025-02-16","period_end":"2025-03-01"}`, &admin))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, time.Date(2025, 2, 16, 0, 0, 0, 0, time.UTC), gotStart)
		assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), gotEnd)
	})

	t.Run("Half a window", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.RunAdRevenueDistribution(rr, request(`{"period_start":"2025-02-16"}`, &admin))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Not an admin", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.RunAdRevenueDistribution(rr, request("", &middleware.Caller{UserID: "artist"}))
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("Anonymous", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.RunAdRevenueDistribution(rr, request("", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("Errors", func(t *testing.T) {
		tests := []struct {
			name string
			err  error
			code int
		}{
			{"Invalid period", adrevenue.ErrInvalidPeriod, http.StatusBadRequest},
			{"Partial failure", assert.AnError, http.StatusInternalServerError},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				failing := NewDistributionsHandler(runnerFunc(func(start, end time.Time) (*adrevenue.Result, error) {
					return &adrevenue.Result{PeriodKey: "k"}, tc.err
				}))
				rr := httptest.NewRecorder()
				failing.RunAdRevenueDistribution(rr, request(`{"period_start":"2025-02-16","period_end":"2025-03-01"}`, &admin))
				assert.Equal(t, tc.code, rr.Code)
			})
		}
	})
}

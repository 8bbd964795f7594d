package distributions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/chris/audio-market-settlement/pkg/adrevenue"
	"github.com/chris/audio-market-settlement/pkg/api"
	"github.com/chris/audio-market-settlement/pkg/handlers/respond"
	"github.com/chris/audio-market-settlement/pkg/mapping"
)

// Runner runs an ad revenue distribution. *adrevenue.Distributor implements it.
type Runner interface {
	Run(ctx context.Context, start, end time.Time) (*adrevenue.Result, error)
}

// DistributionsHandler holds the dependencies for the admin distribution endpoint.
type DistributionsHandler struct {
	Runner Runner
	Now    func() time.Time
}

// NewDistributionsHandler creates a new DistributionsHandler.
func NewDistributionsHandler(runner Runner) *DistributionsHandler {
	return &DistributionsHandler{Runner: runner, Now: time.Now}
}

// RunAdRevenueDistribution pays out a window's creator pool. With no window
// in the body it pays the most recently closed one. Repeating a run only
// pays creators the earlier run missed.
func (h *DistributionsHandler) RunAdRevenueDistribution(w http.ResponseWriter, r *http.Request) {
	caller, ok := respond.Caller(w, r)
	if !ok {
		return
	}
	if !caller.Admin {
		respond.Forbidden(w)
		return
	}

	var body api.AdRevenueRun
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		respond.Message(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	var period adrevenue.Period
	switch {
	case body.PeriodStart == nil && body.PeriodEnd == nil:
		period = adrevenue.PreviousPeriod(h.Now())
	case body.PeriodStart != nil && body.PeriodEnd != nil:
		period = adrevenue.Period{Start: body.PeriodStart.Time, End: body.PeriodEnd.Time}
	default:
		respond.Message(w, http.StatusBadRequest, "period_start and period_end go together")
		return
	}

	res, err := h.Runner.Run(r.Context(), period.Start, period.End)
	if err != nil {
		if res != nil {
			slog.ErrorContext(r.Context(), "ad revenue distribution incomplete",
				"period", res.PeriodKey, "creators_paid", res.CreatorsPaid, "error", err)
		}
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiDistributionResult(res))
}

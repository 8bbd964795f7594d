package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/chris/audio-market-settlement/pkg/models"
	"github.com/chris/audio-market-settlement/pkg/storage"
)

// CreditAdRevenue pays a creator their share for a period in one atomic
// unit. It returns storage.ErrAlreadyDistributed if the creator was already
// paid for that period.
func (e *Engine) CreditAdRevenue(ctx context.Context, creatorID, periodKey string, amount, streams int64) (*models.Transaction, error) {
	if creatorID == "" || periodKey == "" {
		return nil, fmt.Errorf("%w: creator and period are required", ErrInvalidRequest)
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	plan := AdRevenuePlan(e.newID(), creatorID, periodKey, amount, streams, e.now())
	applied, err := e.apply(ctx, plan)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyDistributed) {
			return nil, storage.ErrAlreadyDistributed
		}
		return nil, err
	}
	if !applied {
		return nil, fmt.Errorf("%w: transaction id collision", ErrInvalidState)
	}

	e.metrics.AdRevenueDistributed.Add(float64(amount))
	e.recordCompletion(ctx, plan)
	return plan.Transaction, nil
}

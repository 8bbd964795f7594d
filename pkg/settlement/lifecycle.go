package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chris/audio-market-settlement/pkg/gateway"
	"github.com/chris/audio-market-settlement/pkg/models"
	"github.com/chris/audio-market-settlement/pkg/storage"
)

// ApproveTransaction accepts a gateway payment for a pending transaction.
// The gateway's amount must match ours; a mismatch fails the transaction.
// Approving again with the same payment id re-sends the gateway approval.
func (e *Engine) ApproveTransaction(ctx context.Context, paymentID string) (*models.Transaction, error) {
	if paymentID == "" {
		return nil, fmt.Errorf("%w: payment id is required", ErrInvalidRequest)
	}

	payment, err := e.verify(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	tx, err := e.resolve(ctx, paymentID, payment)
	if err != nil {
		return nil, err
	}

	switch tx.Status {
	case models.APPROVED:
		if tx.ExternalPaymentId != paymentID {
			return nil, fmt.Errorf("%w: approved under a different payment", ErrInvalidState)
		}
		return e.approveAtGateway(ctx, tx, paymentID)
	case models.COMPLETED, models.FAILED:
		return nil, fmt.Errorf("%w: transaction is %s", ErrInvalidState, tx.Status)
	}

	if payment.Amount != tx.Amount {
		e.metrics.AmountMismatches.Inc()
		e.logger.WarnContext(ctx, "possible payment tampering",
			"transaction_id", tx.Id, "payment_id", paymentID,
			"expected_amount", tx.Amount, "gateway_amount", payment.Amount)
		if _, err := e.fail(ctx, tx, ReasonAmountMismatch); err != nil {
			return nil, err
		}
		return nil, ErrAmountMismatch
	}

	err = e.store.ApproveTransaction(ctx, tx.Id, paymentID, e.now())
	switch {
	case errors.Is(err, storage.ErrDuplicatePayment):
		return nil, fmt.Errorf("%w: payment %s belongs to another transaction", ErrInvalidRequest, paymentID)
	case errors.Is(err, storage.ErrConditionFailed):
		// Someone else moved it first; approving again is fine if it was us.
		current, gerr := e.getTransaction(ctx, tx.Id)
		if gerr != nil {
			return nil, gerr
		}
		if current.Status != models.APPROVED || current.ExternalPaymentId != paymentID {
			return nil, fmt.Errorf("%w: transaction is %s", ErrInvalidState, current.Status)
		}
		return e.approveAtGateway(ctx, current, paymentID)
	case err != nil:
		return nil, fmt.Errorf("failed to approve transaction: %w", err)
	}

	e.metrics.Approved.WithLabelValues(string(tx.Type)).Inc()
	e.logger.InfoContext(ctx, "transaction approved", "transaction_id", tx.Id, "payment_id", paymentID)

	approved, err := e.getTransaction(ctx, tx.Id)
	if err != nil {
		return nil, err
	}
	return e.approveAtGateway(ctx, approved, paymentID)
}

func (e *Engine) approveAtGateway(ctx context.Context, tx *models.Transaction, paymentID string) (*models.Transaction, error) {
	if err := e.gateway.Approve(ctx, paymentID); err != nil {
		return nil, gatewayError("approve", err)
	}
	return tx, nil
}

// CompleteTransaction settles an approved transaction once the payer has
// paid. It is safe to call any number of times: only one call applies the
// settlement and the rest return the completed transaction.
func (e *Engine) CompleteTransaction(ctx context.Context, paymentID, txid string) (*models.Transaction, error) {
	if paymentID == "" {
		return nil, fmt.Errorf("%w: payment id is required", ErrInvalidRequest)
	}

	tx, err := e.resolve(ctx, paymentID, nil)
	if errors.Is(err, ErrNotFound) {
		tx, err = e.resolveUnclaimed(ctx, paymentID)
	}
	if err != nil {
		return nil, err
	}

	switch tx.Status {
	case models.APPROVED:
		if tx.ExternalPaymentId != paymentID {
			return nil, fmt.Errorf("%w: approved under a different payment", ErrInvalidState)
		}
	case models.COMPLETED:
		e.metrics.DuplicateCompletions.Inc()
		e.logger.Log(ctx, slog.LevelDebug, "transaction already completed", "transaction_id", tx.Id)
		return tx, nil
	case models.PENDING, models.FAILED:
		return nil, fmt.Errorf("%w: transaction is %s", ErrInvalidState, tx.Status)
	}

	if err := e.gateway.Complete(ctx, paymentID, txid); err != nil {
		return nil, gatewayError("complete", err)
	}

	plan, err := CompletionPlan(tx, models.APPROVED, txid, e.now())
	if err != nil {
		e.logger.ErrorContext(ctx, "refusing to settle inconsistent breakdown", "transaction_id", tx.Id, "error", err)
		return nil, err
	}

	applied, err := e.apply(ctx, plan)
	if err != nil {
		return nil, err
	}
	if !applied {
		current, err := e.getTransaction(ctx, tx.Id)
		if err != nil {
			return nil, err
		}
		if current.Status == models.COMPLETED {
			e.metrics.DuplicateCompletions.Inc()
			return current, nil
		}
		return nil, fmt.Errorf("%w: transaction is %s", ErrInvalidState, current.Status)
	}

	e.recordCompletion(ctx, plan)
	return plan.Transaction, nil
}

// resolveUnclaimed finds a transaction by the id the gateway payment
// carries. A pending withdrawal found this way had its payout created without
// us recording it, so the payout is attached first.
func (e *Engine) resolveUnclaimed(ctx context.Context, paymentID string) (*models.Transaction, error) {
	payment, err := e.verify(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	tx, err := e.resolve(ctx, paymentID, payment)
	if err != nil {
		return nil, err
	}
	if tx.Type == models.WITHDRAWAL && tx.Status == models.PENDING && !payment.IsCancelled() {
		return e.attachPayout(ctx, tx, payment)
	}
	return tx, nil
}

// attachPayout approves a pending withdrawal under its gateway payout.
func (e *Engine) attachPayout(ctx context.Context, tx *models.Transaction, payout *gateway.Payment) (*models.Transaction, error) {
	if payout.Amount != tx.Amount {
		e.metrics.AmountMismatches.Inc()
		e.logger.WarnContext(ctx, "payout does not match withdrawal",
			"transaction_id", tx.Id, "payment_id", payout.Identifier,
			"expected_amount", tx.Amount, "gateway_amount", payout.Amount)
		return nil, ErrAmountMismatch
	}

	err := e.store.ApproveTransaction(ctx, tx.Id, payout.Identifier, e.now())
	switch {
	case errors.Is(err, storage.ErrDuplicatePayment):
		return nil, fmt.Errorf("%w: payment %s belongs to another transaction", ErrInvalidRequest, payout.Identifier)
	case errors.Is(err, storage.ErrConditionFailed):
		current, gerr := e.getTransaction(ctx, tx.Id)
		if gerr != nil {
			return nil, gerr
		}
		if current.Status != models.APPROVED || current.ExternalPaymentId != payout.Identifier {
			return nil, fmt.Errorf("%w: transaction is %s", ErrInvalidState, current.Status)
		}
		return current, nil
	case err != nil:
		return nil, fmt.Errorf("failed to approve withdrawal: %w", err)
	}

	e.metrics.Approved.WithLabelValues(string(tx.Type)).Inc()
	e.logger.InfoContext(ctx, "withdrawal approved", "transaction_id", tx.Id, "payment_id", payout.Identifier)
	return e.getTransaction(ctx, tx.Id)
}

// CancelGuard vets a transaction before it is cancelled. An error aborts
// the cancel and is returned as is.
type CancelGuard func(*models.Transaction) error

// CancelTransaction fails a transaction whose payment was cancelled at the
// gateway. The gateway is always asked first: a payment it does not report
// as cancelled is left alone. Cancelling a failed transaction is a no-op.
func (e *Engine) CancelTransaction(ctx context.Context, paymentID, reason string, guards ...CancelGuard) (*models.Transaction, error) {
	if paymentID == "" {
		return nil, fmt.Errorf("%w: payment id is required", ErrInvalidRequest)
	}
	if reason == "" {
		reason = ReasonCancelled
	}

	payment, err := e.verify(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	tx, err := e.resolve(ctx, paymentID, payment)
	if err != nil {
		return nil, err
	}
	for _, guard := range guards {
		if err := guard(tx); err != nil {
			return nil, err
		}
	}

	switch tx.Status {
	case models.FAILED:
		return tx, nil
	case models.COMPLETED:
		return nil, fmt.Errorf("%w: transaction is completed", ErrInvalidState)
	case models.APPROVED:
		if tx.ExternalPaymentId != paymentID {
			return nil, fmt.Errorf("%w: approved under a different payment", ErrInvalidState)
		}
	}
	if !payment.IsCancelled() {
		return nil, fmt.Errorf("%w: payment is not cancelled at the gateway", ErrInvalidState)
	}

	failed, err := e.fail(ctx, tx, reason)
	if err != nil {
		return nil, err
	}
	if failed.Status == models.COMPLETED {
		return nil, fmt.Errorf("%w: transaction is completed", ErrInvalidState)
	}
	return failed, nil
}

func (e *Engine) recordCompletion(ctx context.Context, plan *models.SettlementPlan) {
	tx := plan.Transaction
	e.metrics.Completed.WithLabelValues(string(tx.Type)).Inc()
	e.metrics.SettlementLatency.Observe(tx.UpdatedAt.Sub(tx.CreatedAt).Seconds())
	e.logger.InfoContext(ctx, "transaction completed",
		"transaction_id", tx.Id, "type", tx.Type, "amount", tx.Amount,
		"platform_fee", tx.PlatformFee, "creator_royalty", tx.CreatorRoyalty, "recipient_earnings", tx.RecipientEarnings)
	e.afterCommit(ctx, plan)
}

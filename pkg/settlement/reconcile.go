package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/chris/audio-market-settlement/pkg/gateway"
	"github.com/chris/audio-market-settlement/pkg/models"
)

const (
	DefaultStaleAfter = 20 * time.Minute
	DefaultFailAfter  = 24 * time.Hour
)

// ReconcileResult counts what a sweep did.
type ReconcileResult struct {
	Checked   int `json:"checked"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Waiting   int `json:"waiting"`
	Errors    int `json:"errors"`
}

// Reconcile sweeps transactions the gateway never called back about.
// Approved transactions idle for staleAfter are re-checked at the gateway:
// paid ones are completed and cancelled ones failed. A payment still unpaid
// after failAfter is failed, unless it is a withdrawal payout, which is left
// for manual review. Pending transactions idle for failAfter are abandoned
// checkouts and are failed; a pending withdrawal is first matched against
// the gateway's open payouts and attached if its payout exists.
func (e *Engine) Reconcile(ctx context.Context, staleAfter, failAfter time.Duration) (*ReconcileResult, error) {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	if failAfter < staleAfter {
		failAfter = DefaultFailAfter
	}

	res := &ReconcileResult{}
	approved, err := e.store.GetStuckTransactions(ctx, models.APPROVED, staleAfter)
	if err != nil {
		return nil, fmt.Errorf("failed to list stuck approved transactions: %w", err)
	}
	for i := range approved {
		tx := &approved[i]
		res.Checked++
		if err := e.reconcileApproved(ctx, tx, failAfter, res); err != nil {
			res.Errors++
			e.logger.ErrorContext(ctx, "failed to reconcile transaction", "transaction_id", tx.Id, "error", err)
		}
	}

	pending, err := e.store.GetStuckTransactions(ctx, models.PENDING, failAfter)
	if err != nil {
		return res, fmt.Errorf("failed to list stuck pending transactions: %w", err)
	}
	payouts := &openPayouts{gw: e.gateway}
	for i := range pending {
		tx := &pending[i]
		res.Checked++
		if err := e.reconcilePending(ctx, tx, payouts, res); err != nil {
			res.Errors++
			e.logger.ErrorContext(ctx, "failed to expire pending transaction", "transaction_id", tx.Id, "error", err)
		}
	}

	e.logger.InfoContext(ctx, "reconciliation finished",
		"checked", res.Checked, "completed", res.Completed, "failed", res.Failed, "waiting", res.Waiting, "errors", res.Errors)
	return res, nil
}

func (e *Engine) reconcileApproved(ctx context.Context, tx *models.Transaction, failAfter time.Duration, res *ReconcileResult) error {
	age := e.now().Sub(tx.UpdatedAt)

	payment, err := e.verify(ctx, tx.ExternalPaymentId)
	if err != nil {
		if age < failAfter {
			return err
		}
		e.logger.WarnContext(ctx, "approved transaction unverifiable past deadline, manual review required",
			"transaction_id", tx.Id, "payment_id", tx.ExternalPaymentId, "age", age.String(), "amount", tx.Amount, "error", err)
		res.Waiting++
		return nil
	}

	switch {
	case payment.IsCancelled():
		if _, err := e.fail(ctx, tx, ReasonCancelled); err != nil {
			return err
		}
		res.Failed++
	case payment.TxID() != "":
		if _, err := e.CompleteTransaction(ctx, tx.ExternalPaymentId, payment.TxID()); err != nil {
			return err
		}
		res.Completed++
	case age >= failAfter && tx.Type == models.WITHDRAWAL:
		e.logger.WarnContext(ctx, "payout unsettled past deadline, manual review required",
			"transaction_id", tx.Id, "payment_id", tx.ExternalPaymentId, "age", age.String(), "amount", tx.Amount)
		res.Waiting++
	case age >= failAfter:
		e.logger.WarnContext(ctx, "approved transaction timed out unpaid",
			"transaction_id", tx.Id, "payment_id", tx.ExternalPaymentId, "age", age.String(), "amount", tx.Amount)
		if _, err := e.fail(ctx, tx, ReasonSettlementTimeout); err != nil {
			return err
		}
		res.Failed++
	default:
		res.Waiting++
	}
	return nil
}

func (e *Engine) reconcilePending(ctx context.Context, tx *models.Transaction, payouts *openPayouts, res *ReconcileResult) error {
	reason := ReasonAbandoned
	if tx.Type == models.WITHDRAWAL {
		payout, err := payouts.find(ctx, tx.Id)
		if err != nil {
			return err
		}
		if payout != nil && !payout.IsCancelled() {
			return e.recoverPayout(ctx, tx, payout, res)
		}
		reason = ReasonPayoutFailed
	}

	if _, err := e.fail(ctx, tx, reason); err != nil {
		return err
	}
	res.Failed++
	return nil
}

// recoverPayout attaches a payout the gateway created for a withdrawal we
// never approved, completing it when it has already been paid.
func (e *Engine) recoverPayout(ctx context.Context, tx *models.Transaction, payout *gateway.Payment, res *ReconcileResult) error {
	approved, err := e.attachPayout(ctx, tx, payout)
	if err != nil {
		return err
	}
	if approved.Status != models.APPROVED || payout.TxID() == "" {
		res.Waiting++
		return nil
	}
	if _, err := e.CompleteTransaction(ctx, payout.Identifier, payout.TxID()); err != nil {
		return err
	}
	res.Completed++
	return nil
}

// openPayouts lists the gateway's incomplete payouts once per sweep and
// indexes them by the transaction id in their metadata.
type openPayouts struct {
	gw   gateway.Gateway
	byTx map[string]*gateway.Payment
}

func (o *openPayouts) find(ctx context.Context, txID string) (*gateway.Payment, error) {
	if o.byTx == nil {
		list, err := o.gw.IncompletePayouts(ctx)
		if err != nil {
			return nil, gatewayError("list payouts", err)
		}
		o.byTx = make(map[string]*gateway.Payment, len(list))
		for i := range list {
			if id := list[i].TransactionID(); id != "" {
				o.byTx[id] = &list[i]
			}
		}
	}
	return o.byTx[txID], nil
}

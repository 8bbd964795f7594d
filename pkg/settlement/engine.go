// Package settlement runs the payment lifecycle: it creates transactions,
// approves and completes them against the payment gateway and settles the
// fee split into wallets and the ledger in one atomic unit per transition.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chris/audio-market-settlement/pkg/cache"
	"github.com/chris/audio-market-settlement/pkg/gateway"
	"github.com/chris/audio-market-settlement/pkg/models"
	"github.com/chris/audio-market-settlement/pkg/notifications"
	"github.com/chris/audio-market-settlement/pkg/storage"
	"github.com/google/uuid"
)

// Engine owns every balance-affecting transition.
type Engine struct {
	store    storage.Storage
	gateway  gateway.Gateway
	cache    cache.WalletCache
	notifier notifications.Notifier
	metrics  *Metrics
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// Option customises an Engine.
type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator replaces the transaction id generator.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// NewEngine wires an engine. Nil cache, notifier, metrics and logger fall
// back to no-op implementations and slog.Default.
func NewEngine(store storage.Storage, gw gateway.Gateway, wc cache.WalletCache, n notifications.Notifier, m *Metrics, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		gateway:  gw,
		cache:    wc,
		notifier: n,
		metrics:  m,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
	if e.cache == nil {
		e.cache = cache.NoOp{}
	}
	if e.notifier == nil {
		e.notifier = notifications.NoOpNotifier{}
	}
	if e.metrics == nil {
		e.metrics = NewMetrics(nil)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GetWallet returns the user's wallet, reading through the cache. A user
// with no wallet yet gets a zero wallet.
func (e *Engine) GetWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	if w, err := e.cache.GetWallet(ctx, userID); err == nil {
		return w, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		e.logger.WarnContext(ctx, "wallet cache read failed", "user_id", userID, "error", err)
	}

	w, err := e.store.GetWallet(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return &models.Wallet{UserId: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	if err := e.cache.SetWallet(ctx, w); err != nil {
		e.logger.WarnContext(ctx, "wallet cache write failed", "user_id", userID, "error", err)
	}
	return w, nil
}

// apply writes plan and reports whether this call won the status guard.
func (e *Engine) apply(ctx context.Context, plan *models.SettlementPlan) (bool, error) {
	applied, err := e.store.ApplySettlement(ctx, plan)
	switch {
	case errors.Is(err, storage.ErrInsufficientFunds):
		return false, ErrInsufficientBalance
	case errors.Is(err, storage.ErrNotFound):
		return false, fmt.Errorf("%w: %v", ErrNotFound, err)
	case err != nil:
		return false, fmt.Errorf("failed to apply settlement: %w", err)
	}
	return applied, nil
}

// fail moves tx to failed, releasing its reservation. Losing the guard to a
// concurrent transition is not an error; the stored state is returned.
func (e *Engine) fail(ctx context.Context, tx *models.Transaction, reason string) (*models.Transaction, error) {
	plan := FailurePlan(tx, tx.Status, reason, e.now())
	applied, err := e.apply(ctx, plan)
	if err != nil {
		return nil, err
	}
	if !applied {
		return e.getTransaction(ctx, tx.Id)
	}

	e.metrics.Failed.WithLabelValues(string(tx.Type), reason).Inc()
	e.logger.InfoContext(ctx, "transaction failed", "transaction_id", tx.Id, "type", tx.Type, "reason", reason)
	e.afterCommit(ctx, plan)
	return plan.Transaction, nil
}

// afterCommit drops cached wallets the plan touched and tells the affected
// users. Failures are logged and never undo the settlement.
func (e *Engine) afterCommit(ctx context.Context, plan *models.SettlementPlan) {
	if len(plan.WalletDeltas) > 0 {
		keys := make([]string, 0, len(plan.WalletDeltas))
		for _, d := range plan.WalletDeltas {
			keys = append(keys, cache.WalletKey(d.UserId))
		}
		if err := e.cache.Invalidate(ctx, keys...); err != nil {
			e.logger.WarnContext(ctx, "failed to invalidate wallet cache", "transaction_id", plan.Transaction.Id, "error", err)
		}
	}

	for _, n := range notificationsFor(plan.Transaction) {
		if err := e.notifier.Notify(ctx, n); err != nil {
			e.logger.WarnContext(ctx, "failed to send notification", "transaction_id", plan.Transaction.Id, "user_id", n.UserID, "error", err)
		}
	}
}

func (e *Engine) getTransaction(ctx context.Context, txID string) (*models.Transaction, error) {
	tx, err := e.store.GetTransaction(ctx, txID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

// resolve finds the transaction a gateway payment belongs to: by the stored
// payment id, else by the transaction id the payment carries in its metadata.
func (e *Engine) resolve(ctx context.Context, paymentID string, payment *gateway.Payment) (*models.Transaction, error) {
	tx, err := e.store.GetTransactionByPaymentID(ctx, paymentID)
	if err == nil {
		return tx, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to get transaction by payment: %w", err)
	}
	if payment == nil || payment.TransactionID() == "" {
		return nil, ErrNotFound
	}
	return e.getTransaction(ctx, payment.TransactionID())
}

// verify fetches the gateway's view of a payment, mapping gateway errors.
func (e *Engine) verify(ctx context.Context, paymentID string) (*gateway.Payment, error) {
	p, err := e.gateway.Verify(ctx, paymentID)
	switch {
	case errors.Is(err, gateway.ErrPaymentNotFound):
		return nil, ErrNotFound
	case errors.Is(err, gateway.ErrTransient):
		return nil, fmt.Errorf("%w: %v", ErrRetryable, err)
	case err != nil:
		return nil, fmt.Errorf("failed to verify payment: %w", err)
	}
	return p, nil
}

func gatewayError(op string, err error) error {
	if errors.Is(err, gateway.ErrTransient) {
		return fmt.Errorf("%w: gateway %s: %v", ErrRetryable, op, err)
	}
	return fmt.Errorf("failed to %s payment at gateway: %w", op, err)
}

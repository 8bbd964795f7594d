// Package notifications hands settlement events to whatever delivers them
// to users. Delivery itself lives outside this service.
package notifications

import (
	"context"
	"errors"
	"time"
)

// Type identifies what happened.
type Type string

const (
	TypePaymentReceived     Type = "payment_received"
	TypeSaleCompleted       Type = "sale_completed"
	TypeRoyaltyEarned       Type = "royalty_earned"
	TypeTipReceived         Type = "tip_received"
	TypeDepositCompleted    Type = "deposit_completed"
	TypeWithdrawalCompleted Type = "withdrawal_completed"
	TypeMintCompleted       Type = "mint_completed"
	TypeAdRevenue           Type = "ad_revenue"
	TypePaymentFailed       Type = "payment_failed"
)

// Notification is one message for one user.
type Notification struct {
	UserID        string    `json:"user_id"`
	Type          Type      `json:"type"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Amount        int64     `json:"amount,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Notifier delivers notifications to a sink.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NoOpNotifier drops every notification.
type NoOpNotifier struct{}

// Notify does nothing.
func (NoOpNotifier) Notify(ctx context.Context, n Notification) error {
	return nil
}

// Multi fans a notification out to every sink and joins their errors.
type Multi []Notifier

// Notify sends n to each sink.
func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

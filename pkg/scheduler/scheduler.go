package scheduler

import (
	"context"
	"time"
)

// EventType says which gateway callback produced a PaymentEvent.
type EventType string

const (
	EventCompleted EventType = "completed"
	EventCancelled EventType = "cancelled"
)

// PaymentEvent is a gateway callback queued for the settlement worker.
type PaymentEvent struct {
	Type       EventType `json:"type"`
	PaymentID  string    `json:"payment_id"`
	TxID       string    `json:"txid,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// Scheduler defines the interface for a component that queues payment events for asynchronous settlement.
type Scheduler interface {
	// SchedulePaymentEvent enqueues a gateway callback for processing.
	SchedulePaymentEvent(ctx context.Context, ev *PaymentEvent) error
}

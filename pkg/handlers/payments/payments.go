// Package payments serves the gateway payment callbacks: the client relay
// endpoints and the server-to-server webhook.
package payments

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/chris/audio-market-settlement/pkg/api"
	"github.com/chris/audio-market-settlement/pkg/handlers/respond"
	"github.com/chris/audio-market-settlement/pkg/handlers/transactions"
	"github.com/chris/audio-market-settlement/pkg/mapping"
	"github.com/chris/audio-market-settlement/pkg/middleware"
	"github.com/chris/audio-market-settlement/pkg/models"
	"github.com/chris/audio-market-settlement/pkg/scheduler"
	"github.com/chris/audio-market-settlement/pkg/settlement"
)

// WebhookSecretHeader carries the shared secret on gateway webhooks.
const WebhookSecretHeader = "X-Webhook-Secret"

// Settler moves gateway-funded transactions through their lifecycle.
// *settlement.Engine implements it.
type Settler interface {
	ApproveTransaction(ctx context.Context, paymentID string) (*models.Transaction, error)
	CompleteTransaction(ctx context.Context, paymentID, txid string) (*models.Transaction, error)
	CancelTransaction(ctx context.Context, paymentID, reason string, guards ...settlement.CancelGuard) (*models.Transaction, error)
}

// PaymentsHandler holds the dependencies for payment callback handlers.
type PaymentsHandler struct {
	Engine Settler
	// Scheduler queues webhook events for the settlement worker. When nil
	// webhooks are settled inline.
	Scheduler     scheduler.Scheduler
	WebhookSecret string
	Now           func() time.Time
}

// NewPaymentsHandler creates a new PaymentsHandler.
func NewPaymentsHandler(engine Settler, sched scheduler.Scheduler, webhookSecret string) *PaymentsHandler {
	return &PaymentsHandler{Engine: engine, Scheduler: sched, WebhookSecret: webhookSecret, Now: time.Now}
}

func (h *PaymentsHandler) decodeAction(w http.ResponseWriter, r *http.Request) (api.PaymentAction, middleware.Caller, bool) {
	var action api.PaymentAction
	caller, ok := respond.Caller(w, r)
	if !ok {
		return action, caller, false
	}
	if !respond.Decode(w, r, &action) {
		return action, caller, false
	}
	if action.PaymentId == "" {
		respond.Message(w, http.StatusBadRequest, "payment_id is required")
		return action, caller, false
	}
	return action, caller, true
}

// ApprovePayment handles the client's server-approval callback.
func (h *PaymentsHandler) ApprovePayment(w http.ResponseWriter, r *http.Request) {
	action, _, ok := h.decodeAction(w, r)
	if !ok {
		return
	}
	tx, err := h.Engine.ApproveTransaction(r.Context(), action.PaymentId)
	h.write(w, r, tx, err)
}

// CompletePayment handles the client's server-completion callback.
func (h *PaymentsHandler) CompletePayment(w http.ResponseWriter, r *http.Request) {
	action, _, ok := h.decodeAction(w, r)
	if !ok {
		return
	}
	if action.Txid == nil || *action.Txid == "" {
		respond.Message(w, http.StatusBadRequest, "txid is required")
		return
	}
	tx, err := h.Engine.CompleteTransaction(r.Context(), action.PaymentId, *action.Txid)
	h.write(w, r, tx, err)
}

// CancelPayment handles a payment the user cancelled or that errored in the
// client. Only a party to the transaction may cancel it, and only once the
// gateway reports the payment cancelled.
func (h *PaymentsHandler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	action, caller, ok := h.decodeAction(w, r)
	if !ok {
		return
	}
	var reason string
	if action.Reason != nil {
		reason = *action.Reason
	}
	party := func(tx *models.Transaction) error {
		if !transactions.Visible(caller, tx) {
			return settlement.ErrNotFound
		}
		return nil
	}
	tx, err := h.Engine.CancelTransaction(r.Context(), action.PaymentId, reason, party)
	h.write(w, r, tx, err)
}

func (h *PaymentsHandler) write(w http.ResponseWriter, r *http.Request, tx *models.Transaction, err error) {
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiTransaction(tx))
}

// ReceivePaymentWebhook accepts a gateway callback. With a queue configured
// the event is queued and answered with 202 for the settlement worker to
// apply. Without one it is applied in the request.
func (h *PaymentsHandler) ReceivePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	if h.WebhookSecret != "" {
		got := r.Header.Get(WebhookSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.WebhookSecret)) != 1 {
			respond.Message(w, http.StatusUnauthorized, "invalid webhook secret")
			return
		}
	}

	var body api.PaymentEvent
	if !respond.Decode(w, r, &body) {
		return
	}
	ev, msg := toEvent(&body, h.Now())
	if msg != "" {
		respond.Message(w, http.StatusBadRequest, msg)
		return
	}

	if h.Scheduler == nil {
		tx, err := Apply(r.Context(), h.Engine, ev)
		h.write(w, r, tx, err)
		return
	}
	if err := h.Scheduler.SchedulePaymentEvent(r.Context(), ev); err != nil {
		slog.ErrorContext(r.Context(), "failed to queue payment event", "payment_id", ev.PaymentID, "type", ev.Type, "error", err)
		respond.Message(w, http.StatusServiceUnavailable, "could not queue event, retry later")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func toEvent(body *api.PaymentEvent, now time.Time) (*scheduler.PaymentEvent, string) {
	if body.PaymentId == "" {
		return nil, "payment_id is required"
	}
	ev := &scheduler.PaymentEvent{PaymentID: body.PaymentId, ReceivedAt: now.UTC()}
	if body.Txid != nil {
		ev.TxID = *body.Txid
	}
	if body.Reason != nil {
		ev.Reason = *body.Reason
	}
	switch body.Type {
	case api.PaymentEventTypeCompleted:
		if ev.TxID == "" {
			return nil, "txid is required for completed events"
		}
		ev.Type = scheduler.EventCompleted
	case api.PaymentEventTypeCancelled:
		ev.Type = scheduler.EventCancelled
	default:
		return nil, "unknown event type"
	}
	return ev, ""
}

// Apply runs a queued gateway event against the engine. The settlement
// worker uses it for events read off the queue.
func Apply(ctx context.Context, engine Settler, ev *scheduler.PaymentEvent) (*models.Transaction, error) {
	switch ev.Type {
	case scheduler.EventCompleted:
		return engine.CompleteTransaction(ctx, ev.PaymentID, ev.TxID)
	case scheduler.EventCancelled:
		return engine.CancelTransaction(ctx, ev.PaymentID, ev.Reason)
	}
	return nil, fmt.Errorf("%w: unknown event type %q", settlement.ErrInvalidRequest, ev.Type)
}

package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/chris/audio-market-settlement/pkg/models"
	"github.com/chris/audio-market-settlement/pkg/scheduler"
	"github.com/chris/audio-market-settlement/pkg/settlement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSettler struct {
	completeErr map[string]error
	applied     []string
}

func (s *stubSettler) ApproveTransaction(ctx context.Context, paymentID string) (*models.Transaction, error) {
	return nil, settlement.ErrInvalidRequest
}

func (s *stubSettler) CompleteTransaction(ctx context.Context, paymentID, txid string) (*models.Transaction, error) {
	if err := s.completeErr[paymentID]; err != nil {
		return nil, err
	}
	s.applied = append(s.applied, "complete:"+paymentID)
	return &models.Transaction{Id: "tx-" + paymentID, Status: models.COMPLETED}, nil
}

func (s *stubSettler) CancelTransaction(ctx context.Context, paymentID, reason string, guards ...settlement.CancelGuard) (*models.Transaction, error) {
	s.applied = append(s.applied, "cancel:"+paymentID)
	return &models.Transaction{Id: "tx-" + paymentID, Status: models.FAILED}, nil
}

func record(t *testing.T, id string, ev scheduler.PaymentEvent) events.SQSMessage {
	body, err := json.Marshal(ev)
	require.NoError(t, err)
	return events.SQSMessage{MessageId: id, Body: string(body)}
}

func TestHandleRequest(t *testing.T) {
	settler := &stubSettler{completeErr: map[string]error{
		"pay-retry": settlement.ErrRetryable,
		"pay-done":  settlement.ErrInvalidState,
	}}
	w := &worker{engine: settler, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	resp, err := w.HandleRequest(context.Background(), events.SQSEvent{Records: []events.SQSMessage{
		record(t, "m1", scheduler.PaymentEvent{Type: scheduler.EventCompleted, PaymentID: "pay-1", TxID: "chain-1"}),
		record(t, "m2", scheduler.PaymentEvent{Type: scheduler.EventCancelled, PaymentID: "pay-2"}),
		record(t, "m3", scheduler.PaymentEvent{Type: scheduler.EventCompleted, PaymentID: "pay-retry", TxID: "chain-3"}),
		record(t, "m4", scheduler.PaymentEvent{Type: scheduler.EventCompleted, PaymentID: "pay-done", TxID: "chain-4"}),
		{MessageId: "m5", Body: "not json"},
	}})
	require.NoError(t, err)

	assert.Equal(t, []string{"complete:pay-1", "cancel:pay-2"}, settler.applied)
	require.Len(t, resp.BatchItemFailures, 1)
	assert.Equal(t, "m3", resp.BatchItemFailures[0].ItemIdentifier)
}

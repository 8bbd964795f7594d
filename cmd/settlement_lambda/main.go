package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/chris/audio-market-settlement/pkg/bootstrap"
	"github.com/chris/audio-market-settlement/pkg/config"
	"github.com/chris/audio-market-settlement/pkg/handlers/payments"
	"github.com/chris/audio-market-settlement/pkg/logger"
	"github.com/chris/audio-market-settlement/pkg/scheduler"
	"github.com/chris/audio-market-settlement/pkg/settlement"
)

// worker applies queued gateway events to the engine.
type worker struct {
	engine payments.Settler
	logger *slog.Logger
}

// permanent reports whether retrying err can never succeed.
func permanent(err error) bool {
	return errors.Is(err, settlement.ErrInvalidState) ||
		errors.Is(err, settlement.ErrNotFound) ||
		errors.Is(err, settlement.ErrInvalidRequest) ||
		errors.Is(err, settlement.ErrAmountMismatch)
}

// HandleRequest processes SQS messages and settles the transactions. Failed
// messages are reported back individually so only they are redelivered.
func (w *worker) HandleRequest(ctx context.Context, sqsEvent events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	for _, message := range sqsEvent.Records {
		var ev scheduler.PaymentEvent
		if err := json.Unmarshal([]byte(message.Body), &ev); err != nil {
			// Redelivering a body we can't parse never helps.
			w.logger.ErrorContext(ctx, "dropping malformed payment event", "message_id", message.MessageId, "error", err)
			continue
		}

		tx, err := payments.Apply(ctx, w.engine, &ev)
		switch {
		case err == nil:
			w.logger.InfoContext(ctx, "payment event applied",
				"message_id", message.MessageId, "payment_id", ev.PaymentID, "type", ev.Type,
				"transaction_id", tx.Id, "status", tx.Status)
		case permanent(err):
			w.logger.WarnContext(ctx, "payment event rejected",
				"message_id", message.MessageId, "payment_id", ev.PaymentID, "type", ev.Type, "error", err)
		default:
			w.logger.ErrorContext(ctx, "payment event failed, will retry",
				"message_id", message.MessageId, "payment_id", ev.PaymentID, "type", ev.Type, "error", err)
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: message.MessageId})
		}
	}
	return resp, nil
}

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	slogger := logger.New(cfg.Log.Level, cfg.Log.Format)

	svc, err := bootstrap.New(context.Background(), cfg, slogger)
	if err != nil {
		log.Fatalf("Failed to initialise services: %v", err)
	}
	defer svc.Close()

	w := &worker{engine: svc.Engine, logger: slogger}
	lambda.Start(w.HandleRequest)
}

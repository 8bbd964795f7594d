package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the notifier uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaNotifier writes notifications to a topic keyed by user id, so one
// user's notifications stay ordered within a partition.
type KafkaNotifier struct {
	writer MessageWriter
}

// NewKafkaWriter builds the writer KafkaNotifier is meant to wrap.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
	}
}

// NewKafkaNotifier wraps w.
func NewKafkaNotifier(w MessageWriter) *KafkaNotifier {
	return &KafkaNotifier{writer: w}
}

// Make sure we conform to the interface
var _ Notifier = (*KafkaNotifier)(nil)

// Notify writes n as one message.
func (k *KafkaNotifier) Notify(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(n.UserID),
		Value: payload,
		Time:  n.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to write notification: %w", err)
	}
	return nil
}

package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSQS struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSchedulePaymentEvent(t *testing.T) {
	ev := &PaymentEvent{
		Type:       EventCompleted,
		PaymentID:  "pay-1",
		TxID:       "abc",
		ReceivedAt: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}

	t.Run("Success", func(t *testing.T) {
		client := &fakeSQS{}
		s := NewSQSScheduler(client, "https://sqs.local/queue")

		require.NoError(t, s.SchedulePaymentEvent(context.Background(), ev))
		assert.Equal(t, "https://sqs.local/queue", aws.ToString(client.input.QueueUrl))
		assert.Equal(t, "pay-1", aws.ToString(client.input.MessageAttributes["payment_id"].StringValue))

		var got PaymentEvent
		require.NoError(t, json.Unmarshal([]byte(aws.ToString(client.input.MessageBody)), &got))
		assert.Equal(t, *ev, got)
	})

	t.Run("Send failure", func(t *testing.T) {
		client := &fakeSQS{err: errors.New("throttled")}
		s := NewSQSScheduler(client, "q")

		err := s.SchedulePaymentEvent(context.Background(), ev)
		assert.ErrorIs(t, err, client.err)
	})
}

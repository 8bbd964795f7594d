package dynamodb

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/audio-market-settlement/pkg/models"
	"github.com/chris/audio-market-settlement/pkg/storage"
)

// ApproveTransaction flips a pending transaction to approved and claims the
// external payment id in the same write. The claim is a guard item keyed by
// the payment id, so an id can only ever belong to one transaction.
func (s *Store) ApproveTransaction(ctx context.Context, txID, paymentID string, approvedAt time.Time) error {
	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				// Operation 1: Move the transaction from pending to approved.
				Update: &types.Update{
					TableName:           aws.String(s.TransactionsTableName),
					Key:                 map[string]types.AttributeValue{"id": str(txID)},
					UpdateExpression:    aws.String("SET #status = :approved, external_payment_id = :payment_id, approved_at = :now, updated_at = :now"),
					ConditionExpression: aws.String("#status = :pending"),
					ExpressionAttributeNames: map[string]string{
						"#status": "status",
					},
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":approved":   str(string(models.APPROVED)),
						":pending":    str(string(models.PENDING)),
						":payment_id": str(paymentID),
						":now":        timestamp(approvedAt),
					},
				},
			},
			{
				// Operation 2: Claim the payment id.
				Put: &types.Put{
					TableName: aws.String(s.TransactionsTableName),
					Item: map[string]types.AttributeValue{
						"id":             str(paymentKeyPrefix + paymentID),
						"transaction_id": str(txID),
					},
					ConditionExpression: aws.String("attribute_not_exists(id) OR transaction_id = :tx_id"),
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":tx_id": str(txID),
					},
				},
			},
		},
	}

	_, err := s.Client.TransactWriteItems(ctx, input)
	if err != nil {
		if failed, ok := failedChecks(err); ok {
			switch {
			case slices.Contains(failed, 1):
				return storage.ErrDuplicatePayment
			case slices.Contains(failed, 0):
				return storage.ErrConditionFailed
			}
		}
		return fmt.Errorf("failed to approve transaction: %w", err)
	}

	return nil
}

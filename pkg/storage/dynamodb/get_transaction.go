package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/audio-market-settlement/pkg/models"
	"github.com/chris/audio-market-settlement/pkg/storage"
)

// GetTransaction retrieves a transaction from DynamoDB by its ID.
func (s *Store) GetTransaction(ctx context.Context, txID string) (*models.Transaction, error) {
	input := &dynamodb.GetItemInput{
		TableName:      aws.String(s.TransactionsTableName),
		Key:            map[string]types.AttributeValue{"id": str(txID)},
		ConsistentRead: aws.Bool(true),
	}

	result, err := s.Client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction from DynamoDB: %w", err)
	}

	if result.Item == nil {
		return nil, fmt.Errorf("transaction with ID %s: %w", txID, storage.ErrNotFound)
	}

	var tx models.Transaction
	if err := attributevalue.UnmarshalMap(result.Item, &tx); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transaction: %w", err)
	}

	return &tx, nil
}

// GetTransactionByPaymentID follows the payment guard item to its transaction.
func (s *Store) GetTransactionByPaymentID(ctx context.Context, paymentID string) (*models.Transaction, error) {
	input := &dynamodb.GetItemInput{
		TableName:      aws.String(s.TransactionsTableName),
		Key:            map[string]types.AttributeValue{"id": str(paymentKeyPrefix + paymentID)},
		ConsistentRead: aws.Bool(true),
	}

	result, err := s.Client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment from DynamoDB: %w", err)
	}

	if result.Item == nil {
		return nil, fmt.Errorf("payment %s: %w", paymentID, storage.ErrNotFound)
	}

	var guard struct {
		TransactionID string `dynamodbav:"transaction_id"`
	}
	if err := attributevalue.UnmarshalMap(result.Item, &guard); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payment: %w", err)
	}

	return s.GetTransaction(ctx, guard.TransactionID)
}

package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/audio-market-settlement/pkg/models"
)

// GetStuckTransactions retrieves transactions that have been in status since before now-maxAge.
func (s *Store) GetStuckTransactions(ctx context.Context, status models.TransactionStatus, maxAge time.Duration) ([]models.Transaction, error) {
	cutoff := time.Now().Add(-maxAge)

	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.TransactionsTableName),
		IndexName:              aws.String(statusUpdatedAtIndex),
		KeyConditionExpression: aws.String("#status = :status AND updated_at < :cutoff"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": str(string(status)),
			":cutoff": timestamp(cutoff),
		},
	}

	transactions, err := s.queryTransactions(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query for stuck transactions: %w", err)
	}
	return transactions, nil
}

// ListTransactionsByUserID returns every transaction the user sent or received, newest first.
func (s *Store) ListTransactionsByUserID(ctx context.Context, userID string) ([]models.Transaction, error) {
	seen := make(map[string]bool)
	var out []models.Transaction

	for _, idx := range []struct{ index, attr string }{
		{fromUserIDIndex, "from_user_id"},
		{toUserIDIndex, "to_user_id"},
	} {
		input := &dynamodb.QueryInput{
			TableName:              aws.String(s.TransactionsTableName),
			IndexName:              aws.String(idx.index),
			KeyConditionExpression: aws.String(idx.attr + " = :user_id"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":user_id": str(userID),
			},
		}
		txs, err := s.queryTransactions(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query transactions by %s: %w", idx.attr, err)
		}
		for _, tx := range txs {
			if seen[tx.Id] {
				continue
			}
			seen[tx.Id] = true
			out = append(out, tx)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) queryTransactions(ctx context.Context, input *dynamodb.QueryInput) ([]models.Transaction, error) {
	var transactions []models.Transaction
	for {
		page, err := s.Client.Query(ctx, input)
		if err != nil {
			return nil, err
		}
		var batch []models.Transaction
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transactions: %w", err)
		}
		transactions = append(transactions, batch...)
		if len(page.LastEvaluatedKey) == 0 {
			return transactions, nil
		}
		input.ExclusiveStartKey = page.LastEvaluatedKey
	}
}

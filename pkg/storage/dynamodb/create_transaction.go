package dynamodb

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/audio-market-settlement/pkg/models"
	"github.com/chris/audio-market-settlement/pkg/storage"
)

// CreateTransaction atomically creates a new transaction record and, when a
// reservation is given, moves the reserved funds in the payer's wallet.
func (s *Store) CreateTransaction(ctx context.Context, tx *models.Transaction, reservation *models.WalletDelta) error {
	txAV, err := attributevalue.MarshalMap(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %w", err)
	}

	items := []types.TransactWriteItem{
		{
			// Operation 1: Create the new transaction record.
			Put: &types.Put{
				TableName:           aws.String(s.TransactionsTableName),
				Item:                txAV,
				ConditionExpression: aws.String("attribute_not_exists(id)"),
			},
		},
	}
	if reservation != nil {
		// Operation 2: Reserve funds in the payer's wallet.
		items = append(items, types.TransactWriteItem{Update: s.walletUpdate(*reservation, tx.CreatedAt)})
	}

	_, err = s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		if failed, ok := failedChecks(err); ok {
			slog.Log(ctx, slog.LevelDebug, "create transaction cancelled", "transaction_id", tx.Id, "failed_items", failed)
			switch {
			case slices.Contains(failed, 1):
				return storage.ErrInsufficientFunds
			case slices.Contains(failed, 0):
				return storage.ErrConditionFailed
			}
		}
		return fmt.Errorf("failed to execute transaction: %w", err)
	}

	return nil
}

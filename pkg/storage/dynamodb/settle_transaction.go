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

// ApplySettlement writes a settlement plan with a single TransactWriteItems
// call. The first item is the transaction itself, guarded by its expected
// status, so of several concurrent callers exactly one can commit; the rest
// get (false, nil).
func (s *Store) ApplySettlement(ctx context.Context, plan *models.SettlementPlan) (bool, error) {
	tx := plan.Transaction
	now := tx.UpdatedAt

	txAV, err := attributevalue.MarshalMap(tx)
	if err != nil {
		return false, fmt.Errorf("failed to marshal transaction for settlement: %w", err)
	}

	// Operation 1: Write the transaction in its new state.
	txPut := &types.Put{
		TableName: aws.String(s.TransactionsTableName),
		Item:      txAV,
	}
	if plan.Insert {
		txPut.ConditionExpression = aws.String("attribute_not_exists(id)")
	} else {
		txPut.ConditionExpression = aws.String("#status = :expected_status")
		txPut.ExpressionAttributeNames = map[string]string{"#status": "status"}
		txPut.ExpressionAttributeValues = map[string]types.AttributeValue{
			":expected_status": str(string(plan.ExpectedStatus)),
		}
	}
	items := []types.TransactWriteItem{{Put: txPut}}

	// Operation 2: Apply the wallet deltas.
	walletStart := len(items)
	for _, d := range plan.WalletDeltas {
		items = append(items, types.TransactWriteItem{Update: s.walletUpdate(d, now)})
	}
	walletEnd := len(items)

	// Operation 3: Append the ledger entries.
	for _, entry := range plan.LedgerEntries {
		entryAV, err := attributevalue.MarshalMap(entry)
		if err != nil {
			return false, fmt.Errorf("failed to marshal ledger entry: %w", err)
		}
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName:           aws.String(s.LedgerTableName),
				Item:                entryAV,
				ConditionExpression: aws.String("attribute_not_exists(entry_id)"),
			},
		})
	}

	// Operation 4: Transfer the NFT.
	nftIndex := -1
	if t := plan.NFTTransfer; t != nil {
		nftIndex = len(items)
		items = append(items, types.TransactWriteItem{
			Update: &types.Update{
				TableName:           aws.String(s.NFTsTableName),
				Key:                 map[string]types.AttributeValue{"id": str(t.NftId)},
				UpdateExpression:    aws.String("SET owner_id = :owner, updated_at = :now ADD sold_count :one"),
				ConditionExpression: aws.String("attribute_exists(id)"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":owner": str(t.NewOwnerId),
					":now":   timestamp(now),
					":one":   num(1),
				},
			},
		})
	}

	// Operation 5: Record the distribution key.
	distIndex := -1
	if d := plan.Distribution; d != nil {
		distAV, err := attributevalue.MarshalMap(d)
		if err != nil {
			return false, fmt.Errorf("failed to marshal distribution: %w", err)
		}
		distIndex = len(items)
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName:           aws.String(s.DistributionsTableName),
				Item:                distAV,
				ConditionExpression: aws.String("attribute_not_exists(creator_id)"),
			},
		})
	}

	_, err = s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err == nil {
		return true, nil
	}

	failed, ok := failedChecks(err)
	if !ok {
		return false, fmt.Errorf("failed to execute settlement transaction: %w", err)
	}
	slog.Log(ctx, slog.LevelDebug, "settlement cancelled", "transaction_id", tx.Id, "failed_items", failed)
	switch {
	case slices.Contains(failed, 0):
		// Someone else already moved the transaction on.
		return false, nil
	case distIndex >= 0 && slices.Contains(failed, distIndex):
		return false, storage.ErrAlreadyDistributed
	case nftIndex >= 0 && slices.Contains(failed, nftIndex):
		return false, fmt.Errorf("nft %s: %w", plan.NFTTransfer.NftId, storage.ErrNotFound)
	case slices.ContainsFunc(failed, func(i int) bool { return i >= walletStart && i < walletEnd }):
		return false, storage.ErrInsufficientFunds
	}
	return false, fmt.Errorf("failed to execute settlement transaction: %w", err)
}

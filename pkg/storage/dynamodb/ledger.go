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
	"github.com/chris/audio-market-settlement/pkg/storage"
)

// ListLedgerEntries retrieves every ledger entry for a transaction in entry order.
func (s *Store) ListLedgerEntries(ctx context.Context, txID string) ([]models.LedgerEntry, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.LedgerTableName),
		KeyConditionExpression: aws.String("transaction_id = :tx_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tx_id": str(txID),
		},
		ConsistentRead: aws.Bool(true),
	}

	var entries []models.LedgerEntry
	for {
		page, err := s.Client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query ledger entries: %w", err)
		}
		var batch []models.LedgerEntry
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ledger entries: %w", err)
		}
		entries = append(entries, batch...)
		if len(page.LastEvaluatedKey) == 0 {
			return entries, nil
		}
		input.ExclusiveStartKey = page.LastEvaluatedKey
	}
}

// GetDistribution retrieves the ad-revenue distribution record for a creator and period.
func (s *Store) GetDistribution(ctx context.Context, creatorID, periodKey string) (*models.Distribution, error) {
	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.DistributionsTableName),
		Key: map[string]types.AttributeValue{
			"creator_id": str(creatorID),
			"period_key": str(periodKey),
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get distribution from DynamoDB: %w", err)
	}

	if result.Item == nil {
		return nil, fmt.Errorf("distribution %s/%s: %w", creatorID, periodKey, storage.ErrNotFound)
	}

	var d models.Distribution
	if err := attributevalue.UnmarshalMap(result.Item, &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal distribution: %w", err)
	}
	return &d, nil
}

// ListStreamStats scans the per-day stream stats and sums them per creator.
func (s *Store) ListStreamStats(ctx context.Context, start, end time.Time) ([]models.StreamStat, error) {
	input := &dynamodb.ScanInput{
		TableName:        aws.String(s.StreamStatsTableName),
		FilterExpression: aws.String("#day >= :from AND #day < :to"),
		ExpressionAttributeNames: map[string]string{
			"#day": "day",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":from": str(start.Format(storage.DayFormat)),
			":to":   str(end.Format(storage.DayFormat)),
		},
	}

	totals := make(map[string]*models.StreamStat)
	for {
		page, err := s.Client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stream stats: %w", err)
		}
		var batch []models.StreamStat
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stream stats: %w", err)
		}
		for _, st := range batch {
			agg, ok := totals[st.CreatorId]
			if !ok {
				agg = &models.StreamStat{CreatorId: st.CreatorId}
				totals[st.CreatorId] = agg
			}
			agg.AdStreams += st.AdStreams
			agg.AdRevenue += st.AdRevenue
		}
		if len(page.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = page.LastEvaluatedKey
	}

	out := make([]models.StreamStat, 0, len(totals))
	for _, st := range totals {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatorId < out[j].CreatorId })
	return out, nil
}

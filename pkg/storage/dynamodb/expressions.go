package dynamodb

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/audio-market-settlement/pkg/models"
)

func num(n int64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(n, 10)}
}

func str(s string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: s}
}

func timestamp(t time.Time) types.AttributeValue {
	return str(t.UTC().Format(time.RFC3339Nano))
}

// walletUpdate builds the update that applies d to a wallet, creating the row
// on first use. Negative balance deltas are guarded so neither balance can go
// below zero.
func (s *Store) walletUpdate(d models.WalletDelta, now time.Time) *types.Update {
	set := []string{
		"available_balance = if_not_exists(available_balance, :zero) + :available",
		"pending_balance = if_not_exists(pending_balance, :zero) + :pending",
		"lifetime_earnings = if_not_exists(lifetime_earnings, :zero) + :earnings",
		"lifetime_spent = if_not_exists(lifetime_spent, :zero) + :spent",
		"version = if_not_exists(version, :zero) + :inc",
		"created_at = if_not_exists(created_at, :now)",
		"updated_at = :now",
	}
	values := map[string]types.AttributeValue{
		":zero":      num(0),
		":inc":       num(1),
		":available": num(d.Available),
		":pending":   num(d.Pending),
		":earnings":  num(d.Earnings),
		":spent":     num(d.Spent),
		":now":       timestamp(now),
	}

	var conditions []string
	if d.Available < 0 {
		conditions = append(conditions, "available_balance >= :need_available")
		values[":need_available"] = num(-d.Available)
	}
	if d.Pending < 0 {
		conditions = append(conditions, "pending_balance >= :need_pending")
		values[":need_pending"] = num(-d.Pending)
	}

	update := &types.Update{
		TableName:                 aws.String(s.WalletsTableName),
		Key:                       map[string]types.AttributeValue{"user_id": str(d.UserId)},
		UpdateExpression:          aws.String("SET " + strings.Join(set, ", ")),
		ExpressionAttributeValues: values,
	}
	if len(conditions) > 0 {
		update.ConditionExpression = aws.String(strings.Join(conditions, " AND "))
	}
	return update
}

// failedChecks returns the indexes of the transact items whose condition failed.
// ok is false if err is not a transaction cancellation.
func failedChecks(err error) (idx []int, ok bool) {
	var txc *types.TransactionCanceledException
	if !errors.As(err, &txc) {
		return nil, false
	}
	for i, reason := range txc.CancellationReasons {
		if reason.Code != nil && *reason.Code == conditionalCheckFailed {
			idx = append(idx, i)
		}
	}
	return idx, true
}

package dynamodb

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/audio-market-settlement/pkg/storage/dynamodb/mocks"
	"github.com/stretchr/testify/require"
)

// newTestStore returns a store over a mock client whose expectations are
// asserted when the test ends.
func newTestStore(t *testing.T) (*Store, *mocks.DynamoDBAPI) {
	client := mocks.NewDynamoDBAPI(t)
	return New(client, Tables{
		Transactions:  "transactions",
		Wallets:       "wallets",
		Ledger:        "ledger",
		NFTs:          "nfts",
		Distributions: "distributions",
		StreamStats:   "stream_stats",
	}), client
}

// cancelled builds the error DynamoDB returns when a TransactWriteItems
// condition fails, one code per item.
func cancelled(codes ...string) error {
	reasons := make([]types.CancellationReason, len(codes))
	for i, c := range codes {
		reasons[i] = types.CancellationReason{Code: aws.String(c)}
	}
	return &types.TransactionCanceledException{CancellationReasons: reasons}
}

func marshalItems[T any](t *testing.T, vs ...T) []map[string]types.AttributeValue {
	out := make([]map[string]types.AttributeValue, 0, len(vs))
	for _, v := range vs {
		av, err := attributevalue.MarshalMap(v)
		require.NoError(t, err)
		out = append(out, av)
	}
	return out
}

func keyOf(in map[string]types.AttributeValue, name string) string {
	if v, ok := in[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

package dynamodb

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/audio-market-settlement/pkg/models"
	"github.com/chris/audio-market-settlement/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGetTransaction(t *testing.T) {
	tip := models.Transaction{
		Id: "tx-tip", Type: models.TIP, Status: models.APPROVED, Funding: models.FundingGateway,
		FromUserId: "fan", ToUserId: "artist", Amount: 500, RecipientEarnings: 500,
		Metadata: map[string]string{"note": "gg"},
	}

	tests := []struct {
		name    string
		out     *dynamodb.GetItemOutput
		err     error
		want    *models.Transaction
		wantErr error
		errText string
	}{
		{name: "Found", out: &dynamodb.GetItemOutput{Item: marshalItems(t, tip)[0]}, want: &tip},
		{name: "Missing", out: &dynamodb.GetItemOutput{}, wantErr: storage.ErrNotFound},
		{name: "Client error", err: errors.New("throttled"), errText: "failed to get transaction from DynamoDB"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store, client := newTestStore(t)
			client.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
				return *in.TableName == "transactions" && keyOf(in.Key, "id") == "tx-tip"
			})).Return(tc.out, tc.err).Once()

			got, err := store.GetTransaction(context.Background(), "tx-tip")

			switch {
			case tc.wantErr != nil:
				assert.ErrorIs(t, err, tc.wantErr)
			case tc.errText != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errText)
			default:
				require.NoError(t, err)
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestGetTransactionByPaymentID(t *testing.T) {
	purchase := models.Transaction{Id: "tx-1", Type: models.PURCHASE, Amount: 100, Status: models.APPROVED, ExternalPaymentId: "pay-1"}

	t.Run("Follows the payment guard item", func(t *testing.T) {
		store, client := newTestStore(t)
		guard := map[string]types.AttributeValue{
			"id":             &types.AttributeValueMemberS{Value: paymentKeyPrefix + "pay-1"},
			"transaction_id": &types.AttributeValueMemberS{Value: "tx-1"},
		}
		client.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
			return keyOf(in.Key, "id") == paymentKeyPrefix+"pay-1"
		})).Return(&dynamodb.GetItemOutput{Item: guard}, nil).Once()
		client.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
			return keyOf(in.Key, "id") == "tx-1"
		})).Return(&dynamodb.GetItemOutput{Item: marshalItems(t, purchase)[0]}, nil).Once()

		got, err := store.GetTransactionByPaymentID(context.Background(), "pay-1")

		require.NoError(t, err)
		assert.Equal(t, &purchase, got)
	})

	t.Run("Unknown payment", func(t *testing.T) {
		store, client := newTestStore(t)
		client.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil).Once()

		_, err := store.GetTransactionByPaymentID(context.Background(), "pay-404")

		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

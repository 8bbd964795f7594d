package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/chris/audio-market-settlement/pkg/storage"
)

// DynamoDBAPI is the subset of the DynamoDB client the store uses.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Tables names every table the store touches.
type Tables struct {
	Transactions  string
	Wallets       string
	Ledger        string
	NFTs          string
	Distributions string
	StreamStats   string
}

// Store implements the Storage interface using AWS DynamoDB.
type Store struct {
	Client                 DynamoDBAPI
	TransactionsTableName  string
	WalletsTableName       string
	LedgerTableName        string
	NFTsTableName          string
	DistributionsTableName string
	StreamStatsTableName   string
}

// New creates a new Store.
func New(client DynamoDBAPI, tables Tables) *Store {
	return &Store{
		Client:                 client,
		TransactionsTableName:  tables.Transactions,
		WalletsTableName:       tables.Wallets,
		LedgerTableName:        tables.Ledger,
		NFTsTableName:          tables.NFTs,
		DistributionsTableName: tables.Distributions,
		StreamStatsTableName:   tables.StreamStats,
	}
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)

const (
	statusUpdatedAtIndex = "status-updated_at-index"
	fromUserIDIndex      = "from_user_id-index"
	toUserIDIndex        = "to_user_id-index"

	// paymentKeyPrefix marks the guard items that keep external payment ids unique.
	paymentKeyPrefix = "payment#"

	conditionalCheckFailed = "ConditionalCheckFailed"
)

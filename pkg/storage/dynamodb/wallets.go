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

// GetWallet retrieves a user's wallet from DynamoDB by their user ID.
func (s *Store) GetWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	input := &dynamodb.GetItemInput{
		TableName:      aws.String(s.WalletsTableName),
		Key:            map[string]types.AttributeValue{"user_id": str(userID)},
		ConsistentRead: aws.Bool(true),
	}

	result, err := s.Client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet from DynamoDB: %w", err)
	}

	if result.Item == nil {
		return nil, fmt.Errorf("wallet for user ID %s: %w", userID, storage.ErrNotFound)
	}

	var wallet models.Wallet
	if err := attributevalue.UnmarshalMap(result.Item, &wallet); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet: %w", err)
	}

	return &wallet, nil
}

// GetNFT retrieves an NFT by its ID.
func (s *Store) GetNFT(ctx context.Context, nftID string) (*models.NFT, error) {
	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.NFTsTableName),
		Key:       map[string]types.AttributeValue{"id": str(nftID)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get nft from DynamoDB: %w", err)
	}

	if result.Item == nil {
		return nil, fmt.Errorf("nft %s: %w", nftID, storage.ErrNotFound)
	}

	var nft models.NFT
	if err := attributevalue.UnmarshalMap(result.Item, &nft); err != nil {
		return nil, fmt.Errorf("failed to unmarshal nft: %w", err)
	}

	return &nft, nil
}

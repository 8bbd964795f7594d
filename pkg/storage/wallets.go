package storage

import (
	"context"

	"github.com/chris/audio-market-settlement/pkg/models"
)

// WalletStore defines read access to wallets. Wallets are only ever written
// through SettlementStore and TransactionManager.
type WalletStore interface {
	// GetWallet retrieves a user's wallet by their user ID.
	GetWallet(ctx context.Context, userID string) (*models.Wallet, error)
}

// NFTReader defines read access to the NFTs settlement touches.
type NFTReader interface {
	GetNFT(ctx context.Context, nftID string) (*models.NFT, error)
}

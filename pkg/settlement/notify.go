package settlement

import (
	"fmt"

	"github.com/chris/audio-market-settlement/pkg/models"
	"github.com/chris/audio-market-settlement/pkg/notifications"
	"github.com/shopspring/decimal"
)

// formatAmount renders minor units with two decimals.
func formatAmount(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}

func notificationsFor(tx *models.Transaction) []notifications.Notification {
	at := tx.UpdatedAt
	note := func(userID string, t notifications.Type, title string, amount int64, msg string) notifications.Notification {
		return notifications.Notification{
			UserID:        userID,
			Type:          t,
			Title:         title,
			Message:       msg,
			TransactionID: tx.Id,
			Amount:        amount,
			CreatedAt:     at,
		}
	}

	if tx.Status == models.FAILED {
		if tx.FromUserId == "" || tx.FromUserId == models.PlatformAccount {
			return nil
		}
		return []notifications.Notification{
			note(tx.FromUserId, notifications.TypePaymentFailed, "Payment failed", tx.Amount,
				fmt.Sprintf("Your %s of %s did not go through (%s).", tx.Type, formatAmount(tx.Amount), tx.FailureReason)),
		}
	}
	if tx.Status != models.COMPLETED {
		return nil
	}

	var out []notifications.Notification
	switch tx.Type {
	case models.PURCHASE, models.RESALE:
		out = append(out, note(tx.ToUserId, notifications.TypeSaleCompleted, "NFT sold", tx.RecipientEarnings,
			fmt.Sprintf("Your NFT sold. You earned %s.", formatAmount(tx.RecipientEarnings))))
		if tx.CreatorRoyalty > 0 {
			out = append(out, note(tx.CreatorId, notifications.TypeRoyaltyEarned, "Royalty earned", tx.CreatorRoyalty,
				fmt.Sprintf("You earned a %s royalty on a resale.", formatAmount(tx.CreatorRoyalty))))
		}
		out = append(out, note(tx.FromUserId, notifications.TypePaymentReceived, "Purchase complete", tx.Amount,
			"The NFT is now in your collection."))
	case models.MINT:
		out = append(out, note(tx.ToUserId, notifications.TypeMintCompleted, "Mint complete", tx.RecipientEarnings,
			fmt.Sprintf("Your NFT was minted. You earned %s after the minting fee.", formatAmount(tx.RecipientEarnings))))
	case models.TIP:
		out = append(out, note(tx.ToUserId, notifications.TypeTipReceived, "Tip received", tx.RecipientEarnings,
			fmt.Sprintf("You received a %s tip.", formatAmount(tx.RecipientEarnings))))
	case models.DEPOSIT:
		out = append(out, note(tx.ToUserId, notifications.TypeDepositCompleted, "Deposit complete", tx.Amount,
			fmt.Sprintf("%s was added to your wallet.", formatAmount(tx.Amount))))
	case models.WITHDRAWAL:
		out = append(out, note(tx.FromUserId, notifications.TypeWithdrawalCompleted, "Withdrawal sent", tx.Amount,
			fmt.Sprintf("%s was sent to your account.", formatAmount(tx.Amount))))
	case models.AD_REVENUE:
		out = append(out, note(tx.ToUserId, notifications.TypeAdRevenue, "Ad revenue paid", tx.Amount,
			fmt.Sprintf("You earned %s from ad-supported streams (%s).", formatAmount(tx.Amount), tx.Metadata["period_key"])))
	}
	return out
}

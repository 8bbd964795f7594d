// Package fees computes how a payment is split between the platform, the
// creator and the recipient. All rate math runs on shopspring/decimal and
// results are whole minor units.
package fees

import (
	"errors"
	"fmt"
	"sort"

	"github.com/chris/audio-market-settlement/pkg/models"
	"github.com/shopspring/decimal"
)

var (
	PurchasePlatformRate  = decimal.RequireFromString("0.10")
	ResalePlatformRate    = decimal.RequireFromString("0.075")
	MintingRate           = decimal.RequireFromString("0.05")
	AdRevenueCreatorShare = decimal.RequireFromString("0.40")

	MinRoyaltyPercent = decimal.NewFromInt(5)
	MaxRoyaltyPercent = decimal.NewFromInt(15)

	hundred = decimal.NewFromInt(100)
)

// MaxDrift is the largest difference, in minor units, tolerated between an
// amount and the sum of its components before a breakdown is rejected.
const MaxDrift = 1

var (
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrRoyaltyOutOfRange = errors.New("royalty percent must be between 0 and 100")
	ErrConservation      = errors.New("fee breakdown does not add up to amount")
	ErrUnsupportedType   = errors.New("transaction type has no fee rule")
)

// Breakdown is the split of one amount.
type Breakdown struct {
	PlatformFee       int64
	CreatorRoyalty    int64
	RecipientEarnings int64
	RoyaltyPercent    decimal.Decimal
}

// Total is the sum of all components.
func (b Breakdown) Total() int64 {
	return b.PlatformFee + b.CreatorRoyalty + b.RecipientEarnings
}

// Compute splits amount according to the rule for t. royaltyPercent is only
// read for resales and is clamped into [MinRoyaltyPercent, MaxRoyaltyPercent].
func Compute(t models.TransactionType, amount int64, royaltyPercent decimal.Decimal) (Breakdown, error) {
	if amount <= 0 {
		return Breakdown{}, ErrInvalidAmount
	}

	var b Breakdown
	switch t {
	case models.PURCHASE:
		b.PlatformFee = portion(amount, PurchasePlatformRate)
	case models.RESALE:
		royalty, err := ClampRoyalty(royaltyPercent)
		if err != nil {
			return Breakdown{}, err
		}
		b.RoyaltyPercent = royalty
		b.PlatformFee = portion(amount, ResalePlatformRate)
		b.CreatorRoyalty = portion(amount, royalty.Div(hundred))
	case models.MINT:
		b.PlatformFee = portion(amount, MintingRate)
	case models.TIP, models.DEPOSIT, models.WITHDRAWAL, models.AD_REVENUE:
		// pass-through
	default:
		return Breakdown{}, fmt.Errorf("%w: %q", ErrUnsupportedType, t)
	}
	b.RecipientEarnings = amount - b.PlatformFee - b.CreatorRoyalty

	if err := Verify(amount, b); err != nil {
		return Breakdown{}, err
	}
	return b, nil
}

// Verify checks that b conserves amount and has no negative component.
func Verify(amount int64, b Breakdown) error {
	if b.PlatformFee < 0 || b.CreatorRoyalty < 0 || b.RecipientEarnings < 0 {
		return fmt.Errorf("%w: negative component %+v", ErrConservation, b)
	}
	drift := amount - b.Total()
	if drift < 0 {
		drift = -drift
	}
	if drift > MaxDrift {
		return fmt.Errorf("%w: amount %d, components %d", ErrConservation, amount, b.Total())
	}
	return nil
}

// ClampRoyalty validates an absolute royalty percent and clamps it into the
// allowed band.
func ClampRoyalty(p decimal.Decimal) (decimal.Decimal, error) {
	if p.IsNegative() || p.GreaterThan(hundred) {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrRoyaltyOutOfRange, p)
	}
	if p.LessThan(MinRoyaltyPercent) {
		return MinRoyaltyPercent, nil
	}
	if p.GreaterThan(MaxRoyaltyPercent) {
		return MaxRoyaltyPercent, nil
	}
	return p, nil
}

// PercentFromBps converts basis points to a percent (1250 -> 12.5).
func PercentFromBps(bps int64) decimal.Decimal {
	return decimal.New(bps, -2)
}

// BpsFromPercent converts a percent to whole basis points.
func BpsFromPercent(p decimal.Decimal) int64 {
	return p.Mul(hundred).Round(0).IntPart()
}

// portion returns amount*rate rounded half-up to a whole minor unit.
func portion(amount int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(rate).Round(0).IntPart()
}

// CreatorPool is the part of a period's ad revenue that goes to creators.
// It rounds down so the platform never pays out more than the share.
func CreatorPool(totalRevenue int64) int64 {
	if totalRevenue <= 0 {
		return 0
	}
	return decimal.NewFromInt(totalRevenue).Mul(AdRevenueCreatorShare).Floor().IntPart()
}

// Share is one creator's cut of the ad revenue pool.
type Share struct {
	CreatorId string
	Streams   int64
	Amount    int64
}

// Apportion splits pool across creators in proportion to their stream
// counts. Each share is rounded down; the undistributed remainder is returned
// as dust and stays with the platform. Creators with no streams get nothing.
// Shares are sorted by creator id.
func Apportion(pool int64, streams map[string]int64) ([]Share, int64) {
	var total int64
	ids := make([]string, 0, len(streams))
	for id, n := range streams {
		if n <= 0 {
			continue
		}
		total += n
		ids = append(ids, id)
	}
	if pool <= 0 || total == 0 {
		return nil, max(pool, 0)
	}
	sort.Strings(ids)

	den := decimal.NewFromInt(total)
	p := decimal.NewFromInt(pool)
	shares := make([]Share, 0, len(ids))
	var paid int64
	for _, id := range ids {
		q, _ := decimal.NewFromInt(streams[id]).Mul(p).QuoRem(den, 0)
		amt := q.IntPart()
		paid += amt
		shares = append(shares, Share{CreatorId: id, Streams: streams[id], Amount: amt})
	}
	return shares, pool - paid
}

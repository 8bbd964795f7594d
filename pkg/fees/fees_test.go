package fees

import (
	"testing"

	"github.com/chris/audio-market-settlement/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute(t *testing.T) {
	t.Run("Purchase", func(t *testing.T) {
		b, err := Compute(models.PURCHASE, 100, decimal.Zero)
		require.NoError(t, err)
		assert.Equal(t, int64(10), b.PlatformFee)
		assert.Equal(t, int64(0), b.CreatorRoyalty)
		assert.Equal(t, int64(90), b.RecipientEarnings)
	})

	t.Run("Resale With 12 Percent Royalty", func(t *testing.T) {
		b, err := Compute(models.RESALE, 200, decimal.NewFromInt(12))
		require.NoError(t, err)
		assert.Equal(t, int64(15), b.PlatformFee)
		assert.Equal(t, int64(24), b.CreatorRoyalty)
		assert.Equal(t, int64(161), b.RecipientEarnings)
		assert.Equal(t, int64(200), b.Total())
	})

	t.Run("Tip", func(t *testing.T) {
		b, err := Compute(models.TIP, 5, decimal.Zero)
		require.NoError(t, err)
		assert.Equal(t, int64(0), b.PlatformFee)
		assert.Equal(t, int64(5), b.RecipientEarnings)
	})

	t.Run("Mint", func(t *testing.T) {
		b, err := Compute(models.MINT, 1000, decimal.Zero)
		require.NoError(t, err)
		assert.Equal(t, int64(50), b.PlatformFee)
		assert.Equal(t, int64(950), b.RecipientEarnings)
	})

	t.Run("Withdrawal And Deposit Pass Through", func(t *testing.T) {
		for _, typ := range []models.TransactionType{models.WITHDRAWAL, models.DEPOSIT} {
			b, err := Compute(typ, 777, decimal.Zero)
			require.NoError(t, err)
			assert.Equal(t, int64(0), b.PlatformFee)
			assert.Equal(t, int64(777), b.RecipientEarnings)
		}
	})

	t.Run("Invalid Amount", func(t *testing.T) {
		_, err := Compute(models.PURCHASE, 0, decimal.Zero)
		assert.ErrorIs(t, err, ErrInvalidAmount)
		_, err = Compute(models.TIP, -3, decimal.Zero)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("Unknown Type", func(t *testing.T) {
		_, err := Compute(models.TransactionType("refund"), 10, decimal.Zero)
		assert.ErrorIs(t, err, ErrUnsupportedType)
	})

	t.Run("Royalty Outside Absolute Range", func(t *testing.T) {
		_, err := Compute(models.RESALE, 100, decimal.NewFromInt(101))
		assert.ErrorIs(t, err, ErrRoyaltyOutOfRange)
		_, err = Compute(models.RESALE, 100, decimal.NewFromInt(-1))
		assert.ErrorIs(t, err, ErrRoyaltyOutOfRange)
	})
}

func TestComputeConservesAmount(t *testing.T) {
	types := []models.TransactionType{models.PURCHASE, models.RESALE, models.TIP, models.MINT, models.DEPOSIT, models.WITHDRAWAL}
	royalties := []int64{0, 3, 5, 7, 10, 12, 15, 20, 100}

	for _, typ := range types {
		for amount := int64(1); amount <= 2500; amount += 7 {
			for _, r := range royalties {
				b, err := Compute(typ, amount, decimal.NewFromInt(r))
				require.NoError(t, err)
				assert.Equal(t, amount, b.Total(), "type=%s amount=%d royalty=%d", typ, amount, r)
				assert.GreaterOrEqual(t, b.RecipientEarnings, int64(0))
			}
		}
	}
}

func TestClampRoyalty(t *testing.T) {
	cases := map[int64]int64{0: 5, 3: 5, 5: 5, 10: 10, 15: 15, 20: 15, 100: 15}
	for in, want := range cases {
		got, err := ClampRoyalty(decimal.NewFromInt(in))
		require.NoError(t, err)
		assert.True(t, got.Equal(decimal.NewFromInt(want)), "royalty %d clamped to %s", in, got)
	}

	got, err := ClampRoyalty(decimal.RequireFromString("12.5"))
	require.NoError(t, err)
	assert.Equal(t, "12.5", got.String())
}

func TestVerify(t *testing.T) {
	assert.NoError(t, Verify(100, Breakdown{PlatformFee: 10, RecipientEarnings: 90}))
	assert.NoError(t, Verify(100, Breakdown{PlatformFee: 10, RecipientEarnings: 89}))
	assert.ErrorIs(t, Verify(100, Breakdown{PlatformFee: 10, RecipientEarnings: 88}), ErrConservation)
	assert.ErrorIs(t, Verify(100, Breakdown{PlatformFee: 110, RecipientEarnings: -10}), ErrConservation)
}

func TestBasisPoints(t *testing.T) {
	assert.Equal(t, "12.5", PercentFromBps(1250).String())
	assert.Equal(t, int64(1250), BpsFromPercent(decimal.RequireFromString("12.5")))
}

func TestCreatorPool(t *testing.T) {
	assert.Equal(t, int64(400), CreatorPool(1000))
	assert.Equal(t, int64(4), CreatorPool(11))
	assert.Equal(t, int64(0), CreatorPool(0))
}

func TestApportion(t *testing.T) {
	t.Run("Proportional", func(t *testing.T) {
		shares, dust := Apportion(400, map[string]int64{"a": 300, "b": 100})
		require.Len(t, shares, 2)
		assert.Equal(t, Share{CreatorId: "a", Streams: 300, Amount: 300}, shares[0])
		assert.Equal(t, Share{CreatorId: "b", Streams: 100, Amount: 100}, shares[1])
		assert.Equal(t, int64(0), dust)
	})

	t.Run("Rounds Down And Reports Dust", func(t *testing.T) {
		shares, dust := Apportion(100, map[string]int64{"a": 1, "b": 1, "c": 1})
		var paid int64
		for _, s := range shares {
			assert.Equal(t, int64(33), s.Amount)
			paid += s.Amount
		}
		assert.Equal(t, int64(1), dust)
		assert.Equal(t, int64(100), paid+dust)
	})

	t.Run("Skips Creators Without Streams", func(t *testing.T) {
		shares, dust := Apportion(50, map[string]int64{"a": 0, "b": 10})
		require.Len(t, shares, 1)
		assert.Equal(t, "b", shares[0].CreatorId)
		assert.Equal(t, int64(50), shares[0].Amount)
		assert.Equal(t, int64(0), dust)
	})

	t.Run("No Streams", func(t *testing.T) {
		shares, dust := Apportion(50, map[string]int64{})
		assert.Empty(t, shares)
		assert.Equal(t, int64(50), dust)
	})
}

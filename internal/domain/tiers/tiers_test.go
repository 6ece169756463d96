package tiers

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()

	catalog, err := NewCatalog(DefaultTiers())
	require.NoError(t, err)

	return catalog
}

func TestNewTier(t *testing.T) {
	testCases := []struct {
		name        string
		tierName    string
		minSpending decimal.Decimal
		wantErr     error
	}{
		{
			name:        "valid tier",
			tierName:    "Silver",
			minSpending: decimal.NewFromInt(1000),
		},
		{
			name:        "empty name",
			tierName:    "",
			minSpending: decimal.NewFromInt(1000),
			wantErr:     ErrTierNameEmpty,
		},
		{
			name:        "zero threshold",
			tierName:    "Silver",
			minSpending: decimal.Zero,
			wantErr:     ErrTierThresholdInvalid,
		},
		{
			name:        "negative threshold",
			tierName:    "Silver",
			minSpending: decimal.NewFromInt(-100),
			wantErr:     ErrTierThresholdInvalid,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tier, err := NewTier(tc.tierName, tc.minSpending)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.tierName, tier.Name())
			assert.True(t, tier.MinSpending().Equal(tc.minSpending))
		})
	}
}

func TestNewCatalog(t *testing.T) {
	silver, err := NewTier("Silver", decimal.NewFromInt(1000))
	require.NoError(t, err)

	t.Run("base tier always present", func(t *testing.T) {
		catalog, err := NewCatalog(nil)
		require.NoError(t, err)

		tt := catalog.Tiers()
		require.Len(t, tt, 1)
		assert.Equal(t, BaseTierName, tt[0].Name())
		assert.True(t, tt[0].MinSpending().IsZero())
	})

	t.Run("ordered ascending by threshold", func(t *testing.T) {
		catalog, err := NewCatalog([]Tier{
			{name: "Platinum", minSpending: decimal.NewFromInt(10000)},
			{name: "Silver", minSpending: decimal.NewFromInt(1000)},
			{name: "Gold", minSpending: decimal.NewFromInt(5000)},
		})
		require.NoError(t, err)

		var names []string
		for _, tier := range catalog.Tiers() {
			names = append(names, tier.Name())
		}

		assert.Equal(t, []string{"Bronze", "Silver", "Gold", "Platinum"}, names)
	})

	t.Run("duplicate name rejected", func(t *testing.T) {
		_, err := NewCatalog([]Tier{
			silver,
			{name: "Silver", minSpending: decimal.NewFromInt(2000)},
		})
		require.ErrorIs(t, err, ErrTierNameDuplicate)
	})

	t.Run("duplicate threshold rejected", func(t *testing.T) {
		_, err := NewCatalog([]Tier{
			silver,
			{name: "Gold", minSpending: decimal.NewFromInt(1000)},
		})
		require.ErrorIs(t, err, ErrTierThresholdConflict)
	})

	t.Run("base name collision rejected", func(t *testing.T) {
		_, err := NewCatalog([]Tier{
			{name: BaseTierName, minSpending: decimal.NewFromInt(500)},
		})
		require.ErrorIs(t, err, ErrTierNameDuplicate)
	})
}

func TestCatalog_ResolveCurrent(t *testing.T) {
	catalog := newTestCatalog(t)

	testCases := []struct {
		name     string
		spending string
		want     string
	}{
		{name: "zero spending", spending: "0", want: "Bronze"},
		{name: "below first threshold", spending: "999.999", want: "Bronze"},
		{name: "exactly first threshold", spending: "1000", want: "Silver"},
		{name: "between thresholds", spending: "1200", want: "Silver"},
		{name: "just below second threshold", spending: "4999.99", want: "Silver"},
		{name: "exactly second threshold", spending: "5000", want: "Gold"},
		{name: "just below top threshold", spending: "9999.99", want: "Gold"},
		{name: "exactly top threshold", spending: "10000", want: "Platinum"},
		{name: "above top threshold", spending: "1000000", want: "Platinum"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			spending, err := decimal.NewFromString(tc.spending)
			require.NoError(t, err)

			assert.Equal(t, tc.want, catalog.ResolveCurrent(spending).Name())
		})
	}
}

func TestCatalog_ResolveNext(t *testing.T) {
	catalog := newTestCatalog(t)

	testCases := []struct {
		name          string
		spending      string
		wantTier      string
		wantRemaining string
		wantOK        bool
	}{
		{name: "zero spending", spending: "0", wantTier: "Silver", wantRemaining: "1000", wantOK: true},
		{name: "below first threshold", spending: "999.999", wantTier: "Silver", wantRemaining: "0.001", wantOK: true},
		{name: "exactly first threshold", spending: "1000", wantTier: "Gold", wantRemaining: "4000", wantOK: true},
		{name: "between thresholds", spending: "1200", wantTier: "Gold", wantRemaining: "3800", wantOK: true},
		{name: "exactly second threshold", spending: "5000", wantTier: "Platinum", wantRemaining: "5000", wantOK: true},
		{name: "exactly top threshold", spending: "10000", wantOK: false},
		{name: "above top threshold", spending: "15000", wantOK: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			spending, err := decimal.NewFromString(tc.spending)
			require.NoError(t, err)

			next, remaining, ok := catalog.ResolveNext(spending)

			require.Equal(t, tc.wantOK, ok)

			if !tc.wantOK {
				return
			}

			assert.Equal(t, tc.wantTier, next.Name())
			assert.Equal(t, tc.wantRemaining, remaining.String())
			assert.True(t, remaining.IsPositive())
		})
	}
}

func TestCatalog_Rank(t *testing.T) {
	catalog := newTestCatalog(t)

	assert.Equal(t, 0, catalog.Rank("Bronze"))
	assert.Equal(t, 1, catalog.Rank("Silver"))
	assert.Equal(t, 2, catalog.Rank("Gold"))
	assert.Equal(t, 3, catalog.Rank("Platinum"))
	assert.Equal(t, -1, catalog.Rank("Diamond"))
}

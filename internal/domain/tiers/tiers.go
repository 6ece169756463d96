package tiers

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"
)

var (
	ErrTierNameEmpty         = errors.New("tier name is empty")
	ErrTierThresholdInvalid  = errors.New("tier threshold must be positive")
	ErrTierNameDuplicate     = errors.New("tier name already exists in catalog")
	ErrTierThresholdConflict = errors.New("tier threshold already exists in catalog")
)

// BaseTierName is the implicit zero-threshold tier every account starts at.
const BaseTierName = "Bronze"

type Tier struct {
	name        string
	minSpending decimal.Decimal
}

// NewTier returns a tier with a positive minimum spending threshold.
// The base tier is implicit and never constructed through NewTier.
func NewTier(name string, minSpending decimal.Decimal) (Tier, error) {
	if name == "" {
		return Tier{}, ErrTierNameEmpty
	}

	if !minSpending.IsPositive() {
		return Tier{}, ErrTierThresholdInvalid
	}

	return Tier{
		name:        name,
		minSpending: minSpending,
	}, nil
}

func (t Tier) Name() string {
	return t.name
}

func (t Tier) MinSpending() decimal.Decimal {
	return t.minSpending
}

// DefaultTiers returns the seeded tier ladder.
func DefaultTiers() []Tier {
	return []Tier{
		{name: "Silver", minSpending: decimal.NewFromInt(1000)},
		{name: "Gold", minSpending: decimal.NewFromInt(5000)},
		{name: "Platinum", minSpending: decimal.NewFromInt(10000)},
	}
}

// Catalog is an ordered, read-only set of tiers. It always contains the
// implicit base tier, so tier resolution is total over spending >= 0.
type Catalog struct {
	tiers []Tier
}

func NewCatalog(tt []Tier) (*Catalog, error) {
	catalog := make([]Tier, 0, len(tt)+1)

	catalog = append(catalog, Tier{name: BaseTierName, minSpending: decimal.Zero})

	names := map[string]struct{}{BaseTierName: {}}

	for _, t := range tt {
		if t.name == "" {
			return nil, ErrTierNameEmpty
		}

		if !t.minSpending.IsPositive() {
			return nil, ErrTierThresholdInvalid
		}

		if _, ok := names[t.name]; ok {
			return nil, ErrTierNameDuplicate
		}

		names[t.name] = struct{}{}

		catalog = append(catalog, t)
	}

	sort.Slice(catalog, func(i, j int) bool {
		return catalog[i].minSpending.LessThan(catalog[j].minSpending)
	})

	for i := 1; i < len(catalog); i++ {
		if catalog[i].minSpending.Equal(catalog[i-1].minSpending) {
			return nil, ErrTierThresholdConflict
		}
	}

	return &Catalog{tiers: catalog}, nil
}

// Tiers returns the catalog entries ascending by threshold, base tier first.
func (c *Catalog) Tiers() []Tier {
	tt := make([]Tier, len(c.tiers))
	copy(tt, c.tiers)

	return tt
}

// ResolveCurrent returns the tier with the greatest threshold not exceeding
// spending. Spending below every seeded threshold resolves to the base tier.
func (c *Catalog) ResolveCurrent(spending decimal.Decimal) Tier {
	current := c.tiers[0]

	for _, t := range c.tiers[1:] {
		if t.minSpending.GreaterThan(spending) {
			break
		}

		current = t
	}

	return current
}

// ResolveNext returns the tier with the smallest threshold strictly exceeding
// spending, paired with the remaining distance to it. It reports false when
// spending already meets the highest threshold.
func (c *Catalog) ResolveNext(spending decimal.Decimal) (Tier, decimal.Decimal, bool) {
	for _, t := range c.tiers[1:] {
		if t.minSpending.GreaterThan(spending) {
			return t, t.minSpending.Sub(spending), true
		}
	}

	return Tier{}, decimal.Zero, false
}

// Rank returns the position of a tier name in the ladder, base tier being 0.
// Unknown names report -1.
func (c *Catalog) Rank(name string) int {
	for i, t := range c.tiers {
		if t.name == name {
			return i
		}
	}

	return -1
}

package promo

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tier enumerates customer loyalty tiers in ascending order of value.
type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
	TierDiamond  Tier = "diamond"
)

// CartLine is a single cart entry. The engine treats lines as immutable
// input: it never changes quantities or prices, only records which line IDs
// a discount touched.
type CartLine struct {
	ID        string
	SKU       string
	Name      string
	Category  string
	Brand     string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Total returns quantity times unit price for the line.
func (l CartLine) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is an ordered sequence of cart lines.
type Cart []CartLine

// Subtotal returns the sum of line totals across the cart.
func (c Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c {
		sum = sum.Add(l.Total())
	}
	return sum
}

// TotalQuantity returns the sum of quantities across the cart.
func (c Cart) TotalQuantity() int {
	total := 0
	for _, l := range c {
		total += l.Quantity
	}
	return total
}

// LineIDs returns the IDs of every line in cart order.
func (c Cart) LineIDs() []string {
	ids := make([]string, len(c))
	for i, l := range c {
		ids[i] = l.ID
	}
	return ids
}

// CustomerProfile carries the customer attributes rules can match on.
// Optional per pricing request; the engine never mutates it.
type CustomerProfile struct {
	ID             string
	Tier           Tier
	LifetimeSpend  decimal.Decimal
	LoyaltyPoints  int
	PriorPurchases int
	BirthMonth     time.Month // 0 when unknown
	RegisteredAt   time.Time
}

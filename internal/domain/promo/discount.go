package promo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Volume ladder: 15% at 10+ units, 10% at 5+ units.
var (
	volumeHighQty = 10
	volumeMidQty  = 5
	volumeHighPct = decimal.NewFromInt(15)
	volumeMidPct  = decimal.NewFromInt(10)
)

// Applied describes one rule's contribution to a priced cart.
type Applied struct {
	RuleID      string
	Name        string
	Description string
	Amount      decimal.Decimal
	LineIDs     []string
}

// Compute runs the rule's discount strategy against the cart and returns the
// concrete discount. ok is false when the strategy yields nothing positive;
// callers drop such results silently.
//
// Every branch rounds its amount to 2 decimal places before returning.
// Successive rules price against the original cart, so amounts are additive
// across a stacking pass, never compounding.
func Compute(r *Rule, cart Cart, customer *CustomerProfile) (Applied, bool) {
	var (
		amount  decimal.Decimal
		lineIDs []string
		desc    = r.Description
	)

	switch spec := r.Discount.(type) {
	case PercentOff:
		amount, lineIDs = percentOver(cart, spec.Percent, spec.Cap, spec.ApplyTo, matchAll)
	case CategoryPercentOff:
		amount, lineIDs = percentOver(cart, spec.Percent, spec.Cap, spec.ApplyTo, matchCategory(spec.Categories))
	case BrandPercentOff:
		amount, lineIDs = percentOver(cart, spec.Percent, spec.Cap, spec.ApplyTo, matchBrand(spec.Brands))
	case TierPercentOff:
		if customer == nil {
			return Applied{}, false
		}
		amount, lineIDs = percentOver(cart, spec.Percent, spec.Cap, ApplyAll, matchAll)
		desc = fmt.Sprintf("%s (%s tier)", r.Description, customer.Tier)
	case AmountOff:
		amount = capAt(spec.Amount, spec.Cap).Round(2)
		lineIDs = cart.LineIDs()
	case BuyXGetY:
		amount, lineIDs = buyXGetY(cart, spec)
	case Bundle:
		amount, lineIDs = bundleDiscount(cart, spec)
	case VolumePercent:
		var pct decimal.Decimal
		amount, pct, lineIDs = volumeDiscount(cart, spec)
		desc = fmt.Sprintf("%s%% off for %d items", pct, cart.TotalQuantity())
	default:
		// Unreachable for a validated catalog.
		return Applied{}, false
	}

	if !amount.IsPositive() {
		return Applied{}, false
	}

	return Applied{
		RuleID:      r.ID,
		Name:        r.Name,
		Description: desc,
		Amount:      amount,
		LineIDs:     lineIDs,
	}, true
}

func matchAll(CartLine) bool { return true }

func matchCategory(categories []string) func(CartLine) bool {
	return func(l CartLine) bool { return inFold(l.Category, categories) }
}

func matchBrand(brands []string) func(CartLine) bool {
	return func(l CartLine) bool { return inFold(l.Brand, brands) }
}

func inFold(v string, set []string) bool {
	for _, want := range set {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}

// percentOver takes pct percent of the matching lines' total, optionally
// narrowed to the single cheapest matching line, clamped to cap.
func percentOver(cart Cart, pct, limit decimal.Decimal, target ApplyTarget, match func(CartLine) bool) (decimal.Decimal, []string) {
	subset := make(Cart, 0, len(cart))
	for _, l := range cart {
		if match(l) {
			subset = append(subset, l)
		}
	}
	if len(subset) == 0 {
		return decimal.Zero, nil
	}

	if target == ApplyCheapest {
		cheapest := subset[0]
		for _, l := range subset[1:] {
			if l.UnitPrice.LessThan(cheapest.UnitPrice) {
				cheapest = l
			}
		}
		subset = Cart{cheapest}
	}

	amount := subset.Subtotal().Mul(pct).Div(hundred)
	return capAt(amount, limit).Round(2), subset.LineIDs()
}

// buyXGetY allocates free units greedily, cheapest eligible lines first, so
// a free unit is never priced higher than a still-chargeable one. It is a
// fold over an immutable view of the cart: the running pool of eligible
// units and the free-unit budget are explicit accumulators.
func buyXGetY(cart Cart, spec BuyXGetY) (decimal.Decimal, []string) {
	type slot struct {
		line      CartLine
		remaining int
	}

	eligible := make([]slot, 0, len(cart))
	pool := 0
	for _, l := range cart {
		if len(spec.Categories) > 0 && !inFold(l.Category, spec.Categories) {
			continue
		}
		eligible = append(eligible, slot{line: l, remaining: l.Quantity})
		pool += l.Quantity
	}

	// Cheapest first; ties keep original cart order.
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].line.UnitPrice.LessThan(eligible[j].line.UnitPrice)
	})

	var (
		discount = decimal.Zero
		free     = 0
		lineIDs  []string
	)
	for i := 0; i < len(eligible); {
		if eligible[i].remaining == 0 {
			i++
			continue
		}
		if pool < spec.Buy || free >= spec.MaxFree {
			break
		}

		grant := spec.Get
		if eligible[i].remaining < grant {
			grant = eligible[i].remaining
		}
		if budget := spec.MaxFree - free; budget < grant {
			grant = budget
		}

		discount = discount.Add(eligible[i].line.UnitPrice.Mul(decimal.NewFromInt(int64(grant))))
		if n := len(lineIDs); n == 0 || lineIDs[n-1] != eligible[i].line.ID {
			lineIDs = append(lineIDs, eligible[i].line.ID)
		}
		eligible[i].remaining -= grant
		free += grant
		pool -= spec.Buy
	}

	return discount.Round(2), lineIDs
}

// bundleDiscount applies the fixed bundle amount to the whole cart when
// every required component is satisfied. All-or-nothing: one missing
// component drops the discount to zero.
func bundleDiscount(cart Cart, spec Bundle) (decimal.Decimal, []string) {
	for _, comp := range spec.Components {
		held := 0
		for _, l := range cart {
			switch {
			case comp.SKU != "":
				if strings.EqualFold(l.SKU, comp.SKU) {
					held += l.Quantity
				}
			case comp.Category != "":
				if strings.EqualFold(l.Category, comp.Category) {
					held += l.Quantity
				}
			case comp.Brand != "":
				if strings.EqualFold(l.Brand, comp.Brand) {
					held += l.Quantity
				}
			}
		}
		if held < comp.Quantity {
			return decimal.Zero, nil
		}
	}
	return spec.Amount.Round(2), cart.LineIDs()
}

// volumeDiscount picks the ladder percentage for the cart's total quantity
// and applies it to the whole cart total.
func volumeDiscount(cart Cart, spec VolumePercent) (amount, pct decimal.Decimal, lineIDs []string) {
	qty := cart.TotalQuantity()
	switch {
	case qty >= volumeHighQty:
		pct = volumeHighPct
	case qty >= volumeMidQty:
		pct = volumeMidPct
	default:
		pct = spec.BasePercent
	}

	amount = cart.Subtotal().Mul(pct).Div(hundred)
	return capAt(amount, spec.Cap).Round(2), pct, cart.LineIDs()
}

// capAt clamps amount to limit when a positive cap is configured.
func capAt(amount, limit decimal.Decimal) decimal.Decimal {
	if limit.IsPositive() && amount.GreaterThan(limit) {
		return limit
	}
	return amount
}

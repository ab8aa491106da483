package promo

import (
	"strings"
	"time"
)

// normalizeCode canonicalizes promotion codes for comparison. Codes are
// matched case-insensitively, the same way the store looks them up.
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Live reports whether rule is within its lifecycle at now: it must be
// enabled and inside its schedule window (inclusive bounds, zero time =
// unbounded), with redemptions left under any cap. Live ignores the cart,
// the customer, and any supplied code.
func Live(r *Rule, now time.Time) bool {
	if !r.Active {
		return false
	}
	if !r.StartsAt.IsZero() && now.Before(r.StartsAt) {
		return false
	}
	if !r.EndsAt.IsZero() && now.After(r.EndsAt) {
		return false
	}
	if r.MaxRedemptions > 0 && r.Redemptions >= r.MaxRedemptions {
		return false
	}
	return true
}

// Eligible reports whether rule can apply to cart at now. For a code-gated
// rule, suppliedCode must match the rule's code; auto rules ignore it.
//
// Pure predicate: all checks are conjunctive and short-circuit on the first
// failure. A missing customer fails any customer-dependent condition rather
// than erroring.
func Eligible(r *Rule, cart Cart, customer *CustomerProfile, suppliedCode string, now time.Time) bool {
	if !Live(r, now) {
		return false
	}

	if r.Mode == ActivationCode && normalizeCode(suppliedCode) != normalizeCode(r.Code) {
		return false
	}

	c := &r.Conditions

	subtotal := cart.Subtotal()
	if c.MinAmount.IsPositive() && subtotal.LessThan(c.MinAmount) {
		return false
	}
	if c.MaxAmount.IsPositive() && subtotal.GreaterThan(c.MaxAmount) {
		return false
	}
	if c.MinQuantity > 0 && cart.TotalQuantity() < c.MinQuantity {
		return false
	}

	// Membership dimensions: OR within a set, AND across distinct sets.
	if len(c.Categories) > 0 && !cartHasAny(cart, c.Categories, func(l CartLine) string { return l.Category }) {
		return false
	}
	if len(c.Brands) > 0 && !cartHasAny(cart, c.Brands, func(l CartLine) string { return l.Brand }) {
		return false
	}
	if len(c.SKUs) > 0 && !cartHasAny(cart, c.SKUs, func(l CartLine) string { return l.SKU }) {
		return false
	}

	if len(c.Tiers) > 0 {
		if customer == nil {
			return false
		}
		found := false
		for _, t := range c.Tiers {
			if customer.Tier == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if c.FirstPurchase && (customer == nil || customer.PriorPurchases != 0) {
		return false
	}
	if c.BirthMonth && (customer == nil || customer.BirthMonth != now.Month()) {
		return false
	}

	if len(c.Weekdays) > 0 {
		found := false
		for _, d := range c.Weekdays {
			if now.Weekday() == d {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if h := c.Hours; h != nil {
		hour := now.Hour()
		if hour < h.Start || hour > h.End {
			return false
		}
	}

	return true
}

// cartHasAny reports whether at least one cart line's attribute (selected by
// get) appears in the given set.
func cartHasAny(cart Cart, set []string, get func(CartLine) string) bool {
	for _, l := range cart {
		v := get(l)
		for _, want := range set {
			if strings.EqualFold(v, want) {
				return true
			}
		}
	}
	return false
}

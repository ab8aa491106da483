package promo

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultNudgeLimit caps how many upsell nudges Recommend returns by default.
const DefaultNudgeLimit = 3

// nearThreshold is the lower bound of the near-miss band: a cart within
// [80%, 100%) of a rule's threshold earns a nudge.
var nearThreshold = decimal.NewFromFloat(0.8)

// Nudge is an advisory "spend more / add items" suggestion. It has no effect
// on pricing.
type Nudge struct {
	RuleID      string
	Message     string
	AmountShort decimal.Decimal // amount still needed; zero for quantity nudges
	ItemsShort  int             // items still needed; zero for amount nudges
}

// Recommend scans auto-apply, active catalog rules that missed the outcome
// and emits near-miss nudges in catalog order, at most limit of them
// (DefaultNudgeLimit when limit is not positive).
func Recommend(cart Cart, outcome Outcome, catalog []Rule, limit int) []Nudge {
	if limit <= 0 {
		limit = DefaultNudgeLimit
	}

	appliedIDs := make(map[string]struct{}, len(outcome.Applied))
	for _, a := range outcome.Applied {
		appliedIDs[a.RuleID] = struct{}{}
	}

	subtotal := cart.Subtotal()
	quantity := cart.TotalQuantity()

	var nudges []Nudge
	for i := range catalog {
		if len(nudges) >= limit {
			break
		}
		r := &catalog[i]
		if !r.Active || r.Mode != ActivationAuto {
			continue
		}
		if _, ok := appliedIDs[r.ID]; ok {
			continue
		}

		if min := r.Conditions.MinAmount; min.IsPositive() &&
			subtotal.LessThan(min) && subtotal.GreaterThanOrEqual(min.Mul(nearThreshold)) {
			short := min.Sub(subtotal).Round(2)
			nudges = append(nudges, Nudge{
				RuleID:      r.ID,
				Message:     fmt.Sprintf("Spend AED %s more to unlock %s", short.StringFixed(2), r.Description),
				AmountShort: short,
			})
			continue
		}

		if min := r.Conditions.MinQuantity; min > 0 && quantity < min {
			qty := decimal.NewFromInt(int64(quantity))
			if qty.GreaterThanOrEqual(decimal.NewFromInt(int64(min)).Mul(nearThreshold)) {
				short := min - quantity
				nudges = append(nudges, Nudge{
					RuleID:     r.ID,
					Message:    fmt.Sprintf("Add %d more item(s) to unlock %s", short, r.Description),
					ItemsShort: short,
				})
			}
		}
	}

	return nudges
}

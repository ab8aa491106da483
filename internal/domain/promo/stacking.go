package promo

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Outcome is a fully priced cart.
type Outcome struct {
	Applied       []Applied
	TotalDiscount decimal.Decimal
	OriginalTotal decimal.Decimal
	FinalTotal    decimal.Decimal
}

// Engine prices carts against a validated promotion catalog. It holds no
// mutable state, so a single Engine serves concurrent pricing passes.
type Engine struct {
	catalog []Rule
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine's wall clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine validates the catalog and returns an engine over it. An
// inconsistent rule fails here, at load time, with a *RuleConfigError.
func NewEngine(catalog []Rule, opts ...Option) (*Engine, error) {
	if err := ValidateCatalog(catalog); err != nil {
		return nil, err
	}
	e := &Engine{catalog: catalog, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Catalog returns the engine's rule set in catalog order.
func (e *Engine) Catalog() []Rule {
	return e.catalog
}

// Price resolves the whole catalog against the cart: filters eligible rules,
// orders them by priority (descending, catalog order on ties), and applies
// discounts respecting stackability.
//
// Non-stackable semantics: a non-stackable rule only fires when nothing has
// been applied yet, and once one fires nothing further may apply. A skipped
// non-stackable rule does not stop later stackable rules from combining.
//
// Every calculator runs against the original cart lines, so discounts add
// up rather than compound. The final total never goes below zero. An empty
// cart degrades to a zero outcome, never an error.
func (e *Engine) Price(cart Cart, customer *CustomerProfile, codes []string) Outcome {
	now := e.now()

	var candidates []*Rule
	for i := range e.catalog {
		r := &e.catalog[i]
		switch r.Mode {
		case ActivationAuto:
			if Eligible(r, cart, customer, "", now) {
				candidates = append(candidates, r)
			}
		case ActivationCode:
			for _, code := range codes {
				if Eligible(r, cart, customer, code, now) {
					candidates = append(candidates, r)
					break
				}
			}
		}
	}

	// Stable keeps catalog order on equal priorities.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority > candidates[j].Priority
	})

	var (
		applied       []Applied
		totalDiscount = decimal.Zero
	)
	for _, r := range candidates {
		if len(applied) > 0 && !r.Stackable {
			continue
		}
		a, ok := Compute(r, cart, customer)
		if !ok {
			continue
		}
		applied = append(applied, a)
		totalDiscount = totalDiscount.Add(a.Amount)
		if !r.Stackable {
			break
		}
	}

	originalTotal := cart.Subtotal().Round(2)
	totalDiscount = totalDiscount.Round(2)
	finalTotal := originalTotal.Sub(totalDiscount).Round(2)
	if finalTotal.IsNegative() {
		finalTotal = decimal.Zero
	}

	return Outcome{
		Applied:       applied,
		TotalDiscount: totalDiscount,
		OriginalTotal: originalTotal,
		FinalTotal:    finalTotal,
	}
}

// Package promo implements the promotion and discount rule engine: rule
// eligibility evaluation, per-strategy discount calculation, priority-ordered
// stacking resolution, and near-miss upsell recommendations.
//
// The engine is a pure computation. It performs no I/O, owns no mutable
// state, and receives the wall clock as an explicit input, so concurrent
// pricing passes need no coordination.
package promo

import (
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ActivationMode selects how a rule enters a pricing pass. The two modes are
// mutually exclusive: a rule is either applied automatically whenever it is
// eligible, or only when the caller supplies its code.
type ActivationMode string

const (
	// ActivationAuto applies the rule whenever its conditions hold.
	ActivationAuto ActivationMode = "auto"
	// ActivationCode gates the rule behind a caller-supplied promotion code.
	ActivationCode ActivationMode = "code"
)

// HourWindow restricts a rule to a daily hour range, inclusive on both ends.
type HourWindow struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Conditions is a conjunction of optional predicates. A zero-value field
// means "no requirement" for that dimension.
type Conditions struct {
	MinAmount     decimal.Decimal `json:"min_amount,omitempty"`
	MaxAmount     decimal.Decimal `json:"max_amount,omitempty"`
	MinQuantity   int             `json:"min_quantity,omitempty"`
	Categories    []string        `json:"categories,omitempty"`
	Brands        []string        `json:"brands,omitempty"`
	SKUs          []string        `json:"skus,omitempty"`
	Tiers         []Tier          `json:"tiers,omitempty"`
	FirstPurchase bool            `json:"first_purchase,omitempty"`
	BirthMonth    bool            `json:"birth_month,omitempty"`
	Weekdays      []time.Weekday  `json:"weekdays,omitempty"`
	Hours         *HourWindow     `json:"hours,omitempty"`
}

// Rule is one configured promotion. Rules are long-lived configuration:
// the engine reads them and never writes back. The Redemptions counter is
// owned by the backing store; the engine only consumes it.
type Rule struct {
	ID          string
	Name        string
	NameAr      string // localized display name, optional
	Description string

	Active   bool
	StartsAt time.Time // zero = no lower bound
	EndsAt   time.Time // zero = no expiry

	// Priority orders rules within a pricing pass; higher fires first.
	Priority  int
	Stackable bool

	Mode ActivationMode
	Code string // required iff Mode is ActivationCode

	Conditions Conditions
	Discount   DiscountSpec

	MaxRedemptions int // 0 = unlimited
	Redemptions    int
}

// DiscountKind tags a DiscountSpec variant for persistence and display.
type DiscountKind string

const (
	KindPercent         DiscountKind = "percentage"
	KindCategoryPercent DiscountKind = "category_percentage"
	KindBrandPercent    DiscountKind = "brand_percentage"
	KindTierPercent     DiscountKind = "tier_percentage"
	KindAmount          DiscountKind = "fixed_amount"
	KindBuyXGetY        DiscountKind = "buy_x_get_y"
	KindBundle          DiscountKind = "bundle"
	KindVolume          DiscountKind = "volume"
)

// ApplyTarget narrows which of the matching lines a percentage discount
// covers.
type ApplyTarget string

const (
	// ApplyAll covers every matching line. The zero value means the same.
	ApplyAll ApplyTarget = "all"
	// ApplyCheapest covers only the single cheapest matching line.
	ApplyCheapest ApplyTarget = "cheapest_line"
)

// DiscountSpec is a rule's discount calculation strategy. It is a sealed sum
// type: exactly one variant per strategy, each carrying only the parameters
// that strategy needs. Compute dispatches over the variants exhaustively, so
// adding a strategy is a compile-visible change.
type DiscountSpec interface {
	Kind() DiscountKind
	validate() error
}

// PercentOff takes a percentage off the whole cart.
type PercentOff struct {
	Percent decimal.Decimal
	Cap     decimal.Decimal // zero = uncapped
	ApplyTo ApplyTarget
}

// CategoryPercentOff takes a percentage off lines in the given categories.
type CategoryPercentOff struct {
	Percent    decimal.Decimal
	Categories []string
	Cap        decimal.Decimal
	ApplyTo    ApplyTarget
}

// BrandPercentOff takes a percentage off lines of the given brands.
type BrandPercentOff struct {
	Percent decimal.Decimal
	Brands  []string
	Cap     decimal.Decimal
	ApplyTo ApplyTarget
}

// TierPercentOff takes a percentage off the whole cart for loyalty members.
// It yields nothing without a customer profile; the result description names
// the customer's tier.
type TierPercentOff struct {
	Percent decimal.Decimal
	Cap     decimal.Decimal
}

// AmountOff takes a fixed amount off the cart. The global final-total clamp
// keeps the outcome non-negative; the amount itself is not reduced to the
// subtotal.
type AmountOff struct {
	Amount decimal.Decimal
	Cap    decimal.Decimal
}

// BuyXGetY grants free units on a buy/get ratio, cheapest eligible units
// first. An empty Categories list makes every line eligible.
type BuyXGetY struct {
	Buy        int
	Get        int
	MaxFree    int
	Categories []string
}

// BundleComponent is one required part of a bundle: exactly one of SKU,
// Category, or Brand set, plus the quantity the cart must hold.
type BundleComponent struct {
	SKU      string `json:"sku,omitempty"`
	Category string `json:"category,omitempty"`
	Brand    string `json:"brand,omitempty"`
	Quantity int    `json:"quantity"`
}

// Bundle takes a fixed amount off when every component is present in the
// cart. Partial satisfaction yields nothing.
type Bundle struct {
	Components []BundleComponent
	Amount     decimal.Decimal
}

// VolumePercent applies an escalating percentage ladder over total cart
// quantity: 15% at 10+ units, 10% at 5+, otherwise BasePercent.
type VolumePercent struct {
	BasePercent decimal.Decimal
	Cap         decimal.Decimal
}

func (PercentOff) Kind() DiscountKind         { return KindPercent }
func (CategoryPercentOff) Kind() DiscountKind { return KindCategoryPercent }
func (BrandPercentOff) Kind() DiscountKind    { return KindBrandPercent }
func (TierPercentOff) Kind() DiscountKind     { return KindTierPercent }
func (AmountOff) Kind() DiscountKind          { return KindAmount }
func (BuyXGetY) Kind() DiscountKind           { return KindBuyXGetY }
func (Bundle) Kind() DiscountKind             { return KindBundle }
func (VolumePercent) Kind() DiscountKind      { return KindVolume }

func validatePercent(p decimal.Decimal) error {
	if !p.IsPositive() {
		return errors.New("percent must be positive")
	}
	if p.GreaterThan(hundred) {
		return errors.New("percent must not exceed 100")
	}
	return nil
}

func validateTarget(t ApplyTarget) error {
	switch t {
	case "", ApplyAll, ApplyCheapest:
		return nil
	default:
		return errors.Errorf("unknown apply target %q", t)
	}
}

func (s PercentOff) validate() error {
	if err := validatePercent(s.Percent); err != nil {
		return err
	}
	return validateTarget(s.ApplyTo)
}

func (s CategoryPercentOff) validate() error {
	if err := validatePercent(s.Percent); err != nil {
		return err
	}
	if len(s.Categories) == 0 {
		return errors.New("categories required")
	}
	return validateTarget(s.ApplyTo)
}

func (s BrandPercentOff) validate() error {
	if err := validatePercent(s.Percent); err != nil {
		return err
	}
	if len(s.Brands) == 0 {
		return errors.New("brands required")
	}
	return validateTarget(s.ApplyTo)
}

func (s TierPercentOff) validate() error {
	return validatePercent(s.Percent)
}

func (s AmountOff) validate() error {
	if !s.Amount.IsPositive() {
		return errors.New("amount must be positive")
	}
	return nil
}

func (s BuyXGetY) validate() error {
	if s.Buy < 1 {
		return errors.New("buy quantity must be at least 1")
	}
	if s.Get < 1 {
		return errors.New("get quantity must be at least 1")
	}
	if s.MaxFree < 1 {
		return errors.New("max free items must be at least 1")
	}
	return nil
}

func (s Bundle) validate() error {
	if len(s.Components) == 0 {
		return errors.New("components required")
	}
	for i, c := range s.Components {
		set := 0
		for _, v := range []string{c.SKU, c.Category, c.Brand} {
			if v != "" {
				set++
			}
		}
		if set != 1 {
			return errors.Errorf("component %d: exactly one of sku, category, brand required", i)
		}
		if c.Quantity < 1 {
			return errors.Errorf("component %d: quantity must be at least 1", i)
		}
	}
	if !s.Amount.IsPositive() {
		return errors.New("bundle amount must be positive")
	}
	return nil
}

func (s VolumePercent) validate() error {
	if s.BasePercent.IsNegative() {
		return errors.New("base percent must not be negative")
	}
	return nil
}

// RuleConfigError reports an internally inconsistent rule found at catalog
// load time. Pricing-time code can assume a validated catalog.
type RuleConfigError struct {
	RuleID string
	Reason string
}

func (e *RuleConfigError) Error() string {
	return fmt.Sprintf("promotion %s: %s", e.RuleID, e.Reason)
}

// Validate checks the rule's internal consistency.
func (r *Rule) Validate() error {
	fail := func(format string, args ...any) error {
		return &RuleConfigError{RuleID: r.ID, Reason: fmt.Sprintf(format, args...)}
	}

	if r.ID == "" {
		return &RuleConfigError{RuleID: "(blank)", Reason: "id required"}
	}
	switch r.Mode {
	case ActivationAuto:
		if r.Code != "" {
			return fail("auto rule must not carry a code")
		}
	case ActivationCode:
		if r.Code == "" {
			return fail("code-gated rule requires a code")
		}
	default:
		return fail("unknown activation mode %q", r.Mode)
	}
	if !r.StartsAt.IsZero() && !r.EndsAt.IsZero() && r.EndsAt.Before(r.StartsAt) {
		return fail("ends before it starts")
	}
	if r.Discount == nil {
		return fail("discount spec required")
	}
	if err := r.Discount.validate(); err != nil {
		return fail("%s discount: %s", r.Discount.Kind(), err)
	}
	if h := r.Conditions.Hours; h != nil {
		if h.Start < 0 || h.Start > 23 || h.End < 0 || h.End > 23 || h.End < h.Start {
			return fail("hour window [%d, %d] out of range", h.Start, h.End)
		}
	}
	for _, d := range r.Conditions.Weekdays {
		if d < time.Sunday || d > time.Saturday {
			return fail("weekday %d out of range", d)
		}
	}
	if r.Conditions.MinAmount.IsNegative() || r.Conditions.MaxAmount.IsNegative() {
		return fail("amount bounds must not be negative")
	}
	if r.Conditions.MinQuantity < 0 {
		return fail("min quantity must not be negative")
	}
	return nil
}

// ValidateCatalog checks every rule and that no code is configured twice.
func ValidateCatalog(rules []Rule) error {
	codes := make(map[string]string, len(rules))
	for i := range rules {
		r := &rules[i]
		if err := r.Validate(); err != nil {
			return err
		}
		if r.Mode == ActivationCode {
			key := normalizeCode(r.Code)
			if prev, ok := codes[key]; ok {
				return &RuleConfigError{
					RuleID: r.ID,
					Reason: fmt.Sprintf("code %q already used by promotion %s", r.Code, prev),
				}
			}
			codes[key] = r.ID
		}
	}
	return nil
}

package promo

import (
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// discountEnvelope is the persisted shape of a DiscountSpec: a type tag plus
// the union of all variant fields. The loose bag exists only at the storage
// boundary; decoding immediately produces the typed variant.
type discountEnvelope struct {
	Type        DiscountKind      `json:"type"`
	Percent     decimal.Decimal   `json:"percent,omitempty"`
	Amount      decimal.Decimal   `json:"amount,omitempty"`
	Cap         decimal.Decimal   `json:"cap,omitempty"`
	ApplyTo     ApplyTarget       `json:"apply_to,omitempty"`
	Categories  []string          `json:"categories,omitempty"`
	Brands      []string          `json:"brands,omitempty"`
	Buy         int               `json:"buy,omitempty"`
	Get         int               `json:"get,omitempty"`
	MaxFree     int               `json:"max_free,omitempty"`
	Components  []BundleComponent `json:"components,omitempty"`
	BasePercent decimal.Decimal   `json:"base_percent,omitempty"`
}

// MarshalDiscount encodes a DiscountSpec for storage.
func MarshalDiscount(spec DiscountSpec) ([]byte, error) {
	env := discountEnvelope{Type: spec.Kind()}
	switch s := spec.(type) {
	case PercentOff:
		env.Percent, env.Cap, env.ApplyTo = s.Percent, s.Cap, s.ApplyTo
	case CategoryPercentOff:
		env.Percent, env.Cap, env.ApplyTo = s.Percent, s.Cap, s.ApplyTo
		env.Categories = s.Categories
	case BrandPercentOff:
		env.Percent, env.Cap, env.ApplyTo = s.Percent, s.Cap, s.ApplyTo
		env.Brands = s.Brands
	case TierPercentOff:
		env.Percent, env.Cap = s.Percent, s.Cap
	case AmountOff:
		env.Amount, env.Cap = s.Amount, s.Cap
	case BuyXGetY:
		env.Buy, env.Get, env.MaxFree = s.Buy, s.Get, s.MaxFree
		env.Categories = s.Categories
	case Bundle:
		env.Components, env.Amount = s.Components, s.Amount
	case VolumePercent:
		env.BasePercent, env.Cap = s.BasePercent, s.Cap
	default:
		return nil, errors.Errorf("unknown discount spec %T", spec)
	}
	return json.Marshal(env)
}

// UnmarshalDiscount decodes a stored DiscountSpec.
func UnmarshalDiscount(data []byte) (DiscountSpec, error) {
	var env discountEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Wrap(err, "decode discount")
	}

	switch env.Type {
	case KindPercent:
		return PercentOff{Percent: env.Percent, Cap: env.Cap, ApplyTo: env.ApplyTo}, nil
	case KindCategoryPercent:
		return CategoryPercentOff{Percent: env.Percent, Categories: env.Categories, Cap: env.Cap, ApplyTo: env.ApplyTo}, nil
	case KindBrandPercent:
		return BrandPercentOff{Percent: env.Percent, Brands: env.Brands, Cap: env.Cap, ApplyTo: env.ApplyTo}, nil
	case KindTierPercent:
		return TierPercentOff{Percent: env.Percent, Cap: env.Cap}, nil
	case KindAmount:
		return AmountOff{Amount: env.Amount, Cap: env.Cap}, nil
	case KindBuyXGetY:
		return BuyXGetY{Buy: env.Buy, Get: env.Get, MaxFree: env.MaxFree, Categories: env.Categories}, nil
	case KindBundle:
		return Bundle{Components: env.Components, Amount: env.Amount}, nil
	case KindVolume:
		return VolumePercent{BasePercent: env.BasePercent, Cap: env.Cap}, nil
	default:
		return nil, errors.Errorf("unknown discount type %q", env.Type)
	}
}

// MarshalConditions encodes rule conditions for storage.
func MarshalConditions(c Conditions) ([]byte, error) {
	return json.Marshal(c)
}

// UnmarshalConditions decodes stored rule conditions.
func UnmarshalConditions(data []byte) (Conditions, error) {
	var c Conditions
	if len(data) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return Conditions{}, errors.Wrap(err, "decode conditions")
	}
	return c, nil
}

package promo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecommend_AmountNearMiss(t *testing.T) {
	catalog := []Rule{activeRule(func(r *Rule) {
		r.ID = "spend200"
		r.Description = "20% off orders over AED 200"
		r.Conditions.MinAmount = d("200")
		r.Discount = PercentOff{Percent: d("20")}
	})}

	cart := Cart{line("l1", "A", "Oud", "Ajmal", 1, "180")}
	nudges := Recommend(cart, Outcome{}, catalog, 0)

	require.Len(t, nudges, 1)
	assert.Equal(t, "spend200", nudges[0].RuleID)
	assert.True(t, nudges[0].AmountShort.Equal(d("20")))
	assert.Equal(t, "Spend AED 20.00 more to unlock 20% off orders over AED 200", nudges[0].Message)
}

func TestRecommend_QuantityNearMiss(t *testing.T) {
	catalog := []Rule{activeRule(func(r *Rule) {
		r.ID = "vol5"
		r.Description = "volume discount"
		r.Conditions.MinQuantity = 5
		r.Discount = VolumePercent{BasePercent: d("5")}
	})}

	cart := Cart{line("l1", "A", "Oud", "Ajmal", 4, "10")}
	nudges := Recommend(cart, Outcome{}, catalog, 0)

	require.Len(t, nudges, 1)
	assert.Equal(t, 1, nudges[0].ItemsShort)
	assert.Equal(t, "Add 1 more item(s) to unlock volume discount", nudges[0].Message)
}

func TestRecommend_BelowNearBandIsSilent(t *testing.T) {
	catalog := []Rule{activeRule(func(r *Rule) {
		r.ID = "spend200"
		r.Conditions.MinAmount = d("200")
	})}

	// 79% of the threshold: outside the [80%, 100%) band.
	cart := Cart{line("l1", "A", "Oud", "Ajmal", 1, "158")}
	assert.Empty(t, Recommend(cart, Outcome{}, catalog, 0))
}

func TestRecommend_MetThresholdIsSilent(t *testing.T) {
	catalog := []Rule{activeRule(func(r *Rule) {
		r.ID = "spend200"
		r.Conditions.MinAmount = d("200")
	})}

	cart := Cart{line("l1", "A", "Oud", "Ajmal", 1, "200")}
	assert.Empty(t, Recommend(cart, Outcome{}, catalog, 0))
}

func TestRecommend_SkipsAppliedCodeGatedAndInactive(t *testing.T) {
	catalog := []Rule{
		activeRule(func(r *Rule) {
			r.ID = "applied"
			r.Conditions.MinAmount = d("200")
		}),
		activeRule(func(r *Rule) {
			r.ID = "gated"
			r.Mode = ActivationCode
			r.Code = "SECRET"
			r.Conditions.MinAmount = d("200")
		}),
		activeRule(func(r *Rule) {
			r.ID = "inactive"
			r.Active = false
			r.Conditions.MinAmount = d("200")
		}),
		activeRule(func(r *Rule) {
			r.ID = "fresh"
			r.Description = "big spender deal"
			r.Conditions.MinAmount = d("200")
		}),
	}

	cart := Cart{line("l1", "A", "Oud", "Ajmal", 1, "180")}
	outcome := Outcome{Applied: []Applied{{RuleID: "applied"}}}

	nudges := Recommend(cart, outcome, catalog, 0)
	require.Len(t, nudges, 1)
	assert.Equal(t, "fresh", nudges[0].RuleID)
}

func TestRecommend_CapsAtLimitInCatalogOrder(t *testing.T) {
	var catalog []Rule
	for _, id := range []string{"n1", "n2", "n3", "n4", "n5"} {
		rid := id
		catalog = append(catalog, activeRule(func(r *Rule) {
			r.ID = rid
			r.Conditions.MinAmount = d("200")
		}))
	}

	cart := Cart{line("l1", "A", "Oud", "Ajmal", 1, "180")}
	nudges := Recommend(cart, Outcome{}, catalog, 0)

	require.Len(t, nudges, DefaultNudgeLimit)
	assert.Equal(t, "n1", nudges[0].RuleID)
	assert.Equal(t, "n3", nudges[2].RuleID)
}

package promo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscountCodec(t *testing.T) {
	specs := []DiscountSpec{
		PercentOff{Percent: d("20"), Cap: d("100"), ApplyTo: ApplyCheapest},
		CategoryPercentOff{Percent: d("10"), Categories: []string{"Oud"}},
		BrandPercentOff{Percent: d("15"), Brands: []string{"Ajmal"}, Cap: d("75")},
		TierPercentOff{Percent: d("12")},
		AmountOff{Amount: d("25")},
		BuyXGetY{Buy: 2, Get: 1, MaxFree: 3, Categories: []string{"Floral"}},
		Bundle{
			Components: []BundleComponent{{SKU: "OUD-1", Quantity: 1}, {Brand: "Rasasi", Quantity: 2}},
			Amount:     d("50"),
		},
		VolumePercent{BasePercent: d("5"), Cap: d("200")},
	}

	for _, spec := range specs {
		t.Run(string(spec.Kind()), func(t *testing.T) {
			data, err := MarshalDiscount(spec)
			require.NoError(t, err)

			got, err := UnmarshalDiscount(data)
			require.NoError(t, err)
			assert.Equal(t, spec.Kind(), got.Kind())

			// Decimal fields carry no canonical in-memory form, so compare
			// the re-encoded payloads instead of the structs.
			again, err := MarshalDiscount(got)
			require.NoError(t, err)
			assert.JSONEq(t, string(data), string(again))
		})
	}
}

func TestUnmarshalDiscount_UnknownType(t *testing.T) {
	_, err := UnmarshalDiscount([]byte(`{"type":"mystery"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown discount type")
}

func TestConditionsCodec(t *testing.T) {
	c := Conditions{
		MinAmount:   d("150"),
		MinQuantity: 2,
		Categories:  []string{"Oud"},
		Tiers:       []Tier{TierGold},
		Hours:       &HourWindow{Start: 18, End: 22},
	}

	data, err := MarshalConditions(c)
	require.NoError(t, err)

	got, err := UnmarshalConditions(data)
	require.NoError(t, err)
	assert.Equal(t, c.MinQuantity, got.MinQuantity)
	assert.True(t, c.MinAmount.Equal(got.MinAmount))
	assert.Equal(t, c.Categories, got.Categories)
	assert.Equal(t, c.Hours, got.Hours)
}

package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oudline/promo-engine/internal/domain/promo"
)

type mockCatalog struct {
	rules       []promo.Rule
	rulesErr    error
	recorded    []string
	recordErr   error
	recordCalls int
}

func (m *mockCatalog) ActiveRules(_ context.Context) ([]promo.Rule, error) {
	return m.rules, m.rulesErr
}

func (m *mockCatalog) RecordRedemptions(_ context.Context, ruleIDs []string) error {
	m.recordCalls++
	m.recorded = append(m.recorded, ruleIDs...)
	return m.recordErr
}

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func testRule(id string, mutate func(*promo.Rule)) promo.Rule {
	r := promo.Rule{
		ID:          id,
		Name:        id,
		Description: id,
		Active:      true,
		StartsAt:    time.Now().Add(-time.Hour),
		EndsAt:      time.Now().Add(time.Hour),
		Mode:        promo.ActivationAuto,
		Stackable:   true,
		Discount:    promo.PercentOff{Percent: d("10")},
	}
	if mutate != nil {
		mutate(&r)
	}
	return r
}

func testCart() promo.Cart {
	return promo.Cart{{
		ID:        "l1",
		SKU:       "OUD-ROYAL-50",
		Name:      "Royal Oud 50ml",
		Category:  "Oud",
		Brand:     "Ajmal",
		Quantity:  1,
		UnitPrice: d("200"),
	}}
}

func TestPriceCart_EmptyCart(t *testing.T) {
	svc := NewService(&mockCatalog{}, 0)

	_, err := svc.PriceCart(context.Background(), Request{})
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestPriceCart_InvalidLines(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*promo.CartLine)
		want   string
	}{
		{"blank id", func(l *promo.CartLine) { l.ID = "" }, "id required"},
		{"blank sku", func(l *promo.CartLine) { l.SKU = "" }, "sku required"},
		{"blank name", func(l *promo.CartLine) { l.Name = "" }, "name required"},
		{"zero quantity", func(l *promo.CartLine) { l.Quantity = 0 }, "quantity"},
		{"negative price", func(l *promo.CartLine) { l.UnitPrice = d("-1") }, "unit price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&mockCatalog{}, 0)
			cart := testCart()
			tt.mutate(&cart[0])

			_, err := svc.PriceCart(context.Background(), Request{Lines: cart})

			var lineErr *InvalidLineError
			require.ErrorAs(t, err, &lineErr)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestPriceCart_UnknownCode(t *testing.T) {
	catalog := &mockCatalog{rules: []promo.Rule{
		testRule("gated", func(r *promo.Rule) {
			r.Mode = promo.ActivationCode
			r.Code = "OUD20"
		}),
	}}
	svc := NewService(catalog, 0)

	_, err := svc.PriceCart(context.Background(), Request{
		Lines: testCart(),
		Codes: []string{"NOPE"},
	})

	var codeErr *UnknownCodeError
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "NOPE", codeErr.Code)
	assert.Zero(t, catalog.recordCalls)
}

func TestPriceCart_RecordsRedemptionsForAppliedRules(t *testing.T) {
	catalog := &mockCatalog{rules: []promo.Rule{
		testRule("ten-off", nil),
		testRule("never", func(r *promo.Rule) {
			r.Conditions.MinAmount = d("9999")
		}),
	}}
	svc := NewService(catalog, 0)

	res, err := svc.PriceCart(context.Background(), Request{Lines: testCart()})
	require.NoError(t, err)

	require.Len(t, res.Outcome.Applied, 1)
	assert.True(t, res.Outcome.TotalDiscount.Equal(d("20")))
	assert.Equal(t, []string{"ten-off"}, catalog.recorded)
}

func TestPriceCart_NoRedemptionCallWithoutDiscounts(t *testing.T) {
	catalog := &mockCatalog{rules: []promo.Rule{
		testRule("never", func(r *promo.Rule) {
			r.Conditions.MinAmount = d("9999")
		}),
	}}
	svc := NewService(catalog, 0)

	res, err := svc.PriceCart(context.Background(), Request{Lines: testCart()})
	require.NoError(t, err)

	assert.Empty(t, res.Outcome.Applied)
	assert.Zero(t, catalog.recordCalls)
}

func TestPriceCart_AvailableCodesExcludeSupplied(t *testing.T) {
	catalog := &mockCatalog{rules: []promo.Rule{
		testRule("gated-a", func(r *promo.Rule) {
			r.Mode = promo.ActivationCode
			r.Code = "OUD20"
			r.Conditions.MinAmount = d("500")
		}),
		testRule("gated-b", func(r *promo.Rule) {
			r.Mode = promo.ActivationCode
			r.Code = "WELCOME"
		}),
	}}
	svc := NewService(catalog, 0)

	res, err := svc.PriceCart(context.Background(), Request{
		Lines: testCart(),
		Codes: []string{"welcome"},
	})
	require.NoError(t, err)

	require.Len(t, res.AvailableCodes, 1)
	assert.Equal(t, "OUD20", res.AvailableCodes[0].Code)
	assert.True(t, res.AvailableCodes[0].MinAmount.Equal(d("500")))
}

func TestPriceCart_AvailableCodesOnlyLive(t *testing.T) {
	catalog := &mockCatalog{rules: []promo.Rule{
		testRule("live", func(r *promo.Rule) {
			r.Mode = promo.ActivationCode
			r.Code = "STILLGOOD"
		}),
		testRule("expired", func(r *promo.Rule) {
			r.Mode = promo.ActivationCode
			r.Code = "LASTSEASON"
			r.EndsAt = time.Now().Add(-24 * time.Hour)
		}),
		testRule("upcoming", func(r *promo.Rule) {
			r.Mode = promo.ActivationCode
			r.Code = "NEXTWEEK"
			r.StartsAt = time.Now().Add(24 * time.Hour)
			r.EndsAt = time.Now().Add(48 * time.Hour)
		}),
		testRule("soldout", func(r *promo.Rule) {
			r.Mode = promo.ActivationCode
			r.Code = "SOLDOUT"
			r.MaxRedemptions = 100
			r.Redemptions = 100
		}),
	}}
	svc := NewService(catalog, 0)

	res, err := svc.PriceCart(context.Background(), Request{Lines: testCart()})
	require.NoError(t, err)

	// Codes that can never apply are not advertised.
	require.Len(t, res.AvailableCodes, 1)
	assert.Equal(t, "STILLGOOD", res.AvailableCodes[0].Code)
}

func TestPriceCart_InvalidCatalogSurfacesConfigError(t *testing.T) {
	catalog := &mockCatalog{rules: []promo.Rule{
		testRule("broken", func(r *promo.Rule) {
			r.Discount = promo.PercentOff{Percent: d("-5")}
		}),
	}}
	svc := NewService(catalog, 0)

	_, err := svc.PriceCart(context.Background(), Request{Lines: testCart()})

	var cfgErr *promo.RuleConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestPriceCart_NudgesForNearMisses(t *testing.T) {
	catalog := &mockCatalog{rules: []promo.Rule{
		testRule("spend250", func(r *promo.Rule) {
			r.Conditions.MinAmount = d("250")
		}),
	}}
	svc := NewService(catalog, 0)

	res, err := svc.PriceCart(context.Background(), Request{Lines: testCart()})
	require.NoError(t, err)

	require.Len(t, res.Nudges, 1)
	assert.Equal(t, "spend250", res.Nudges[0].RuleID)
	assert.True(t, res.Nudges[0].AmountShort.Equal(d("50")))
}

// Binary seed-db provisions a database with a starter promotion catalog and
// a default API key. Safe to re-run: everything is upserted by ID.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/oudline/promo-engine/internal/domain/auth"
	"github.com/oudline/promo-engine/internal/domain/promo"
	"github.com/oudline/promo-engine/internal/storage/postgres"
)

func main() {
	var (
		databaseURL  string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or PROMO_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or PROMO_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("PROMO_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or PROMO_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("PROMO_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedPromotions(ctx, postgres.NewPromotionRepository(pool)); err != nil {
		return errors.Wrap(err, "seed promotions")
	}

	if err := seedAPIKey(ctx, postgres.NewAPIKeyRepository(pool), apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

func pct(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// starterCatalog covers every discount strategy once, so a fresh environment
// can exercise the full engine out of the box.
func starterCatalog() []promo.Rule {
	return []promo.Rule{
		{
			ID:          "summer-sale",
			Name:        "Summer Sale",
			NameAr:      "تخفيضات الصيف",
			Description: "15% off everything",
			Active:      true,
			EndsAt:      time.Date(2026, time.September, 30, 23, 59, 59, 0, time.UTC),
			Priority:    50,
			Stackable:   true,
			Mode:        promo.ActivationAuto,
			Discount:    promo.PercentOff{Percent: pct("15"), Cap: pct("300")},
		},
		{
			ID:          "oud-collection",
			Name:        "Oud Collection Offer",
			NameAr:      "عرض مجموعة العود",
			Description: "20% off the oud collection",
			Active:      true,
			Priority:    40,
			Stackable:   true,
			Mode:        promo.ActivationAuto,
			Discount: promo.CategoryPercentOff{
				Percent:    pct("20"),
				Categories: []string{"oud"},
			},
		},
		{
			ID:          "house-brand-week",
			Name:        "House Brand Week",
			Description: "10% off Oudline Classics",
			Active:      true,
			Priority:    35,
			Stackable:   true,
			Mode:        promo.ActivationAuto,
			Conditions:  promo.Conditions{Weekdays: []time.Weekday{time.Friday, time.Saturday}},
			Discount: promo.BrandPercentOff{
				Percent: pct("10"),
				Brands:  []string{"Oudline Classics"},
			},
		},
		{
			ID:          "gold-appreciation",
			Name:        "Gold Tier Appreciation",
			Description: "Extra 5% for loyalty members",
			Active:      true,
			Priority:    30,
			Stackable:   true,
			Mode:        promo.ActivationAuto,
			Conditions: promo.Conditions{
				Tiers: []promo.Tier{promo.TierGold, promo.TierPlatinum, promo.TierDiamond},
			},
			Discount: promo.TierPercentOff{Percent: pct("5")},
		},
		{
			ID:          "welcome-10",
			Name:        "Welcome Gift",
			NameAr:      "هدية ترحيبية",
			Description: "AED 10 off your first order",
			Active:      true,
			Priority:    25,
			Stackable:   true,
			Mode:        promo.ActivationCode,
			Code:        "WELCOME10",
			Conditions: promo.Conditions{
				FirstPurchase: true,
				MinAmount:     pct("50"),
			},
			Discount:       promo.AmountOff{Amount: pct("10")},
			MaxRedemptions: 10000,
		},
		{
			ID:          "travel-spray-bogo",
			Name:        "Travel Spray 2+1",
			Description: "Buy 2 travel sprays, get 1 free",
			Active:      true,
			Priority:    20,
			Stackable:   false,
			Mode:        promo.ActivationAuto,
			Discount: promo.BuyXGetY{
				Buy:        2,
				Get:        1,
				MaxFree:    3,
				Categories: []string{"travel_spray"},
			},
		},
		{
			ID:          "ritual-set",
			Name:        "Evening Ritual Set",
			Description: "AED 75 off when you complete the set",
			Active:      true,
			Priority:    15,
			Stackable:   false,
			Mode:        promo.ActivationAuto,
			Discount: promo.Bundle{
				Components: []promo.BundleComponent{
					{Category: "oud", Quantity: 1},
					{Category: "bakhoor", Quantity: 1},
					{SKU: "BURNER-CLASSIC", Quantity: 1},
				},
				Amount: pct("75"),
			},
		},
		{
			ID:          "stock-up",
			Name:        "Stock Up & Save",
			Description: "Volume savings on bigger baskets",
			Active:      true,
			Priority:    10,
			Stackable:   true,
			Mode:        promo.ActivationAuto,
			Conditions:  promo.Conditions{MinQuantity: 3},
			Discount:    promo.VolumePercent{BasePercent: pct("5")},
		},
	}
}

func seedPromotions(ctx context.Context, repo *postgres.PromotionRepository) error {
	rules := starterCatalog()
	if err := promo.ValidateCatalog(rules); err != nil {
		return errors.Wrap(err, "validate starter catalog")
	}

	slog.Info("upserting promotions", slog.Int("count", len(rules)))

	for i := range rules {
		if err := repo.Upsert(ctx, &rules[i]); err != nil {
			return err
		}
		slog.Info("upserted promotion",
			slog.String("id", rules[i].ID),
			slog.String("type", string(rules[i].Discount.Kind())),
		)
	}
	return nil
}

func seedAPIKey(ctx context.Context, repo *postgres.APIKeyRepository, apiKey, pepper string) error {
	slog.Info("seeding default API key")

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))

	key := &auth.APIKeyInfo{
		ID:      "default",
		KeyHash: hex.EncodeToString(mac.Sum(nil)),
		Name:    "Default test key",
		Scopes:  []string{"price_cart"},
	}
	if err := repo.Upsert(ctx, key, true); err != nil {
		return err
	}

	slog.Info("upserted API key", slog.String("id", key.ID), slog.String("name", key.Name))
	return nil
}

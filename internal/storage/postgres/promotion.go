package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oudline/promo-engine/internal/domain/pricing"
	"github.com/oudline/promo-engine/internal/domain/promo"
)

const (
	activeRulesSQL = `SELECT id, name, name_ar, description, active,
		starts_at, ends_at, priority, stackable, mode, code,
		conditions, discount, max_redemptions, redemptions
		FROM promotions WHERE active = TRUE
		ORDER BY created_at, id`

	recordRedemptionsSQL = `UPDATE promotions
		SET redemptions = redemptions + 1, updated_at = now()
		WHERE id = ANY($1)`

	upsertPromotionSQL = `INSERT INTO promotions
		(id, name, name_ar, description, active, starts_at, ends_at,
		 priority, stackable, mode, code, conditions, discount, max_redemptions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
		 name = EXCLUDED.name, name_ar = EXCLUDED.name_ar,
		 description = EXCLUDED.description, active = EXCLUDED.active,
		 starts_at = EXCLUDED.starts_at, ends_at = EXCLUDED.ends_at,
		 priority = EXCLUDED.priority, stackable = EXCLUDED.stackable,
		 mode = EXCLUDED.mode, code = EXCLUDED.code,
		 conditions = EXCLUDED.conditions, discount = EXCLUDED.discount,
		 max_redemptions = EXCLUDED.max_redemptions, updated_at = now()`
)

var _ pricing.CatalogRepository = (*PromotionRepository)(nil)

// PromotionRepository implements pricing.CatalogRepository backed by
// PostgreSQL. Conditions and discount specs are stored as JSONB and decoded
// through the promo codec.
type PromotionRepository struct {
	pool *pgxpool.Pool
}

// NewPromotionRepository returns a PromotionRepository that uses the given pool.
func NewPromotionRepository(pool *pgxpool.Pool) *PromotionRepository {
	return &PromotionRepository{pool: pool}
}

// ActiveRules loads every active promotion in stable catalog order.
func (r *PromotionRepository) ActiveRules(ctx context.Context) ([]promo.Rule, error) {
	rows, err := r.pool.Query(ctx, activeRulesSQL)
	if err != nil {
		return nil, fmt.Errorf("loading promotions: %w", err)
	}

	rules, err := pgx.CollectRows(rows, scanRule)
	if err != nil {
		return nil, fmt.Errorf("loading promotions: %w", err)
	}
	return rules, nil
}

// RecordRedemptions increments the usage counter for each given rule ID.
// Counters live here, not in the engine; the pricing service calls this
// after a successful outcome.
func (r *PromotionRepository) RecordRedemptions(ctx context.Context, ruleIDs []string) error {
	_, err := r.pool.Exec(ctx, recordRedemptionsSQL, ruleIDs)
	if err != nil {
		return fmt.Errorf("recording redemptions: %w", err)
	}
	return nil
}

// Upsert writes a rule, replacing any existing definition with the same ID.
// Used by the seed and import tools.
func (r *PromotionRepository) Upsert(ctx context.Context, rule *promo.Rule) error {
	conditions, err := promo.MarshalConditions(rule.Conditions)
	if err != nil {
		return fmt.Errorf("encoding conditions for %q: %w", rule.ID, err)
	}
	discount, err := promo.MarshalDiscount(rule.Discount)
	if err != nil {
		return fmt.Errorf("encoding discount for %q: %w", rule.ID, err)
	}

	_, err = r.pool.Exec(ctx, upsertPromotionSQL,
		rule.ID, rule.Name, rule.NameAr, rule.Description, rule.Active,
		nullableTime(rule.StartsAt), nullableTime(rule.EndsAt),
		rule.Priority, rule.Stackable, string(rule.Mode), rule.Code,
		conditions, discount, rule.MaxRedemptions,
	)
	if err != nil {
		return fmt.Errorf("upserting promotion %q: %w", rule.ID, err)
	}
	return nil
}

// UpsertBatch writes many rules in a single round trip. The voucher
// importer uses it to flush chunks instead of issuing one statement per
// code.
func (r *PromotionRepository) UpsertBatch(ctx context.Context, rules []promo.Rule) error {
	if len(rules) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i := range rules {
		rule := &rules[i]
		conditions, err := promo.MarshalConditions(rule.Conditions)
		if err != nil {
			return fmt.Errorf("encoding conditions for %q: %w", rule.ID, err)
		}
		discount, err := promo.MarshalDiscount(rule.Discount)
		if err != nil {
			return fmt.Errorf("encoding discount for %q: %w", rule.ID, err)
		}
		batch.Queue(upsertPromotionSQL,
			rule.ID, rule.Name, rule.NameAr, rule.Description, rule.Active,
			nullableTime(rule.StartsAt), nullableTime(rule.EndsAt),
			rule.Priority, rule.Stackable, string(rule.Mode), rule.Code,
			conditions, discount, rule.MaxRedemptions,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := range rules {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upserting promotion %q: %w", rules[i].ID, err)
		}
	}
	return results.Close()
}

func scanRule(row pgx.CollectableRow) (promo.Rule, error) {
	var (
		rule       promo.Rule
		startsAt   *time.Time
		endsAt     *time.Time
		mode       string
		conditions []byte
		discount   []byte
	)
	err := row.Scan(
		&rule.ID, &rule.Name, &rule.NameAr, &rule.Description, &rule.Active,
		&startsAt, &endsAt, &rule.Priority, &rule.Stackable, &mode, &rule.Code,
		&conditions, &discount, &rule.MaxRedemptions, &rule.Redemptions,
	)
	if err != nil {
		return promo.Rule{}, err
	}

	if startsAt != nil {
		rule.StartsAt = *startsAt
	}
	if endsAt != nil {
		rule.EndsAt = *endsAt
	}
	rule.Mode = promo.ActivationMode(mode)

	rule.Conditions, err = promo.UnmarshalConditions(conditions)
	if err != nil {
		return promo.Rule{}, fmt.Errorf("promotion %q: %w", rule.ID, err)
	}
	rule.Discount, err = promo.UnmarshalDiscount(discount)
	if err != nil {
		return promo.Rule{}, fmt.Errorf("promotion %q: %w", rule.ID, err)
	}
	return rule, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

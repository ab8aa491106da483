// Package pricing orchestrates a single cart pricing request: it loads the
// promotion catalog, runs the promo engine, records redemptions, and prepares
// the advisory extras (upsell nudges, available promotion codes).
package pricing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/oudline/promo-engine/internal/domain/promo"
)

// ErrEmptyCart is returned when a pricing request carries no cart lines.
var ErrEmptyCart = errors.New("cart lines required")

// InvalidLineError reports a malformed cart line.
type InvalidLineError struct {
	Index  int
	Reason string
}

func (e *InvalidLineError) Error() string {
	return fmt.Sprintf("cart line %d: %s", e.Index, e.Reason)
}

// UnknownCodeError reports a supplied promotion code that matches no
// configured promotion.
type UnknownCodeError struct {
	Code string
}

func (e *UnknownCodeError) Error() string {
	return fmt.Sprintf("unknown promotion code %q", e.Code)
}

// CatalogRepository loads promotion rules and owns the redemption counters
// the engine itself never mutates.
type CatalogRepository interface {
	ActiveRules(ctx context.Context) ([]promo.Rule, error)
	RecordRedemptions(ctx context.Context, ruleIDs []string) error
}

// Request holds the input for pricing one cart.
type Request struct {
	Lines    promo.Cart
	Customer *promo.CustomerProfile
	Codes    []string
}

// AvailableCode describes a code-gated promotion the caller did not supply,
// for display next to the priced cart.
type AvailableCode struct {
	Code        string
	Name        string
	Description string
	MinAmount   decimal.Decimal
}

// Result is the full response for one pricing request.
type Result struct {
	Outcome        promo.Outcome
	Nudges         []promo.Nudge
	AvailableCodes []AvailableCode
}

// Service prices carts against the stored promotion catalog.
type Service struct {
	catalog    CatalogRepository
	now        func() time.Time
	nudgeLimit int
}

// NewService creates a pricing Service. nudgeLimit caps upsell nudges per
// response; zero keeps the engine default.
func NewService(catalog CatalogRepository, nudgeLimit int) *Service {
	return &Service{
		catalog:    catalog,
		now:        time.Now,
		nudgeLimit: nudgeLimit,
	}
}

// PriceCart validates the request, prices the cart against the active
// catalog, records redemptions for the applied rules, and assembles the
// advisory extras.
func (s *Service) PriceCart(ctx context.Context, req Request) (*Result, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	rules, err := s.catalog.ActiveRules(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load catalog")
	}

	if err := checkSuppliedCodes(req.Codes, rules); err != nil {
		return nil, err
	}

	engine, err := promo.NewEngine(rules, promo.WithClock(s.now))
	if err != nil {
		return nil, errors.Wrap(err, "build engine")
	}

	now := s.now()
	catalog := engine.Catalog()
	outcome := engine.Price(req.Lines, req.Customer, req.Codes)

	// Usage counters live in the store, never in the engine; they move only
	// after a successful outcome.
	if len(outcome.Applied) > 0 {
		ids := make([]string, len(outcome.Applied))
		for i, a := range outcome.Applied {
			ids[i] = a.RuleID
		}
		if err := s.catalog.RecordRedemptions(ctx, ids); err != nil {
			return nil, errors.Wrap(err, "record redemptions")
		}
	}

	return &Result{
		Outcome:        outcome,
		Nudges:         promo.Recommend(req.Lines, outcome, catalog, s.nudgeLimit),
		AvailableCodes: availableCodes(catalog, req.Codes, now),
	}, nil
}

func validateRequest(req Request) error {
	if len(req.Lines) == 0 {
		return ErrEmptyCart
	}
	for i, l := range req.Lines {
		switch {
		case l.ID == "":
			return &InvalidLineError{Index: i, Reason: "id required"}
		case l.SKU == "":
			return &InvalidLineError{Index: i, Reason: "sku required"}
		case l.Name == "":
			return &InvalidLineError{Index: i, Reason: "name required"}
		case l.Quantity <= 0:
			return &InvalidLineError{Index: i, Reason: "quantity must be greater than 0"}
		case l.UnitPrice.IsNegative():
			return &InvalidLineError{Index: i, Reason: "unit price must not be negative"}
		}
	}
	return nil
}

func checkSuppliedCodes(codes []string, rules []promo.Rule) error {
	for _, code := range codes {
		found := false
		for i := range rules {
			if rules[i].Mode == promo.ActivationCode && strings.EqualFold(rules[i].Code, code) {
				found = true
				break
			}
		}
		if !found {
			return &UnknownCodeError{Code: code}
		}
	}
	return nil
}

// availableCodes lists code-gated promotions whose code the caller did not
// supply, in catalog order. Only live rules qualify: a code that is expired,
// not yet started, or redeemed out would never apply, so it is not shown.
func availableCodes(rules []promo.Rule, supplied []string, now time.Time) []AvailableCode {
	var out []AvailableCode
	for i := range rules {
		r := &rules[i]
		if r.Mode != promo.ActivationCode || !promo.Live(r, now) {
			continue
		}
		used := false
		for _, code := range supplied {
			if strings.EqualFold(code, r.Code) {
				used = true
				break
			}
		}
		if used {
			continue
		}
		out = append(out, AvailableCode{
			Code:        r.Code,
			Name:        r.Name,
			Description: r.Description,
			MinAmount:   r.Conditions.MinAmount,
		})
	}
	return out
}

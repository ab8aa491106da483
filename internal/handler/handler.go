// Package handler implements the HTTP edge of the pricing service.
package handler

import (
	"context"
	"net/http"

	"github.com/oudline/promo-engine/internal/domain/pricing"
	"github.com/oudline/promo-engine/internal/domain/promo"
)

// CartPricer prices one cart request. Implemented by pricing.Service.
type CartPricer interface {
	PriceCart(ctx context.Context, req pricing.Request) (*pricing.Result, error)
}

// CatalogReader lists the active promotion catalog for display.
type CatalogReader interface {
	ActiveRules(ctx context.Context) ([]promo.Rule, error)
}

// Handler serves the pricing API endpoints.
type Handler struct {
	pricer  CartPricer
	catalog CatalogReader
}

// New constructs a Handler with the required domain dependencies.
func New(pricer CartPricer, catalog CatalogReader) *Handler {
	return &Handler{
		pricer:  pricer,
		catalog: catalog,
	}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/cart/price", h.priceCart)
	mux.HandleFunc("GET /api/promotions", h.listPromotions)
}

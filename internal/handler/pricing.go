package handler

import (
	"net/http"

	"github.com/go-faster/errors"

	"github.com/oudline/promo-engine/internal/domain/pricing"
	"github.com/oudline/promo-engine/internal/domain/promo"
)

// priceCart handles POST /api/cart/price: decode, delegate to the pricing
// service, and map domain errors to status codes. Malformed carts are the
// caller's fault (400 with details); an unknown supplied code is 422.
func (h *Handler) priceCart(w http.ResponseWriter, r *http.Request) {
	req, err := decodePriceRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body", []string{err.Error()})
		return
	}

	res, err := h.pricer.PriceCart(r.Context(), req)
	if err != nil {
		h.writePricingError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, encodePriceResult(res))
}

func (h *Handler) writePricingError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, pricing.ErrEmptyCart) {
		writeError(w, http.StatusBadRequest, "invalid cart", []string{err.Error()})
		return
	}

	var lineErr *pricing.InvalidLineError
	if errors.As(err, &lineErr) {
		writeError(w, http.StatusBadRequest, "invalid cart", []string{lineErr.Error()})
		return
	}

	var codeErr *pricing.UnknownCodeError
	if errors.As(err, &codeErr) {
		writeError(w, http.StatusUnprocessableEntity, "invalid promotion code", []string{codeErr.Error()})
		return
	}

	// A broken catalog is an operator problem, not the caller's.
	var cfgErr *promo.RuleConfigError
	if errors.As(err, &cfgErr) {
		writeInternalError(w, r, err)
		return
	}

	writeInternalError(w, r, err)
}

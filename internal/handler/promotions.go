package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"

	"github.com/oudline/promo-engine/internal/domain/promo"
)

// listPromotions handles GET /api/promotions: the active catalog rendered
// for display. Discount internals stay server-side; only identity, schedule,
// and the gating code (when present) are exposed.
func (h *Handler) listPromotions(w http.ResponseWriter, r *http.Request) {
	rules, err := h.catalog.ActiveRules(r.Context())
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	var e jx.Encoder
	e.ArrStart()
	for i := range rules {
		encodePromotion(&e, &rules[i])
	}
	e.ArrEnd()

	writeJSON(w, http.StatusOK, e.Bytes())
}

func encodePromotion(e *jx.Encoder, r *promo.Rule) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(r.ID)
	e.FieldStart("name")
	e.Str(r.Name)
	if r.NameAr != "" {
		e.FieldStart("name_ar")
		e.Str(r.NameAr)
	}
	e.FieldStart("description")
	e.Str(r.Description)
	e.FieldStart("type")
	e.Str(string(r.Discount.Kind()))
	e.FieldStart("stackable")
	e.Bool(r.Stackable)
	if r.Mode == promo.ActivationCode {
		e.FieldStart("code")
		e.Str(r.Code)
	}
	if !r.EndsAt.IsZero() {
		e.FieldStart("ends_at")
		e.Str(r.EndsAt.UTC().Format(time.RFC3339))
	}
	if r.Conditions.MinAmount.IsPositive() {
		e.FieldStart("min_amount")
		encodeMoney(e, r.Conditions.MinAmount)
	}
	e.ObjEnd()
}

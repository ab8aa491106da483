package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/oudline/promo-engine/internal/domain/pricing"
	"github.com/oudline/promo-engine/internal/domain/promo"
)

// maxBodyBytes bounds request bodies; carts are small.
const maxBodyBytes = 1 << 20

func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(s)
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(string(n))
	default:
		return decimal.Zero, errors.Errorf("unexpected %s, want number", d.Next())
	}
}

// decodePriceRequest parses the POST /api/cart/price body.
func decodePriceRequest(r *http.Request) (pricing.Request, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return pricing.Request{}, errors.Wrap(err, "read body")
	}

	var req pricing.Request
	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "items":
			return d.Arr(func(d *jx.Decoder) error {
				l, err := decodeCartLine(d)
				if err != nil {
					return err
				}
				req.Lines = append(req.Lines, l)
				return nil
			})
		case "customer":
			if d.Next() == jx.Null {
				return d.Null()
			}
			c, err := decodeCustomer(d)
			if err != nil {
				return err
			}
			req.Customer = &c
			return nil
		case "codes":
			return d.Arr(func(d *jx.Decoder) error {
				code, err := d.Str()
				if err != nil {
					return err
				}
				req.Codes = append(req.Codes, code)
				return nil
			})
		default:
			return d.Skip()
		}
	}); err != nil {
		return pricing.Request{}, err
	}
	return req, nil
}

func decodeCartLine(d *jx.Decoder) (promo.CartLine, error) {
	var l promo.CartLine
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			l.ID, err = d.Str()
		case "sku":
			l.SKU, err = d.Str()
		case "name":
			l.Name, err = d.Str()
		case "category":
			l.Category, err = d.Str()
		case "brand":
			l.Brand, err = d.Str()
		case "quantity":
			l.Quantity, err = d.Int()
		case "unit_price":
			l.UnitPrice, err = decodeDecimal(d)
		default:
			err = d.Skip()
		}
		return err
	})
	return l, err
}

func decodeCustomer(d *jx.Decoder) (promo.CustomerProfile, error) {
	var c promo.CustomerProfile
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			c.ID, err = d.Str()
		case "tier":
			var tier string
			tier, err = d.Str()
			c.Tier = promo.Tier(tier)
		case "lifetime_spend":
			c.LifetimeSpend, err = decodeDecimal(d)
		case "loyalty_points":
			c.LoyaltyPoints, err = d.Int()
		case "prior_purchases":
			c.PriorPurchases, err = d.Int()
		case "birth_month":
			var m int
			m, err = d.Int()
			c.BirthMonth = time.Month(m)
		case "registered_at":
			var s string
			s, err = d.Str()
			if err == nil {
				c.RegisteredAt, err = time.Parse(time.RFC3339, s)
			}
		default:
			err = d.Skip()
		}
		return err
	})
	return c, err
}

func encodeMoney(e *jx.Encoder, v decimal.Decimal) {
	e.RawStr(v.StringFixed(2))
}

// encodePriceResult renders the pricing response body.
func encodePriceResult(res *pricing.Result) []byte {
	var e jx.Encoder
	e.ObjStart()

	e.FieldStart("applied")
	e.ArrStart()
	for _, a := range res.Outcome.Applied {
		e.ObjStart()
		e.FieldStart("rule_id")
		e.Str(a.RuleID)
		e.FieldStart("name")
		e.Str(a.Name)
		e.FieldStart("description")
		e.Str(a.Description)
		e.FieldStart("amount")
		encodeMoney(&e, a.Amount)
		e.FieldStart("savings")
		encodeMoney(&e, a.Amount)
		e.FieldStart("line_ids")
		e.ArrStart()
		for _, id := range a.LineIDs {
			e.Str(id)
		}
		e.ArrEnd()
		e.ObjEnd()
	}
	e.ArrEnd()

	e.FieldStart("total_discount")
	encodeMoney(&e, res.Outcome.TotalDiscount)
	e.FieldStart("original_total")
	encodeMoney(&e, res.Outcome.OriginalTotal)
	e.FieldStart("final_total")
	encodeMoney(&e, res.Outcome.FinalTotal)

	e.FieldStart("nudges")
	e.ArrStart()
	for _, n := range res.Nudges {
		e.ObjStart()
		e.FieldStart("rule_id")
		e.Str(n.RuleID)
		e.FieldStart("message")
		e.Str(n.Message)
		if n.AmountShort.IsPositive() {
			e.FieldStart("amount_short")
			encodeMoney(&e, n.AmountShort)
		}
		if n.ItemsShort > 0 {
			e.FieldStart("items_short")
			e.Int(n.ItemsShort)
		}
		e.ObjEnd()
	}
	e.ArrEnd()

	e.FieldStart("available_codes")
	e.ArrStart()
	for _, c := range res.AvailableCodes {
		e.ObjStart()
		e.FieldStart("code")
		e.Str(c.Code)
		e.FieldStart("name")
		e.Str(c.Name)
		e.FieldStart("description")
		e.Str(c.Description)
		if c.MinAmount.IsPositive() {
			e.FieldStart("min_amount")
			encodeMoney(&e, c.MinAmount)
		}
		e.ObjEnd()
	}
	e.ArrEnd()

	e.ObjEnd()
	return e.Bytes()
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeError renders the structured error body shared by all endpoints.
func writeError(w http.ResponseWriter, status int, message string, details []string) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("code")
	e.Int(status)
	e.FieldStart("message")
	e.Str(message)
	if len(details) > 0 {
		e.FieldStart("details")
		e.ArrStart()
		for _, det := range details {
			e.Str(det)
		}
		e.ArrEnd()
	}
	e.ObjEnd()
	writeJSON(w, status, e.Bytes())
}

// writeInternalError logs the cause and responds with a generic 500 body.
func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error", nil)
}

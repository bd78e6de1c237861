package promotion

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ListActive filters the catalog down to promotions that are live on the
// given day: the active toggle is on, the day falls inside the promotion's
// date window, and the weekday is among its active days. Catalog order is
// preserved. A malformed window bound disqualifies the promotion rather
// than erroring out.
func ListActive(promos []Promotion, today time.Time) []Promotion {
	active := make([]Promotion, 0, len(promos))
	for _, p := range promos {
		if !p.IsActive {
			continue
		}
		if !withinWindow(p, today) {
			continue
		}
		if !onActiveDay(p, today.Weekday()) {
			continue
		}
		active = append(active, p)
	}
	return active
}

// Resolve selects the single promotion to apply at checkout.
//
// An explicitly entered coupon code has the highest priority and overrides
// audience targeting; a code that matches no active promotion returns
// ErrCouponNotFound instead of falling through to audience promotions.
// Without a code, the first promotion targeting the caller's audience wins,
// then the first targeting everyone. A nil result with nil error means no
// promotion applies.
func Resolve(active []Promotion, audience Audience, enteredCode string) (*Promotion, error) {
	if enteredCode != "" {
		for i := range active {
			if active[i].CouponCode != "" && strings.EqualFold(active[i].CouponCode, enteredCode) {
				return &active[i], nil
			}
		}
		return nil, ErrCouponNotFound
	}

	for i := range active {
		if active[i].Audience == audience {
			return &active[i], nil
		}
	}
	for i := range active {
		if active[i].Audience == AudienceAll {
			return &active[i], nil
		}
	}
	return nil, nil
}

// ComputeDiscount calculates the discount a resolved promotion grants on the
// given subtotal. A nil promotion yields a zero discount. A subtotal below
// the promotion's minimum order value returns MinimumNotMetError; the
// promotion is not applied in that case.
//
// Percentage discounts carry full precision; rounding belongs to the point
// where totals are frozen into an order. Flat discounts never exceed the
// subtotal.
func ComputeDiscount(p *Promotion, subtotal decimal.Decimal) (Discount, error) {
	if p == nil {
		return Discount{Amount: decimal.Zero}, nil
	}
	if p.MinOrderValue.IsPositive() && subtotal.LessThan(p.MinOrderValue) {
		return Discount{}, &MinimumNotMetError{
			Code:     p.CouponCode,
			Required: p.MinOrderValue,
			Subtotal: subtotal,
		}
	}

	var amount decimal.Decimal
	switch p.DiscountType {
	case DiscountPercentage:
		amount = subtotal.Mul(p.DiscountValue).Div(hundred)
	case DiscountFlat:
		amount = decimal.Min(p.DiscountValue, subtotal)
	default:
		amount = decimal.Zero
	}
	if amount.IsNegative() {
		amount = decimal.Zero
	}

	return Discount{Amount: amount, CouponCode: p.CouponCode}, nil
}

// withinWindow reports whether day falls inside the promotion's inclusive
// date window. Unparsable bounds fail closed.
func withinWindow(p Promotion, day time.Time) bool {
	d := truncateToDay(day)
	if p.StartDate != "" {
		start, err := time.ParseInLocation(DateLayout, p.StartDate, day.Location())
		if err != nil || d.Before(start) {
			return false
		}
	}
	if p.EndDate != "" {
		end, err := time.ParseInLocation(DateLayout, p.EndDate, day.Location())
		if err != nil || d.After(end) {
			return false
		}
	}
	return true
}

func onActiveDay(p Promotion, wd time.Weekday) bool {
	if len(p.ActiveDays) == 0 {
		return true
	}
	for _, d := range p.ActiveDays {
		if d == wd {
			return true
		}
	}
	return false
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

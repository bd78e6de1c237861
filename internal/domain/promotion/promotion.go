package promotion

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Audience restricts a promotion to a customer segment.
type Audience string

const (
	// AudienceAll targets every customer.
	AudienceAll Audience = "all"
	// AudienceNew targets customers with no prior orders.
	AudienceNew Audience = "new"
	// AudienceExisting targets customers with at least one prior order.
	AudienceExisting Audience = "existing"
)

// DiscountType enumerates the supported discount strategies.
type DiscountType string

const (
	// DiscountPercentage applies a percentage-based discount to the subtotal.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFlat applies a fixed monetary discount capped at the subtotal.
	DiscountFlat DiscountType = "flat"
)

// ErrCouponNotFound is returned when an entered coupon code matches no
// currently active promotion.
var ErrCouponNotFound = errors.New("coupon code not found")

// ErrNotFound is returned when a promotion id does not exist.
var ErrNotFound = errors.New("promotion not found")

// MinimumNotMetError indicates the cart subtotal is below the promotion's
// minimum order value. It carries both amounts so the storefront can name
// the shortfall.
type MinimumNotMetError struct {
	Code     string
	Required decimal.Decimal
	Subtotal decimal.Decimal
}

func (e *MinimumNotMetError) Error() string {
	return fmt.Sprintf("promotion %s requires a minimum order of %s, cart subtotal is %s",
		e.Code, e.Required.StringFixed(2), e.Subtotal.StringFixed(2))
}

// DateLayout is the wire format for promotion window bounds.
const DateLayout = "2006-01-02"

// Promotion defines a single discount rule managed by the back office.
// Window bounds stay in their ISO form; parsing happens during eligibility
// checks and fails closed on malformed values.
type Promotion struct {
	ID            string
	Title         string
	Description   string
	Audience      Audience
	IsActive      bool
	CouponCode    string
	DiscountType  DiscountType
	DiscountValue decimal.Decimal
	// MinOrderValue of zero means no threshold.
	MinOrderValue decimal.Decimal
	// StartDate and EndDate are inclusive YYYY-MM-DD bounds; empty means
	// unbounded on that side.
	StartDate string
	EndDate   string
	// ActiveDays empty means the promotion runs every day of the week.
	ActiveDays []time.Weekday
}

// Discount holds the outcome of applying a promotion to a cart subtotal.
type Discount struct {
	Amount     decimal.Decimal
	CouponCode string
}

// Repository provides catalog access and back-office mutation of promotions.
type Repository interface {
	List(ctx context.Context) ([]Promotion, error)
	GetByID(ctx context.Context, id string) (*Promotion, error)
	Create(ctx context.Context, p *Promotion) error
	Update(ctx context.Context, p *Promotion) error
	Delete(ctx context.Context, id string) error
}

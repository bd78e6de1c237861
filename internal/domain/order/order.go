package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is an order's position in its lifecycle.
type Status string

const (
	// StatusPending is the initial state of every placed order.
	StatusPending Status = "Pending"
	// StatusConfirmed means the restaurant accepted the order.
	StatusConfirmed Status = "Confirmed"
	// StatusCompleted is terminal: the order was picked up.
	StatusCompleted Status = "Completed"
	// StatusCancelled is terminal, reachable from Pending or Confirmed.
	StatusCancelled Status = "Cancelled"
)

// Actor identifies which side of the counter performed an action.
type Actor string

const (
	ActorAdmin    Actor = "admin"
	ActorCustomer Actor = "customer"
)

// CancellationAction records what happens to the customer's money on a
// customer-initiated cancellation.
type CancellationAction string

const (
	ActionRefund CancellationAction = "refund"
	ActionDonate CancellationAction = "donate"
)

// Sentinel errors for order validation.
var (
	ErrNotFound                  = errors.New("order not found")
	ErrInvalidTransition         = errors.New("invalid status transition")
	ErrMissingCancellationReason = errors.New("cancellation requires a reason")
	ErrEmptyMessage              = errors.New("message must not be empty")
	ErrEmptyItems                = errors.New("items required")
)

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ItemID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for item %s", e.ItemID)
}

// ItemUnavailableError indicates a requested menu item does not exist or is
// not currently offered.
type ItemUnavailableError struct {
	ItemID string
}

func (e *ItemUnavailableError) Error() string {
	return fmt.Sprintf("item %s is not available", e.ItemID)
}

// Item is an order line with name and price frozen at order time. Later
// menu edits never change a placed order.
type Item struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	ImageURL string          `json:"image_url,omitempty"`
}

// Address is opaque to the ordering core; it is carried through for the
// storefront and notifications.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
}

// UpdateRequest is one message in the customer/admin conversation thread
// attached to an order.
type UpdateRequest struct {
	ID        string    `json:"id"`
	From      Actor     `json:"from"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Order is a placed pre-order with pricing frozen at creation.
type Order struct {
	ID            string
	CustomerID    string
	CustomerName  string
	CustomerEmail string
	Address       Address

	OrderDate  time.Time
	PickupDate string
	PickupTime string

	Status Status
	Items  []Item

	DeliveryFee    decimal.Decimal
	AppliedCoupon  string
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal

	CancellationDate   *time.Time
	CancelledBy        Actor
	CancellationReason string
	CancellationAction CancellationAction

	CookingNotes string
	ReviewID     string

	// UpdateRequests is append-only; entries keep insertion order.
	UpdateRequests []UpdateRequest
}

// Subtotal returns the sum of price x quantity across all items.
func (o *Order) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	Update(ctx context.Context, o *Order) error
	ListByCustomer(ctx context.Context, customerID string) ([]Order, error)
}

// History reports whether a customer has any stored orders. Every order
// counts regardless of status; cancellations do not reset a customer to
// "new".
type History interface {
	HasPriorOrders(ctx context.Context, customerID string) (bool, error)
}

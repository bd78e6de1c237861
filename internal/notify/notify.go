// Package notify hands order events off to an email/notification backend.
// Delivery is fire-and-forget: ordering code enqueues a request and moves
// on, and failures are logged here, never returned to the caller.
package notify

import "context"

// Kind enumerates the notification templates the storefront sends.
type Kind string

const (
	// KindCustomerConfirmation is sent to the customer after checkout.
	KindCustomerConfirmation Kind = "customerConfirmation"
	// KindAdminNotification alerts the back office to a new order.
	KindAdminNotification Kind = "adminNotification"
	// KindCustomerCancellation is sent to the customer whenever an order
	// is cancelled, whoever initiated it.
	KindCustomerCancellation Kind = "customerCancellation"
	// KindCustomerStatusUpdate is sent on other status changes.
	KindCustomerStatusUpdate Kind = "customerStatusUpdate"
)

// OrderSnapshot carries the order fields a template needs. It is a copy:
// the dispatcher outlives the request that produced it.
type OrderSnapshot struct {
	OrderID      string
	CustomerName string
	Status       string
	Total        string
	PickupDate   string
	PickupTime   string
	Reason       string
}

// Request is a single notification to deliver.
type Request struct {
	Kind           Kind
	Order          OrderSnapshot
	RecipientEmail string
}

// Sender delivers a single notification. Implementations own their retry
// and failure policy beyond what the dispatcher provides.
type Sender interface {
	Send(ctx context.Context, req Request) error
}

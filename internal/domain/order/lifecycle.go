package order

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// transitions maps each status to the statuses reachable from it.
// Completed and Cancelled are terminal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

// CanTransition reports whether the state machine permits moving from one
// status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionRequest describes a requested status change.
type TransitionRequest struct {
	To    Status
	Actor Actor
	// Reason is required when To is StatusCancelled.
	Reason string
	// Action is recorded only for customer-initiated cancellations.
	Action CancellationAction
	// Now stamps cancellation time; the zero value falls back to time.Now.
	Now time.Time
}

// ApplyTransition validates the requested status change and applies it to
// the order in place. On an invalid transition or a cancellation without a
// reason the order is left untouched. Pricing fields are never recomputed.
func ApplyTransition(o *Order, req TransitionRequest) error {
	if !CanTransition(o.Status, req.To) {
		return ErrInvalidTransition
	}

	if req.To == StatusCancelled {
		if strings.TrimSpace(req.Reason) == "" {
			return ErrMissingCancellationReason
		}
		now := req.Now
		if now.IsZero() {
			now = time.Now()
		}
		o.CancellationDate = &now
		o.CancelledBy = req.Actor
		o.CancellationReason = req.Reason
		if req.Actor == ActorCustomer {
			o.CancellationAction = req.Action
		}
	}

	o.Status = req.To
	return nil
}

// AppendMessage adds a message to the order's conversation thread. The
// thread accepts messages in any status, including terminal ones; admins
// reply to completed orders.
func AppendMessage(o *Order, from Actor, message string, now time.Time) (UpdateRequest, error) {
	if strings.TrimSpace(message) == "" {
		return UpdateRequest{}, ErrEmptyMessage
	}
	if now.IsZero() {
		now = time.Now()
	}

	msg := UpdateRequest{
		ID:        uuid.New().String(),
		From:      from,
		Message:   message,
		Timestamp: now,
	}
	o.UpdateRequests = append(o.UpdateRequests, msg)
	return msg, nil
}

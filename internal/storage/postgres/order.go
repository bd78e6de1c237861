package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Pons070/studio-sub000/internal/domain/order"
)

var (
	_ order.Repository = (*OrderRepository)(nil)
	_ order.History    = (*OrderRepository)(nil)
)

// OrderRepository implements order.Repository and order.History backed by
// PostgreSQL. Items, address and the conversation thread are stored as
// JSONB.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository using the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

const orderColumns = `id, customer_id, customer_name, customer_email, address,
	order_date, pickup_date, pickup_time, status, items, delivery_fee,
	applied_coupon, discount_amount, total, cancellation_date, cancelled_by,
	cancellation_reason, cancellation_action, cooking_notes, review_id,
	update_requests`

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	addr, items, msgs, err := marshalOrderJSON(o)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
		        $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
		o.ID, o.CustomerID, o.CustomerName, o.CustomerEmail, addr,
		o.OrderDate, o.PickupDate, o.PickupTime, string(o.Status), items, o.DeliveryFee,
		o.AppliedCoupon, o.DiscountAmount, o.Total, o.CancellationDate, string(o.CancelledBy),
		o.CancellationReason, string(o.CancellationAction), o.CookingNotes, o.ReviewID,
		msgs,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// GetByID loads a single order. It returns order.ErrNotFound when no
// matching row exists.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return o, nil
}

// Update rewrites the mutable lifecycle fields of an order. Pricing columns
// are written as-is; the domain never changes them after creation.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	_, items, msgs, err := marshalOrderJSON(o)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE orders SET
			status = $2, items = $3, cancellation_date = $4, cancelled_by = $5,
			cancellation_reason = $6, cancellation_action = $7, review_id = $8,
			update_requests = $9
		WHERE id = $1`,
		o.ID, string(o.Status), items, o.CancellationDate, string(o.CancelledBy),
		o.CancellationReason, string(o.CancellationAction), o.ReviewID, msgs,
	)
	if err != nil {
		return fmt.Errorf("updating order %q: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// ListByCustomer returns a customer's orders, oldest first.
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE customer_id = $1 ORDER BY order_date`, customerID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for customer %q: %w", customerID, err)
	}
	defer rows.Close()

	var out []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// HasPriorOrders reports whether the customer has any order on record,
// regardless of status.
func (r *OrderRepository) HasPriorOrders(ctx context.Context, customerID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE customer_id = $1)`, customerID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking order history for %q: %w", customerID, err)
	}
	return exists, nil
}

func marshalOrderJSON(o *order.Order) (addr, items, msgs []byte, err error) {
	if addr, err = json.Marshal(o.Address); err != nil {
		return nil, nil, nil, fmt.Errorf("marshaling address: %w", err)
	}
	if items, err = json.Marshal(o.Items); err != nil {
		return nil, nil, nil, fmt.Errorf("marshaling order items: %w", err)
	}
	if o.UpdateRequests == nil {
		msgs = []byte("[]")
	} else if msgs, err = json.Marshal(o.UpdateRequests); err != nil {
		return nil, nil, nil, fmt.Errorf("marshaling update requests: %w", err)
	}
	return addr, items, msgs, nil
}

func scanOrder(row pgx.Row) (*order.Order, error) {
	var (
		o           order.Order
		addr        []byte
		items       []byte
		msgs        []byte
		status      string
		cancelledBy string
		action      string
	)
	err := row.Scan(
		&o.ID, &o.CustomerID, &o.CustomerName, &o.CustomerEmail, &addr,
		&o.OrderDate, &o.PickupDate, &o.PickupTime, &status, &items, &o.DeliveryFee,
		&o.AppliedCoupon, &o.DiscountAmount, &o.Total, &o.CancellationDate, &cancelledBy,
		&o.CancellationReason, &action, &o.CookingNotes, &o.ReviewID,
		&msgs,
	)
	if err != nil {
		return nil, err
	}

	o.Status = order.Status(status)
	o.CancelledBy = order.Actor(cancelledBy)
	o.CancellationAction = order.CancellationAction(action)
	if err := json.Unmarshal(addr, &o.Address); err != nil {
		return nil, fmt.Errorf("unmarshaling address: %w", err)
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("unmarshaling order items: %w", err)
	}
	if err := json.Unmarshal(msgs, &o.UpdateRequests); err != nil {
		return nil, fmt.Errorf("unmarshaling update requests: %w", err)
	}
	return &o, nil
}

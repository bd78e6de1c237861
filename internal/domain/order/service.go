package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Pons070/studio-sub000/internal/domain/menu"
	"github.com/Pons070/studio-sub000/internal/domain/promotion"
	"github.com/Pons070/studio-sub000/internal/notify"
)

// Notifier receives notification requests without blocking. A Dispatcher
// satisfies this; tests use a recording stub.
type Notifier interface {
	Enqueue(req notify.Request)
}

// AdminEmail is where new-order alerts go when no address is configured.
const defaultAdminEmail = "orders@studio.example"

// PlaceOrderRequest holds the checkout input.
type PlaceOrderRequest struct {
	CustomerID    string
	CustomerName  string
	CustomerEmail string
	Address       Address

	// Lines reference menu items; name, price and image are frozen from
	// the catalog at placement time.
	Lines []Line

	CouponCode   string
	DeliveryFee  decimal.Decimal
	PickupDate   string
	PickupTime   string
	CookingNotes string
}

// Line is a requested quantity of one menu item.
type Line struct {
	ItemID   string
	Quantity int
}

// Service implements checkout and the order lifecycle over the injected
// collaborators. It performs no I/O of its own beyond the repositories.
type Service struct {
	orders     Repository
	menu       menu.Repository
	promotions promotion.Repository
	history    History
	notifier   Notifier
	adminEmail string
	now        func() time.Time
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	orders Repository,
	menuRepo menu.Repository,
	promotions promotion.Repository,
	history History,
	notifier Notifier,
	adminEmail string,
) *Service {
	if adminEmail == "" {
		adminEmail = defaultAdminEmail
	}
	return &Service{
		orders:     orders,
		menu:       menuRepo,
		promotions: promotions,
		history:    history,
		notifier:   notifier,
		adminEmail: adminEmail,
		now:        time.Now,
	}
}

// PlaceOrder validates the cart, freezes item prices from the menu,
// resolves the applicable promotion, and persists a Pending order with
// totals computed once. Confirmation notifications are enqueued after the
// order is stored and never affect the result.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	if len(req.Lines) == 0 {
		return nil, ErrEmptyItems
	}

	ids := make([]string, len(req.Lines))
	for i, line := range req.Lines {
		if line.Quantity <= 0 {
			return nil, &InvalidQuantityError{ItemID: line.ItemID}
		}
		ids[i] = line.ItemID
	}

	fetched, err := s.menu.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get menu items: %w", err)
	}
	itemMap := make(map[string]menu.Item, len(fetched))
	for _, it := range fetched {
		itemMap[it.ID] = it
	}

	items := make([]Item, len(req.Lines))
	subtotal := decimal.Zero
	for i, line := range req.Lines {
		it, ok := itemMap[line.ItemID]
		if !ok || !it.Available {
			return nil, &ItemUnavailableError{ItemID: line.ItemID}
		}
		items[i] = Item{
			ID:       it.ID,
			Name:     it.Name,
			Price:    it.Price,
			Quantity: line.Quantity,
			ImageURL: it.ImageURL,
		}
		subtotal = subtotal.Add(it.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	discount, err := s.resolveDiscount(ctx, req.CustomerID, req.CouponCode, subtotal)
	if err != nil {
		return nil, err
	}

	// Totals are frozen here; status transitions never recompute them.
	total := subtotal.Add(req.DeliveryFee).Sub(discount.Amount).Round(2)
	if total.IsNegative() {
		total = decimal.Zero
	}

	o := &Order{
		ID:             uuid.New().String(),
		CustomerID:     req.CustomerID,
		CustomerName:   req.CustomerName,
		CustomerEmail:  req.CustomerEmail,
		Address:        req.Address,
		OrderDate:      s.now(),
		PickupDate:     req.PickupDate,
		PickupTime:     req.PickupTime,
		Status:         StatusPending,
		Items:          items,
		DeliveryFee:    req.DeliveryFee,
		AppliedCoupon:  discount.CouponCode,
		DiscountAmount: discount.Amount.Round(2),
		Total:          total,
		CookingNotes:   req.CookingNotes,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.notifier.Enqueue(notify.Request{
		Kind:           notify.KindCustomerConfirmation,
		Order:          snapshot(o),
		RecipientEmail: o.CustomerEmail,
	})
	s.notifier.Enqueue(notify.Request{
		Kind:           notify.KindAdminNotification,
		Order:          snapshot(o),
		RecipientEmail: s.adminEmail,
	})

	return o, nil
}

// resolveDiscount classifies the customer, filters the catalog to active
// promotions, and computes the discount for this checkout.
func (s *Service) resolveDiscount(ctx context.Context, customerID, code string, subtotal decimal.Decimal) (promotion.Discount, error) {
	promos, err := s.promotions.List(ctx)
	if err != nil {
		return promotion.Discount{}, fmt.Errorf("list promotions: %w", err)
	}
	active := promotion.ListActive(promos, s.now())

	audience := promotion.AudienceNew
	if customerID != "" {
		prior, err := s.history.HasPriorOrders(ctx, customerID)
		if err != nil {
			return promotion.Discount{}, fmt.Errorf("customer history: %w", err)
		}
		if prior {
			audience = promotion.AudienceExisting
		}
	}

	resolved, err := promotion.Resolve(active, audience, code)
	if err != nil {
		return promotion.Discount{}, err
	}
	return promotion.ComputeDiscount(resolved, subtotal)
}

// Get loads a single order by id.
func (s *Service) Get(ctx context.Context, orderID string) (*Order, error) {
	return s.orders.GetByID(ctx, orderID)
}

// ListByCustomer returns a customer's orders in insertion order.
func (s *Service) ListByCustomer(ctx context.Context, customerID string) ([]Order, error) {
	return s.orders.ListByCustomer(ctx, customerID)
}

// UpdateStatus moves an order through its lifecycle. Every change enqueues
// a best-effort status notification; a cancellation always notifies the
// customer with the cancellation template.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, req TransitionRequest) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if req.Now.IsZero() {
		req.Now = s.now()
	}
	if err := ApplyTransition(o, req); err != nil {
		return nil, err
	}

	if err := s.orders.Update(ctx, o); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}

	kind := notify.KindCustomerStatusUpdate
	if o.Status == StatusCancelled {
		kind = notify.KindCustomerCancellation
	}
	s.notifier.Enqueue(notify.Request{
		Kind:           kind,
		Order:          snapshot(o),
		RecipientEmail: o.CustomerEmail,
	})

	return o, nil
}

// Cancel is a convenience wrapper over UpdateStatus for the cancellation
// branch.
func (s *Service) Cancel(ctx context.Context, orderID string, actor Actor, reason string, action CancellationAction) (*Order, error) {
	return s.UpdateStatus(ctx, orderID, TransitionRequest{
		To:     StatusCancelled,
		Actor:  actor,
		Reason: reason,
		Action: action,
	})
}

// AddMessage appends to the order's conversation thread and persists it.
func (s *Service) AddMessage(ctx context.Context, orderID string, from Actor, message string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if _, err := AppendMessage(o, from, message, s.now()); err != nil {
		return nil, err
	}
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	return o, nil
}

// AttachReview links a submitted review to its order.
func (s *Service) AttachReview(ctx context.Context, orderID, reviewID string) (*Order, error) {
	return s.setReview(ctx, orderID, reviewID)
}

// DetachReview clears the review back-reference after a review is deleted.
func (s *Service) DetachReview(ctx context.Context, orderID string) (*Order, error) {
	return s.setReview(ctx, orderID, "")
}

func (s *Service) setReview(ctx context.Context, orderID, reviewID string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	o.ReviewID = reviewID
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	return o, nil
}

func snapshot(o *Order) notify.OrderSnapshot {
	return notify.OrderSnapshot{
		OrderID:      o.ID,
		CustomerName: o.CustomerName,
		Status:       string(o.Status),
		Total:        o.Total.StringFixed(2),
		PickupDate:   o.PickupDate,
		PickupTime:   o.PickupTime,
		Reason:       o.CancellationReason,
	}
}

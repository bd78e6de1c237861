// Package memory provides an in-process store implementing the domain
// repository interfaces. It backs the -store=memory run mode and the test
// suites; data does not survive a restart.
package memory

import (
	"context"
	"sync"

	"github.com/Pons070/studio-sub000/internal/domain/menu"
	"github.com/Pons070/studio-sub000/internal/domain/order"
	"github.com/Pons070/studio-sub000/internal/domain/promotion"
)

// Store holds all aggregates behind one mutex. Writes to a given order are
// serialized here, which is the only concurrency guarantee the domain core
// expects from its persistence adapter.
type Store struct {
	mu         sync.RWMutex
	promotions []promotion.Promotion
	menuItems  []menu.Item
	orders     map[string]order.Order
	orderSeq   []string
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{orders: make(map[string]order.Order)}
}

// Promotions returns the promotion repository view of the store.
func (s *Store) Promotions() promotion.Repository { return (*promotionRepo)(s) }

// Menu returns the menu repository view of the store.
func (s *Store) Menu() menu.Repository { return (*menuRepo)(s) }

// Orders returns the order repository view of the store.
func (s *Store) Orders() order.Repository { return (*orderRepo)(s) }

// History returns the customer history view of the store.
func (s *Store) History() order.History { return (*orderRepo)(s) }

// SeedMenu replaces the menu catalog.
func (s *Store) SeedMenu(items []menu.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menuItems = append([]menu.Item(nil), items...)
}

// SeedPromotions replaces the promotion catalog.
func (s *Store) SeedPromotions(promos []promotion.Promotion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promotions = append([]promotion.Promotion(nil), promos...)
}

type promotionRepo Store

func (r *promotionRepo) List(_ context.Context) ([]promotion.Promotion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]promotion.Promotion(nil), r.promotions...), nil
}

func (r *promotionRepo) GetByID(_ context.Context, id string) (*promotion.Promotion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.promotions {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, promotion.ErrNotFound
}

func (r *promotionRepo) Create(_ context.Context, p *promotion.Promotion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.promotions = append(r.promotions, *p)
	return nil
}

func (r *promotionRepo) Update(_ context.Context, p *promotion.Promotion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.promotions {
		if r.promotions[i].ID == p.ID {
			r.promotions[i] = *p
			return nil
		}
	}
	return promotion.ErrNotFound
}

func (r *promotionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.promotions {
		if r.promotions[i].ID == id {
			r.promotions = append(r.promotions[:i], r.promotions[i+1:]...)
			return nil
		}
	}
	return promotion.ErrNotFound
}

type menuRepo Store

func (r *menuRepo) List(_ context.Context) ([]menu.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]menu.Item(nil), r.menuItems...), nil
}

func (r *menuRepo) GetByIDs(_ context.Context, ids []string) ([]menu.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []menu.Item
	for _, it := range r.menuItems {
		if want[it.ID] {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *menuRepo) Upsert(_ context.Context, item *menu.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.menuItems {
		if r.menuItems[i].ID == item.ID {
			r.menuItems[i] = *item
			return nil
		}
	}
	r.menuItems = append(r.menuItems, *item)
	return nil
}

type orderRepo Store

func (r *orderRepo) Create(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = *o
	r.orderSeq = append(r.orderSeq, o.ID)
	return nil
}

func (r *orderRepo) GetByID(_ context.Context, id string) (*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return &o, nil
}

func (r *orderRepo) Update(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; !ok {
		return order.ErrNotFound
	}
	r.orders[o.ID] = *o
	return nil
}

func (r *orderRepo) ListByCustomer(_ context.Context, customerID string) ([]order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []order.Order
	for _, id := range r.orderSeq {
		if o := r.orders[id]; o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out, nil
}

// HasPriorOrders counts every stored order for the customer; cancelled
// orders still mark the customer as existing.
func (r *orderRepo) HasPriorOrders(_ context.Context, customerID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.orders {
		if o.CustomerID == customerID {
			return true, nil
		}
	}
	return false, nil
}

package menu

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested menu item does not exist.
var ErrNotFound = errors.New("menu item not found")

// Item represents a dish on the restaurant's menu.
type Item struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	ImageURL    string
	Available   bool
}

// Repository defines catalog operations for the menu.
type Repository interface {
	List(ctx context.Context) ([]Item, error)
	GetByIDs(ctx context.Context, ids []string) ([]Item, error)
	Upsert(ctx context.Context, item *Item) error
}

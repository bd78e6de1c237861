package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Pons070/studio-sub000/internal/domain/menu"
)

var _ menu.Repository = (*MenuRepository)(nil)

// MenuRepository implements menu.Repository backed by PostgreSQL.
type MenuRepository struct {
	pool *pgxpool.Pool
}

// NewMenuRepository returns a MenuRepository using the given pool.
func NewMenuRepository(pool *pgxpool.Pool) *MenuRepository {
	return &MenuRepository{pool: pool}
}

const menuColumns = `id, name, description, price, category, image_url, available`

// List returns the full menu ordered by category then name.
func (r *MenuRepository) List(ctx context.Context) ([]menu.Item, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+menuColumns+` FROM menu_items ORDER BY category, name`)
	if err != nil {
		return nil, fmt.Errorf("listing menu items: %w", err)
	}
	defer rows.Close()

	var items []menu.Item
	for rows.Next() {
		var it menu.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Description, &it.Price,
			&it.Category, &it.ImageURL, &it.Available); err != nil {
			return nil, fmt.Errorf("scanning menu item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// GetByIDs fetches the requested items in a single query. Missing ids are
// simply absent from the result; callers decide whether that is an error.
func (r *MenuRepository) GetByIDs(ctx context.Context, ids []string) ([]menu.Item, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+menuColumns+` FROM menu_items WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("getting menu items: %w", err)
	}
	defer rows.Close()

	var items []menu.Item
	for rows.Next() {
		var it menu.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Description, &it.Price,
			&it.Category, &it.ImageURL, &it.Available); err != nil {
			return nil, fmt.Errorf("scanning menu item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Upsert inserts or replaces a menu item.
func (r *MenuRepository) Upsert(ctx context.Context, item *menu.Item) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO menu_items (id, name, description, price, category, image_url, available)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, description = EXCLUDED.description,
			price = EXCLUDED.price, category = EXCLUDED.category,
			image_url = EXCLUDED.image_url, available = EXCLUDED.available`,
		item.ID, item.Name, item.Description, item.Price,
		item.Category, item.ImageURL, item.Available,
	)
	if err != nil {
		return fmt.Errorf("upserting menu item %q: %w", item.ID, err)
	}
	return nil
}

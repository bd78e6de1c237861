package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Pons070/studio-sub000/internal/domain/promotion"
)

var _ promotion.Repository = (*PromotionRepository)(nil)

// PromotionRepository implements promotion.Repository backed by PostgreSQL.
type PromotionRepository struct {
	pool *pgxpool.Pool
}

// NewPromotionRepository returns a PromotionRepository using the given pool.
func NewPromotionRepository(pool *pgxpool.Pool) *PromotionRepository {
	return &PromotionRepository{pool: pool}
}

const promotionColumns = `id, title, description, audience, is_active, coupon_code,
	discount_type, discount_value, min_order_value, start_date, end_date, active_days`

// List returns the full promotion catalog in creation order.
func (r *PromotionRepository) List(ctx context.Context) ([]promotion.Promotion, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+promotionColumns+` FROM promotions ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing promotions: %w", err)
	}
	defer rows.Close()

	var promos []promotion.Promotion
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, err
		}
		promos = append(promos, p)
	}
	return promos, rows.Err()
}

// GetByID returns a single promotion. It returns promotion.ErrNotFound when
// no matching row exists.
func (r *PromotionRepository) GetByID(ctx context.Context, id string) (*promotion.Promotion, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+promotionColumns+` FROM promotions WHERE id = $1`, id)
	p, err := scanPromotion(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, promotion.ErrNotFound
		}
		return nil, fmt.Errorf("getting promotion %q: %w", id, err)
	}
	return &p, nil
}

// Create inserts a new promotion.
func (r *PromotionRepository) Create(ctx context.Context, p *promotion.Promotion) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO promotions
			(id, title, description, audience, is_active, coupon_code,
			 discount_type, discount_value, min_order_value, start_date, end_date, active_days)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.Title, p.Description, string(p.Audience), p.IsActive, p.CouponCode,
		string(p.DiscountType), p.DiscountValue, p.MinOrderValue,
		p.StartDate, p.EndDate, daysToInts(p.ActiveDays),
	)
	if err != nil {
		return fmt.Errorf("creating promotion %q: %w", p.ID, err)
	}
	return nil
}

// Update rewrites all mutable fields of a promotion.
func (r *PromotionRepository) Update(ctx context.Context, p *promotion.Promotion) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE promotions SET
			title = $2, description = $3, audience = $4, is_active = $5,
			coupon_code = $6, discount_type = $7, discount_value = $8,
			min_order_value = $9, start_date = $10, end_date = $11, active_days = $12
		WHERE id = $1`,
		p.ID, p.Title, p.Description, string(p.Audience), p.IsActive, p.CouponCode,
		string(p.DiscountType), p.DiscountValue, p.MinOrderValue,
		p.StartDate, p.EndDate, daysToInts(p.ActiveDays),
	)
	if err != nil {
		return fmt.Errorf("updating promotion %q: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return promotion.ErrNotFound
	}
	return nil
}

// Delete removes a promotion from the catalog.
func (r *PromotionRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM promotions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting promotion %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return promotion.ErrNotFound
	}
	return nil
}

func scanPromotion(row pgx.Row) (promotion.Promotion, error) {
	var (
		p        promotion.Promotion
		audience string
		dtype    string
		days     []int32
	)
	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &audience, &p.IsActive, &p.CouponCode,
		&dtype, &p.DiscountValue, &p.MinOrderValue, &p.StartDate, &p.EndDate, &days,
	)
	if err != nil {
		return promotion.Promotion{}, err
	}
	p.Audience = promotion.Audience(audience)
	p.DiscountType = promotion.DiscountType(dtype)
	p.ActiveDays = intsToDays(days)
	return p, nil
}

func daysToInts(days []time.Weekday) []int32 {
	if len(days) == 0 {
		return nil
	}
	out := make([]int32, len(days))
	for i, d := range days {
		out[i] = int32(d)
	}
	return out
}

func intsToDays(ints []int32) []time.Weekday {
	if len(ints) == 0 {
		return nil
	}
	out := make([]time.Weekday, len(ints))
	for i, d := range ints {
		out[i] = time.Weekday(d)
	}
	return out
}

// Command seed-db loads the menu fixture and the launch promotions into
// PostgreSQL, running migrations first. It is idempotent: rerunning it
// updates existing rows instead of duplicating them.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/Pons070/studio-sub000/internal/domain/menu"
	"github.com/Pons070/studio-sub000/internal/domain/promotion"
	"github.com/Pons070/studio-sub000/internal/storage/postgres"
)

type menuItemJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Available   *bool           `json:"available"`
}

func main() {
	var (
		databaseURL string
		menuFile    string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&menuFile, "menu-file", "db/seed/menu.json", "path to menu items JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, menuFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, menuFile string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedMenu(ctx, postgres.NewMenuRepository(pool), menuFile); err != nil {
		return errors.Wrap(err, "seed menu")
	}

	if err := seedPromotions(ctx, postgres.NewPromotionRepository(pool)); err != nil {
		return errors.Wrap(err, "seed promotions")
	}

	return nil
}

func seedMenu(ctx context.Context, repo *postgres.MenuRepository, menuFile string) error {
	slog.Info("reading menu file", slog.String("path", menuFile))

	data, err := os.ReadFile(menuFile)
	if err != nil {
		return errors.Wrap(err, "read menu file")
	}

	var items []menuItemJSON
	if err := json.Unmarshal(data, &items); err != nil {
		return errors.Wrap(err, "parse menu JSON")
	}

	slog.Info("upserting menu items", slog.Int("count", len(items)))

	for _, it := range items {
		available := true
		if it.Available != nil {
			available = *it.Available
		}
		item := menu.Item{
			ID:          it.ID,
			Name:        it.Name,
			Description: it.Description,
			Price:       it.Price,
			Category:    it.Category,
			ImageURL:    it.Image,
			Available:   available,
		}
		if err := repo.Upsert(ctx, &item); err != nil {
			return errors.Wrapf(err, "upsert menu item %s", it.ID)
		}

		slog.Info("upserted menu item", slog.String("id", it.ID), slog.String("name", it.Name))
	}

	return nil
}

func seedPromotions(ctx context.Context, repo *postgres.PromotionRepository) error {
	slog.Info("seeding launch promotions")

	promos := []promotion.Promotion{
		{
			ID:            "welcome-15",
			Title:         "Welcome Offer",
			Description:   "15% off your first pre-order",
			Audience:      promotion.AudienceNew,
			IsActive:      true,
			CouponCode:    "WELCOME15",
			DiscountType:  promotion.DiscountPercentage,
			DiscountValue: decimal.NewFromInt(15),
		},
		{
			ID:            "weekday-lunch",
			Title:         "Weekday Lunch Deal",
			Description:   "Flat 5 off orders over 30, Monday through Friday",
			Audience:      promotion.AudienceAll,
			IsActive:      true,
			CouponCode:    "LUNCH5",
			DiscountType:  promotion.DiscountFlat,
			DiscountValue: decimal.NewFromInt(5),
			MinOrderValue: decimal.NewFromInt(30),
			ActiveDays: []time.Weekday{
				time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
			},
		},
	}

	for _, p := range promos {
		if err := upsertPromotion(ctx, repo, p); err != nil {
			return errors.Wrapf(err, "upsert promotion %s", p.ID)
		}

		slog.Info("upserted promotion", slog.String("id", p.ID), slog.String("coupon", p.CouponCode))
	}

	return nil
}

// upsertPromotion keeps the seeder idempotent over a repository that only
// exposes Create and Update.
func upsertPromotion(ctx context.Context, repo *postgres.PromotionRepository, p promotion.Promotion) error {
	if _, err := repo.GetByID(ctx, p.ID); err != nil {
		if errors.Is(err, promotion.ErrNotFound) {
			return repo.Create(ctx, &p)
		}
		return err
	}
	return repo.Update(ctx, &p)
}

package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pons070/studio-sub000/internal/domain/menu"
	"github.com/Pons070/studio-sub000/internal/domain/order"
	"github.com/Pons070/studio-sub000/internal/domain/promotion"
)

func TestPromotionCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := s.Promotions()

	p := &promotion.Promotion{ID: "p1", Title: "Weekday lunch", IsActive: true}
	require.NoError(t, repo.Create(ctx, p))

	got, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Weekday lunch", got.Title)

	p.Title = "Weekday lunch deal"
	require.NoError(t, repo.Update(ctx, p))
	got, err = repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Weekday lunch deal", got.Title)

	require.NoError(t, repo.Delete(ctx, "p1"))
	_, err = repo.GetByID(ctx, "p1")
	require.ErrorIs(t, err, promotion.ErrNotFound)

	err = repo.Update(ctx, p)
	require.ErrorIs(t, err, promotion.ErrNotFound)
}

func TestMenuGetByIDs(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	s.SeedMenu([]menu.Item{
		{ID: "m1", Name: "Dal", Price: decimal.NewFromInt(8), Available: true},
		{ID: "m2", Name: "Rice", Price: decimal.NewFromInt(4), Available: true},
	})

	got, err := s.Menu().GetByIDs(ctx, []string{"m2", "missing"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Rice", got[0].Name)
}

func TestOrderRoundTripAndHistory(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := s.Orders()

	prior, err := s.History().HasPriorOrders(ctx, "cust-1")
	require.NoError(t, err)
	assert.False(t, prior)

	o := &order.Order{ID: "o1", CustomerID: "cust-1", Status: order.StatusPending}
	require.NoError(t, repo.Create(ctx, o))

	got, err := repo.GetByID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, got.Status)

	// Mutating the returned copy must not leak into the store.
	got.Status = order.StatusCompleted
	again, err := repo.GetByID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, again.Status)

	got.Status = order.StatusConfirmed
	require.NoError(t, repo.Update(ctx, got))
	again, err = repo.GetByID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusConfirmed, again.Status)

	prior, err = s.History().HasPriorOrders(ctx, "cust-1")
	require.NoError(t, err)
	assert.True(t, prior)

	_, err = repo.GetByID(ctx, "nope")
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestHistoryCountsCancelledOrders(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Orders().Create(ctx, &order.Order{
		ID: "o1", CustomerID: "cust-1", Status: order.StatusCancelled,
	}))

	prior, err := s.History().HasPriorOrders(ctx, "cust-1")
	require.NoError(t, err)
	assert.True(t, prior, "a cancelled order still makes the customer existing")
}

func TestListByCustomerKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Orders().Create(ctx, &order.Order{ID: "a", CustomerID: "c"}))
	require.NoError(t, s.Orders().Create(ctx, &order.Order{ID: "b", CustomerID: "c"}))

	got, err := s.Orders().ListByCustomer(ctx, "c")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
}

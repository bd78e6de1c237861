package promotion

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday, June 16 2025.
var monday = time.Date(2025, 6, 16, 14, 30, 0, 0, time.UTC)

func pct(id, code string, value int64) Promotion {
	return Promotion{
		ID:            id,
		Audience:      AudienceAll,
		IsActive:      true,
		CouponCode:    code,
		DiscountType:  DiscountPercentage,
		DiscountValue: decimal.NewFromInt(value),
	}
}

func TestListActive(t *testing.T) {
	saturday := time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC)
	weekdaysOnly := []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
	}

	tests := []struct {
		name    string
		promo   Promotion
		today   time.Time
		wantIn  bool
	}{
		{
			name:   "inactive promotion never eligible",
			promo:  Promotion{IsActive: false},
			today:  monday,
			wantIn: false,
		},
		{
			name:   "no window means always in",
			promo:  Promotion{IsActive: true},
			today:  monday,
			wantIn: true,
		},
		{
			name:   "start date boundary is inclusive",
			promo:  Promotion{IsActive: true, StartDate: "2025-06-16"},
			today:  monday,
			wantIn: true,
		},
		{
			name:   "end date boundary is inclusive",
			promo:  Promotion{IsActive: true, EndDate: "2025-06-16"},
			today:  monday,
			wantIn: true,
		},
		{
			name:   "before window excluded",
			promo:  Promotion{IsActive: true, StartDate: "2025-06-17"},
			today:  monday,
			wantIn: false,
		},
		{
			name:   "after window excluded",
			promo:  Promotion{IsActive: true, EndDate: "2025-06-15"},
			today:  monday,
			wantIn: false,
		},
		{
			name:   "inside window included",
			promo:  Promotion{IsActive: true, StartDate: "2025-06-01", EndDate: "2025-06-30"},
			today:  monday,
			wantIn: true,
		},
		{
			name:   "unparsable start date fails closed",
			promo:  Promotion{IsActive: true, StartDate: "not-a-date"},
			today:  monday,
			wantIn: false,
		},
		{
			name:   "unparsable end date fails closed",
			promo:  Promotion{IsActive: true, EndDate: "16/06/2025"},
			today:  monday,
			wantIn: false,
		},
		{
			name:   "weekday promotion active on monday",
			promo:  Promotion{IsActive: true, ActiveDays: weekdaysOnly},
			today:  monday,
			wantIn: true,
		},
		{
			name:   "weekday promotion inactive on saturday",
			promo:  Promotion{IsActive: true, ActiveDays: weekdaysOnly},
			today:  saturday,
			wantIn: false,
		},
		{
			name:   "empty active days means every day",
			promo:  Promotion{IsActive: true, ActiveDays: nil},
			today:  saturday,
			wantIn: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ListActive([]Promotion{tt.promo}, tt.today)
			if tt.wantIn {
				assert.Len(t, got, 1)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestListActive_PreservesCatalogOrder(t *testing.T) {
	promos := []Promotion{pct("p1", "A", 10), {ID: "p2"}, pct("p3", "B", 20)}

	got := ListActive(promos, monday)

	require.Len(t, got, 2)
	assert.Equal(t, "p1", got[0].ID)
	assert.Equal(t, "p3", got[1].ID)
}

func TestResolve(t *testing.T) {
	welcome := pct("p1", "WELCOME15", 15)
	welcome.Audience = AudienceNew
	loyal := pct("p2", "LOYAL10", 10)
	loyal.Audience = AudienceExisting
	banner := pct("p3", "", 5)

	active := []Promotion{welcome, loyal, banner}

	tests := []struct {
		name     string
		audience Audience
		code     string
		wantID   string
		wantErr  error
	}{
		{
			name:     "entered code matches case-insensitively",
			audience: AudienceExisting,
			code:     "welcome15",
			wantID:   "p1",
		},
		{
			name:     "entered code overrides audience targeting",
			audience: AudienceExisting,
			code:     "WELCOME15",
			wantID:   "p1",
		},
		{
			name:     "unknown code does not fall through",
			audience: AudienceNew,
			code:     "BOGUS",
			wantErr:  ErrCouponNotFound,
		},
		{
			name:     "partial code does not match",
			audience: AudienceNew,
			code:     "WELCOME",
			wantErr:  ErrCouponNotFound,
		},
		{
			name:     "audience match without code",
			audience: AudienceExisting,
			wantID:   "p2",
		},
		{
			name:     "falls back to all-audience promotion",
			audience: AudienceNew,
			wantID:   "p1", // new-audience promo precedes the banner
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(active, tt.audience, tt.code)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestResolve_AllAudienceFallback(t *testing.T) {
	banner := pct("p3", "", 5)
	active := []Promotion{banner}

	got, err := Resolve(active, AudienceNew, "")

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "p3", got.ID)
}

func TestResolve_NoPromotionApplies(t *testing.T) {
	loyal := pct("p2", "LOYAL10", 10)
	loyal.Audience = AudienceExisting

	got, err := Resolve([]Promotion{loyal}, AudienceNew, "")

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestComputeDiscount(t *testing.T) {
	tests := []struct {
		name     string
		promo    *Promotion
		subtotal decimal.Decimal
		want     decimal.Decimal
	}{
		{
			name:     "nil promotion yields zero",
			promo:    nil,
			subtotal: decimal.NewFromInt(100),
			want:     decimal.Zero,
		},
		{
			name: "percentage discount",
			promo: &Promotion{
				CouponCode:    "SAVE15",
				DiscountType:  DiscountPercentage,
				DiscountValue: decimal.NewFromInt(15),
			},
			subtotal: decimal.NewFromInt(100),
			want:     decimal.NewFromInt(15),
		},
		{
			name: "flat discount capped at subtotal",
			promo: &Promotion{
				CouponCode:    "FLAT750",
				DiscountType:  DiscountFlat,
				DiscountValue: decimal.RequireFromString("7.50"),
			},
			subtotal: decimal.RequireFromString("5.00"),
			want:     decimal.RequireFromString("5.00"),
		},
		{
			name: "flat discount below subtotal applies in full",
			promo: &Promotion{
				CouponCode:    "FLAT5",
				DiscountType:  DiscountFlat,
				DiscountValue: decimal.NewFromInt(5),
			},
			subtotal: decimal.NewFromInt(40),
			want:     decimal.NewFromInt(5),
		},
		{
			name: "percentage keeps full precision",
			promo: &Promotion{
				CouponCode:    "WELCOME15",
				DiscountType:  DiscountPercentage,
				DiscountValue: decimal.NewFromInt(15),
			},
			subtotal: decimal.RequireFromString("39.48"),
			want:     decimal.RequireFromString("5.922"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeDiscount(tt.promo, tt.subtotal)

			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got.Amount),
				"expected %s, got %s", tt.want, got.Amount)
		})
	}
}

func TestComputeDiscount_MinimumNotMet(t *testing.T) {
	promo := &Promotion{
		CouponCode:    "MIN20",
		DiscountType:  DiscountPercentage,
		DiscountValue: decimal.NewFromInt(10),
		MinOrderValue: decimal.NewFromInt(20),
	}

	_, err := ComputeDiscount(promo, decimal.NewFromInt(15))

	var minErr *MinimumNotMetError
	require.ErrorAs(t, err, &minErr)
	assert.True(t, decimal.NewFromInt(20).Equal(minErr.Required))
	assert.True(t, decimal.NewFromInt(15).Equal(minErr.Subtotal))
	assert.Contains(t, minErr.Error(), "20.00")
}

func TestComputeDiscount_MinimumExactlyMet(t *testing.T) {
	promo := &Promotion{
		CouponCode:    "MIN20",
		DiscountType:  DiscountFlat,
		DiscountValue: decimal.NewFromInt(3),
		MinOrderValue: decimal.NewFromInt(20),
	}

	got, err := ComputeDiscount(promo, decimal.NewFromInt(20))

	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(3).Equal(got.Amount))
	assert.Equal(t, "MIN20", got.CouponCode)
}

package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Pons070/studio-sub000/internal/domain/promotion"
)

type promotionPayload struct {
	ID            string          `json:"id,omitempty"`
	Title         string          `json:"title"`
	Description   string          `json:"description,omitempty"`
	Audience      string          `json:"audience"`
	IsActive      bool            `json:"is_active"`
	CouponCode    string          `json:"coupon_code,omitempty"`
	DiscountType  string          `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	MinOrderValue decimal.Decimal `json:"min_order_value"`
	StartDate     string          `json:"start_date,omitempty"`
	EndDate       string          `json:"end_date,omitempty"`
	ActiveDays    []int           `json:"active_days,omitempty"`
}

func toPromotionPayload(p promotion.Promotion) promotionPayload {
	days := make([]int, len(p.ActiveDays))
	for i, d := range p.ActiveDays {
		days[i] = int(d)
	}
	return promotionPayload{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		Audience:      string(p.Audience),
		IsActive:      p.IsActive,
		CouponCode:    p.CouponCode,
		DiscountType:  string(p.DiscountType),
		DiscountValue: p.DiscountValue,
		MinOrderValue: p.MinOrderValue,
		StartDate:     p.StartDate,
		EndDate:       p.EndDate,
		ActiveDays:    days,
	}
}

// toDomain validates the payload and converts it. The returned message is
// empty when the payload is valid.
func (p promotionPayload) toDomain() (promotion.Promotion, string) {
	switch promotion.Audience(p.Audience) {
	case promotion.AudienceAll, promotion.AudienceNew, promotion.AudienceExisting:
	default:
		return promotion.Promotion{}, "audience must be one of: all, new, existing"
	}
	switch promotion.DiscountType(p.DiscountType) {
	case promotion.DiscountPercentage, promotion.DiscountFlat:
	default:
		return promotion.Promotion{}, "discount_type must be one of: percentage, flat"
	}
	if !p.DiscountValue.IsPositive() {
		return promotion.Promotion{}, "discount_value must be greater than 0"
	}
	if p.MinOrderValue.IsNegative() {
		return promotion.Promotion{}, "min_order_value must not be negative"
	}
	for _, date := range []string{p.StartDate, p.EndDate} {
		if date == "" {
			continue
		}
		if _, err := time.Parse(promotion.DateLayout, date); err != nil {
			return promotion.Promotion{}, "dates must use the YYYY-MM-DD format"
		}
	}

	days := make([]time.Weekday, len(p.ActiveDays))
	for i, d := range p.ActiveDays {
		if d < 0 || d > 6 {
			return promotion.Promotion{}, "active_days entries must be 0 (Sunday) through 6 (Saturday)"
		}
		days[i] = time.Weekday(d)
	}
	if len(days) == 0 {
		days = nil
	}

	return promotion.Promotion{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		Audience:      promotion.Audience(p.Audience),
		IsActive:      p.IsActive,
		CouponCode:    p.CouponCode,
		DiscountType:  promotion.DiscountType(p.DiscountType),
		DiscountValue: p.DiscountValue,
		MinOrderValue: p.MinOrderValue,
		StartDate:     p.StartDate,
		EndDate:       p.EndDate,
		ActiveDays:    days,
	}, ""
}

// listActivePromotions returns the promotions a storefront may advertise
// today: active flag on, inside the date window, and today is an active day.
func (h *Handler) listActivePromotions(w http.ResponseWriter, r *http.Request) {
	promos, err := h.promotions.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	active := promotion.ListActive(promos, h.now())
	resp := make([]promotionPayload, len(active))
	for i, p := range active {
		resp[i] = toPromotionPayload(p)
	}
	writeJSON(w, http.StatusOK, resp)
}

type validateCouponRequest struct {
	CouponCode string          `json:"coupon_code"`
	CustomerID string          `json:"customer_id,omitempty"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

type validateCouponResponse struct {
	Valid          bool   `json:"valid"`
	CouponCode     string `json:"coupon_code,omitempty"`
	DiscountAmount string `json:"discount_amount,omitempty"`
}

// validateCoupon previews a coupon against a cart subtotal without placing
// an order. It applies the same eligibility rules as checkout.
func (h *Handler) validateCoupon(w http.ResponseWriter, r *http.Request) {
	var req validateCouponRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.CouponCode == "" {
		writeError(w, http.StatusBadRequest, "coupon_code is required")
		return
	}

	promos, err := h.promotions.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	active := promotion.ListActive(promos, h.now())

	audience := promotion.AudienceNew
	if req.CustomerID != "" {
		prior, err := h.history.HasPriorOrders(r.Context(), req.CustomerID)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		if prior {
			audience = promotion.AudienceExisting
		}
	}

	resolved, err := promotion.Resolve(active, audience, req.CouponCode)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	discount, err := promotion.ComputeDiscount(resolved, req.Subtotal)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, validateCouponResponse{
		Valid:          true,
		CouponCode:     discount.CouponCode,
		DiscountAmount: discount.Amount.Round(2).StringFixed(2),
	})
}

func (h *Handler) listPromotions(w http.ResponseWriter, r *http.Request) {
	promos, err := h.promotions.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	resp := make([]promotionPayload, len(promos))
	for i, p := range promos {
		resp[i] = toPromotionPayload(p)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) getPromotion(w http.ResponseWriter, r *http.Request) {
	p, err := h.promotions.GetByID(r.Context(), chi.URLParam(r, "promotionID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPromotionPayload(*p))
}

func (h *Handler) createPromotion(w http.ResponseWriter, r *http.Request) {
	var payload promotionPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, msg := payload.toDomain()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	if err := h.promotions.Create(r.Context(), &p); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPromotionPayload(p))
}

func (h *Handler) updatePromotion(w http.ResponseWriter, r *http.Request) {
	var payload promotionPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, msg := payload.toDomain()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	p.ID = chi.URLParam(r, "promotionID")

	if err := h.promotions.Update(r.Context(), &p); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPromotionPayload(p))
}

func (h *Handler) deletePromotion(w http.ResponseWriter, r *http.Request) {
	if err := h.promotions.Delete(r.Context(), chi.URLParam(r, "promotionID")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

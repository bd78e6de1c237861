// Package handler exposes the ordering domain over a JSON REST surface.
package handler

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Pons070/studio-sub000/internal/domain/menu"
	"github.com/Pons070/studio-sub000/internal/domain/order"
	"github.com/Pons070/studio-sub000/internal/domain/promotion"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in menu responses.
	// When empty, image paths are returned as stored.
	ImageBaseURL string
}

// Handler routes HTTP requests to the domain services and repositories.
type Handler struct {
	menu       menu.Repository
	promotions promotion.Repository
	orders     *order.Service
	history    order.History

	imageBaseURL string
	now          func() time.Time
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	menuRepo menu.Repository,
	promotions promotion.Repository,
	orders *order.Service,
	history order.History,
) *Handler {
	return &Handler{
		menu:         menuRepo,
		promotions:   promotions,
		orders:       orders,
		history:      history,
		imageBaseURL: cfg.ImageBaseURL,
		now:          time.Now,
	}
}

// Routes mounts the full API surface.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/menu", h.listMenu)

	r.Route("/promotions", func(r chi.Router) {
		r.Get("/active", h.listActivePromotions)
		r.Post("/validate", h.validateCoupon)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.placeOrder)
		r.Get("/{orderID}", h.getOrder)
		r.Post("/{orderID}/status", h.updateStatus)
		r.Post("/{orderID}/cancel", h.cancelOrder)
		r.Post("/{orderID}/messages", h.addMessage)
		r.Put("/{orderID}/review", h.attachReview)
		r.Delete("/{orderID}/review", h.detachReview)
	})

	r.Get("/customers/{customerID}/orders", h.listCustomerOrders)

	r.Route("/admin/promotions", func(r chi.Router) {
		r.Get("/", h.listPromotions)
		r.Post("/", h.createPromotion)
		r.Get("/{promotionID}", h.getPromotion)
		r.Put("/{promotionID}", h.updatePromotion)
		r.Delete("/{promotionID}", h.deletePromotion)
	})

	return r
}

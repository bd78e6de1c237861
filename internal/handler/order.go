package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Pons070/studio-sub000/internal/domain/order"
)

type addressPayload struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
}

type orderLinePayload struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

type orderItemResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
	ImageURL string `json:"image_url,omitempty"`
}

type messageResponse struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type orderResponse struct {
	ID            string         `json:"id"`
	CustomerID    string         `json:"customer_id,omitempty"`
	CustomerName  string         `json:"customer_name"`
	CustomerEmail string         `json:"customer_email,omitempty"`
	Address       addressPayload `json:"address"`

	OrderDate  time.Time `json:"order_date"`
	PickupDate string    `json:"pickup_date,omitempty"`
	PickupTime string    `json:"pickup_time,omitempty"`

	Status string              `json:"status"`
	Items  []orderItemResponse `json:"items"`

	DeliveryFee    string `json:"delivery_fee"`
	AppliedCoupon  string `json:"applied_coupon,omitempty"`
	DiscountAmount string `json:"discount_amount"`
	Total          string `json:"total"`

	CancellationDate   *time.Time `json:"cancellation_date,omitempty"`
	CancelledBy        string     `json:"cancelled_by,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CancellationAction string     `json:"cancellation_action,omitempty"`

	CookingNotes string `json:"cooking_notes,omitempty"`
	ReviewID     string `json:"review_id,omitempty"`

	UpdateRequests []messageResponse `json:"update_requests,omitempty"`
}

func (h *Handler) toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemResponse{
			ID:       it.ID,
			Name:     it.Name,
			Price:    it.Price.StringFixed(2),
			Quantity: it.Quantity,
			ImageURL: h.imageURL(it.ImageURL),
		}
	}

	msgs := make([]messageResponse, len(o.UpdateRequests))
	for i, m := range o.UpdateRequests {
		msgs[i] = messageResponse{
			ID:        m.ID,
			From:      string(m.From),
			Message:   m.Message,
			Timestamp: m.Timestamp,
		}
	}

	return orderResponse{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		Address: addressPayload{
			Line1:      o.Address.Line1,
			Line2:      o.Address.Line2,
			City:       o.Address.City,
			PostalCode: o.Address.PostalCode,
		},
		OrderDate:          o.OrderDate,
		PickupDate:         o.PickupDate,
		PickupTime:         o.PickupTime,
		Status:             string(o.Status),
		Items:              items,
		DeliveryFee:        o.DeliveryFee.StringFixed(2),
		AppliedCoupon:      o.AppliedCoupon,
		DiscountAmount:     o.DiscountAmount.StringFixed(2),
		Total:              o.Total.StringFixed(2),
		CancellationDate:   o.CancellationDate,
		CancelledBy:        string(o.CancelledBy),
		CancellationReason: o.CancellationReason,
		CancellationAction: string(o.CancellationAction),
		CookingNotes:       o.CookingNotes,
		ReviewID:           o.ReviewID,
		UpdateRequests:     msgs,
	}
}

type placeOrderRequest struct {
	CustomerID    string             `json:"customer_id,omitempty"`
	CustomerName  string             `json:"customer_name"`
	CustomerEmail string             `json:"customer_email"`
	Address       addressPayload     `json:"address"`
	Items         []orderLinePayload `json:"items"`
	CouponCode    string             `json:"coupon_code,omitempty"`
	DeliveryFee   decimal.Decimal    `json:"delivery_fee"`
	PickupDate    string             `json:"pickup_date,omitempty"`
	PickupTime    string             `json:"pickup_time,omitempty"`
	CookingNotes  string             `json:"cooking_notes,omitempty"`
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.DeliveryFee.IsNegative() {
		writeError(w, http.StatusBadRequest, "delivery_fee must not be negative")
		return
	}

	lines := make([]order.Line, len(req.Items))
	for i, it := range req.Items {
		lines[i] = order.Line{ItemID: it.ItemID, Quantity: it.Quantity}
	}

	o, err := h.orders.PlaceOrder(r.Context(), order.PlaceOrderRequest{
		CustomerID:    req.CustomerID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		Address: order.Address{
			Line1:      req.Address.Line1,
			Line2:      req.Address.Line2,
			City:       req.Address.City,
			PostalCode: req.Address.PostalCode,
		},
		Lines:        lines,
		CouponCode:   req.CouponCode,
		DeliveryFee:  req.DeliveryFee,
		PickupDate:   req.PickupDate,
		PickupTime:   req.PickupTime,
		CookingNotes: req.CookingNotes,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.toOrderResponse(o))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toOrderResponse(o))
}

func (h *Handler) listCustomerOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListByCustomer(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	resp := make([]orderResponse, len(orders))
	for i := range orders {
		resp[i] = h.toOrderResponse(&orders[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

type updateStatusRequest struct {
	Status string `json:"status"`
	Actor  string `json:"actor"`
	Reason string `json:"reason,omitempty"`
	Action string `json:"action,omitempty"`
}

func parseActor(s string) (order.Actor, bool) {
	switch order.Actor(s) {
	case order.ActorAdmin, order.ActorCustomer:
		return order.Actor(s), true
	}
	return "", false
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	actor, ok := parseActor(req.Actor)
	if !ok {
		writeError(w, http.StatusBadRequest, "actor must be one of: admin, customer")
		return
	}
	switch order.Status(req.Status) {
	case order.StatusConfirmed, order.StatusCompleted, order.StatusCancelled:
	default:
		writeError(w, http.StatusBadRequest, "status must be one of: Confirmed, Completed, Cancelled")
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "orderID"), order.TransitionRequest{
		To:     order.Status(req.Status),
		Actor:  actor,
		Reason: req.Reason,
		Action: order.CancellationAction(req.Action),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toOrderResponse(o))
}

type cancelOrderRequest struct {
	Actor  string `json:"actor"`
	Reason string `json:"reason"`
	Action string `json:"action,omitempty"`
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	var req cancelOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	actor, ok := parseActor(req.Actor)
	if !ok {
		writeError(w, http.StatusBadRequest, "actor must be one of: admin, customer")
		return
	}
	action := order.CancellationAction(req.Action)
	if actor == order.ActorCustomer {
		switch action {
		case order.ActionRefund, order.ActionDonate:
		default:
			writeError(w, http.StatusBadRequest, "action must be one of: refund, donate")
			return
		}
	}

	o, err := h.orders.Cancel(r.Context(), chi.URLParam(r, "orderID"), actor, req.Reason, action)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toOrderResponse(o))
}

type addMessageRequest struct {
	From    string `json:"from"`
	Message string `json:"message"`
}

func (h *Handler) addMessage(w http.ResponseWriter, r *http.Request) {
	var req addMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	from, ok := parseActor(req.From)
	if !ok {
		writeError(w, http.StatusBadRequest, "from must be one of: admin, customer")
		return
	}

	o, err := h.orders.AddMessage(r.Context(), chi.URLParam(r, "orderID"), from, req.Message)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toOrderResponse(o))
}

type attachReviewRequest struct {
	ReviewID string `json:"review_id"`
}

func (h *Handler) attachReview(w http.ResponseWriter, r *http.Request) {
	var req attachReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ReviewID == "" {
		writeError(w, http.StatusBadRequest, "review_id is required")
		return
	}

	o, err := h.orders.AttachReview(r.Context(), chi.URLParam(r, "orderID"), req.ReviewID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toOrderResponse(o))
}

func (h *Handler) detachReview(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.DetachReview(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toOrderResponse(o))
}

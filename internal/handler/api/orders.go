package api

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/epharmacy/internal/domain"
	"github.com/dukerupert/epharmacy/internal/handler"
)

// OrderHandler serves checkout and order queries.
type OrderHandler struct {
	checkout domain.CheckoutService
	orders   domain.OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(checkout domain.CheckoutService, orders domain.OrderService) *OrderHandler {
	return &OrderHandler{checkout: checkout, orders: orders}
}

type checkoutRequest struct {
	ClientTotal *decimal.Decimal `json:"clientTotal"`
}

// Checkout handles POST /api/orders/checkout
//
// The body is optional. When clientTotal is sent it must match the server
// total within 0.01, otherwise 409 total_mismatch.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	const op = "checkout.place"

	var req checkoutRequest
	if r.ContentLength != 0 {
		if err := handler.DecodeJSON(r, op, &req); err != nil {
			handler.ErrorResponse(w, r, err)
			return
		}
	}
	if req.ClientTotal != nil && req.ClientTotal.IsNegative() {
		handler.ErrorResponse(w, r, domain.NewValidationError(op, "clientTotal", "must be >= 0"))
		return
	}

	res, err := h.checkout.Checkout(r.Context(), domain.UserIDFromContext(r.Context()), req.ClientTotal)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.WriteData(w, http.StatusCreated, checkoutView{
		OrderID:    res.OrderID,
		PaymentRef: res.PaymentRef,
		Total:      Money(res.Total),
	})
}

// Mine handles GET /api/orders/me
func (h *OrderHandler) Mine(w http.ResponseWriter, r *http.Request) {
	q := handler.NewQuery(r)
	page := q.Page()
	if err := q.Err("order.list_mine"); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	orders, err := h.orders.ListMyOrders(r.Context(), domain.UserIDFromContext(r.Context()), page)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WritePage(w, orders, toOrderView)
}

// Get handles GET /api/orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(r.Context(), domain.IdentityFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteData(w, http.StatusOK, toOrderView(*order))
}

// List handles GET /api/orders (admin)
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	q := handler.NewQuery(r)
	filter := domain.OrderFilter{
		Status: domain.OrderStatus(q.String("status")),
		Page:   q.Page(),
	}
	if err := q.Err("order.list"); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	orders, err := h.orders.ListOrders(r.Context(), filter)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WritePage(w, orders, toOrderView)
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending paid failed shipped completed cancelled"`
}

// UpdateStatus handles PATCH /api/orders/{id}/status (admin)
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	const op = "order.update_status"

	var req updateStatusRequest
	if err := handler.DecodeJSON(r, op, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), r.PathValue("id"), domain.OrderStatus(req.Status))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteData(w, http.StatusOK, toOrderView(*order))
}

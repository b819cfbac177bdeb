package api

import (
	"net/http"

	"github.com/dukerupert/epharmacy/internal/domain"
	"github.com/dukerupert/epharmacy/internal/handler"
)

// CartHandler serves the caller's cart.
type CartHandler struct {
	carts domain.CartService
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts domain.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

// Get handles GET /api/cart. The cart is created on first access.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.GetCart(r.Context(), domain.UserIDFromContext(r.Context()))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteData(w, http.StatusOK, toCartView(cart))
}

type cartItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Qty       int    `json:"qty" validate:"gte=0"`
}

type updateCartRequest struct {
	Items []cartItemRequest `json:"items" validate:"required,dive"`
}

// Update handles PUT /api/cart. The body replaces the cart contents; qty 0
// drops a line and an empty list clears the cart.
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "cart.update"

	var req updateCartRequest
	if err := handler.DecodeJSON(r, op, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	updates := make([]domain.CartUpdate, len(req.Items))
	for i, it := range req.Items {
		updates[i] = domain.CartUpdate{ProductID: it.ProductID, Qty: it.Qty}
	}

	cart, err := h.carts.UpdateCart(r.Context(), domain.UserIDFromContext(r.Context()), updates)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteData(w, http.StatusOK, toCartView(cart))
}

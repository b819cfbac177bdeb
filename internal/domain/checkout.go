package domain

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CHECKOUT DOMAIN ERRORS
// =============================================================================

// Checkout failures. Each carries a stable Reason; errors built for a
// specific product match these sentinels through errors.Is.
var (
	ErrEmptyCart         = &Error{Code: EINVALID, Reason: ReasonEmptyCart, Message: "Cart is empty"}
	ErrProductNotFound   = &Error{Code: ENOTFOUND, Reason: ReasonProductNotFound, Message: "Product not found"}
	ErrInvalidQuantity   = &Error{Code: EINVALID, Reason: ReasonInvalidQuantity, Message: "Quantity must be a positive integer"}
	ErrInsufficientStock = &Error{Code: ECONFLICT, Reason: ReasonInsufficientStock, Message: "Insufficient stock"}
	ErrStockChanged      = &Error{Code: ECONFLICT, Reason: ReasonStockChanged, Message: "Stock changed, please refresh the cart"}
	ErrTotalMismatch     = &Error{Code: ECONFLICT, Reason: ReasonTotalMismatch, Message: "Total mismatch, please refresh your cart"}
)

// ProductNotFoundError reports a cart line whose product no longer exists.
func ProductNotFoundError(op, productID string) error {
	return &Error{
		Code:    ENOTFOUND,
		Reason:  ReasonProductNotFound,
		Op:      op,
		Message: fmt.Sprintf("Product not found: %s", productID),
	}
}

// InvalidQuantityError reports a non-positive line quantity.
func InvalidQuantityError(op, productID string, qty int) error {
	return &Error{
		Code:    EINVALID,
		Reason:  ReasonInvalidQuantity,
		Op:      op,
		Message: fmt.Sprintf("Invalid quantity %d for product %s", qty, productID),
	}
}

// InsufficientStockError reports a line asking for more than is in stock.
func InsufficientStockError(op, productID string, available, requested int) error {
	return &Error{
		Code:    ECONFLICT,
		Reason:  ReasonInsufficientStock,
		Op:      op,
		Message: fmt.Sprintf("Insufficient stock for product %s: requested %d, available %d", productID, requested, available),
	}
}

// TotalTolerance is the absolute difference allowed between a client's
// displayed total and the server-computed total.
var TotalTolerance = decimal.NewFromFloat(0.01)

// CheckoutResult is returned by a successful checkout.
type CheckoutResult struct {
	OrderID    string
	PaymentRef string
	Total      decimal.Decimal
}

// CheckoutService turns a user's cart into a paid order.
type CheckoutService interface {
	// Checkout validates the cart against live stock, reserves stock,
	// creates the order and clears the cart as one atomic unit.
	// clientTotal is optional.
	Checkout(ctx context.Context, userID string, clientTotal *decimal.Decimal) (*CheckoutResult, error)
}

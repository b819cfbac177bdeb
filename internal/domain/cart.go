package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CART DOMAIN TYPES
// =============================================================================

// CartItem is one cart line. PriceAtAdd is the unit price snapshotted when
// the line was last set and is the price charged at checkout.
type CartItem struct {
	ProductID  string
	Qty        int
	PriceAtAdd decimal.Decimal
}

// Cart holds a user's pending lines. There is at most one per user.
type Cart struct {
	UserID    string
	Items     []CartItem
	UpdatedAt time.Time
}

// ProductIDs returns the referenced product ids in line order.
func (c *Cart) ProductIDs() []string {
	ids := make([]string, len(c.Items))
	for i, it := range c.Items {
		ids[i] = it.ProductID
	}
	return ids
}

// CartTotals summarizes a cart. ItemCount is the sum of quantities.
type CartTotals struct {
	ItemCount int
	Subtotal  decimal.Decimal
}

// ComputeCartTotals sums quantities and snapshot prices.
func ComputeCartTotals(items []CartItem) CartTotals {
	t := CartTotals{Subtotal: decimal.Zero}
	for _, it := range items {
		t.ItemCount += it.Qty
		t.Subtotal = t.Subtotal.Add(it.PriceAtAdd.Mul(decimal.NewFromInt(int64(it.Qty))))
	}
	return t
}

// CartLine is a cart item joined with its product, if it still exists.
type CartLine struct {
	CartItem
	Product *ProductSummary
}

// CartView is the cart as returned to the owner.
type CartView struct {
	Items  []CartLine
	Totals CartTotals
}

// CartUpdate is one requested line in a full-replacement cart update.
// Qty 0 removes the product.
type CartUpdate struct {
	ProductID string
	Qty       int
}

// CartService provides business logic for the shopping cart.
type CartService interface {
	// GetCart returns the caller's cart, creating an empty one on first access.
	GetCart(ctx context.Context, userID string) (*CartView, error)

	// UpdateCart replaces the cart's items with the submitted set.
	UpdateCart(ctx context.Context, userID string, items []CartUpdate) (*CartView, error)
}

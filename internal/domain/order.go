package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusFailed,
		OrderStatusShipped, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// Order-related domain errors.
var (
	ErrOrderNotFound      = &Error{Code: ENOTFOUND, Message: "Order not found"}
	ErrInvalidOrderStatus = &Error{Code: EINVALID, Reason: ReasonInvalidInput, Message: "Unknown order status"}
)

// OrderItem is a copy of a cart line taken at checkout. It keeps its own
// title and price so the order stays valid after catalog edits.
type OrderItem struct {
	ProductID string
	Title     string
	Qty       int
	Price     decimal.Decimal
}

// Subtotal returns Qty * Price.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Qty)))
}

// Order is a completed or pending purchase. Only Status changes after creation.
type Order struct {
	ID         string
	UserID     string
	Items      []OrderItem
	Total      decimal.Decimal
	Status     OrderStatus
	PaymentRef string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ComputeOrderTotal returns the exact sum of line subtotals.
func ComputeOrderTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// OrderFilter narrows an admin order listing.
type OrderFilter struct {
	UserID string
	Status OrderStatus
	Page   PageRequest
}

// OrderService provides order history and administration.
type OrderService interface {
	// ListMyOrders returns the caller's orders, newest first.
	ListMyOrders(ctx context.Context, userID string, page PageRequest) (*Page[Order], error)

	// ListOrders returns all orders matching the filter (admin).
	ListOrders(ctx context.Context, filter OrderFilter) (*Page[Order], error)

	// GetOrder returns an order visible to the caller.
	GetOrder(ctx context.Context, caller *Identity, orderID string) (*Order, error)

	// UpdateStatus changes an order's status (admin).
	UpdateStatus(ctx context.Context, orderID string, status OrderStatus) (*Order, error)
}

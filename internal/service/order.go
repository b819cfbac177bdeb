package service

import (
	"context"
	"log/slog"

	"github.com/dukerupert/epharmacy/internal/domain"
	"github.com/dukerupert/epharmacy/internal/events"
	"github.com/dukerupert/epharmacy/internal/telemetry"
)

// OrderService implements domain.OrderService.
type OrderService struct {
	orders  domain.OrderStore
	events  events.Publisher
	metrics *telemetry.BusinessMetrics
	logger  *slog.Logger
}

var _ domain.OrderService = (*OrderService)(nil)

// NewOrderService creates an order service.
func NewOrderService(store domain.Store, publisher events.Publisher, metrics *telemetry.BusinessMetrics, logger *slog.Logger) *OrderService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &OrderService{
		orders:  store.Orders(),
		events:  publisher,
		metrics: metrics,
		logger:  logger,
	}
}

// ListMyOrders returns the user's orders, newest first.
func (s *OrderService) ListMyOrders(ctx context.Context, userID string, page domain.PageRequest) (*domain.Page[domain.Order], error) {
	return s.ListOrders(ctx, domain.OrderFilter{UserID: userID, Page: page})
}

// ListOrders returns orders matching filter, newest first.
func (s *OrderService) ListOrders(ctx context.Context, filter domain.OrderFilter) (*domain.Page[domain.Order], error) {
	const op = "order.list"

	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.ErrInvalidOrderStatus
	}
	filter.Page = filter.Page.Normalize(domain.DefaultPageLimit, domain.MaxPageLimit)

	items, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, storeErr(err, op, "failed to list orders")
	}
	return domain.NewPage(items, total, filter.Page), nil
}

// GetOrder returns an order to its owner or an admin. Other callers get
// not-found so order ids cannot be probed.
func (s *OrderService) GetOrder(ctx context.Context, caller *domain.Identity, orderID string) (*domain.Order, error) {
	const op = "order.get"

	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, domain.ErrOrderNotFound, op, "failed to load order")
	}
	if caller == nil || (o.UserID != caller.UserID && !caller.IsAdmin()) {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

// UpdateStatus sets an order's status. It is the only mutation of an order.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	const op = "order.update_status"

	if !status.Valid() {
		return nil, domain.ErrInvalidOrderStatus
	}

	o, err := s.orders.UpdateStatus(ctx, orderID, status)
	if err != nil {
		return nil, notFoundOr(err, domain.ErrOrderNotFound, op, "failed to update order")
	}

	s.metrics.RecordOrderStatus(string(status))
	s.logger.Info("order status updated", "order_id", orderID, "status", status)
	if err := s.events.Publish(ctx, events.SubjectOrderStatusChanged, events.OrderStatusChanged{
		OrderID: orderID,
		Status:  string(status),
	}); err != nil {
		s.logger.Warn("failed to publish order status event", "order_id", orderID, "error", err)
	}
	return o, nil
}

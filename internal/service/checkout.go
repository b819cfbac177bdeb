package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dukerupert/epharmacy/internal/domain"
	"github.com/dukerupert/epharmacy/internal/events"
	"github.com/dukerupert/epharmacy/internal/payment"
	"github.com/dukerupert/epharmacy/internal/telemetry"
	"github.com/shopspring/decimal"
)

// CheckoutService implements domain.CheckoutService.
//
// A checkout runs in one store transaction: read cart, validate every line
// against live stock, reserve stock with guarded decrements, charge, insert
// the order, clear the cart. Any failure aborts the transaction, so no
// reader ever sees a partial checkout.
type CheckoutService struct {
	store    domain.Store
	payments payment.Processor
	events   events.Publisher
	metrics  *telemetry.BusinessMetrics
	logger   *slog.Logger
}

var _ domain.CheckoutService = (*CheckoutService)(nil)

// NewCheckoutService creates a checkout service. metrics may be nil.
func NewCheckoutService(
	store domain.Store,
	payments payment.Processor,
	publisher events.Publisher,
	metrics *telemetry.BusinessMetrics,
	logger *slog.Logger,
) *CheckoutService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &CheckoutService{
		store:    store,
		payments: payments,
		events:   publisher,
		metrics:  metrics,
		logger:   logger,
	}
}

// Checkout places an order from the user's cart.
func (s *CheckoutService) Checkout(ctx context.Context, userID string, clientTotal *decimal.Decimal) (*domain.CheckoutResult, error) {
	const op = "checkout.place"
	start := time.Now()

	var order *domain.Order
	err := s.store.InTx(ctx, func(ctx context.Context, tx domain.CheckoutTx) error {
		var err error
		order, err = s.placeOrder(ctx, tx, userID, clientTotal)
		return err
	})

	if errors.Is(err, domain.ErrWriteConflict) {
		// The store detected a concurrent stock change at commit time.
		s.metrics.RecordStockConflict()
		err = &domain.Error{
			Code:    domain.ECONFLICT,
			Reason:  domain.ReasonStockChanged,
			Op:      op,
			Message: domain.ErrStockChanged.Message,
			Err:     err,
		}
	}
	if err != nil {
		if domain.ErrorReason(err) == "" && domain.ErrorCode(err) == domain.EINTERNAL {
			err = storeErr(err, op, "failed to complete checkout")
		}
		s.metrics.RecordCheckout(checkoutOutcome(err), time.Since(start).Seconds())
		s.logger.Info("checkout rejected",
			"user_id", userID,
			"code", domain.ErrorCode(err),
			"reason", domain.ErrorReason(err),
			"error", err,
		)
		return nil, err
	}

	s.metrics.RecordCheckout("ok", time.Since(start).Seconds())
	units := 0
	for _, it := range order.Items {
		units += it.Qty
	}
	s.metrics.RecordOrder(order.Total.InexactFloat64(), units)

	s.logger.Info("checkout completed",
		"user_id", userID,
		"order_id", order.ID,
		"total", order.Total.StringFixed(2),
		"payment_ref", order.PaymentRef,
	)
	s.publishPlaced(ctx, order, units)

	return &domain.CheckoutResult{
		OrderID:    order.ID,
		PaymentRef: order.PaymentRef,
		Total:      order.Total,
	}, nil
}

// placeOrder is the transactional body of Checkout.
func (s *CheckoutService) placeOrder(ctx context.Context, tx domain.CheckoutTx, userID string, clientTotal *decimal.Decimal) (*domain.Order, error) {
	const op = "checkout.place"

	cart, err := tx.Cart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	products, err := tx.Products(ctx, cart.ProductIDs())
	if err != nil {
		return nil, err
	}

	items, err := validateCartLines(op, cart.Items, products)
	if err != nil {
		return nil, err
	}

	// Totals use the cart's snapshot prices, never the live catalog price.
	total := domain.ComputeOrderTotal(items)
	if clientTotal != nil && clientTotal.Sub(total).Abs().GreaterThan(domain.TotalTolerance) {
		return nil, &domain.Error{
			Code:    domain.ECONFLICT,
			Reason:  domain.ReasonTotalMismatch,
			Op:      op,
			Message: domain.ErrTotalMismatch.Message,
		}
	}

	lines := make([]domain.StockReservation, len(cart.Items))
	for i, it := range cart.Items {
		lines[i] = domain.StockReservation{ProductID: it.ProductID, Qty: it.Qty}
	}
	applied, err := tx.ReserveStock(ctx, lines)
	if err != nil {
		return nil, err
	}
	if len(applied) != len(lines) {
		return nil, domain.Internal(nil, op, "stock reservation returned a short result")
	}
	for i, ok := range applied {
		if !ok {
			s.metrics.RecordStockConflict()
			return nil, &domain.Error{
				Code:    domain.ECONFLICT,
				Reason:  domain.ReasonStockChanged,
				Op:      op,
				Message: domain.ErrStockChanged.Message + ": " + lines[i].ProductID,
			}
		}
	}

	charge, err := s.payments.Charge(ctx, payment.ChargeParams{UserID: userID, Amount: total})
	if err != nil {
		return nil, domain.WrapError(err, domain.EPAYMENT, op, "Payment failed")
	}

	order := &domain.Order{
		UserID:     userID,
		Items:      items,
		Total:      total,
		Status:     domain.OrderStatusPaid,
		PaymentRef: charge.Reference,
		CreatedAt:  time.Now().UTC(),
	}
	if err := tx.CreateOrder(ctx, order); err != nil {
		return nil, err
	}
	if err := tx.ClearCart(ctx, userID); err != nil {
		return nil, err
	}
	return order, nil
}

// validateCartLines checks cart lines in phases: every product resolves,
// then every quantity is positive, then every product has enough stock.
// On success it returns the order lines copied from cart and catalog.
func validateCartLines(op string, lines []domain.CartItem, products map[string]*domain.Product) ([]domain.OrderItem, error) {
	for _, it := range lines {
		if _, ok := products[it.ProductID]; !ok {
			return nil, domain.ProductNotFoundError(op, it.ProductID)
		}
	}

	wanted := make(map[string]int, len(lines))
	for _, it := range lines {
		if it.Qty <= 0 {
			return nil, domain.InvalidQuantityError(op, it.ProductID, it.Qty)
		}
		wanted[it.ProductID] += it.Qty
	}

	for _, it := range lines {
		p := products[it.ProductID]
		if p.Stock < wanted[it.ProductID] {
			return nil, domain.InsufficientStockError(op, it.ProductID, p.Stock, wanted[it.ProductID])
		}
	}

	items := make([]domain.OrderItem, len(lines))
	for i, it := range lines {
		items[i] = domain.OrderItem{
			ProductID: it.ProductID,
			Title:     products[it.ProductID].Title,
			Qty:       it.Qty,
			Price:     it.PriceAtAdd,
		}
	}
	return items, nil
}

func (s *CheckoutService) publishPlaced(ctx context.Context, order *domain.Order, units int) {
	lines := make([]events.Line, len(order.Items))
	for i, it := range order.Items {
		lines[i] = events.Line{ProductID: it.ProductID, Qty: it.Qty, Price: it.Price.StringFixed(2)}
	}
	err := s.events.Publish(ctx, events.SubjectOrderPlaced, events.OrderPlaced{
		OrderID:    order.ID,
		UserID:     order.UserID,
		Total:      order.Total.StringFixed(2),
		PaymentRef: order.PaymentRef,
		Units:      units,
		Lines:      lines,
	})
	if err != nil {
		s.logger.Warn("failed to publish order event", "order_id", order.ID, "error", err)
	}
}

func checkoutOutcome(err error) string {
	if reason := domain.ErrorReason(err); reason != "" {
		return reason
	}
	return domain.ErrorCode(err)
}

package service

import (
	"context"
	"log/slog"

	"github.com/dukerupert/epharmacy/internal/domain"
	"github.com/dukerupert/epharmacy/internal/telemetry"
)

// CartService implements domain.CartService.
type CartService struct {
	products domain.ProductStore
	carts    domain.CartStore
	metrics  *telemetry.BusinessMetrics
	logger   *slog.Logger
}

var _ domain.CartService = (*CartService)(nil)

// NewCartService creates a new CartService instance
func NewCartService(store domain.Store, metrics *telemetry.BusinessMetrics, logger *slog.Logger) *CartService {
	return &CartService{
		products: store.Products(),
		carts:    store.Carts(),
		metrics:  metrics,
		logger:   logger,
	}
}

// GetCart returns the user's cart joined with product summaries. The cart
// is created empty on first access. Lines whose product vanished are
// returned with a nil Product so the client can drop them.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.CartView, error) {
	const op = "cart.get"

	cart, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, storeErr(err, op, "failed to load cart")
	}

	products := map[string]*domain.Product{}
	if len(cart.Items) > 0 {
		products, err = s.products.GetMany(ctx, cart.ProductIDs())
		if err != nil {
			return nil, storeErr(err, op, "failed to load cart products")
		}
	}

	return buildCartView(cart.Items, products), nil
}

// UpdateCart replaces the cart's items with the submitted set.
//
// Qty 0 removes a product; removing an absent product is a no-op. When a
// product appears more than once the last entry wins. Every kept line must
// reference an existing product with enough stock right now, and gets its
// price re-snapshotted from the catalog. The stock check is advisory;
// checkout re-validates.
func (s *CartService) UpdateCart(ctx context.Context, userID string, updates []domain.CartUpdate) (*domain.CartView, error) {
	const op = "cart.update"

	order := make([]string, 0, len(updates))
	qty := make(map[string]int, len(updates))
	for _, u := range updates {
		if u.ProductID == "" {
			return nil, domain.Invalid(op, "productId is required")
		}
		if u.Qty < 0 {
			return nil, domain.InvalidQuantityError(op, u.ProductID, u.Qty)
		}
		if _, seen := qty[u.ProductID]; !seen {
			order = append(order, u.ProductID)
		}
		qty[u.ProductID] = u.Qty
	}

	var keep []string
	for _, id := range order {
		if qty[id] > 0 {
			keep = append(keep, id)
		}
	}

	products := map[string]*domain.Product{}
	if len(keep) > 0 {
		var err error
		products, err = s.products.GetMany(ctx, keep)
		if err != nil {
			return nil, storeErr(err, op, "failed to load products")
		}
	}

	items := make([]domain.CartItem, 0, len(keep))
	for _, id := range keep {
		p, ok := products[id]
		if !ok {
			s.metrics.RecordCartUpdate(domain.ReasonProductNotFound)
			return nil, domain.ProductNotFoundError(op, id)
		}
		if p.Stock < qty[id] {
			s.metrics.RecordCartUpdate(domain.ReasonInsufficientStock)
			return nil, domain.InsufficientStockError(op, id, p.Stock, qty[id])
		}
		items = append(items, domain.CartItem{ProductID: id, Qty: qty[id], PriceAtAdd: p.Price})
	}

	cart, err := s.carts.Replace(ctx, userID, items)
	if err != nil {
		return nil, storeErr(err, op, "failed to save cart")
	}
	s.metrics.RecordCartUpdate("ok")
	s.logger.Debug("cart updated", "user_id", userID, "lines", len(cart.Items))

	return buildCartView(cart.Items, products), nil
}

func buildCartView(items []domain.CartItem, products map[string]*domain.Product) *domain.CartView {
	lines := make([]domain.CartLine, len(items))
	for i, it := range items {
		lines[i] = domain.CartLine{CartItem: it}
		if p, ok := products[it.ProductID]; ok {
			lines[i].Product = p.Summary()
		}
	}
	return &domain.CartView{Items: lines, Totals: domain.ComputeCartTotals(items)}
}

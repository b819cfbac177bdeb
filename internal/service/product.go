package service

import (
	"context"
	"log/slog"

	"github.com/dukerupert/epharmacy/internal/domain"
)

// ProductService implements domain.ProductService.
type ProductService struct {
	products domain.ProductStore
	logger   *slog.Logger
}

var _ domain.ProductService = (*ProductService)(nil)

// NewProductService creates a catalog service.
func NewProductService(store domain.Store, logger *slog.Logger) *ProductService {
	return &ProductService{products: store.Products(), logger: logger}
}

// ListProducts returns one page of the catalog.
func (s *ProductService) ListProducts(ctx context.Context, filter domain.ProductFilter) (*domain.Page[domain.Product], error) {
	const op = "product.list"

	if filter.Sort == "" {
		filter.Sort = domain.DefaultProductSort
	}
	if !domain.ValidProductSort(filter.Sort) {
		return nil, domain.Invalid(op, "unknown sort: "+filter.Sort)
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return nil, domain.Invalid(op, "minPrice must not exceed maxPrice")
	}
	filter.Page = filter.Page.Normalize(domain.DefaultPageLimit, domain.MaxPageLimit)

	items, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, storeErr(err, op, "failed to list products")
	}
	return domain.NewPage(items, total, filter.Page), nil
}

// GetProduct returns a single product.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	const op = "product.get"

	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, domain.ProductNotFoundError(op, id), op, "failed to load product")
	}
	return p, nil
}

package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PRODUCT DOMAIN TYPES
// =============================================================================

// Product is a catalog entry. Stock is mutated only by checkout and the
// rating fields only by the review aggregator.
type Product struct {
	ID            string
	Title         string
	Slug          string
	Brand         string
	Form          string // tablet, capsule, syrup, ...
	Price         decimal.Decimal
	Stock         int
	Tags          []string
	StoreID       string
	RxRequired    bool
	Description   string
	RatingCount   int
	RatingAverage float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProductSummary is the product projection embedded in cart lines.
type ProductSummary struct {
	ID    string
	Title string
	Brand string
	Form  string
}

// Summary projects a product to the fields a cart view needs.
func (p *Product) Summary() *ProductSummary {
	return &ProductSummary{ID: p.ID, Title: p.Title, Brand: p.Brand, Form: p.Form}
}

// Product list sort keys. A leading "-" means descending.
const (
	SortPriceAsc       = "price"
	SortPriceDesc      = "-price"
	SortTitleAsc       = "title"
	SortTitleDesc      = "-title"
	SortCreatedAsc     = "createdAt"
	SortCreatedDesc    = "-createdAt"
	DefaultProductSort = SortCreatedDesc
)

// ValidProductSort reports whether s is an accepted product sort key.
func ValidProductSort(s string) bool {
	switch s {
	case SortPriceAsc, SortPriceDesc, SortTitleAsc, SortTitleDesc, SortCreatedAsc, SortCreatedDesc:
		return true
	}
	return false
}

// ProductFilter narrows a catalog listing.
type ProductFilter struct {
	Query    string
	Brand    string
	Tag      string
	Rx       *bool
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     string
	Page     PageRequest
}

// ProductService provides catalog browsing.
type ProductService interface {
	// ListProducts returns one page of products matching the filter.
	ListProducts(ctx context.Context, filter ProductFilter) (*Page[Product], error)

	// GetProduct returns a single product or ErrProductNotFound.
	GetProduct(ctx context.Context, id string) (*Product, error)
}

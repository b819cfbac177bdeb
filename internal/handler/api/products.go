package api

import (
	"net/http"

	"github.com/dukerupert/epharmacy/internal/domain"
	"github.com/dukerupert/epharmacy/internal/handler"
)

// ProductHandler serves the catalog.
type ProductHandler struct {
	products domain.ProductService
}

// NewProductHandler creates a new product handler
func NewProductHandler(products domain.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// List handles GET /api/products
//
// Query parameters:
//   - q: substring search over title, brand and description
//   - brand, tag: exact matches (brand is case-insensitive)
//   - rx: true or false
//   - minPrice, maxPrice: inclusive bounds
//   - sort: price, -price, title, -title, createdAt, -createdAt
//   - page, limit
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	const op = "product.list"

	q := handler.NewQuery(r)
	filter := domain.ProductFilter{
		Query:    q.String("q"),
		Brand:    q.String("brand"),
		Tag:      q.String("tag"),
		Rx:       q.Bool("rx"),
		MinPrice: q.Decimal("minPrice"),
		MaxPrice: q.Decimal("maxPrice"),
		Sort:     q.String("sort"),
		Page:     q.Page(),
	}
	if err := q.Err(op); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	page, err := h.products.ListProducts(r.Context(), filter)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WritePage(w, page, toProductView)
}

// Get handles GET /api/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteData(w, http.StatusOK, toProductView(*p))
}

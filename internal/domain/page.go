package domain

// Pagination bounds shared by list endpoints.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// PageRequest is a 1-based page request.
type PageRequest struct {
	Page  int
	Limit int
}

// Normalize clamps the request into [1, max] with def as the fallback limit.
func (p PageRequest) Normalize(def, max int) PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = def
	}
	if p.Limit > max {
		p.Limit = max
	}
	return p
}

// Offset returns the number of records to skip.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Page is one page of a listing plus the total match count.
type Page[T any] struct {
	Items []T
	Page  int
	Limit int
	Total int
}

// Pages returns the number of pages for Total at Limit per page.
func (p *Page[T]) Pages() int {
	if p.Limit <= 0 || p.Total == 0 {
		return 0
	}
	return (p.Total + p.Limit - 1) / p.Limit
}

// NewPage assembles a page from a store result.
func NewPage[T any](items []T, total int, req PageRequest) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{Items: items, Page: req.Page, Limit: req.Limit, Total: total}
}

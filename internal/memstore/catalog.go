package memstore

import (
	"context"
	"slices"
	"sort"
	"strings"

	"github.com/dukerupert/epharmacy/internal/domain"
)

type productStore struct{ s *Store }

func (ps productStore) List(_ context.Context, f domain.ProductFilter) ([]domain.Product, int, error) {
	ps.s.mu.Lock()
	defer ps.s.mu.Unlock()

	var matches []domain.Product
	for _, p := range ps.s.products {
		if !productMatches(p, f) {
			continue
		}
		matches = append(matches, *copyProduct(p))
	}

	sortProducts(matches, f.Sort)
	return paginate(matches, f.Page), len(matches), nil
}

func productMatches(p *domain.Product, f domain.ProductFilter) bool {
	if f.Query != "" && !containsFold(p.Title, f.Query) && !containsFold(p.Brand, f.Query) && !containsFold(p.Description, f.Query) {
		return false
	}
	if f.Brand != "" && !strings.EqualFold(p.Brand, f.Brand) {
		return false
	}
	if f.Tag != "" && !slices.Contains(p.Tags, f.Tag) {
		return false
	}
	if f.Rx != nil && p.RxRequired != *f.Rx {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	return true
}

func sortProducts(ps []domain.Product, key string) {
	less := func(a, b domain.Product) bool { return b.CreatedAt.Before(a.CreatedAt) }
	switch key {
	case domain.SortPriceAsc:
		less = func(a, b domain.Product) bool { return a.Price.LessThan(b.Price) }
	case domain.SortPriceDesc:
		less = func(a, b domain.Product) bool { return a.Price.GreaterThan(b.Price) }
	case domain.SortTitleAsc:
		less = func(a, b domain.Product) bool { return a.Title < b.Title }
	case domain.SortTitleDesc:
		less = func(a, b domain.Product) bool { return a.Title > b.Title }
	case domain.SortCreatedAsc:
		less = func(a, b domain.Product) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}
	sort.SliceStable(ps, func(i, j int) bool {
		if less(ps[i], ps[j]) {
			return true
		}
		if less(ps[j], ps[i]) {
			return false
		}
		return ps[i].ID < ps[j].ID
	})
}

func (ps productStore) Get(_ context.Context, id string) (*domain.Product, error) {
	ps.s.mu.Lock()
	defer ps.s.mu.Unlock()

	p, ok := ps.s.products[id]
	if !ok {
		return nil, domain.ErrNoDocument
	}
	return copyProduct(p), nil
}

func (ps productStore) GetMany(_ context.Context, ids []string) (map[string]*domain.Product, error) {
	ps.s.mu.Lock()
	defer ps.s.mu.Unlock()

	out := make(map[string]*domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := ps.s.products[id]; ok {
			out[id] = copyProduct(p)
		}
	}
	return out, nil
}

func (ps productStore) Create(_ context.Context, p *domain.Product) error {
	ps.s.mu.Lock()
	defer ps.s.mu.Unlock()

	if p.ID == "" {
		p.ID = newID()
	}
	if _, exists := ps.s.products[p.ID]; exists {
		return domain.ErrDuplicate
	}
	now := ps.s.now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	ps.s.products[p.ID] = copyProduct(p)
	return nil
}

// ApplyRating folds the rating in while holding the store lock, which is
// the in-memory equivalent of a single-document update expression.
func (ps productStore) ApplyRating(_ context.Context, productID string, rating int) error {
	ps.s.mu.Lock()
	defer ps.s.mu.Unlock()

	p, ok := ps.s.products[productID]
	if !ok {
		return domain.ErrNoDocument
	}
	p.RatingAverage = domain.NextRatingAverage(p.RatingAverage, p.RatingCount, rating)
	p.RatingCount++
	return nil
}

type cartStore struct{ s *Store }

func (cs cartStore) GetOrCreate(_ context.Context, userID string) (*domain.Cart, error) {
	cs.s.mu.Lock()
	defer cs.s.mu.Unlock()

	c, ok := cs.s.carts[userID]
	if !ok {
		c = &domain.Cart{UserID: userID, Items: []domain.CartItem{}, UpdatedAt: cs.s.now().UTC()}
		cs.s.carts[userID] = c
	}
	return copyCart(c), nil
}

func (cs cartStore) Replace(_ context.Context, userID string, items []domain.CartItem) (*domain.Cart, error) {
	l := cs.s.cartLock(userID)
	l.Lock()
	defer l.Unlock()

	cs.s.mu.Lock()
	defer cs.s.mu.Unlock()

	c := &domain.Cart{
		UserID:    userID,
		Items:     append([]domain.CartItem{}, items...),
		UpdatedAt: cs.s.now().UTC(),
	}
	cs.s.carts[userID] = c
	return copyCart(c), nil
}

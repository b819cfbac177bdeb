// Package memstore is an in-process implementation of domain.Store.
//
// It backs development runs (STORE_DRIVER=memory) and service tests. All
// state sits behind one mutex. Checkout transactions read committed state,
// buffer their writes, and re-validate stock reservations at commit, so a
// transaction that raced a concurrent checkout fails with
// domain.ErrWriteConflict instead of overselling.
//
// Reading a cart inside a transaction takes that user's cart lock until the
// transaction ends. Cart replacement and other checkouts of the same cart
// wait for it, as with SELECT ... FOR UPDATE.
package memstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/epharmacy/internal/domain"
	"github.com/google/uuid"
)

// Store implements domain.Store in memory.
type Store struct {
	mu sync.Mutex

	products   map[string]*domain.Product
	carts      map[string]*domain.Cart
	orders     []*domain.Order
	reviews    []*domain.Review
	reviewKeys map[string]struct{}
	pharmacies []*domain.Pharmacy
	users      map[string]*domain.User
	emails     map[string]string
	tokens     map[string]time.Time
	cartLocks  map[string]*sync.Mutex

	now func() time.Time
}

var _ domain.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		products:   make(map[string]*domain.Product),
		carts:      make(map[string]*domain.Cart),
		reviewKeys: make(map[string]struct{}),
		users:      make(map[string]*domain.User),
		emails:     make(map[string]string),
		tokens:     make(map[string]time.Time),
		cartLocks:  make(map[string]*sync.Mutex),
		now:        time.Now,
	}
}

// cartLock returns the lock serializing writers of userID's cart. Callers
// must not hold s.mu while acquiring it.
func (s *Store) cartLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.cartLocks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.cartLocks[userID] = l
	}
	return l
}

func (s *Store) Products() domain.ProductStore    { return productStore{s} }
func (s *Store) Carts() domain.CartStore          { return cartStore{s} }
func (s *Store) Orders() domain.OrderStore        { return orderStore{s} }
func (s *Store) Reviews() domain.ReviewStore      { return reviewStore{s} }
func (s *Store) Pharmacies() domain.PharmacyStore { return pharmacyStore{s} }
func (s *Store) Users() domain.UserStore          { return userStore{s} }
func (s *Store) Tokens() domain.TokenStore        { return tokenStore{s} }
func (s *Store) Ping(ctx context.Context) error   { return ctx.Err() }
func (s *Store) Close(_ context.Context) error    { return nil }

func newID() string {
	return uuid.NewString()
}

func paginate[T any](items []T, req domain.PageRequest) []T {
	start := req.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + req.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func copyProduct(p *domain.Product) *domain.Product {
	c := *p
	c.Tags = append([]string(nil), p.Tags...)
	return &c
}

func copyCart(c *domain.Cart) *domain.Cart {
	out := *c
	out.Items = append([]domain.CartItem{}, c.Items...)
	return &out
}

func copyOrder(o *domain.Order) *domain.Order {
	out := *o
	out.Items = append([]domain.OrderItem(nil), o.Items...)
	return &out
}

package memstore

import (
	"context"
	"sync"

	"github.com/dukerupert/epharmacy/internal/domain"
)

// InTx runs fn against a transaction that buffers its writes. The buffer
// is discarded when fn fails and applied under the store lock otherwise.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx domain.CheckoutTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &checkoutTx{s: s, reserved: make(map[string]int), locked: make(map[string]*sync.Mutex)}
	defer tx.release()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	return tx.commit()
}

type checkoutTx struct {
	s *Store

	reserved map[string]int
	orders   []*domain.Order
	cleared  []string

	// cart locks held until the transaction ends, by user
	locked map[string]*sync.Mutex
}

func (t *checkoutTx) Cart(_ context.Context, userID string) (*domain.Cart, error) {
	if _, ok := t.locked[userID]; !ok {
		l := t.s.cartLock(userID)
		l.Lock()
		t.locked[userID] = l
	}

	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	c, ok := t.s.carts[userID]
	if !ok {
		return nil, nil
	}
	return copyCart(c), nil
}

func (t *checkoutTx) Products(_ context.Context, ids []string) (map[string]*domain.Product, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	out := make(map[string]*domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := t.s.products[id]; ok {
			out[id] = copyProduct(p)
		}
	}
	return out, nil
}

// ReserveStock checks each line against committed stock minus what this
// transaction already reserved. Nothing is decremented until commit.
func (t *checkoutTx) ReserveStock(_ context.Context, lines []domain.StockReservation) ([]bool, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	applied := make([]bool, len(lines))
	for i, l := range lines {
		p, ok := t.s.products[l.ProductID]
		if !ok || p.Stock-t.reserved[l.ProductID] < l.Qty {
			continue
		}
		t.reserved[l.ProductID] += l.Qty
		applied[i] = true
	}
	return applied, nil
}

func (t *checkoutTx) CreateOrder(_ context.Context, o *domain.Order) error {
	o.ID = newID()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = t.s.now().UTC()
	}
	o.UpdatedAt = o.CreatedAt
	t.orders = append(t.orders, copyOrder(o))
	return nil
}

func (t *checkoutTx) ClearCart(_ context.Context, userID string) error {
	t.cleared = append(t.cleared, userID)
	return nil
}

func (t *checkoutTx) commit() error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	for id, qty := range t.reserved {
		p, ok := t.s.products[id]
		if !ok || p.Stock < qty {
			return domain.ErrWriteConflict
		}
	}

	now := t.s.now().UTC()
	for id, qty := range t.reserved {
		p := t.s.products[id]
		p.Stock -= qty
		p.UpdatedAt = now
	}
	t.s.orders = append(t.s.orders, t.orders...)
	for _, userID := range t.cleared {
		if c, ok := t.s.carts[userID]; ok {
			c.Items = []domain.CartItem{}
			c.UpdatedAt = now
		}
	}
	return nil
}

func (t *checkoutTx) release() {
	for userID, l := range t.locked {
		l.Unlock()
		delete(t.locked, userID)
	}
}

var _ domain.CheckoutTx = (*checkoutTx)(nil)

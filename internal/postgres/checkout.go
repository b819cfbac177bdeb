package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/epharmacy/internal/domain"
)

// InTx runs fn in a REPEATABLE READ transaction. A guarded stock update
// that races a concurrent checkout fails with a serialization error, which
// surfaces as domain.ErrWriteConflict.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx domain.CheckoutTx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return classify(err, "postgres.begin")
	}
	defer func() {
		if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			s.logger.Warn("transaction rollback failed", "error", err)
		}
	}()

	if err := fn(ctx, &checkoutTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return classify(err, "postgres.commit")
	}
	return nil
}

type checkoutTx struct {
	tx pgx.Tx
}

var _ domain.CheckoutTx = (*checkoutTx)(nil)

// Cart locks the user's cart row so two checkouts of the same cart
// serialize.
func (t *checkoutTx) Cart(ctx context.Context, userID string) (*domain.Cart, error) {
	c, err := scanCart(t.tx.QueryRow(ctx,
		"SELECT user_id, items, updated_at FROM carts WHERE user_id = $1 FOR UPDATE", userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err, "postgres.checkout.cart")
	}
	return c, nil
}

func (t *checkoutTx) Products(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	return getProducts(ctx, t.tx, ids, "")
}

// ReserveStock sends every guarded decrement in one batch and reports
// which lines matched a row.
func (t *checkoutTx) ReserveStock(ctx context.Context, lines []domain.StockReservation) ([]bool, error) {
	const op = "postgres.checkout.reserve_stock"

	batch := &pgx.Batch{}
	for _, l := range lines {
		batch.Queue(`
			UPDATE products
			SET stock = stock - $2, updated_at = now()
			WHERE id = $1 AND stock >= $2`,
			l.ProductID, l.Qty,
		)
	}

	results := t.tx.SendBatch(ctx, batch)
	applied := make([]bool, len(lines))
	for i := range lines {
		tag, err := results.Exec()
		if err != nil {
			_ = results.Close()
			return nil, classify(err, op)
		}
		applied[i] = tag.RowsAffected() == 1
	}
	if err := results.Close(); err != nil {
		return nil, classify(err, op)
	}
	return applied, nil
}

func (t *checkoutTx) CreateOrder(ctx context.Context, o *domain.Order) error {
	const op = "postgres.checkout.create_order"

	raw, err := encodeOrderItems(o.Items)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	err = t.tx.QueryRow(ctx, `
		INSERT INTO orders (user_id, items, total, status, payment_ref, created_at, updated_at)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, $6)
		RETURNING id, updated_at`,
		o.UserID, raw, o.Total.String(), string(o.Status), o.PaymentRef, o.CreatedAt,
	).Scan(&o.ID, &o.UpdatedAt)
	return classify(err, op)
}

func (t *checkoutTx) ClearCart(ctx context.Context, userID string) error {
	_, err := t.tx.Exec(ctx, "UPDATE carts SET items = '[]', updated_at = now() WHERE user_id = $1", userID)
	return classify(err, "postgres.checkout.clear_cart")
}

// orderLine is the JSONB shape of an order line.
type orderLine struct {
	ProductID string          `json:"productId"`
	Title     string          `json:"title"`
	Qty       int             `json:"qty"`
	Price     decimal.Decimal `json:"price"`
}

func encodeOrderItems(items []domain.OrderItem) ([]byte, error) {
	lines := make([]orderLine, len(items))
	for i, it := range items {
		lines[i] = orderLine{ProductID: it.ProductID, Title: it.Title, Qty: it.Qty, Price: it.Price}
	}
	return json.Marshal(lines)
}

func decodeOrderItems(raw []byte) ([]domain.OrderItem, error) {
	var lines []orderLine
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, fmt.Errorf("invalid order items: %w", err)
	}
	items := make([]domain.OrderItem, len(lines))
	for i, l := range lines {
		items[i] = domain.OrderItem{ProductID: l.ProductID, Title: l.Title, Qty: l.Qty, Price: l.Price}
	}
	return items, nil
}

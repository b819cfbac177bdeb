package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/dukerupert/epharmacy/internal/domain"
)

// =============================================================================
// ORDERS
// =============================================================================

const orderColumns = "id, user_id, items, total::text, status, payment_ref, created_at, updated_at"

type orderStore struct{ db querier }

func scanOrder(row scanner) (*domain.Order, error) {
	var (
		o      domain.Order
		raw    []byte
		total  string
		status string
	)
	if err := row.Scan(&o.ID, &o.UserID, &raw, &total, &status, &o.PaymentRef, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	items, err := decodeOrderItems(raw)
	if err != nil {
		return nil, err
	}
	if o.Total, err = parseDecimal(total); err != nil {
		return nil, err
	}
	o.Items = items
	o.Status = domain.OrderStatus(status)
	return &o, nil
}

func (st orderStore) Get(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(st.db.QueryRow(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id))
	if err != nil {
		return nil, classify(err, "postgres.orders.get")
	}
	return o, nil
}

func (st orderStore) List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, int, error) {
	const op = "postgres.orders.list"

	var (
		conds []string
		args  []any
	)
	if f.UserID != "" {
		args = append(args, f.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := st.db.QueryRow(ctx, "SELECT count(*) FROM orders"+where, args...).Scan(&total); err != nil {
		return nil, 0, classify(err, op)
	}

	rows, err := st.db.Query(ctx, fmt.Sprintf(
		"SELECT %s FROM orders%s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d",
		orderColumns, where, f.Page.Limit, f.Page.Offset()), args...)
	if err != nil {
		return nil, 0, classify(err, op)
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, classify(err, op)
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, classify(err, op)
	}
	return out, total, nil
}

func (st orderStore) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	o, err := scanOrder(st.db.QueryRow(ctx,
		"UPDATE orders SET status = $2, updated_at = now() WHERE id = $1 RETURNING "+orderColumns,
		id, string(status)))
	if err != nil {
		return nil, classify(err, "postgres.orders.update_status")
	}
	return o, nil
}

// =============================================================================
// REVIEWS
// =============================================================================

const reviewColumns = "id, user_id, product_id, rating, comment, created_at"

var reviewSortColumns = map[string]string{
	domain.ReviewSortNewest:     "created_at DESC, id DESC",
	domain.ReviewSortOldest:     "created_at ASC, id ASC",
	domain.ReviewSortRatingAsc:  "rating ASC, created_at DESC",
	domain.ReviewSortRatingDesc: "rating DESC, created_at DESC",
}

type reviewStore struct{ db querier }

func (rs reviewStore) Create(ctx context.Context, r *domain.Review) error {
	err := rs.db.QueryRow(ctx, `
		INSERT INTO reviews (user_id, product_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		r.UserID, r.ProductID, r.Rating, r.Comment, r.CreatedAt,
	).Scan(&r.ID)
	return classify(err, "postgres.reviews.create")
}

func (rs reviewStore) List(ctx context.Context, f domain.ReviewFilter) ([]domain.Review, int, error) {
	const op = "postgres.reviews.list"

	where, args := "", []any{}
	if f.ProductID != "" {
		where, args = " WHERE product_id = $1", []any{f.ProductID}
	}

	var total int
	if err := rs.db.QueryRow(ctx, "SELECT count(*) FROM reviews"+where, args...).Scan(&total); err != nil {
		return nil, 0, classify(err, op)
	}

	order, ok := reviewSortColumns[f.Sort]
	if !ok {
		order = reviewSortColumns[domain.ReviewSortNewest]
	}
	rows, err := rs.db.Query(ctx, fmt.Sprintf("SELECT %s FROM reviews%s ORDER BY %s LIMIT %d OFFSET %d",
		reviewColumns, where, order, f.Page.Limit, f.Page.Offset()), args...)
	if err != nil {
		return nil, 0, classify(err, op)
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		var r domain.Review
		if err := rows.Scan(&r.ID, &r.UserID, &r.ProductID, &r.Rating, &r.Comment, &r.CreatedAt); err != nil {
			return nil, 0, classify(err, op)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, classify(err, op)
	}
	return out, total, nil
}

func (rs reviewStore) Stats(ctx context.Context, productID string) (domain.ReviewStats, error) {
	const op = "postgres.reviews.stats"

	where, args := "", []any{}
	if productID != "" {
		where, args = " WHERE product_id = $1", []any{productID}
	}

	rows, err := rs.db.Query(ctx, "SELECT rating, count(*) FROM reviews"+where+" GROUP BY rating", args...)
	if err != nil {
		return domain.ReviewStats{}, classify(err, op)
	}
	defer rows.Close()

	var (
		st  domain.ReviewStats
		sum int
	)
	for rows.Next() {
		var rating, n int
		if err := rows.Scan(&rating, &n); err != nil {
			return domain.ReviewStats{}, classify(err, op)
		}
		if rating >= 1 && rating <= 5 {
			st.Distribution[rating] = n
		}
		st.Count += n
		sum += rating * n
	}
	if err := rows.Err(); err != nil {
		return domain.ReviewStats{}, classify(err, op)
	}
	if st.Count > 0 {
		st.AvgRating = roundTo2(float64(sum) / float64(st.Count))
	}
	return st, nil
}

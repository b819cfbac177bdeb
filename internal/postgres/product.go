package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/epharmacy/internal/domain"
)

type scanner interface {
	Scan(dest ...any) error
}

// =============================================================================
// PRODUCTS
// =============================================================================

const productColumns = `id, title, slug, brand, form, price::text, stock, tags,
	COALESCE(store_id, ''), rx_required, description, rating_count, rating_average,
	created_at, updated_at`

var productSortColumns = map[string]string{
	domain.SortPriceAsc:    "price ASC",
	domain.SortPriceDesc:   "price DESC",
	domain.SortTitleAsc:    "title ASC",
	domain.SortTitleDesc:   "title DESC",
	domain.SortCreatedAsc:  "created_at ASC",
	domain.SortCreatedDesc: "created_at DESC",
}

type productStore struct{ db querier }

func scanProduct(row scanner) (*domain.Product, error) {
	var (
		p     domain.Product
		price string
	)
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Brand, &p.Form, &price, &p.Stock, &p.Tags,
		&p.StoreID, &p.RxRequired, &p.Description, &p.RatingCount, &p.RatingAverage,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.Price, err = parseDecimal(price); err != nil {
		return nil, err
	}
	return &p, nil
}

// productWhere renders filter as a WHERE clause with positional args.
func productWhere(f domain.ProductFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Query != "" {
		p := arg("%" + escapeLike(f.Query) + "%")
		conds = append(conds, fmt.Sprintf("(title ILIKE %[1]s OR brand ILIKE %[1]s OR description ILIKE %[1]s)", p))
	}
	if f.Brand != "" {
		conds = append(conds, "lower(brand) = lower("+arg(f.Brand)+")")
	}
	if f.Tag != "" {
		conds = append(conds, arg(f.Tag)+" = ANY(tags)")
	}
	if f.Rx != nil {
		conds = append(conds, "rx_required = "+arg(*f.Rx))
	}
	if f.MinPrice != nil {
		conds = append(conds, "price >= "+arg(f.MinPrice.String())+"::numeric")
	}
	if f.MaxPrice != nil {
		conds = append(conds, "price <= "+arg(f.MaxPrice.String())+"::numeric")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (ps productStore) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int, error) {
	const op = "postgres.products.list"

	where, args := productWhere(f)
	var total int
	if err := ps.db.QueryRow(ctx, "SELECT count(*) FROM products"+where, args...).Scan(&total); err != nil {
		return nil, 0, classify(err, op)
	}

	order, ok := productSortColumns[f.Sort]
	if !ok {
		order = productSortColumns[domain.DefaultProductSort]
	}
	query := fmt.Sprintf("SELECT %s FROM products%s ORDER BY %s, id LIMIT %d OFFSET %d",
		productColumns, where, order, f.Page.Limit, f.Page.Offset())

	rows, err := ps.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, classify(err, op)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, classify(err, op)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, classify(err, op)
	}
	return out, total, nil
}

func (ps productStore) Get(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(ps.db.QueryRow(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id))
	if err != nil {
		return nil, classify(err, "postgres.products.get")
	}
	return p, nil
}

func (ps productStore) GetMany(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	return getProducts(ctx, ps.db, ids, "")
}

// getProducts loads ids keyed by id. lock is appended to the query, for
// example "FOR SHARE" inside a transaction.
func getProducts(ctx context.Context, db querier, ids []string, lock string) (map[string]*domain.Product, error) {
	const op = "postgres.products.get_many"

	out := make(map[string]*domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := db.Query(ctx, "SELECT "+productColumns+" FROM products WHERE id = ANY($1) "+lock, ids)
	if err != nil {
		return nil, classify(err, op)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, classify(err, op)
		}
		out[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, op)
	}
	return out, nil
}

func (ps productStore) Create(ctx context.Context, p *domain.Product) error {
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	err := ps.db.QueryRow(ctx, `
		INSERT INTO products (id, title, slug, brand, form, price, stock, tags, store_id,
			rx_required, description, created_at, updated_at)
		VALUES (COALESCE(NULLIF($1, ''), gen_random_uuid()::text), $2, $3, $4, $5, $6::numeric, $7, $8, $9,
			$10, $11, $12, now())
		RETURNING id, updated_at`,
		p.ID, p.Title, p.Slug, p.Brand, p.Form, p.Price.String(), p.Stock, p.Tags, nullIfEmpty(p.StoreID),
		p.RxRequired, p.Description, p.CreatedAt,
	).Scan(&p.ID, &p.UpdatedAt)
	return classify(err, "postgres.products.create")
}

// ApplyRating folds the rating into the running mean in one UPDATE. Every
// right-hand side reads the pre-update row, so concurrent calls serialize
// on the row lock without losing updates.
func (ps productStore) ApplyRating(ctx context.Context, productID string, rating int) error {
	tag, err := ps.db.Exec(ctx, `
		UPDATE products
		SET rating_average = ROUND(((rating_average * rating_count + $2) / (rating_count + 1))::numeric, 2)::float8,
		    rating_count   = rating_count + 1,
		    updated_at     = now()
		WHERE id = $1`,
		productID, rating,
	)
	if err != nil {
		return classify(err, "postgres.products.apply_rating")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNoDocument
	}
	return nil
}

// =============================================================================
// CARTS
// =============================================================================

// cartLine is the JSONB shape of a cart line.
type cartLine struct {
	ProductID  string          `json:"productId"`
	Qty        int             `json:"qty"`
	PriceAtAdd decimal.Decimal `json:"priceAtAdd"`
}

func encodeCartItems(items []domain.CartItem) ([]byte, error) {
	lines := make([]cartLine, len(items))
	for i, it := range items {
		lines[i] = cartLine{ProductID: it.ProductID, Qty: it.Qty, PriceAtAdd: it.PriceAtAdd}
	}
	return json.Marshal(lines)
}

func decodeCartItems(raw []byte) ([]domain.CartItem, error) {
	var lines []cartLine
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, fmt.Errorf("invalid cart items: %w", err)
	}
	items := make([]domain.CartItem, len(lines))
	for i, l := range lines {
		items[i] = domain.CartItem{ProductID: l.ProductID, Qty: l.Qty, PriceAtAdd: l.PriceAtAdd}
	}
	return items, nil
}

func scanCart(row scanner) (*domain.Cart, error) {
	var (
		c   domain.Cart
		raw []byte
	)
	if err := row.Scan(&c.UserID, &raw, &c.UpdatedAt); err != nil {
		return nil, err
	}
	items, err := decodeCartItems(raw)
	if err != nil {
		return nil, err
	}
	c.Items = items
	return &c, nil
}

type cartStore struct{ db querier }

func (cs cartStore) GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error) {
	// The no-op update makes RETURNING yield the existing row.
	c, err := scanCart(cs.db.QueryRow(ctx, `
		INSERT INTO carts (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING user_id, items, updated_at`,
		userID,
	))
	if err != nil {
		return nil, classify(err, "postgres.carts.get_or_create")
	}
	return c, nil
}

func (cs cartStore) Replace(ctx context.Context, userID string, items []domain.CartItem) (*domain.Cart, error) {
	const op = "postgres.carts.replace"

	raw, err := encodeCartItems(items)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c, err := scanCart(cs.db.QueryRow(ctx, `
		INSERT INTO carts (user_id, items, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE SET items = EXCLUDED.items, updated_at = now()
		RETURNING user_id, items, updated_at`,
		userID, raw,
	))
	if err != nil {
		return nil, classify(err, op)
	}
	return c, nil
}

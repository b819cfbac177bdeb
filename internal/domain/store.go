package domain

import (
	"context"
	"time"
)

// =============================================================================
// STORE CONTRACTS
// =============================================================================
//
// Store implementations live in internal/memstore, internal/postgres and
// internal/mongodb. Lookups that match nothing return ErrNoDocument; unique
// violations return ErrDuplicate; infrastructure faults come back wrapped
// with Unavailable.

//go:generate mockgen -destination=mocks/mock_domain.go -package=mocks github.com/dukerupert/epharmacy/internal/domain ProductStore,RatingQueue

// ProductStore is the catalog.
type ProductStore interface {
	List(ctx context.Context, filter ProductFilter) ([]Product, int, error)
	Get(ctx context.Context, id string) (*Product, error)

	// GetMany returns the products that exist among ids, keyed by id.
	GetMany(ctx context.Context, ids []string) (map[string]*Product, error)

	Create(ctx context.Context, p *Product) error

	// ApplyRating folds one rating into the running mean in a single
	// atomic update expression. The mean is rounded to 2 decimals.
	ApplyRating(ctx context.Context, productID string, rating int) error
}

// CartStore holds one cart per user.
type CartStore interface {
	// GetOrCreate returns the user's cart, inserting an empty one if absent.
	GetOrCreate(ctx context.Context, userID string) (*Cart, error)

	// Replace upserts the cart with exactly items.
	Replace(ctx context.Context, userID string, items []CartItem) (*Cart, error)
}

// OrderStore is the append-only order log.
type OrderStore interface {
	Get(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, filter OrderFilter) ([]Order, int, error)
	UpdateStatus(ctx context.Context, id string, status OrderStatus) (*Order, error)
}

// ReviewStore holds reviews, unique per (user, product).
type ReviewStore interface {
	Create(ctx context.Context, r *Review) error
	List(ctx context.Context, filter ReviewFilter) ([]Review, int, error)
	Stats(ctx context.Context, productID string) (ReviewStats, error)
}

// PharmacyStore holds physical stores.
type PharmacyStore interface {
	List(ctx context.Context, filter PharmacyFilter) ([]Pharmacy, int, error)

	// Nearest returns active pharmacies within q.MaxMeters sorted by distance.
	Nearest(ctx context.Context, q NearestQuery) ([]PharmacyDistance, error)

	Create(ctx context.Context, p *Pharmacy) error
}

// UserStore holds accounts, unique by email.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	List(ctx context.Context, page PageRequest) ([]User, int, error)
}

// TokenStore is the revoked-token list, keyed by token hash.
type TokenStore interface {
	Revoke(ctx context.Context, tokenHash string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenHash string) (bool, error)

	// PurgeExpired deletes entries that expired before cutoff and reports
	// how many were removed.
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// StockReservation asks to decrement a product's stock by Qty only if
// the current stock is at least Qty.
type StockReservation struct {
	ProductID string
	Qty       int
}

// CheckoutTx is the view of the store inside a checkout transaction.
// All writes made through it commit together or not at all.
type CheckoutTx interface {
	// Cart returns the user's cart, or nil if none exists.
	Cart(ctx context.Context, userID string) (*Cart, error)

	// Products returns the products that exist among ids, keyed by id.
	Products(ctx context.Context, ids []string) (map[string]*Product, error)

	// ReserveStock applies each guarded decrement and reports, per line,
	// whether it matched.
	ReserveStock(ctx context.Context, lines []StockReservation) ([]bool, error)

	// CreateOrder inserts the order and assigns its ID.
	CreateOrder(ctx context.Context, o *Order) error

	// ClearCart empties the user's cart items. The cart itself remains.
	ClearCart(ctx context.Context, userID string) error
}

// Store is the full persistence surface.
type Store interface {
	Products() ProductStore
	Carts() CartStore
	Orders() OrderStore
	Reviews() ReviewStore
	Pharmacies() PharmacyStore
	Users() UserStore
	Tokens() TokenStore

	// InTx runs fn in one atomic transaction. If fn returns an error the
	// transaction is aborted; otherwise it is committed. A commit that
	// loses a race with a concurrent writer returns ErrWriteConflict.
	InTx(ctx context.Context, fn func(ctx context.Context, tx CheckoutTx) error) error

	// Ping checks connectivity.
	Ping(ctx context.Context) error

	Close(ctx context.Context) error
}

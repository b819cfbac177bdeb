// Package mongodb implements domain.Store on MongoDB. Checkout needs
// multi-document transactions, so the server must be a replica set.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/dukerupert/epharmacy/internal/domain"
)

// Collection names.
const (
	colProducts      = "products"
	colCarts         = "carts"
	colOrders        = "orders"
	colReviews       = "reviews"
	colPharmacies    = "pharmacies"
	colUsers         = "users"
	colRevokedTokens = "revoked_tokens"
)

// Store is a MongoDB-backed domain.Store.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger *slog.Logger
	now    func() time.Time
}

var _ domain.Store = (*Store)(nil)

// Connect dials uri, verifies the primary is reachable and returns a store
// over database.
func Connect(ctx context.Context, uri, database string, logger *slog.Logger) (*Store, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5 * time.Second).
		SetRetryWrites(true)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	logger.Info("connected to mongodb", "database", database)
	return New(client, database, logger), nil
}

// New wraps a connected client.
func New(client *mongo.Client, database string, logger *slog.Logger) *Store {
	return &Store{
		client: client,
		db:     client.Database(database),
		logger: logger,
		now:    time.Now,
	}
}

func (s *Store) Products() domain.ProductStore    { return productStore{s} }
func (s *Store) Carts() domain.CartStore          { return cartStore{s} }
func (s *Store) Orders() domain.OrderStore        { return orderStore{s} }
func (s *Store) Reviews() domain.ReviewStore      { return reviewStore{s} }
func (s *Store) Pharmacies() domain.PharmacyStore { return pharmacyStore{s} }
func (s *Store) Users() domain.UserStore          { return userStore{s} }
func (s *Store) Tokens() domain.TokenStore        { return tokenStore{s} }

func (s *Store) col(name string) *mongo.Collection { return s.db.Collection(name) }

// Ping checks that the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return domain.Unavailable(err, "mongodb.ping")
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes the store relies on, including the
// unique constraints behind ErrDuplicate and the 2dsphere index $geoNear
// requires. It is idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		colProducts: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "price", Value: 1}}},
			{Keys: bson.D{{Key: "tags", Value: 1}}},
			{Keys: bson.D{{Key: "brand", Value: 1}}},
		},
		colCarts: {
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		colOrders: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		colReviews: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "productId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "productId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		colPharmacies: {
			{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
			{Keys: bson.D{{Key: "name", Value: 1}}},
		},
		colUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		colRevokedTokens: {
			{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		},
	}

	for name, models := range indexes {
		if _, err := s.col(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	s.logger.Info("mongodb indexes ensured")
	return nil
}

// Server error codes the store maps to domain errors.
const (
	codeWriteConflict = 112
)

// classify maps a driver error to the store error vocabulary.
func classify(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrNoDocument
	}
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrDuplicate
	}

	var se mongo.ServerError
	if errors.As(err, &se) && (se.HasErrorCode(codeWriteConflict) || se.HasErrorLabel(driverTransientLabel)) {
		return fmt.Errorf("%s: %w", op, domain.ErrWriteConflict)
	}

	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return domain.Unavailable(err, op)
	}
	return fmt.Errorf("%s: %w", op, err)
}

const driverTransientLabel = "TransientTransactionError"

package mongodb

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dukerupert/epharmacy/internal/domain"
)

// =============================================================================
// USERS
// =============================================================================

type userStore struct{ s *Store }

// Emails are stored lowercased so the unique index is case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (us userStore) Create(ctx context.Context, u *domain.User) error {
	u.Email = normalizeEmail(u.Email)
	if u.Role == "" {
		u.Role = domain.RoleCustomer
	}
	now := us.s.now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	doc := userDoc{
		ID:           primitive.NewObjectID(),
		Name:         u.Name,
		Email:        u.Email,
		Phone:        u.Phone,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := us.s.col(colUsers).InsertOne(ctx, doc); err != nil {
		return classify(err, "mongodb.users.create")
	}
	u.ID = doc.ID.Hex()
	return nil
}

func (us userStore) findOne(ctx context.Context, op string, filter bson.D) (*domain.User, error) {
	var doc userDoc
	if err := us.s.col(colUsers).FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, classify(err, op)
	}
	u := doc.toDomain()
	return &u, nil
}

func (us userStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNoDocument
	}
	return us.findOne(ctx, "mongodb.users.get", bson.D{{Key: "_id", Value: oid}})
}

func (us userStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return us.findOne(ctx, "mongodb.users.get_by_email", bson.D{{Key: "email", Value: normalizeEmail(email)}})
}

func (us userStore) Update(ctx context.Context, u *domain.User) error {
	const op = "mongodb.users.update"

	oid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return domain.ErrNoDocument
	}
	u.Email = normalizeEmail(u.Email)
	u.UpdatedAt = us.s.now().UTC()

	res, err := us.s.col(colUsers).UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, bson.D{{Key: "$set", Value: bson.D{
		{Key: "name", Value: u.Name},
		{Key: "email", Value: u.Email},
		{Key: "phone", Value: u.Phone},
		{Key: "role", Value: u.Role},
		{Key: "updatedAt", Value: u.UpdatedAt},
	}}})
	if err != nil {
		return classify(err, op)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNoDocument
	}
	return nil
}

func (us userStore) List(ctx context.Context, page domain.PageRequest) ([]domain.User, int, error) {
	sort := bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}

	var docs []userDoc
	total, err := findPage(ctx, us.s.col(colUsers), bson.D{}, sort, page, &docs)
	if err != nil {
		return nil, 0, classify(err, "mongodb.users.list")
	}

	out := make([]domain.User, len(docs))
	for i := range docs {
		out[i] = docs[i].toDomain()
	}
	return out, total, nil
}

// =============================================================================
// REVOKED TOKENS
// =============================================================================

// tokenStore keys revoked tokens by hash. The TTL index on expiresAt
// removes entries once the token could no longer verify anyway.
type tokenStore struct{ s *Store }

func (ts tokenStore) Revoke(ctx context.Context, tokenHash string, expiresAt time.Time) error {
	_, err := ts.s.col(colRevokedTokens).UpdateOne(ctx,
		bson.D{{Key: "_id", Value: tokenHash}},
		bson.D{{Key: "$setOnInsert", Value: bson.D{{Key: "expiresAt", Value: expiresAt.UTC()}}}},
		options.Update().SetUpsert(true),
	)
	return classify(err, "mongodb.tokens.revoke")
}

// IsRevoked ignores expired entries the TTL monitor has not swept yet.
func (ts tokenStore) IsRevoked(ctx context.Context, tokenHash string) (bool, error) {
	n, err := ts.s.col(colRevokedTokens).CountDocuments(ctx, bson.D{
		{Key: "_id", Value: tokenHash},
		{Key: "expiresAt", Value: bson.D{{Key: "$gt", Value: ts.s.now().UTC()}}},
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, classify(err, "mongodb.tokens.is_revoked")
	}
	return n > 0, nil
}

// PurgeExpired sweeps what the TTL monitor has not reached yet; the monitor
// runs about once a minute.
func (ts tokenStore) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := ts.s.col(colRevokedTokens).DeleteMany(ctx, bson.D{
		{Key: "expiresAt", Value: bson.D{{Key: "$lt", Value: cutoff.UTC()}}},
	})
	if err != nil {
		return 0, classify(err, "mongodb.tokens.purge_expired")
	}
	return res.DeletedCount, nil
}

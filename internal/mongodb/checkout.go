package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/dukerupert/epharmacy/internal/domain"
)

// InTx runs fn in a multi-document transaction with snapshot reads. It
// does not retry: a concurrent checkout touching the same product fails
// its write with WriteConflict, which surfaces as domain.ErrWriteConflict.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx domain.CheckoutTx) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return classify(err, "mongodb.start_session")
	}
	defer sess.EndSession(context.WithoutCancel(ctx))

	txOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	if err := sess.StartTransaction(txOpts); err != nil {
		return classify(err, "mongodb.begin")
	}

	sc := mongo.NewSessionContext(ctx, sess)
	if err := fn(sc, &checkoutTx{s: s}); err != nil {
		if abortErr := sess.AbortTransaction(context.WithoutCancel(ctx)); abortErr != nil {
			s.logger.Warn("transaction abort failed", "error", abortErr)
		}
		return err
	}

	if err := sess.CommitTransaction(sc); err != nil {
		return classify(err, "mongodb.commit")
	}
	return nil
}

// checkoutTx issues every operation with the session context it is
// handed, which binds it to the open transaction.
type checkoutTx struct {
	s *Store
}

var _ domain.CheckoutTx = (*checkoutTx)(nil)

func (t *checkoutTx) Cart(ctx context.Context, userID string) (*domain.Cart, error) {
	return findCart(ctx, t.s.col(colCarts), userID)
}

func (t *checkoutTx) Products(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	return findProducts(ctx, t.s.col(colProducts), ids)
}

// ReserveStock applies one guarded $inc per line. A line whose product
// no longer has enough stock matches nothing.
func (t *checkoutTx) ReserveStock(ctx context.Context, lines []domain.StockReservation) ([]bool, error) {
	const op = "mongodb.checkout.reserve_stock"

	col := t.s.col(colProducts)
	now := t.s.now().UTC()
	applied := make([]bool, len(lines))
	for i, l := range lines {
		oid, err := primitive.ObjectIDFromHex(l.ProductID)
		if err != nil {
			continue
		}
		res, err := col.UpdateOne(ctx,
			bson.D{
				{Key: "_id", Value: oid},
				{Key: "stock", Value: bson.D{{Key: "$gte", Value: l.Qty}}},
			},
			bson.D{
				{Key: "$inc", Value: bson.D{{Key: "stock", Value: -l.Qty}}},
				{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: now}}},
			},
		)
		if err != nil {
			return nil, classify(err, op)
		}
		applied[i] = res.MatchedCount == 1
	}
	return applied, nil
}

func (t *checkoutTx) CreateOrder(ctx context.Context, o *domain.Order) error {
	const op = "mongodb.checkout.create_order"

	doc, err := newOrderDoc(o)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	doc.ID = primitive.NewObjectID()
	if _, err := t.s.col(colOrders).InsertOne(ctx, doc); err != nil {
		return classify(err, op)
	}
	o.ID = doc.ID.Hex()
	o.UpdatedAt = doc.UpdatedAt
	return nil
}

func (t *checkoutTx) ClearCart(ctx context.Context, userID string) error {
	_, err := t.s.col(colCarts).UpdateOne(ctx,
		bson.D{{Key: "userId", Value: userID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "items", Value: bson.A{}},
			{Key: "updatedAt", Value: t.s.now().UTC()},
		}}},
	)
	return classify(err, "mongodb.checkout.clear_cart")
}

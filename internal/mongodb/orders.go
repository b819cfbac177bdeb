package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/epharmacy/internal/domain"
)

// =============================================================================
// ORDERS
// =============================================================================

type orderStore struct{ s *Store }

func (st orderStore) Get(ctx context.Context, id string) (*domain.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNoDocument
	}
	var doc orderDoc
	if err := st.s.col(colOrders).FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		return nil, classify(err, "mongodb.orders.get")
	}
	return doc.toDomain()
}

func (st orderStore) List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, int, error) {
	const op = "mongodb.orders.list"

	filter := bson.D{}
	if f.UserID != "" {
		filter = append(filter, bson.E{Key: "userId", Value: f.UserID})
	}
	if f.Status != "" {
		filter = append(filter, bson.E{Key: "status", Value: string(f.Status)})
	}
	sort := bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

	var docs []orderDoc
	total, err := findPage(ctx, st.s.col(colOrders), filter, sort, f.Page, &docs)
	if err != nil {
		return nil, 0, classify(err, op)
	}

	out := make([]domain.Order, 0, len(docs))
	for i := range docs {
		o, err := docs[i].toDomain()
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, *o)
	}
	return out, total, nil
}

func (st orderStore) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNoDocument
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "status", Value: string(status)},
		{Key: "updatedAt", Value: st.s.now().UTC()},
	}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc orderDoc
	err = st.s.col(colOrders).FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: oid}}, update, opts).Decode(&doc)
	if err != nil {
		return nil, classify(err, "mongodb.orders.update_status")
	}
	return doc.toDomain()
}

// =============================================================================
// REVIEWS
// =============================================================================

var reviewSorts = map[string]bson.D{
	domain.ReviewSortNewest:     {{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}},
	domain.ReviewSortOldest:     {{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}},
	domain.ReviewSortRatingAsc:  {{Key: "rating", Value: 1}, {Key: "createdAt", Value: -1}},
	domain.ReviewSortRatingDesc: {{Key: "rating", Value: -1}, {Key: "createdAt", Value: -1}},
}

type reviewStore struct{ s *Store }

func (rs reviewStore) Create(ctx context.Context, r *domain.Review) error {
	doc := reviewDoc{
		ID:        primitive.NewObjectID(),
		UserID:    r.UserID,
		ProductID: r.ProductID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
	if _, err := rs.s.col(colReviews).InsertOne(ctx, doc); err != nil {
		return classify(err, "mongodb.reviews.create")
	}
	r.ID = doc.ID.Hex()
	return nil
}

func reviewMatch(productID string) bson.D {
	if productID == "" {
		return bson.D{}
	}
	return bson.D{{Key: "productId", Value: productID}}
}

func (rs reviewStore) List(ctx context.Context, f domain.ReviewFilter) ([]domain.Review, int, error) {
	sort, ok := reviewSorts[f.Sort]
	if !ok {
		sort = reviewSorts[domain.ReviewSortNewest]
	}

	var docs []reviewDoc
	total, err := findPage(ctx, rs.s.col(colReviews), reviewMatch(f.ProductID), sort, f.Page, &docs)
	if err != nil {
		return nil, 0, classify(err, "mongodb.reviews.list")
	}

	out := make([]domain.Review, len(docs))
	for i := range docs {
		out[i] = docs[i].toDomain()
	}
	return out, total, nil
}

// Stats groups matching reviews by star in one aggregation.
func (rs reviewStore) Stats(ctx context.Context, productID string) (domain.ReviewStats, error) {
	const op = "mongodb.reviews.stats"

	pipeline := bson.A{
		bson.D{{Key: "$match", Value: reviewMatch(productID)}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$rating"},
			{Key: "n", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cur, err := rs.s.col(colReviews).Aggregate(ctx, pipeline)
	if err != nil {
		return domain.ReviewStats{}, classify(err, op)
	}
	var groups []struct {
		Rating int `bson:"_id"`
		N      int `bson:"n"`
	}
	if err := cur.All(ctx, &groups); err != nil {
		return domain.ReviewStats{}, classify(err, op)
	}

	var (
		st  domain.ReviewStats
		sum int
	)
	for _, g := range groups {
		if g.Rating >= 1 && g.Rating <= 5 {
			st.Distribution[g.Rating] = g.N
		}
		st.Count += g.N
		sum += g.Rating * g.N
	}
	if st.Count > 0 {
		st.AvgRating = roundTo2(float64(sum) / float64(st.Count))
	}
	return st, nil
}

// findPage runs the page query and the count concurrently and decodes the
// page into out, which must be a pointer to a slice.
func findPage(ctx context.Context, col *mongo.Collection, filter, sort bson.D, page domain.PageRequest, out any) (int, error) {
	var total int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		opts := options.Find().SetSort(sort).SetSkip(int64(page.Offset())).SetLimit(int64(page.Limit))
		cur, err := col.Find(gctx, filter, opts)
		if err != nil {
			return err
		}
		return cur.All(gctx, out)
	})
	g.Go(func() error {
		n, err := col.CountDocuments(gctx, filter)
		total = n
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return int(total), nil
}

package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dukerupert/epharmacy/internal/domain"
)

// =============================================================================
// PRODUCTS
// =============================================================================

var productSorts = map[string]bson.D{
	domain.SortPriceAsc:    {{Key: "price", Value: 1}, {Key: "_id", Value: 1}},
	domain.SortPriceDesc:   {{Key: "price", Value: -1}, {Key: "_id", Value: 1}},
	domain.SortTitleAsc:    {{Key: "title", Value: 1}, {Key: "_id", Value: 1}},
	domain.SortTitleDesc:   {{Key: "title", Value: -1}, {Key: "_id", Value: 1}},
	domain.SortCreatedAsc:  {{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}},
	domain.SortCreatedDesc: {{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}},
}

type productStore struct{ s *Store }

// containsRegex matches s anywhere, case-insensitively, with regex
// metacharacters taken literally.
func containsRegex(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

func equalFoldRegex(s string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(s) + "$", Options: "i"}
}

// productFilter renders f as a query document.
func productFilter(f domain.ProductFilter) (bson.D, error) {
	filter := bson.D{}
	if f.Query != "" {
		re := containsRegex(f.Query)
		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "title", Value: re}},
			bson.D{{Key: "brand", Value: re}},
			bson.D{{Key: "description", Value: re}},
		}})
	}
	if f.Brand != "" {
		filter = append(filter, bson.E{Key: "brand", Value: equalFoldRegex(f.Brand)})
	}
	if f.Tag != "" {
		filter = append(filter, bson.E{Key: "tags", Value: f.Tag})
	}
	if f.Rx != nil {
		filter = append(filter, bson.E{Key: "rxRequired", Value: *f.Rx})
	}

	price := bson.D{}
	if f.MinPrice != nil {
		v, err := toDecimal128(*f.MinPrice)
		if err != nil {
			return nil, err
		}
		price = append(price, bson.E{Key: "$gte", Value: v})
	}
	if f.MaxPrice != nil {
		v, err := toDecimal128(*f.MaxPrice)
		if err != nil {
			return nil, err
		}
		price = append(price, bson.E{Key: "$lte", Value: v})
	}
	if len(price) > 0 {
		filter = append(filter, bson.E{Key: "price", Value: price})
	}
	return filter, nil
}

func (ps productStore) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int, error) {
	const op = "mongodb.products.list"

	filter, err := productFilter(f)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	sort, ok := productSorts[f.Sort]
	if !ok {
		sort = productSorts[domain.DefaultProductSort]
	}

	var docs []productDoc
	total, err := findPage(ctx, ps.s.col(colProducts), filter, sort, f.Page, &docs)
	if err != nil {
		return nil, 0, classify(err, op)
	}

	out := make([]domain.Product, 0, len(docs))
	for i := range docs {
		p, err := docs[i].toDomain()
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, *p)
	}
	return out, total, nil
}

func (ps productStore) Get(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNoDocument
	}
	var doc productDoc
	if err := ps.s.col(colProducts).FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		return nil, classify(err, "mongodb.products.get")
	}
	return doc.toDomain()
}

func (ps productStore) GetMany(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	return findProducts(ctx, ps.s.col(colProducts), ids)
}

func findProducts(ctx context.Context, col *mongo.Collection, ids []string) (map[string]*domain.Product, error) {
	const op = "mongodb.products.get_many"

	oids := objectIDs(ids)
	out := make(map[string]*domain.Product, len(oids))
	if len(oids) == 0 {
		return out, nil
	}

	cur, err := col.Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: oids}}}})
	if err != nil {
		return nil, classify(err, op)
	}
	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, classify(err, op)
	}
	for i := range docs {
		p, err := docs[i].toDomain()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out[p.ID] = p
	}
	return out, nil
}

func (ps productStore) Create(ctx context.Context, p *domain.Product) error {
	const op = "mongodb.products.create"

	price, err := toDecimal128(p.Price)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	now := ps.s.now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	oid, err := primitive.ObjectIDFromHex(p.ID)
	if err != nil {
		oid = primitive.NewObjectID()
	}
	doc := productDoc{
		ID:          oid,
		Title:       p.Title,
		Slug:        p.Slug,
		Brand:       p.Brand,
		Form:        p.Form,
		Price:       price,
		Stock:       p.Stock,
		Tags:        p.Tags,
		StoreID:     p.StoreID,
		RxRequired:  p.RxRequired,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if _, err := ps.s.col(colProducts).InsertOne(ctx, doc); err != nil {
		return classify(err, op)
	}
	p.ID = oid.Hex()
	return nil
}

// ratingPipeline folds rating into the running mean. Expressions inside
// one $set stage all read the input document, so ratingCount on the
// right-hand side is the pre-update count.
func ratingPipeline(rating int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "ratingAverage", Value: bson.D{{Key: "$round", Value: bson.A{
				bson.D{{Key: "$divide", Value: bson.A{
					bson.D{{Key: "$add", Value: bson.A{
						bson.D{{Key: "$multiply", Value: bson.A{"$ratingAverage", "$ratingCount"}}},
						rating,
					}}},
					bson.D{{Key: "$add", Value: bson.A{"$ratingCount", 1}}},
				}}},
				2,
			}}}},
			{Key: "ratingCount", Value: bson.D{{Key: "$add", Value: bson.A{"$ratingCount", 1}}}},
			{Key: "updatedAt", Value: "$$NOW"},
		}}},
	}
}

func (ps productStore) ApplyRating(ctx context.Context, productID string, rating int) error {
	oid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return domain.ErrNoDocument
	}
	res, err := ps.s.col(colProducts).UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, ratingPipeline(rating))
	if err != nil {
		return classify(err, "mongodb.products.apply_rating")
	}
	if res.MatchedCount == 0 {
		return domain.ErrNoDocument
	}
	return nil
}

// =============================================================================
// CARTS
// =============================================================================

type cartStore struct{ s *Store }

func (cs cartStore) GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error) {
	update := bson.D{{Key: "$setOnInsert", Value: bson.D{
		{Key: "items", Value: bson.A{}},
		{Key: "updatedAt", Value: cs.s.now().UTC()},
	}}}
	return cs.upsert(ctx, "mongodb.carts.get_or_create", userID, update)
}

func (cs cartStore) Replace(ctx context.Context, userID string, items []domain.CartItem) (*domain.Cart, error) {
	const op = "mongodb.carts.replace"

	lines, err := cartLineDocs(items)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "items", Value: lines},
		{Key: "updatedAt", Value: cs.s.now().UTC()},
	}}}
	return cs.upsert(ctx, op, userID, update)
}

// upsert applies update to the user's cart, creating it if needed. Two
// concurrent upserts can both miss and race on the unique index; the
// loser retries once against the winner's document.
func (cs cartStore) upsert(ctx context.Context, op, userID string, update bson.D) (*domain.Cart, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	filter := bson.D{{Key: "userId", Value: userID}}

	var doc cartDoc
	err := cs.s.col(colCarts).FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if mongo.IsDuplicateKeyError(err) {
		err = cs.s.col(colCarts).FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	}
	if err != nil {
		return nil, classify(err, op)
	}
	return doc.toDomain()
}

func findCart(ctx context.Context, col *mongo.Collection, userID string) (*domain.Cart, error) {
	var doc cartDoc
	err := col.FindOne(ctx, bson.D{{Key: "userId", Value: userID}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err, "mongodb.carts.find")
	}
	return doc.toDomain()
}

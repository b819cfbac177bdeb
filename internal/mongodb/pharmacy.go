package mongodb

import (
	"context"
	"math"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dukerupert/epharmacy/internal/domain"
)

type pharmacyStore struct{ s *Store }

func (ps pharmacyStore) List(ctx context.Context, f domain.PharmacyFilter) ([]domain.Pharmacy, int, error) {
	filter := bson.D{{Key: "isActive", Value: true}}
	if f.Query != "" {
		re := containsRegex(f.Query)
		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "name", Value: re}},
			bson.D{{Key: "address", Value: re}},
		}})
	}
	sort := bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}

	var docs []pharmacyDoc
	total, err := findPage(ctx, ps.s.col(colPharmacies), filter, sort, f.Page, &docs)
	if err != nil {
		return nil, 0, classify(err, "mongodb.pharmacies.list")
	}

	out := make([]domain.Pharmacy, len(docs))
	for i := range docs {
		out[i] = docs[i].toDomain()
	}
	return out, total, nil
}

// nearestPipeline ranks active pharmacies with $geoNear, which requires
// the 2dsphere index on location and must be the first stage.
func nearestPipeline(q domain.NearestQuery) bson.A {
	return bson.A{
		bson.D{{Key: "$geoNear", Value: bson.D{
			{Key: "near", Value: geoPoint{Type: "Point", Coordinates: [2]float64{q.Point.Lng, q.Point.Lat}}},
			{Key: "distanceField", Value: "distance"},
			{Key: "maxDistance", Value: q.MaxMeters},
			{Key: "query", Value: bson.D{{Key: "isActive", Value: true}}},
			{Key: "key", Value: "location"},
			{Key: "spherical", Value: true},
		}}},
		bson.D{{Key: "$limit", Value: q.Limit}},
	}
}

func (ps pharmacyStore) Nearest(ctx context.Context, q domain.NearestQuery) ([]domain.PharmacyDistance, error) {
	const op = "mongodb.pharmacies.nearest"

	cur, err := ps.s.col(colPharmacies).Aggregate(ctx, nearestPipeline(q))
	if err != nil {
		return nil, classify(err, op)
	}
	var docs []pharmacyDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, classify(err, op)
	}

	out := make([]domain.PharmacyDistance, len(docs))
	for i := range docs {
		out[i] = domain.PharmacyDistance{Pharmacy: docs[i].toDomain(), DistanceMeters: docs[i].Distance}
	}
	return out, nil
}

func (ps pharmacyStore) Create(ctx context.Context, p *domain.Pharmacy) error {
	oid, err := primitive.ObjectIDFromHex(p.ID)
	if err != nil {
		oid = primitive.NewObjectID()
	}
	doc := pharmacyDoc{
		ID:       oid,
		Name:     p.Name,
		Address:  p.Address,
		Phone:    p.Phone,
		Rating:   p.Rating,
		IsActive: p.IsActive,
		Location: geoPoint{Type: "Point", Coordinates: [2]float64{p.Location.Lng, p.Location.Lat}},
	}
	if _, err := ps.s.col(colPharmacies).InsertOne(ctx, doc); err != nil {
		return classify(err, "mongodb.pharmacies.create")
	}
	p.ID = oid.Hex()
	return nil
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

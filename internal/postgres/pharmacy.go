package postgres

import (
	"context"
	"fmt"
	"math"

	"github.com/dukerupert/epharmacy/internal/domain"
)

const pharmacyColumns = "id, name, address, phone, rating, is_active, lng, lat"

type pharmacyStore struct{ db querier }

func scanPharmacy(row scanner, extra ...any) (*domain.Pharmacy, error) {
	var p domain.Pharmacy
	dest := append([]any{&p.ID, &p.Name, &p.Address, &p.Phone, &p.Rating, &p.IsActive, &p.Location.Lng, &p.Location.Lat}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &p, nil
}

func (ps pharmacyStore) List(ctx context.Context, f domain.PharmacyFilter) ([]domain.Pharmacy, int, error) {
	const op = "postgres.pharmacies.list"

	where, args := " WHERE is_active", []any{}
	if f.Query != "" {
		where += " AND (name ILIKE $1 OR address ILIKE $1)"
		args = append(args, "%"+escapeLike(f.Query)+"%")
	}

	var total int
	if err := ps.db.QueryRow(ctx, "SELECT count(*) FROM pharmacies"+where, args...).Scan(&total); err != nil {
		return nil, 0, classify(err, op)
	}

	rows, err := ps.db.Query(ctx, fmt.Sprintf("SELECT %s FROM pharmacies%s ORDER BY name, id LIMIT %d OFFSET %d",
		pharmacyColumns, where, f.Page.Limit, f.Page.Offset()), args...)
	if err != nil {
		return nil, 0, classify(err, op)
	}
	defer rows.Close()

	var out []domain.Pharmacy
	for rows.Next() {
		p, err := scanPharmacy(rows)
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

// Nearest ranks active pharmacies by great-circle distance computed in SQL
// with the haversine formula on the same earth radius as
// domain.HaversineMeters.
func (ps pharmacyStore) Nearest(ctx context.Context, q domain.NearestQuery) ([]domain.PharmacyDistance, error) {
	const op = "postgres.pharmacies.nearest"

	rows, err := ps.db.Query(ctx, `
		SELECT `+pharmacyColumns+`, distance FROM (
			SELECT `+pharmacyColumns+`,
				2 * $3::float8 * asin(least(1, sqrt(
					power(sin(radians(lat - $2::float8) / 2), 2) +
					cos(radians($2::float8)) * cos(radians(lat)) * power(sin(radians(lng - $1::float8) / 2), 2)
				))) AS distance
			FROM pharmacies
			WHERE is_active
		) AS ranked
		WHERE distance <= $4
		ORDER BY distance, id
		LIMIT $5`,
		q.Point.Lng, q.Point.Lat, domain.EarthRadiusMeters, q.MaxMeters, q.Limit,
	)
	if err != nil {
		return nil, classify(err, op)
	}
	defer rows.Close()

	var out []domain.PharmacyDistance
	for rows.Next() {
		var d float64
		p, err := scanPharmacy(rows, &d)
		if err != nil {
			return nil, classify(err, op)
		}
		out = append(out, domain.PharmacyDistance{Pharmacy: *p, DistanceMeters: d})
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, op)
	}
	return out, nil
}

func (ps pharmacyStore) Create(ctx context.Context, p *domain.Pharmacy) error {
	err := ps.db.QueryRow(ctx, `
		INSERT INTO pharmacies (id, name, address, phone, rating, is_active, lng, lat)
		VALUES (COALESCE(NULLIF($1, ''), gen_random_uuid()::text), $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		p.ID, p.Name, p.Address, p.Phone, p.Rating, p.IsActive, p.Location.Lng, p.Location.Lat,
	).Scan(&p.ID)
	return classify(err, "postgres.pharmacies.create")
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

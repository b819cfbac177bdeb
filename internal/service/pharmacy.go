package service

import (
	"context"

	"github.com/dukerupert/epharmacy/internal/domain"
)

// PharmacyService implements domain.PharmacyService.
type PharmacyService struct {
	pharmacies domain.PharmacyStore
}

var _ domain.PharmacyService = (*PharmacyService)(nil)

func NewPharmacyService(store domain.Store) *PharmacyService {
	return &PharmacyService{pharmacies: store.Pharmacies()}
}

// ListPharmacies returns active pharmacies, optionally filtered by name or address.
func (s *PharmacyService) ListPharmacies(ctx context.Context, filter domain.PharmacyFilter) (*domain.Page[domain.Pharmacy], error) {
	filter.Page = filter.Page.Normalize(domain.DefaultStorePage, domain.MaxStorePage)

	items, total, err := s.pharmacies.List(ctx, filter)
	if err != nil {
		return nil, storeErr(err, "pharmacy.list", "failed to list stores")
	}
	return domain.NewPage(items, total, filter.Page), nil
}

// Nearest returns active pharmacies around q.Point. The radius and limit
// are clamped to their allowed ranges.
func (s *PharmacyService) Nearest(ctx context.Context, q domain.NearestQuery) ([]domain.PharmacyDistance, error) {
	const op = "pharmacy.nearest"

	if !q.Point.Valid() {
		return nil, domain.Invalid(op, "lng must be within [-180,180] and lat within [-90,90]")
	}
	q.MaxMeters = clampFloat(q.MaxMeters, domain.DefaultNearestRadius, domain.MinNearestRadius, domain.MaxNearestRadius)
	q.Limit = clampInt(q.Limit, domain.DefaultNearestLimit, 1, domain.MaxNearestLimit)

	out, err := s.pharmacies.Nearest(ctx, q)
	if err != nil {
		return nil, storeErr(err, op, "failed to search stores")
	}
	if out == nil {
		out = []domain.PharmacyDistance{}
	}
	return out, nil
}

func clampFloat(v, def, lo, hi float64) float64 {
	if v == 0 {
		v = def
	}
	return min(max(v, lo), hi)
}

func clampInt(v, def, lo, hi int) int {
	if v == 0 {
		v = def
	}
	return min(max(v, lo), hi)
}

package memstore

import (
	"context"
	"math"
	"sort"

	"github.com/dukerupert/epharmacy/internal/domain"
)

type pharmacyStore struct{ s *Store }

func (ps pharmacyStore) List(_ context.Context, f domain.PharmacyFilter) ([]domain.Pharmacy, int, error) {
	ps.s.mu.Lock()
	defer ps.s.mu.Unlock()

	var matches []domain.Pharmacy
	for _, p := range ps.s.pharmacies {
		if !p.IsActive {
			continue
		}
		if f.Query != "" && !containsFold(p.Name, f.Query) && !containsFold(p.Address, f.Query) {
			continue
		}
		matches = append(matches, *p)
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })
	return paginate(matches, f.Page), len(matches), nil
}

func (ps pharmacyStore) Nearest(_ context.Context, q domain.NearestQuery) ([]domain.PharmacyDistance, error) {
	ps.s.mu.Lock()
	defer ps.s.mu.Unlock()

	var out []domain.PharmacyDistance
	for _, p := range ps.s.pharmacies {
		if !p.IsActive {
			continue
		}
		d := domain.HaversineMeters(q.Point, p.Location)
		if d > q.MaxMeters {
			continue
		}
		out = append(out, domain.PharmacyDistance{Pharmacy: *p, DistanceMeters: d})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceMeters < out[j].DistanceMeters })
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (ps pharmacyStore) Create(_ context.Context, p *domain.Pharmacy) error {
	ps.s.mu.Lock()
	defer ps.s.mu.Unlock()

	if p.ID == "" {
		p.ID = newID()
	}
	stored := *p
	ps.s.pharmacies = append(ps.s.pharmacies, &stored)
	return nil
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

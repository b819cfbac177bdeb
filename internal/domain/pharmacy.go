package domain

import (
	"context"
	"math"
)

// GeoPoint is a WGS84 coordinate.
type GeoPoint struct {
	Lng float64
	Lat float64
}

// Valid reports whether the point lies within longitude/latitude bounds.
func (p GeoPoint) Valid() bool {
	return p.Lng >= -180 && p.Lng <= 180 && p.Lat >= -90 && p.Lat <= 90
}

// Pharmacy is a physical store where products can be picked up.
type Pharmacy struct {
	ID       string
	Name     string
	Address  string
	Phone    string
	Rating   float64
	IsActive bool
	Location GeoPoint
}

// PharmacyDistance pairs a pharmacy with its distance from a query point.
type PharmacyDistance struct {
	Pharmacy
	DistanceMeters float64
}

// Nearest-search bounds, in meters and result counts.
const (
	DefaultNearestRadius = 5000
	MinNearestRadius     = 100
	MaxNearestRadius     = 50000
	DefaultNearestLimit  = 10
	MaxNearestLimit      = 50
	DefaultStorePage     = 12
	MaxStorePage         = 50
)

// NearestQuery finds active pharmacies within MaxMeters of Point.
type NearestQuery struct {
	Point     GeoPoint
	MaxMeters float64
	Limit     int
}

// PharmacyFilter narrows a pharmacy listing.
type PharmacyFilter struct {
	Query string
	Page  PageRequest
}

// PharmacyService provides store lookup.
type PharmacyService interface {
	ListPharmacies(ctx context.Context, filter PharmacyFilter) (*Page[Pharmacy], error)
	Nearest(ctx context.Context, q NearestQuery) ([]PharmacyDistance, error)
}

// EarthRadiusMeters is the mean earth radius used for distances.
const EarthRadiusMeters = 6371008.8

// HaversineMeters returns the great-circle distance between a and b.
func HaversineMeters(a, b GeoPoint) float64 {
	const rad = math.Pi / 180
	dLat := (b.Lat - a.Lat) * rad
	dLng := (b.Lng - a.Lng) * rad
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*rad)*math.Cos(b.Lat*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

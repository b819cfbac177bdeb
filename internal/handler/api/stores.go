package api

import (
	"math"
	"net/http"

	"github.com/dukerupert/epharmacy/internal/domain"
	"github.com/dukerupert/epharmacy/internal/handler"
)

// StoreHandler serves pharmacy listings and the nearest-store search.
type StoreHandler struct {
	pharmacies domain.PharmacyService
}

// NewStoreHandler creates a new store handler
func NewStoreHandler(pharmacies domain.PharmacyService) *StoreHandler {
	return &StoreHandler{pharmacies: pharmacies}
}

// List handles GET /api/stores?q&page&limit
func (h *StoreHandler) List(w http.ResponseWriter, r *http.Request) {
	q := handler.NewQuery(r)
	filter := domain.PharmacyFilter{Query: q.String("q"), Page: q.Page()}
	if err := q.Err("pharmacy.list"); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	page, err := h.pharmacies.ListPharmacies(r.Context(), filter)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WritePage(w, page, toStoreView)
}

// Nearest handles GET /api/stores/nearest?lng&lat&max&limit&unit
//
// max is in meters. unit selects whether "distance" is reported in m or
// km; distanceMeters and distanceKm are always present.
func (h *StoreHandler) Nearest(w http.ResponseWriter, r *http.Request) {
	const op = "pharmacy.nearest"

	q := handler.NewQuery(r)
	query := domain.NearestQuery{
		Point: domain.GeoPoint{
			Lng: q.RequiredFloat("lng"),
			Lat: q.RequiredFloat("lat"),
		},
		MaxMeters: q.Float("max", 0),
		Limit:     q.Int("limit", 0),
	}
	unit := q.String("unit")
	switch unit {
	case "":
		unit = "m"
	case "m", "km":
	default:
		handler.ErrorResponse(w, r, domain.AddFieldError(q.Err(op), "unit", "must be one of: m km"))
		return
	}
	if err := q.Err(op); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	found, err := h.pharmacies.Nearest(r.Context(), query)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	out := make([]storeView, len(found))
	for i, pd := range found {
		v := toStoreView(pd.Pharmacy)
		meters := math.Round(pd.DistanceMeters)
		km := math.Round(pd.DistanceMeters/10) / 100
		distance := meters
		if unit == "km" {
			distance = km
		}
		v.DistanceMeters, v.DistanceKm, v.Distance, v.Unit = &meters, &km, &distance, unit
		out[i] = v
	}
	handler.WriteData(w, http.StatusOK, out)
}

package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/epharmacy/internal/domain"
)

// Envelope wraps successful responses. Meta is present on paginated lists.
type Envelope struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta describes one page of a listing.
type Meta struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// NewMeta builds pagination metadata from a page.
func NewMeta[T any](p *domain.Page[T]) *Meta {
	return &Meta{Page: p.Page, Limit: p.Limit, Total: p.Total, Pages: p.Pages()}
}

// WriteJSON writes v as the JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Warn("failed to write response", "error", err)
	}
}

// WriteData writes {"data": data}.
func WriteData(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, Envelope{Data: data})
}

// WritePage writes a page of items mapped through conv, with meta.
func WritePage[T, R any](w http.ResponseWriter, p *domain.Page[T], conv func(T) R) {
	items := make([]R, len(p.Items))
	for i, it := range p.Items {
		items[i] = conv(it)
	}
	WriteJSON(w, http.StatusOK, Envelope{Data: items, Meta: NewMeta(p)})
}

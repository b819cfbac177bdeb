package api

import (
	"net/http"

	"github.com/dukerupert/epharmacy/internal/domain"
	"github.com/dukerupert/epharmacy/internal/handler"
)

// ReviewHandler serves product reviews.
type ReviewHandler struct {
	reviews domain.ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviews domain.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

type createReviewRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Rating    int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment   string `json:"comment" validate:"max=2000"`
}

// Create handles POST /api/reviews
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "review.create"

	var req createReviewRequest
	if err := handler.DecodeJSON(r, op, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	review, err := h.reviews.CreateReview(r.Context(), domain.UserIDFromContext(r.Context()), domain.NewReview{
		ProductID: req.ProductID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteData(w, http.StatusCreated, toReviewView(*review))
}

type reviewListResponse struct {
	Data  []reviewView    `json:"data"`
	Meta  *handler.Meta   `json:"meta"`
	Stats reviewStatsView `json:"stats"`
}

// List handles GET /api/reviews?productId&page&limit&sort
//
// stats cover every review matching productId, not just the page.
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	q := handler.NewQuery(r)
	filter := domain.ReviewFilter{
		ProductID: q.String("productId"),
		Sort:      q.String("sort"),
		Page:      q.Page(),
	}
	if err := q.Err("review.list"); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	list, err := h.reviews.ListReviews(r.Context(), filter)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	items := make([]reviewView, len(list.Items))
	for i, rv := range list.Items {
		items[i] = toReviewView(rv)
	}
	handler.WriteJSON(w, http.StatusOK, reviewListResponse{
		Data:  items,
		Meta:  handler.NewMeta(list.Page),
		Stats: toReviewStatsView(list.Stats),
	})
}

package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dukerupert/epharmacy/internal/domain"
	"github.com/dukerupert/epharmacy/internal/events"
	"github.com/dukerupert/epharmacy/internal/telemetry"
)

// MaxCommentLength bounds review comments.
const MaxCommentLength = 2000

// ReviewService implements domain.ReviewService.
//
// The review insert is synchronous; the product's rating aggregate is
// updated later by the rating worker. The aggregate is a running mean, so
// a dropped update is never recovered: later reviews fold into the count
// that missed it.
type ReviewService struct {
	reviews  domain.ReviewStore
	products domain.ProductStore
	queue    domain.RatingQueue
	events   events.Publisher
	metrics  *telemetry.BusinessMetrics
	logger   *slog.Logger
}

var _ domain.ReviewService = (*ReviewService)(nil)

// NewReviewService creates a review service.
func NewReviewService(
	store domain.Store,
	queue domain.RatingQueue,
	publisher events.Publisher,
	metrics *telemetry.BusinessMetrics,
	logger *slog.Logger,
) *ReviewService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &ReviewService{
		reviews:  store.Reviews(),
		products: store.Products(),
		queue:    queue,
		events:   publisher,
		metrics:  metrics,
		logger:   logger,
	}
}

// CreateReview records the user's review of a product.
func (s *ReviewService) CreateReview(ctx context.Context, userID string, in domain.NewReview) (*domain.Review, error) {
	const op = "review.create"

	if in.Rating < 1 || in.Rating > 5 {
		return nil, domain.Invalid(op, "rating must be between 1 and 5")
	}
	in.Comment = strings.TrimSpace(in.Comment)
	if utf8.RuneCountInString(in.Comment) > MaxCommentLength {
		return nil, domain.Invalid(op, "comment must be at most 2000 characters")
	}

	if _, err := s.products.Get(ctx, in.ProductID); err != nil {
		return nil, notFoundOr(err, domain.ProductNotFoundError(op, in.ProductID), op, "failed to load product")
	}

	review := &domain.Review{
		UserID:    userID,
		ProductID: in.ProductID,
		Rating:    in.Rating,
		Comment:   in.Comment,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.ErrDuplicateReview
		}
		return nil, storeErr(err, op, "failed to save review")
	}

	s.metrics.RecordReview(strconv.Itoa(review.Rating))
	if !s.queue.Enqueue(domain.RatingUpdate{ProductID: review.ProductID, Rating: review.Rating}) {
		s.metrics.RecordRatingUpdate("dropped")
		s.logger.Warn("rating update dropped; product rating will not include this review",
			"product_id", review.ProductID,
			"review_id", review.ID,
			"rating", review.Rating,
		)
	}

	if err := s.events.Publish(ctx, events.SubjectReviewCreated, events.ReviewCreated{
		ReviewID:  review.ID,
		ProductID: review.ProductID,
		UserID:    userID,
		Rating:    review.Rating,
	}); err != nil {
		s.logger.Warn("failed to publish review event", "review_id", review.ID, "error", err)
	}

	return review, nil
}

// ListReviews returns a page of reviews with stats over all matches.
func (s *ReviewService) ListReviews(ctx context.Context, filter domain.ReviewFilter) (*domain.ReviewList, error) {
	const op = "review.list"

	if filter.Sort == "" {
		filter.Sort = domain.ReviewSortNewest
	}
	if !domain.ValidReviewSort(filter.Sort) {
		return nil, domain.Invalid(op, "unknown sort: "+filter.Sort)
	}
	filter.Page = filter.Page.Normalize(domain.DefaultPageLimit, domain.MaxReviewPageLimit)

	items, total, err := s.reviews.List(ctx, filter)
	if err != nil {
		return nil, storeErr(err, op, "failed to list reviews")
	}
	stats, err := s.reviews.Stats(ctx, filter.ProductID)
	if err != nil {
		return nil, storeErr(err, op, "failed to compute review stats")
	}

	return &domain.ReviewList{Page: domain.NewPage(items, total, filter.Page), Stats: stats}, nil
}

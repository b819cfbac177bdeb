package domain

import (
	"context"
	"math"
	"time"
)

var ErrDuplicateReview = &Error{Code: ECONFLICT, Reason: ReasonDuplicateReview, Message: "You have already reviewed this product"}

// Review is one user's rating of one product. A user reviews a product at most once.
type Review struct {
	ID        string
	UserID    string
	ProductID string
	Rating    int
	Comment   string
	CreatedAt time.Time
}

// Review list sort keys.
const (
	ReviewSortNewest     = "newest"
	ReviewSortOldest     = "oldest"
	ReviewSortRatingAsc  = "rating"
	ReviewSortRatingDesc = "-rating"
	MaxReviewPageLimit   = 50
)

// ValidReviewSort reports whether s is an accepted review sort key.
func ValidReviewSort(s string) bool {
	switch s {
	case ReviewSortNewest, ReviewSortOldest, ReviewSortRatingAsc, ReviewSortRatingDesc:
		return true
	}
	return false
}

// ReviewFilter narrows a review listing.
type ReviewFilter struct {
	ProductID string
	Sort      string
	Page      PageRequest
}

// ReviewStats aggregates ratings for a listing. Distribution is indexed
// by star (1..5); index 0 is unused.
type ReviewStats struct {
	Count        int
	AvgRating    float64
	Distribution [6]int
}

// ReviewList is a page of reviews plus stats over all matches.
type ReviewList struct {
	*Page[Review]
	Stats ReviewStats
}

// NewReview is the input to review creation.
type NewReview struct {
	ProductID string
	Rating    int
	Comment   string
}

// ReviewService provides review creation and listing.
type ReviewService interface {
	// CreateReview writes the review synchronously and schedules the
	// product rating update.
	CreateReview(ctx context.Context, userID string, in NewReview) (*Review, error)

	// ListReviews returns reviews and rating stats.
	ListReviews(ctx context.Context, filter ReviewFilter) (*ReviewList, error)
}

// RatingUpdate is a pending fold of one rating into a product's aggregate.
type RatingUpdate struct {
	ProductID string
	Rating    int
}

// RatingQueue accepts rating updates for asynchronous application.
type RatingQueue interface {
	// Enqueue schedules u without blocking. It returns false when the
	// update was dropped.
	Enqueue(u RatingUpdate) bool
}

// NextRatingAverage folds rating into a running mean over count ratings
// and rounds to 2 decimal places.
func NextRatingAverage(avg float64, count, rating int) float64 {
	next := (avg*float64(count) + float64(rating)) / float64(count+1)
	return math.Round(next*100) / 100
}

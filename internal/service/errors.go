package service

import (
	"context"
	"errors"

	"github.com/dukerupert/epharmacy/internal/domain"
)

// storeErr converts a store failure into a domain error for op. Errors the
// store already classified (Unavailable) pass through unchanged.
func storeErr(err error, op, message string) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.Unavailable(err, op)
	}
	return domain.Internal(err, op, message)
}

// notFoundOr maps ErrNoDocument to notFound and anything else through storeErr.
func notFoundOr(err error, notFound error, op, message string) error {
	if errors.Is(err, domain.ErrNoDocument) {
		return notFound
	}
	return storeErr(err, op, message)
}

// Package jobs runs periodic maintenance against the store.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/epharmacy/internal/domain"
)

// DefaultCleanupInterval is how often expired revoked tokens are purged.
const DefaultCleanupInterval = time.Hour

// CleanupResult holds the result of a cleanup run
type CleanupResult struct {
	RevokedTokensDeleted int64
}

// TokenCleanup removes revoked-token entries whose tokens have expired.
// Once a token is past its expiry it fails verification on its own, so its
// revocation entry is dead weight.
type TokenCleanup struct {
	tokens   domain.TokenStore
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// NewTokenCleanup creates a cleanup job. A non-positive interval uses
// DefaultCleanupInterval.
func NewTokenCleanup(tokens domain.TokenStore, interval time.Duration, logger *slog.Logger) *TokenCleanup {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	return &TokenCleanup{
		tokens:   tokens,
		interval: interval,
		now:      time.Now,
		logger:   logger,
	}
}

// RunOnce performs a single purge.
func (c *TokenCleanup) RunOnce(ctx context.Context) (*CleanupResult, error) {
	n, err := c.tokens.PurgeExpired(ctx, c.now())
	if err != nil {
		return nil, fmt.Errorf("failed to delete expired revoked tokens: %w", err)
	}
	return &CleanupResult{RevokedTokensDeleted: n}, nil
}

// Start purges on every tick until ctx is cancelled. Failures are logged
// and retried on the next tick. It always returns nil.
func (c *TokenCleanup) Start(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			result, err := c.RunOnce(ctx)
			if err != nil {
				c.logger.Error("token cleanup failed", "error", err)
				continue
			}
			if result.RevokedTokensDeleted > 0 {
				c.logger.Info("token cleanup completed", "deleted", result.RevokedTokensDeleted)
			}
		}
	}
}

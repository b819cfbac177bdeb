package storage

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/epharmacy/internal"
	"github.com/dukerupert/epharmacy/internal/memstore"
)

func TestOpen(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	store, err := Open(ctx, internal.StoreConfig{Driver: internal.DriverMemory}, Options{}, logger)
	require.NoError(t, err)
	assert.IsType(t, &memstore.Store{}, store)
	assert.NoError(t, store.Ping(ctx))

	_, err = Open(ctx, internal.StoreConfig{Driver: "redis"}, Options{}, logger)
	assert.ErrorContains(t, err, `unknown store driver "redis"`)
}

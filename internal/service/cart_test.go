package service

import (
	"context"
	"testing"

	"github.com/dukerupert/epharmacy/internal/domain"
	"github.com/dukerupert/epharmacy/internal/memstore"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartService_GetCartCreatesEmpty(t *testing.T) {
	svc := NewCartService(memstore.New(), nil, testLogger())

	view, err := svc.GetCart(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Zero(t, view.Totals.ItemCount)
	assert.True(t, view.Totals.Subtotal.IsZero())
}

func TestCartService_UpdateCart(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	a := addProduct(t, store, "Ibuprofen", "5.25", 10)
	b := addProduct(t, store, "Antacid", "3.00", 2)
	svc := NewCartService(store, nil, testLogger())

	view, err := svc.UpdateCart(ctx, "u1", []domain.CartUpdate{
		{ProductID: a.ID, Qty: 2},
		{ProductID: b.ID, Qty: 1},
	})
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	assert.Equal(t, a.ID, view.Items[0].ProductID)
	assert.True(t, view.Items[0].PriceAtAdd.Equal(decimal.RequireFromString("5.25")))
	require.NotNil(t, view.Items[0].Product)
	assert.Equal(t, "Ibuprofen", view.Items[0].Product.Title)
	assert.Equal(t, 3, view.Totals.ItemCount)
	assert.Equal(t, "13.50", view.Totals.Subtotal.StringFixed(2))
}

func TestCartService_UpdateCartLastDuplicateWins(t *testing.T) {
	store := memstore.New()
	a := addProduct(t, store, "Ibuprofen", "1.00", 10)
	svc := NewCartService(store, nil, testLogger())

	view, err := svc.UpdateCart(context.Background(), "u1", []domain.CartUpdate{
		{ProductID: a.ID, Qty: 2},
		{ProductID: a.ID, Qty: 5},
	})
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 5, view.Items[0].Qty)
}

func TestCartService_UpdateCartIdempotentRemoval(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	a := addProduct(t, store, "Ibuprofen", "1.00", 10)
	svc := NewCartService(store, nil, testLogger())

	_, err := svc.UpdateCart(ctx, "u1", []domain.CartUpdate{{ProductID: a.ID, Qty: 1}})
	require.NoError(t, err)

	remove := []domain.CartUpdate{{ProductID: "absent", Qty: 0}, {ProductID: a.ID, Qty: 1}}
	first, err := svc.UpdateCart(ctx, "u1", remove)
	require.NoError(t, err)
	second, err := svc.UpdateCart(ctx, "u1", remove)
	require.NoError(t, err)

	assert.Equal(t, first.Items, second.Items)
	assert.Equal(t, first.Totals.ItemCount, second.Totals.ItemCount)
}

func TestCartService_UpdateCartErrors(t *testing.T) {
	store := memstore.New()
	a := addProduct(t, store, "Ibuprofen", "1.00", 2)

	tests := []struct {
		name       string
		updates    []domain.CartUpdate
		wantCode   string
		wantReason string
	}{
		{
			name:       "missing product id",
			updates:    []domain.CartUpdate{{Qty: 1}},
			wantCode:   domain.EINVALID,
			wantReason: domain.ReasonInvalidInput,
		},
		{
			name:       "negative quantity",
			updates:    []domain.CartUpdate{{ProductID: a.ID, Qty: -1}},
			wantCode:   domain.EINVALID,
			wantReason: domain.ReasonInvalidQuantity,
		},
		{
			name:       "unknown product",
			updates:    []domain.CartUpdate{{ProductID: "nope", Qty: 1}},
			wantCode:   domain.ENOTFOUND,
			wantReason: domain.ReasonProductNotFound,
		},
		{
			name:       "over stock",
			updates:    []domain.CartUpdate{{ProductID: a.ID, Qty: 3}},
			wantCode:   domain.ECONFLICT,
			wantReason: domain.ReasonInsufficientStock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewCartService(store, nil, testLogger())
			_, err := svc.UpdateCart(context.Background(), "u1", tt.updates)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, domain.ErrorCode(err))
			assert.Equal(t, tt.wantReason, domain.ErrorReason(err))
		})
	}
}

func TestCartService_GetCartKeepsVanishedLines(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	putCart(t, store, "u1", domain.CartItem{ProductID: "gone", Qty: 1, PriceAtAdd: decimal.NewFromInt(2)})
	svc := NewCartService(store, nil, testLogger())

	view, err := svc.GetCart(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Nil(t, view.Items[0].Product)
}

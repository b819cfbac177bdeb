package service

import (
	"context"
	"testing"

	"github.com/dukerupert/epharmacy/internal/domain"
	"github.com/dukerupert/epharmacy/internal/events"
	"github.com/dukerupert/epharmacy/internal/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// placeTestOrder checks out a one-line cart for userID and returns the order ID.
func placeTestOrder(t *testing.T, store domain.Store, userID string) string {
	t.Helper()
	p := addProduct(t, store, "Saline", "2.00", 5)
	putCart(t, store, userID, domain.CartItem{ProductID: p.ID, Qty: 1, PriceAtAdd: p.Price})
	svc, _, _ := newCheckout(store)
	res, err := svc.Checkout(context.Background(), userID, nil)
	require.NoError(t, err)
	return res.OrderID
}

func TestOrderService_GetOrderVisibility(t *testing.T) {
	store := memstore.New()
	id := placeTestOrder(t, store, "owner")
	svc := NewOrderService(store, nil, nil, testLogger())

	tests := []struct {
		name    string
		caller  *domain.Identity
		wantErr error
	}{
		{name: "owner", caller: &domain.Identity{UserID: "owner", Role: domain.RoleCustomer}},
		{name: "admin", caller: &domain.Identity{UserID: "root", Role: domain.RoleAdmin}},
		{name: "stranger", caller: &domain.Identity{UserID: "other", Role: domain.RoleCustomer}, wantErr: domain.ErrOrderNotFound},
		{name: "anonymous", caller: nil, wantErr: domain.ErrOrderNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := svc.GetOrder(context.Background(), tt.caller, id)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, o)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, id, o.ID)
		})
	}
}

func TestOrderService_ListMyOrders(t *testing.T) {
	store := memstore.New()
	placeTestOrder(t, store, "u1")
	placeTestOrder(t, store, "u1")
	placeTestOrder(t, store, "u2")
	svc := NewOrderService(store, nil, nil, testLogger())

	page, err := svc.ListMyOrders(context.Background(), "u1", domain.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, domain.DefaultPageLimit, page.Limit)
	for _, o := range page.Items {
		assert.Equal(t, "u1", o.UserID)
	}
}

func TestOrderService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	id := placeTestOrder(t, store, "u1")
	pub := &recordingPublisher{}
	svc := NewOrderService(store, pub, nil, testLogger())

	o, err := svc.UpdateStatus(ctx, id, domain.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, o.Status)
	assert.Equal(t, []string{events.SubjectOrderStatusChanged}, pub.Subjects())

	_, err = svc.UpdateStatus(ctx, id, "lost")
	assert.ErrorIs(t, err, domain.ErrInvalidOrderStatus)

	_, err = svc.UpdateStatus(ctx, "missing", domain.OrderStatusCancelled)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

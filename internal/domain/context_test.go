package domain

import (
	"context"
	"testing"
)

func TestIdentityContext(t *testing.T) {
	t.Run("IdentityFromContext returns nil when anonymous", func(t *testing.T) {
		ctx := context.Background()
		if id := IdentityFromContext(ctx); id != nil {
			t.Errorf("expected nil identity, got %+v", id)
		}
		if UserIDFromContext(ctx) != "" {
			t.Error("expected empty user id")
		}
		if IsAuthenticated(ctx) {
			t.Error("expected unauthenticated")
		}
	})

	t.Run("IdentityFromContext returns identity when set", func(t *testing.T) {
		expected := &Identity{UserID: "u-1", Role: RoleCustomer, Email: "a@b.c", Name: "Ana"}
		ctx := NewContextWithIdentity(context.Background(), expected)

		id := IdentityFromContext(ctx)
		if id == nil {
			t.Fatal("expected identity, got nil")
		}
		if id.UserID != "u-1" {
			t.Errorf("expected UserID u-1, got %q", id.UserID)
		}
		if UserIDFromContext(ctx) != "u-1" {
			t.Error("UserIDFromContext mismatch")
		}
		if id.IsAdmin() {
			t.Error("customer must not be admin")
		}
	})

	t.Run("admin role", func(t *testing.T) {
		id := &Identity{UserID: "u-2", Role: RoleAdmin}
		if !id.IsAdmin() {
			t.Error("expected admin")
		}
		var none *Identity
		if none.IsAdmin() {
			t.Error("nil identity must not be admin")
		}
	})
}

func TestRequestIDContext(t *testing.T) {
	ctx := NewContextWithRequestID(context.Background(), "req-123")
	if got := RequestIDFromContext(ctx); got != "req-123" {
		t.Errorf("expected req-123, got %q", got)
	}
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

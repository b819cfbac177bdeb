package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/epharmacy/internal/domain"
)

type stubAuthenticator struct {
	identities map[string]*domain.Identity
}

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (*domain.Identity, error) {
	if id, ok := s.identities[token]; ok {
		return id, nil
	}
	if token == "revoked" {
		return nil, domain.ErrTokenRevoked
	}
	return nil, domain.ErrInvalidToken
}

var testAuthn = stubAuthenticator{identities: map[string]*domain.Identity{
	"customer-token": {UserID: "u1", Role: domain.RoleCustomer},
	"admin-token":    {UserID: "a1", Role: domain.RoleAdmin},
}}

func serve(h http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWithIdentity(t *testing.T) {
	var got *domain.Identity
	var gotToken string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = domain.IdentityFromContext(r.Context())
		gotToken = GetAccessToken(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	h := WithIdentity(testAuthn)(inner)

	t.Run("anonymous passes through", func(t *testing.T) {
		got = nil
		rec := serve(h, "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Nil(t, got)
	})

	t.Run("non-bearer scheme is ignored", func(t *testing.T) {
		got = nil
		rec := serve(h, "Basic dXNlcjpwYXNz")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Nil(t, got)
	})

	t.Run("valid token attaches identity", func(t *testing.T) {
		rec := serve(h, "Bearer customer-token")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		require.NotNil(t, got)
		assert.Equal(t, "u1", got.UserID)
		assert.Equal(t, "customer-token", gotToken)
	})

	t.Run("revoked token is rejected with its reason", func(t *testing.T) {
		rec := serve(h, "bearer revoked")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		var body struct {
			Error map[string]string `json:"error"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, domain.ReasonTokenRevoked, body.Error["reason"])
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		rec := serve(h, "Bearer nope")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireAuthAndRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	authed := WithIdentity(testAuthn)(RequireAuth(ok))
	admin := WithIdentity(testAuthn)(RequireRole(domain.RoleAdmin)(ok))

	tests := []struct {
		name    string
		handler http.Handler
		header  string
		want    int
	}{
		{"auth: anonymous", authed, "", http.StatusUnauthorized},
		{"auth: customer", authed, "Bearer customer-token", http.StatusOK},
		{"admin: anonymous", admin, "", http.StatusUnauthorized},
		{"admin: customer", admin, "Bearer customer-token", http.StatusForbidden},
		{"admin: admin", admin, "Bearer admin-token", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(tt.handler, tt.header)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequestIDAndLogger(t *testing.T) {
	var reqID string
	h := RequestID(WithRequestLogger(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID = GetRequestID(r.Context())
		assert.NotNil(t, GetLogger(r.Context()))
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", reqID)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, reqID, 36)
	assert.Equal(t, reqID, rec.Header().Get(RequestIDHeader))
}

func TestRequestLogger_CarriesRequestAndUser(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))
	authn := stubAuthenticator{identities: map[string]*domain.Identity{
		"good": {UserID: "u-1", Role: domain.RoleCustomer},
	}}

	h := RequestID(WithRequestLogger(base)(WithIdentity(authn)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		GetLogger(r.Context()).Info("handled")
	}))))

	req := httptest.NewRequest(http.MethodPost, "/api/orders/checkout", nil)
	req.Header.Set(RequestIDHeader, "req-9")
	req.Header.Set("Authorization", "Bearer good")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-9", line["request_id"])
	assert.Equal(t, "POST", line["method"])
	assert.Equal(t, "/api/orders/checkout", line["path"])
	assert.Equal(t, "u-1", line["user_id"])
}

func TestGetLogger_DefaultOutsideRequest(t *testing.T) {
	assert.Same(t, slog.Default(), GetLogger(context.Background()))
}

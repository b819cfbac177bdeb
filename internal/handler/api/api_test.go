package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/epharmacy/internal/domain"
	"github.com/dukerupert/epharmacy/internal/middleware"
)

var (
	customer = &domain.Identity{UserID: "u1", Role: domain.RoleCustomer, Email: "ana@example.com"}
	admin    = &domain.Identity{UserID: "a1", Role: domain.RoleAdmin}
)

func newRequest(method, target, body string, id *domain.Identity) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if id != nil {
		req = req.WithContext(domain.NewContextWithIdentity(req.Context(), id))
	}
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorReason(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode(t, rec)
	e, ok := body["error"].(map[string]any)
	require.True(t, ok, "missing error object: %s", rec.Body.String())
	reason, _ := e["reason"].(string)
	return reason
}

// =============================================================================
// Cart & checkout
// =============================================================================

func TestCartHandler_Update(t *testing.T) {
	var gotUser string
	var gotItems []domain.CartUpdate
	carts := &stubCartService{
		updateFunc: func(_ context.Context, userID string, items []domain.CartUpdate) (*domain.CartView, error) {
			gotUser, gotItems = userID, items
			for _, it := range items {
				if it.ProductID == "gone" {
					return nil, domain.ProductNotFoundError("cart.update", "gone")
				}
			}
			return &domain.CartView{
				Items: []domain.CartLine{{
					CartItem: domain.CartItem{ProductID: "p1", Qty: 2, PriceAtAdd: decimal.RequireFromString("12.5")},
					Product:  &domain.ProductSummary{ID: "p1", Title: "Paracetamol"},
				}},
				Totals: domain.CartTotals{ItemCount: 2, Subtotal: decimal.RequireFromString("25")},
			}, nil
		},
	}
	h := NewCartHandler(carts)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantReason string
	}{
		{name: "replaces items", body: `{"items":[{"productId":"p1","qty":2}]}`, wantStatus: http.StatusOK},
		{name: "missing items", body: `{}`, wantStatus: http.StatusBadRequest, wantReason: domain.ReasonInvalidInput},
		{name: "negative qty", body: `{"items":[{"productId":"p1","qty":-1}]}`, wantStatus: http.StatusBadRequest, wantReason: domain.ReasonInvalidInput},
		{name: "unknown product", body: `{"items":[{"productId":"gone","qty":1}]}`, wantStatus: http.StatusNotFound, wantReason: domain.ReasonProductNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Update(rec, newRequest(http.MethodPut, "/api/cart", tt.body, customer))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantReason != "" {
				assert.Equal(t, tt.wantReason, errorReason(t, rec))
			}
		})
	}

	rec := httptest.NewRecorder()
	h.Update(rec, newRequest(http.MethodPut, "/api/cart", `{"items":[{"productId":"p1","qty":2}]}`, customer))
	assert.Equal(t, "u1", gotUser)
	assert.Equal(t, []domain.CartUpdate{{ProductID: "p1", Qty: 2}}, gotItems)
	assert.JSONEq(t, `{"data":{
		"items":[{"productId":"p1","qty":2,"priceAtAdd":12.50,"product":{"id":"p1","title":"Paracetamol"}}],
		"totals":{"itemCount":2,"subtotal":25.00}
	}}`, rec.Body.String())
}

func TestOrderHandler_Checkout(t *testing.T) {
	var gotTotal *decimal.Decimal
	checkout := &stubCheckoutService{
		checkoutFunc: func(_ context.Context, userID string, clientTotal *decimal.Decimal) (*domain.CheckoutResult, error) {
			gotTotal = clientTotal
			if clientTotal != nil && !clientTotal.Equal(decimal.RequireFromString("25")) {
				return nil, domain.ErrTotalMismatch
			}
			return &domain.CheckoutResult{OrderID: "o1", PaymentRef: "pay_1", Total: decimal.RequireFromString("25")}, nil
		},
	}
	h := NewOrderHandler(checkout, &stubOrderService{})

	t.Run("no body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Checkout(rec, newRequest(http.MethodPost, "/api/orders/checkout", "", customer))

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Nil(t, gotTotal)
		assert.JSONEq(t, `{"data":{"orderId":"o1","paymentRef":"pay_1","total":25.00}}`, rec.Body.String())
	})

	t.Run("matching client total", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Checkout(rec, newRequest(http.MethodPost, "/api/orders/checkout", `{"clientTotal":25}`, customer))
		assert.Equal(t, http.StatusCreated, rec.Code)
		require.NotNil(t, gotTotal)
	})

	t.Run("mismatched client total", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Checkout(rec, newRequest(http.MethodPost, "/api/orders/checkout", `{"clientTotal":"24.5"}`, customer))
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, domain.ReasonTotalMismatch, errorReason(t, rec))
	})

	t.Run("negative client total", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Checkout(rec, newRequest(http.MethodPost, "/api/orders/checkout", `{"clientTotal":-1}`, customer))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestOrderHandler_CheckoutErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantReason string
	}{
		{"empty cart", domain.ErrEmptyCart, http.StatusBadRequest, domain.ReasonEmptyCart},
		{"insufficient stock", domain.InsufficientStockError("checkout.place", "p1", 1, 3), http.StatusConflict, domain.ReasonInsufficientStock},
		{"stock changed", domain.ErrStockChanged, http.StatusConflict, domain.ReasonStockChanged},
		{"store down", domain.Unavailable(errors.New("no primary"), "checkout.place"), http.StatusServiceUnavailable, domain.ReasonDatabaseUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewOrderHandler(&stubCheckoutService{
				checkoutFunc: func(context.Context, string, *decimal.Decimal) (*domain.CheckoutResult, error) {
					return nil, tt.err
				},
			}, &stubOrderService{})

			rec := httptest.NewRecorder()
			h.Checkout(rec, newRequest(http.MethodPost, "/api/orders/checkout", "", customer))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantReason, errorReason(t, rec))
		})
	}
}

func TestOrderHandler_GetAndStatus(t *testing.T) {
	order := &domain.Order{
		ID:     "o1",
		UserID: "u1",
		Items:  []domain.OrderItem{{ProductID: "p1", Title: "Paracetamol", Qty: 2, Price: decimal.RequireFromString("12.5")}},
		Total:  decimal.RequireFromString("25"),
		Status: domain.OrderStatusPaid,
	}
	var gotCaller *domain.Identity
	var gotStatus domain.OrderStatus
	orders := &stubOrderService{
		getFunc: func(_ context.Context, caller *domain.Identity, id string) (*domain.Order, error) {
			gotCaller = caller
			if id != "o1" || (caller.UserID != order.UserID && !caller.IsAdmin()) {
				return nil, domain.ErrOrderNotFound
			}
			return order, nil
		},
		statusFunc: func(_ context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
			gotStatus = status
			o := *order
			o.Status = status
			return &o, nil
		},
	}
	h := NewOrderHandler(&stubCheckoutService{}, orders)

	req := newRequest(http.MethodGet, "/api/orders/o1", "", customer)
	req.SetPathValue("id", "o1")
	rec := httptest.NewRecorder()
	h.Get(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, customer, gotCaller)

	req = newRequest(http.MethodGet, "/api/orders/o1", "", &domain.Identity{UserID: "u2", Role: domain.RoleCustomer})
	req.SetPathValue("id", "o1")
	rec = httptest.NewRecorder()
	h.Get(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = newRequest(http.MethodPatch, "/api/orders/o1/status", `{"status":"shipped"}`, admin)
	req.SetPathValue("id", "o1")
	rec = httptest.NewRecorder()
	h.UpdateStatus(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.OrderStatusShipped, gotStatus)
	assert.Equal(t, "shipped", decode(t, rec)["data"].(map[string]any)["status"])

	req = newRequest(http.MethodPatch, "/api/orders/o1/status", `{"status":"lost"}`, admin)
	req.SetPathValue("id", "o1")
	rec = httptest.NewRecorder()
	h.UpdateStatus(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderHandler_Mine(t *testing.T) {
	var gotPage domain.PageRequest
	orders := &stubOrderService{
		mineFunc: func(_ context.Context, userID string, page domain.PageRequest) (*domain.Page[domain.Order], error) {
			gotPage = page
			page = page.Normalize(domain.DefaultPageLimit, domain.MaxPageLimit)
			return domain.NewPage([]domain.Order{{ID: "o2"}, {ID: "o1"}}, 3, page), nil
		},
	}
	h := NewOrderHandler(&stubCheckoutService{}, orders)

	rec := httptest.NewRecorder()
	h.Mine(rec, newRequest(http.MethodGet, "/api/orders/me?page=1&limit=2", "", customer))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.PageRequest{Page: 1, Limit: 2}, gotPage)
	body := decode(t, rec)
	assert.Len(t, body["data"], 2)
	assert.Equal(t, map[string]any{"page": float64(1), "limit": float64(2), "total": float64(3), "pages": float64(2)}, body["meta"])

	rec = httptest.NewRecorder()
	h.Mine(rec, newRequest(http.MethodGet, "/api/orders/me?page=x", "", customer))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// Catalog, stores & reviews
// =============================================================================

func TestProductHandler_List(t *testing.T) {
	var got domain.ProductFilter
	products := &stubProductService{
		listFunc: func(_ context.Context, f domain.ProductFilter) (*domain.Page[domain.Product], error) {
			got = f
			if f.Sort == "rating" {
				return nil, domain.Invalid("product.list", "unknown sort: rating")
			}
			return domain.NewPage([]domain.Product{{ID: "p1", Title: "Ibuprofen", Price: decimal.RequireFromString("4.2")}}, 1, domain.PageRequest{Page: 1, Limit: 20}), nil
		},
	}
	h := NewProductHandler(products)

	rec := httptest.NewRecorder()
	h.List(rec, newRequest(http.MethodGet, "/api/products?q=ibu&brand=Advil&tag=pain&rx=false&minPrice=1&maxPrice=10&sort=-price&page=1", "", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ibu", got.Query)
	assert.Equal(t, "Advil", got.Brand)
	assert.Equal(t, "pain", got.Tag)
	require.NotNil(t, got.Rx)
	assert.False(t, *got.Rx)
	assert.Equal(t, "10", got.MaxPrice.String())
	assert.Equal(t, "-price", got.Sort)

	item := decode(t, rec)["data"].([]any)[0].(map[string]any)
	assert.Equal(t, 4.2, item["price"])
	assert.Equal(t, []any{}, item["tags"])

	rec = httptest.NewRecorder()
	h.List(rec, newRequest(http.MethodGet, "/api/products?sort=rating", "", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.List(rec, newRequest(http.MethodGet, "/api/products?minPrice=abc", "", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductHandler_GetNotFound(t *testing.T) {
	h := NewProductHandler(&stubProductService{
		getFunc: func(_ context.Context, id string) (*domain.Product, error) {
			return nil, domain.ProductNotFoundError("product.get", id)
		},
	})

	req := newRequest(http.MethodGet, "/api/products/zzz", "", nil)
	req.SetPathValue("id", "zzz")
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStoreHandler_Nearest(t *testing.T) {
	var got domain.NearestQuery
	stores := &stubPharmacyService{
		nearestFunc: func(_ context.Context, q domain.NearestQuery) ([]domain.PharmacyDistance, error) {
			got = q
			if !q.Point.Valid() {
				return nil, domain.Invalid("pharmacy.nearest", "bad coordinates")
			}
			return []domain.PharmacyDistance{{
				Pharmacy:       domain.Pharmacy{ID: "s1", Name: "Central", IsActive: true, Location: domain.GeoPoint{Lng: 30.52, Lat: 50.45}},
				DistanceMeters: 1234.4,
			}}, nil
		},
	}
	h := NewStoreHandler(stores)

	rec := httptest.NewRecorder()
	h.Nearest(rec, newRequest(http.MethodGet, "/api/stores/nearest?lng=30.5&lat=50.4&max=2000&limit=5&unit=km", "", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.NearestQuery{Point: domain.GeoPoint{Lng: 30.5, Lat: 50.4}, MaxMeters: 2000, Limit: 5}, got)
	store := decode(t, rec)["data"].([]any)[0].(map[string]any)
	assert.Equal(t, 1234.0, store["distanceMeters"])
	assert.Equal(t, 1.23, store["distanceKm"])
	assert.Equal(t, 1.23, store["distance"])
	assert.Equal(t, "km", store["unit"])
	assert.Equal(t, []any{30.52, 50.45}, store["location"].(map[string]any)["coordinates"])

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"defaults to meters", "lng=30.5&lat=50.4", http.StatusOK},
		{"missing lat", "lng=30.5", http.StatusBadRequest},
		{"unknown unit", "lng=30.5&lat=50.4&unit=mi", http.StatusBadRequest},
		{"out of range", "lng=200&lat=50.4", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Nearest(rec, newRequest(http.MethodGet, "/api/stores/nearest?"+tt.query, "", nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestReviewHandler(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reviews := &stubReviewService{
		createFunc: func(_ context.Context, userID string, in domain.NewReview) (*domain.Review, error) {
			if in.ProductID == "dup" {
				return nil, domain.ErrDuplicateReview
			}
			return &domain.Review{ID: "r1", UserID: userID, ProductID: in.ProductID, Rating: in.Rating, Comment: in.Comment, CreatedAt: created}, nil
		},
		listFunc: func(_ context.Context, f domain.ReviewFilter) (*domain.ReviewList, error) {
			return &domain.ReviewList{
				Page:  domain.NewPage([]domain.Review{{ID: "r1", ProductID: f.ProductID, Rating: 5}}, 3, domain.PageRequest{Page: 1, Limit: 1}),
				Stats: domain.ReviewStats{Count: 3, AvgRating: 4.33, Distribution: [6]int{0, 0, 0, 1, 0, 2}},
			}, nil
		},
	}
	h := NewReviewHandler(reviews)

	rec := httptest.NewRecorder()
	h.Create(rec, newRequest(http.MethodPost, "/api/reviews", `{"productId":"p1","rating":5,"comment":"works"}`, customer))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"data":{"id":"r1","userId":"u1","productId":"p1","rating":5,"comment":"works","createdAt":"2026-03-01T12:00:00Z"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.Create(rec, newRequest(http.MethodPost, "/api/reviews", `{"productId":"dup","rating":4}`, customer))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, domain.ReasonDuplicateReview, errorReason(t, rec))

	rec = httptest.NewRecorder()
	h.Create(rec, newRequest(http.MethodPost, "/api/reviews", `{"productId":"p1","rating":6}`, customer))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.List(rec, newRequest(http.MethodGet, "/api/reviews?productId=p1&limit=1", "", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, map[string]any{
		"count":        float64(3),
		"avgRating":    4.33,
		"distribution": map[string]any{"1": float64(0), "2": float64(0), "3": float64(1), "4": float64(0), "5": float64(2)},
	}, body["stats"])
	assert.Equal(t, float64(3), body["meta"].(map[string]any)["pages"])
}

// =============================================================================
// Auth, users & health
// =============================================================================

func testSession() *domain.Session {
	return &domain.Session{
		User:   &domain.User{ID: "u1", Name: "Ana", Email: "ana@example.com", Role: domain.RoleCustomer},
		Tokens: domain.TokenPair{AccessToken: "acc", RefreshToken: "ref", ExpiresIn: 15 * time.Minute},
	}
}

func TestAuthHandler(t *testing.T) {
	var revoked string
	authSvc := &stubAuthService{
		registerFunc: func(_ context.Context, in domain.Registration) (*domain.Session, error) {
			if in.Email == "taken@example.com" {
				return nil, domain.ErrEmailTaken
			}
			return testSession(), nil
		},
		loginFunc: func(_ context.Context, email, password string) (*domain.Session, error) {
			if password != "Secret123" {
				return nil, domain.ErrInvalidCredentials
			}
			return testSession(), nil
		},
		refreshFunc: func(_ context.Context, token string) (*domain.Session, error) {
			if token != "ref" {
				return nil, domain.ErrTokenRevoked
			}
			return testSession(), nil
		},
		logoutFunc: func(_ context.Context, token string) error {
			revoked = token
			return nil
		},
	}
	h := NewAuthHandler(authSvc, &stubUserService{})

	tests := []struct {
		name       string
		call       http.HandlerFunc
		body       string
		wantStatus int
		wantReason string
	}{
		{"register", h.Register, `{"name":"Ana","email":"ana@example.com","password":"Secret123"}`, http.StatusCreated, ""},
		{"register bad email", h.Register, `{"name":"Ana","email":"nope","password":"Secret123"}`, http.StatusBadRequest, domain.ReasonInvalidInput},
		{"register taken", h.Register, `{"name":"Ana","email":"taken@example.com","password":"Secret123"}`, http.StatusConflict, domain.ReasonEmailTaken},
		{"login", h.Login, `{"email":"ana@example.com","password":"Secret123"}`, http.StatusOK, ""},
		{"login wrong password", h.Login, `{"email":"ana@example.com","password":"nope"}`, http.StatusUnauthorized, domain.ReasonInvalidCredentials},
		{"refresh", h.Refresh, `{"refreshToken":"ref"}`, http.StatusOK, ""},
		{"refresh revoked", h.Refresh, `{"refreshToken":"old"}`, http.StatusUnauthorized, domain.ReasonTokenRevoked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.call(rec, newRequest(http.MethodPost, "/api/auth", tt.body, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantReason != "" {
				assert.Equal(t, tt.wantReason, errorReason(t, rec))
				return
			}
			data := decode(t, rec)["data"].(map[string]any)
			assert.Equal(t, "acc", data["accessToken"])
			assert.Equal(t, float64(900), data["expiresIn"])
			assert.NotContains(t, data["user"], "passwordHash")
		})
	}

	// Logout revokes the token the bearer middleware stashed.
	var logout http.Handler = http.HandlerFunc(h.Logout)
	logout = middleware.WithIdentity(staticAuthn{customer})(logout)
	req := newRequest(http.MethodPost, "/api/auth/logout", "", nil)
	req.Header.Set("Authorization", "Bearer acc")
	rec := httptest.NewRecorder()
	logout.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "acc", revoked)
}

type staticAuthn struct{ id *domain.Identity }

func (s staticAuthn) Authenticate(context.Context, string) (*domain.Identity, error) {
	return s.id, nil
}

func TestUserHandler_UpdateMe(t *testing.T) {
	var got domain.ProfileUpdate
	users := &stubUserService{
		updateFunc: func(_ context.Context, id string, in domain.ProfileUpdate) (*domain.User, error) {
			got = in
			if in.Email != nil && *in.Email == "taken@example.com" {
				return nil, domain.ErrEmailTaken
			}
			return &domain.User{ID: id, Name: *in.Name, Role: domain.RoleCustomer}, nil
		},
	}
	h := NewUserHandler(users)

	rec := httptest.NewRecorder()
	h.UpdateMe(rec, newRequest(http.MethodPatch, "/api/users/me", `{"name":"Ana B"}`, customer))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got.Name)
	assert.Equal(t, "Ana B", *got.Name)
	assert.Nil(t, got.Email)
	assert.Nil(t, got.Phone)

	rec = httptest.NewRecorder()
	h.UpdateMe(rec, newRequest(http.MethodPatch, "/api/users/me", `{"name":"Ana","email":"taken@example.com"}`, customer))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	h.UpdateMe(rec, newRequest(http.MethodPatch, "/api/users/me", `{"role":"admin"}`, customer))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "role cannot be self-assigned")
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(stubPinger{}).Health(rec, newRequest(http.MethodGet, "/health", "", nil))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	NewHealthHandler(stubPinger{}).Ready(rec, newRequest(http.MethodGet, "/ready", "", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	NewHealthHandler(stubPinger{err: errors.New("server selection timeout")}).Ready(rec, newRequest(http.MethodGet, "/ready", "", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, domain.ReasonDatabaseUnavailable, errorReason(t, rec))
}

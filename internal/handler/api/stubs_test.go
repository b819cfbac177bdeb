package api

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/epharmacy/internal/domain"
)

// Hand-written stubs; each method delegates to its func field when set.

type stubAuthService struct {
	registerFunc func(ctx context.Context, in domain.Registration) (*domain.Session, error)
	loginFunc    func(ctx context.Context, email, password string) (*domain.Session, error)
	refreshFunc  func(ctx context.Context, token string) (*domain.Session, error)
	logoutFunc   func(ctx context.Context, token string) error
}

func (s *stubAuthService) Register(ctx context.Context, in domain.Registration) (*domain.Session, error) {
	return s.registerFunc(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	return s.loginFunc(ctx, email, password)
}

func (s *stubAuthService) Refresh(ctx context.Context, token string) (*domain.Session, error) {
	return s.refreshFunc(ctx, token)
}

func (s *stubAuthService) Logout(ctx context.Context, token string) error {
	return s.logoutFunc(ctx, token)
}

func (s *stubAuthService) Authenticate(context.Context, string) (*domain.Identity, error) {
	return nil, domain.ErrInvalidToken
}

type stubUserService struct {
	getFunc    func(ctx context.Context, id string) (*domain.User, error)
	updateFunc func(ctx context.Context, id string, in domain.ProfileUpdate) (*domain.User, error)
	listFunc   func(ctx context.Context, page domain.PageRequest) (*domain.Page[domain.User], error)
}

func (s *stubUserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.getFunc(ctx, id)
}

func (s *stubUserService) UpdateProfile(ctx context.Context, id string, in domain.ProfileUpdate) (*domain.User, error) {
	return s.updateFunc(ctx, id, in)
}

func (s *stubUserService) ListUsers(ctx context.Context, page domain.PageRequest) (*domain.Page[domain.User], error) {
	return s.listFunc(ctx, page)
}

type stubProductService struct {
	listFunc func(ctx context.Context, f domain.ProductFilter) (*domain.Page[domain.Product], error)
	getFunc  func(ctx context.Context, id string) (*domain.Product, error)
}

func (s *stubProductService) ListProducts(ctx context.Context, f domain.ProductFilter) (*domain.Page[domain.Product], error) {
	return s.listFunc(ctx, f)
}

func (s *stubProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.getFunc(ctx, id)
}

type stubPharmacyService struct {
	listFunc    func(ctx context.Context, f domain.PharmacyFilter) (*domain.Page[domain.Pharmacy], error)
	nearestFunc func(ctx context.Context, q domain.NearestQuery) ([]domain.PharmacyDistance, error)
}

func (s *stubPharmacyService) ListPharmacies(ctx context.Context, f domain.PharmacyFilter) (*domain.Page[domain.Pharmacy], error) {
	return s.listFunc(ctx, f)
}

func (s *stubPharmacyService) Nearest(ctx context.Context, q domain.NearestQuery) ([]domain.PharmacyDistance, error) {
	return s.nearestFunc(ctx, q)
}

type stubCartService struct {
	getFunc    func(ctx context.Context, userID string) (*domain.CartView, error)
	updateFunc func(ctx context.Context, userID string, items []domain.CartUpdate) (*domain.CartView, error)
}

func (s *stubCartService) GetCart(ctx context.Context, userID string) (*domain.CartView, error) {
	return s.getFunc(ctx, userID)
}

func (s *stubCartService) UpdateCart(ctx context.Context, userID string, items []domain.CartUpdate) (*domain.CartView, error) {
	return s.updateFunc(ctx, userID, items)
}

type stubCheckoutService struct {
	checkoutFunc func(ctx context.Context, userID string, clientTotal *decimal.Decimal) (*domain.CheckoutResult, error)
}

func (s *stubCheckoutService) Checkout(ctx context.Context, userID string, clientTotal *decimal.Decimal) (*domain.CheckoutResult, error) {
	return s.checkoutFunc(ctx, userID, clientTotal)
}

type stubOrderService struct {
	mineFunc   func(ctx context.Context, userID string, page domain.PageRequest) (*domain.Page[domain.Order], error)
	listFunc   func(ctx context.Context, f domain.OrderFilter) (*domain.Page[domain.Order], error)
	getFunc    func(ctx context.Context, caller *domain.Identity, id string) (*domain.Order, error)
	statusFunc func(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
}

func (s *stubOrderService) ListMyOrders(ctx context.Context, userID string, page domain.PageRequest) (*domain.Page[domain.Order], error) {
	return s.mineFunc(ctx, userID, page)
}

func (s *stubOrderService) ListOrders(ctx context.Context, f domain.OrderFilter) (*domain.Page[domain.Order], error) {
	return s.listFunc(ctx, f)
}

func (s *stubOrderService) GetOrder(ctx context.Context, caller *domain.Identity, id string) (*domain.Order, error) {
	return s.getFunc(ctx, caller, id)
}

func (s *stubOrderService) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	return s.statusFunc(ctx, id, status)
}

type stubReviewService struct {
	createFunc func(ctx context.Context, userID string, in domain.NewReview) (*domain.Review, error)
	listFunc   func(ctx context.Context, f domain.ReviewFilter) (*domain.ReviewList, error)
}

func (s *stubReviewService) CreateReview(ctx context.Context, userID string, in domain.NewReview) (*domain.Review, error) {
	return s.createFunc(ctx, userID, in)
}

func (s *stubReviewService) ListReviews(ctx context.Context, f domain.ReviewFilter) (*domain.ReviewList, error) {
	return s.listFunc(ctx, f)
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/dukerupert/epharmacy/internal/auth"
	"github.com/dukerupert/epharmacy/internal/domain"
	"github.com/dukerupert/epharmacy/internal/telemetry"
)

// AuthService implements domain.AuthService with bcrypt passwords and
// JWT bearer tokens. Logout revokes the access token by storing its hash
// until the token would have expired anyway.
type AuthService struct {
	users   domain.UserStore
	revoked domain.TokenStore
	tokens  *auth.TokenManager
	metrics *telemetry.BusinessMetrics
	logger  *slog.Logger
}

var _ domain.AuthService = (*AuthService)(nil)

// NewAuthService creates an auth service.
func NewAuthService(store domain.Store, tokens *auth.TokenManager, metrics *telemetry.BusinessMetrics, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:   store.Users(),
		revoked: store.Tokens(),
		tokens:  tokens,
		metrics: metrics,
		logger:  logger,
	}
}

// Register creates a customer account and signs it in.
func (s *AuthService) Register(ctx context.Context, in domain.Registration) (*domain.Session, error) {
	const op = "auth.register"

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	var verr error
	if in.Name == "" {
		verr = domain.AddFieldError(verr, "name", "is required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil || in.Email == "" {
		verr = domain.AddFieldError(verr, "email", "must be a valid email address")
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		verr = domain.AddFieldError(verr, "password", err.Error())
	}
	if verr != nil {
		return nil, verr
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to hash password")
	}

	user := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: hash,
		Role:         domain.RoleCustomer,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.ErrEmailTaken
		}
		return nil, storeErr(err, op, "failed to create user")
	}

	s.metrics.RecordSignup()
	s.logger.Info("user registered", "user_id", user.ID)
	return s.session(op, user)
}

// Login verifies credentials. Unknown email and wrong password produce the
// same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	const op = "auth.login"

	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNoDocument) {
			s.metrics.RecordLogin("invalid")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, storeErr(err, op, "failed to load user")
	}

	if err := auth.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.metrics.RecordLogin("invalid")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, domain.Internal(err, op, "failed to verify password")
	}

	s.metrics.RecordLogin("ok")
	return s.session(op, user)
}

// Refresh exchanges a refresh token for a new token pair. The user is
// reloaded so role changes take effect.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	const op = "auth.refresh"

	claims, err := s.tokens.Verify(refreshToken, auth.TypeRefresh)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	if err := s.checkRevoked(ctx, op, refreshToken); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, notFoundOr(err, domain.ErrInvalidToken, op, "failed to load user")
	}

	// The old refresh token is single use.
	if err := s.revoked.Revoke(ctx, auth.HashToken(refreshToken), claims.ExpiresAt.Time); err != nil {
		return nil, storeErr(err, op, "failed to rotate refresh token")
	}
	return s.session(op, user)
}

// Logout revokes the access token.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	const op = "auth.logout"

	claims, err := s.tokens.Verify(accessToken, auth.TypeAccess)
	if err != nil {
		return domain.ErrInvalidToken
	}
	if err := s.revoked.Revoke(ctx, auth.HashToken(accessToken), claims.ExpiresAt.Time); err != nil {
		return storeErr(err, op, "failed to revoke token")
	}

	s.metrics.RecordLogout()
	s.logger.Info("user logged out", "user_id", claims.Subject)
	return nil
}

// Authenticate verifies an access token and returns the caller's identity.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*domain.Identity, error) {
	const op = "auth.authenticate"

	claims, err := s.tokens.Verify(accessToken, auth.TypeAccess)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	if err := s.checkRevoked(ctx, op, accessToken); err != nil {
		return nil, err
	}
	return &domain.Identity{
		UserID: claims.Subject,
		Role:   claims.Role,
		Email:  claims.Email,
		Name:   claims.Name,
	}, nil
}

func (s *AuthService) checkRevoked(ctx context.Context, op, token string) error {
	revoked, err := s.revoked.IsRevoked(ctx, auth.HashToken(token))
	if err != nil {
		return storeErr(err, op, "failed to check token")
	}
	if revoked {
		return domain.ErrTokenRevoked
	}
	return nil
}

func (s *AuthService) session(op string, user *domain.User) (*domain.Session, error) {
	access, refresh, err := s.tokens.Issue(auth.Subject{
		UserID: user.ID,
		Role:   user.Role,
		Email:  user.Email,
		Name:   user.Name,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to issue tokens")
	}
	return &domain.Session{
		User: user,
		Tokens: domain.TokenPair{
			AccessToken:  access,
			RefreshToken: refresh,
			ExpiresIn:    s.tokens.AccessTTL().Round(time.Second),
		},
	}, nil
}

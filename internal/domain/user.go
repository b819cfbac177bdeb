package domain

import (
	"context"
	"time"
)

// =============================================================================
// USER DOMAIN TYPES
// =============================================================================

// User-related domain errors.
var (
	ErrUserNotFound       = &Error{Code: ENOTFOUND, Message: "User not found"}
	ErrEmailTaken         = &Error{Code: ECONFLICT, Reason: ReasonEmailTaken, Message: "Email already registered"}
	ErrInvalidCredentials = &Error{Code: EUNAUTHORIZED, Reason: ReasonInvalidCredentials, Message: "Invalid email or password"}
	ErrTokenRevoked       = &Error{Code: EUNAUTHORIZED, Reason: ReasonTokenRevoked, Message: "Token has been revoked"}
	ErrInvalidToken       = &Error{Code: EUNAUTHORIZED, Message: "Invalid or expired token"}
)

// User is a registered account.
type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity returns the claims-side view of the user.
func (u *User) Identity() *Identity {
	return &Identity{UserID: u.ID, Role: u.Role, Email: u.Email, Name: u.Name}
}

// Registration is the input to account creation.
type Registration struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// ProfileUpdate holds optional profile changes. Nil fields are left alone.
type ProfileUpdate struct {
	Name  *string
	Email *string
	Phone *string
}

// TokenPair is an issued access and refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// Session is the result of a successful register or login.
type Session struct {
	User   *User
	Tokens TokenPair
}

// AuthService provides account and token operations.
type AuthService interface {
	Register(ctx context.Context, in Registration) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	Logout(ctx context.Context, accessToken string) error

	// Authenticate verifies an access token and returns the caller.
	Authenticate(ctx context.Context, accessToken string) (*Identity, error)
}

// UserService provides profile management.
type UserService interface {
	GetUser(ctx context.Context, userID string) (*User, error)
	UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (*User, error)
	ListUsers(ctx context.Context, page PageRequest) (*Page[User], error)
}

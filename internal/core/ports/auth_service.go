package ports

import (
	"context"

	"github.com/99minutos/identity-service/internal/core/domain"
)

// RegisterInput is the already-validated registration payload.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// LoginInput is the already-validated login payload.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult bundles the sanitized user with a fresh token pair.
type AuthResult struct {
	User   domain.PublicUser `json:"user"`
	Tokens domain.TokenPair  `json:"tokens"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, in LoginInput) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error)
	Profile(ctx context.Context, userID string) (*domain.PublicUser, error)
	Logout(ctx context.Context, claims domain.Claims) error
}

// PasswordHasher hashes and verifies credentials. Verify never fails on a
// malformed hash; it reports false instead.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, hash string) bool
}

// TokenIssuer signs and verifies access/refresh token pairs.
type TokenIssuer interface {
	IssuePair(claims domain.Claims) (domain.TokenPair, error)
	VerifyAccess(token string) (domain.Claims, error)
	VerifyRefresh(token string) (domain.Claims, error)
}

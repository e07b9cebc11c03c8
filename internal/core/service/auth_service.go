package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/99minutos/identity-service/internal/core/domain"
	"github.com/99minutos/identity-service/internal/core/ports"
	"github.com/99minutos/identity-service/internal/metrics"
)

// dummyPassword is hashed once and verified against when the email is
// unknown, so that login timing does not reveal which emails exist.
const dummyPassword = "identity-timing-equalizer"

// fallbackDummyHash is a well-formed bcrypt hash at DefaultCost, verified
// against when dummyPassword could not be hashed.
const fallbackDummyHash = "$2a$12$N9qo8uLOickgx2ZMRZoMyeIvNq.Uf3hE9tQALNP1Qn9sNp5x5x5x5"

// AuthService implements registration, login, token refresh and profile
// lookup.
type AuthService struct {
	dir    *Directory
	hasher ports.PasswordHasher
	tokens ports.TokenIssuer
	log    zerolog.Logger

	dummyMu   sync.Mutex
	dummyHash string
}

var _ ports.AuthService = (*AuthService)(nil)

func NewAuthService(dir *Directory, hasher ports.PasswordHasher, tokens ports.TokenIssuer, log zerolog.Logger) *AuthService {
	return &AuthService{dir: dir, hasher: hasher, tokens: tokens, log: log}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	if _, err := s.dir.FindByEmail(ctx, in.Email); err == nil {
		metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("register: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("register: %w", err)
	}

	// The lookup above is advisory; a concurrent registration is caught by
	// the store's uniqueness guarantee here.
	user, err := s.dir.Create(ctx, domain.NewUser{
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         domain.RoleUser,
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
			return nil, domain.ErrUserExists
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("register: %w", err)
	}

	tokens, err := s.tokens.IssuePair(user.Claims())
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("register: %w", err)
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("user_id", user.ID).Msg("user registered")
	return &ports.AuthResult{User: user.Public(), Tokens: tokens}, nil
}

// Login authenticates by email and password. Unknown email and wrong
// password produce the same error after comparable work.
//
// The password is checked before the active flag, the reverse of a plain
// lookup-then-status flow: a deactivated account with a wrong password gets
// ErrInvalidCredentials, and only the holder of the correct password learns
// that the account is deactivated.
func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error) {
	user, err := s.dir.FindByEmail(ctx, in.Email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			metrics.LoginsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("login: %w", err)
		}
		s.hasher.Verify(ctx, in.Password, s.dummy(ctx))
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	if !s.hasher.Verify(ctx, in.Password, user.PasswordHash) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("login: %w", err)
		}
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	if !user.IsActive {
		metrics.LoginsTotal.WithLabelValues("deactivated").Inc()
		return nil, domain.ErrAccountDeactivated
	}

	tokens, err := s.tokens.IssuePair(user.Claims())
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("user_id", user.ID).Msg("user logged in")
	return &ports.AuthResult{User: user.Public(), Tokens: tokens}, nil
}

// Refresh exchanges a valid refresh token for a new pair. The pair is built
// from the current directory record, so role and email changes made since
// the token was issued take effect, and removed or deactivated users are
// refused.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		metrics.TokenRefreshesTotal.WithLabelValues("invalid_token").Inc()
		return domain.TokenPair{}, domain.ErrInvalidToken
	}

	user, err := s.dir.FindByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.TokenRefreshesTotal.WithLabelValues("rejected_user").Inc()
			return domain.TokenPair{}, domain.ErrInvalidToken
		}
		metrics.TokenRefreshesTotal.WithLabelValues("error").Inc()
		return domain.TokenPair{}, fmt.Errorf("refresh: %w", err)
	}
	if !user.IsActive {
		metrics.TokenRefreshesTotal.WithLabelValues("rejected_user").Inc()
		return domain.TokenPair{}, domain.ErrAccountDeactivated
	}

	pair, err := s.tokens.IssuePair(user.Claims())
	if err != nil {
		metrics.TokenRefreshesTotal.WithLabelValues("error").Inc()
		return domain.TokenPair{}, fmt.Errorf("refresh: %w", err)
	}
	metrics.TokenRefreshesTotal.WithLabelValues("success").Inc()
	return pair, nil
}

func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.PublicUser, error) {
	user, err := s.dir.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	pub := user.Public()
	return &pub, nil
}

// Logout is a no-op: tokens are stateless and expire on their own.
func (s *AuthService) Logout(_ context.Context, claims domain.Claims) error {
	s.log.Info().Str("user_id", claims.ID).Msg("user logged out")
	return nil
}

// SeedAdmin creates an active ADMIN account unless the email is already
// registered. It reports whether a user was created.
func (s *AuthService) SeedAdmin(ctx context.Context, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}
	if _, err := s.dir.FindByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return false, fmt.Errorf("seed admin: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	user, err := s.dir.Create(ctx, domain.NewUser{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Admin",
		LastName:     "User",
		Role:         domain.RoleAdmin,
		IsActive:     true,
	})
	if errors.Is(err, domain.ErrUserExists) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	s.log.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("admin user seeded")
	return true, nil
}

// dummy lazily hashes dummyPassword with the configured cost. A failed
// attempt falls back to fallbackDummyHash and is retried on the next call.
func (s *AuthService) dummy(ctx context.Context) string {
	s.dummyMu.Lock()
	defer s.dummyMu.Unlock()

	if s.dummyHash == "" {
		hash, err := s.hasher.Hash(ctx, dummyPassword)
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to prepare dummy password hash")
			return fallbackDummyHash
		}
		s.dummyHash = hash
	}
	return s.dummyHash
}

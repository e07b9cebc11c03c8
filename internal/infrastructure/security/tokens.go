package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/99minutos/identity-service/internal/core/domain"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

type tokenClaims struct {
	UserID    string           `json:"id"`
	Email     string           `json:"email"`
	Role      domain.Role      `json:"role"`
	TokenType domain.TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// TokenConfig holds the signing material. Access and refresh secrets must be
// distinct so a token of one class can never verify as the other.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenService issues and verifies HS256 access/refresh token pairs.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("token service: access and refresh secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("token service: access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	return &TokenService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}, nil
}

// IssuePair signs a fresh access and refresh token for claims.
func (s *TokenService) IssuePair(claims domain.Claims) (domain.TokenPair, error) {
	access, err := s.sign(claims, domain.TokenAccess, s.accessSecret, s.accessTTL)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.sign(claims, domain.TokenRefresh, s.refreshSecret, s.refreshTTL)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *TokenService) VerifyAccess(token string) (domain.Claims, error) {
	return s.verify(token, domain.TokenAccess, s.accessSecret)
}

func (s *TokenService) VerifyRefresh(token string) (domain.Claims, error) {
	return s.verify(token, domain.TokenRefresh, s.refreshSecret)
}

func (s *TokenService) sign(c domain.Claims, typ domain.TokenType, secret []byte, ttl time.Duration) (string, error) {
	if c.ID == "" || !c.Role.Valid() {
		return "", fmt.Errorf("%w: claims need a user id and a known role", domain.ErrInvalidToken)
	}
	now := s.now().UTC()
	claims := tokenClaims{
		UserID:    c.ID,
		Email:     c.Email,
		Role:      c.Role,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   c.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (s *TokenService) verify(raw string, typ domain.TokenType, secret []byte) (domain.Claims, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return domain.Claims{}, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	if claims.TokenType != typ || claims.UserID == "" || !claims.Role.Valid() {
		return domain.Claims{}, domain.ErrInvalidToken
	}
	return domain.Claims{ID: claims.UserID, Email: claims.Email, Role: claims.Role}, nil
}

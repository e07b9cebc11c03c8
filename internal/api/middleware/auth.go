package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/identity-service/internal/core/domain"
)

const claimsKey = "claims"

type ctxKey struct{}

// AccessVerifier verifies access tokens. *security.TokenService satisfies it.
type AccessVerifier interface {
	VerifyAccess(token string) (domain.Claims, error)
}

// Authenticate requires a valid "Authorization: Bearer <token>" header and
// attaches the verified claims to the echo and request contexts. Failures
// are returned to the central error handler.
func Authenticate(verifier AccessVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return domain.ErrNoToken
			}

			claims, err := verifier.VerifyAccess(token)
			if err != nil {
				return domain.ErrInvalidToken
			}

			c.Set(claimsKey, claims)
			req := c.Request()
			c.SetRequest(req.WithContext(context.WithValue(req.Context(), ctxKey{}, claims)))
			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// ClaimsFrom returns the claims attached by Authenticate.
func ClaimsFrom(c echo.Context) (domain.Claims, bool) {
	claims, ok := c.Get(claimsKey).(domain.Claims)
	return claims, ok && claims.ID != ""
}

// ClaimsFromContext returns the claims attached by Authenticate to a request
// context.
func ClaimsFromContext(ctx context.Context) (domain.Claims, bool) {
	claims, ok := ctx.Value(ctxKey{}).(domain.Claims)
	return claims, ok && claims.ID != ""
}

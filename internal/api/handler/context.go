package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/identity-service/internal/api/middleware"
	"github.com/99minutos/identity-service/internal/core/domain"
)

// requester returns the claims placed on the context by the Authenticate
// middleware. Reaching a protected handler without them is a wiring bug, but
// it still fails closed.
func requester(c echo.Context) (domain.Claims, error) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return domain.Claims{}, domain.ErrUnauthenticated
	}
	return claims, nil
}

// bind decodes the body into req and validates it. Undecodable bodies are a
// 400; field violations surface as *domain.ValidationError.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return c.Validate(req)
}

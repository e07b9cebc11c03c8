package handler

import "github.com/99minutos/identity-service/internal/core/domain"

// --- Request types ---

type registerRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type updateProfileRequest struct {
	FirstName *string `json:"first_name" validate:"omitnil,max=100"`
	LastName  *string `json:"last_name" validate:"omitnil,max=100"`
	Email     *string `json:"email" validate:"omitnil,email,max=254"`
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=USER ADMIN MODERATOR"`
}

type setStatusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// --- Response types (documentation only; bodies are wrapped in envelope) ---

type authResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Data    authResponseData `json:"data"`
}

type authResponseData struct {
	User   domain.PublicUser `json:"user"`
	Tokens domain.TokenPair  `json:"tokens"`
}

type tokensResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Data    domain.TokenPair `json:"data"`
}

type userResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    domain.PublicUser `json:"data"`
}

type usersResponse struct {
	Success bool                `json:"success"`
	Data    []domain.PublicUser `json:"data"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type errorBody struct {
	Error   string                  `json:"error"`
	Details []domain.FieldViolation `json:"details,omitempty"`
}

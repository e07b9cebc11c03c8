package ports

import (
	"context"

	"github.com/99minutos/identity-service/internal/core/domain"
)

// UpdateProfileInput carries the self-service profile fields. Nil means
// "leave unchanged".
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Email     *string
}

// UserService covers user management: self-service profile edits and the
// admin-only operations on other accounts.
type UserService interface {
	List(ctx context.Context) ([]domain.PublicUser, error)
	Get(ctx context.Context, id string) (*domain.PublicUser, error)
	UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*domain.PublicUser, error)
	ChangeRole(ctx context.Context, targetID string, role domain.Role, requesterID string) (*domain.PublicUser, error)
	SetActive(ctx context.Context, targetID string, active bool, requesterID string) (*domain.PublicUser, error)
	Delete(ctx context.Context, targetID, requesterID string) error
}
